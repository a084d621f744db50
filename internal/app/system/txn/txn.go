// Package txn provides helpers for best-effort multi-document transactions.
//
// Membership writes touch two collections. On replica sets the two writes
// run inside one transaction; on standalone deployments (where Mongo rejects
// transactions) the caller falls back to ordered idempotent writes. The
// fallback is correct because every membership mutation is idempotent on
// both sides; see the membership package.
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
)

// codes Mongo returns when the deployment cannot run transactions.
var notSupportedCodes = map[int32]bool{
	20:  true, // IllegalOperation: transaction numbers only on replica set members
	51:  true, // illegal operation
	263: true, // operation not permitted in transaction
}

// IsNotSupported reports whether err indicates the server cannot run
// multi-document transactions (standalone deployment, old server), as
// opposed to a transaction that failed for a real reason.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return notSupportedCodes[cmdErr.Code]
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "transaction") && strings.Contains(msg, "replica set") {
		return true
	}
	if strings.Contains(msg, "session") && strings.Contains(msg, "not supported") {
		return true
	}
	if strings.Contains(msg, "transaction") && strings.Contains(msg, "session") {
		return true
	}
	if strings.Contains(msg, "illegal operation") && strings.Contains(msg, "transaction") {
		return true
	}
	return false
}

// WithFallback runs fn inside a transaction when the deployment supports
// them, and plainly otherwise. fn must be safe to run without a transaction
// (idempotent, ordered so partial failure is recoverable), because the
// fallback gives no atomicity.
func WithFallback(ctx context.Context, client *mongo.Client, fn func(ctx context.Context) error) error {
	if client == nil {
		return fn(ctx)
	}

	sess, err := client.StartSession()
	if err != nil {
		if IsNotSupported(err) {
			return fn(ctx)
		}
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		return fn(ctx)
	}
	return err
}
