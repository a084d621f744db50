// internal/app/policy/workspacepolicy/workspacepolicy.go
package workspacepolicy

import (
	"context"
	"errors"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/wirastama/manpro/internal/app/system/access"
	"github.com/wirastama/manpro/internal/app/system/auth"
	"github.com/wirastama/manpro/internal/app/system/hierarchy"
	"github.com/wirastama/manpro/internal/domain/models"
)

// Guard authorizes a request against the workspace that owns an entity. It
// resolves the containment chain first, so a dangling parent reference
// surfaces as that level's not-found before any permission check runs.
type Guard struct {
	resolver *hierarchy.Resolver
}

func New(resolver *hierarchy.Resolver) *Guard {
	return &Guard{resolver: resolver}
}

var errNoUser = errors.New("no authenticated user in request context")

func (g *Guard) authorize(r *http.Request, chain *hierarchy.Chain, roles []string) (access.Principal, error) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return access.Principal{}, errNoUser
	}
	return access.Require(user, chain.Workspace, roles...)
}

// Workspace resolves and authorizes an operation on the workspace itself.
func (g *Guard) Workspace(ctx context.Context, r *http.Request, id primitive.ObjectID, roles ...string) (*hierarchy.Chain, access.Principal, error) {
	chain, err := g.resolver.FromWorkspace(ctx, id)
	if err != nil {
		return nil, access.Principal{}, err
	}
	p, err := g.authorize(r, chain, roles)
	if err != nil {
		return nil, access.Principal{}, err
	}
	return chain, p, nil
}

// Project resolves project → workspace and authorizes.
func (g *Guard) Project(ctx context.Context, r *http.Request, id primitive.ObjectID, roles ...string) (*hierarchy.Chain, access.Principal, error) {
	chain, err := g.resolver.FromProject(ctx, id)
	if err != nil {
		return nil, access.Principal{}, err
	}
	p, err := g.authorize(r, chain, roles)
	if err != nil {
		return nil, access.Principal{}, err
	}
	return chain, p, nil
}

// Group resolves group → project → workspace and authorizes.
func (g *Guard) Group(ctx context.Context, r *http.Request, id primitive.ObjectID, roles ...string) (*hierarchy.Chain, access.Principal, error) {
	chain, err := g.resolver.FromGroup(ctx, id)
	if err != nil {
		return nil, access.Principal{}, err
	}
	p, err := g.authorize(r, chain, roles)
	if err != nil {
		return nil, access.Principal{}, err
	}
	return chain, p, nil
}

// Task resolves the task's full parent chain and authorizes.
func (g *Guard) Task(ctx context.Context, r *http.Request, id primitive.ObjectID, roles ...string) (*hierarchy.Chain, access.Principal, error) {
	chain, err := g.resolver.FromTask(ctx, id)
	if err != nil {
		return nil, access.Principal{}, err
	}
	p, err := g.authorize(r, chain, roles)
	if err != nil {
		return nil, access.Principal{}, err
	}
	return chain, p, nil
}

// Subtask resolves the subtask's full parent chain and authorizes.
func (g *Guard) Subtask(ctx context.Context, r *http.Request, id primitive.ObjectID, roles ...string) (*hierarchy.Chain, access.Principal, error) {
	chain, err := g.resolver.FromSubtask(ctx, id)
	if err != nil {
		return nil, access.Principal{}, err
	}
	p, err := g.authorize(r, chain, roles)
	if err != nil {
		return nil, access.Principal{}, err
	}
	return chain, p, nil
}

// Comment resolves the comment's task chain and authorizes.
func (g *Guard) Comment(ctx context.Context, r *http.Request, id primitive.ObjectID, roles ...string) (*hierarchy.Chain, *models.Comment, access.Principal, error) {
	chain, cm, err := g.resolver.FromComment(ctx, id)
	if err != nil {
		return nil, nil, access.Principal{}, err
	}
	p, err := g.authorize(r, chain, roles)
	if err != nil {
		return nil, nil, access.Principal{}, err
	}
	return chain, cm, p, nil
}
