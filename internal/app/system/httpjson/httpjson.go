// Package httpjson is the JSON boundary layer: request decoding, response
// envelopes, and the single place where the apperr taxonomy is translated to
// HTTP status codes.
//
// Response envelope, matching the wire shape clients already consume:
//
//	{ "success": bool, "message": "...", "data": ... }
package httpjson

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/wirastama/manpro/internal/app/system/apperr"
)

// devMode controls whether 5xx responses include error detail. Set once at
// startup from the core config; never enabled in production.
var devMode bool

// SetDevMode toggles error detail on 5xx responses.
func SetDevMode(on bool) { devMode = on }

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Respond writes a success envelope with the given status and payload.
func Respond(w http.ResponseWriter, status int, message string, data any) {
	write(w, status, envelope{Success: true, Message: message, Data: data})
}

// Fail writes a failure envelope with an explicit status. Use Error when the
// status should be derived from the error's kind.
func Fail(w http.ResponseWriter, status int, message string) {
	write(w, status, envelope{Success: false, Message: message})
}

// Error translates err into a response. Taxonomy errors map to 4xx with
// their own message; anything else is a 500 with detail suppressed unless
// dev mode is on. log may be nil.
func Error(w http.ResponseWriter, log *zap.Logger, err error) {
	switch {
	case apperr.IsNotFound(err):
		write(w, http.StatusNotFound, envelope{Success: false, Message: err.Error()})
	case errors.Is(err, apperr.ErrInvalidToken):
		write(w, http.StatusNotFound, envelope{Success: false, Message: err.Error()})
	case errors.Is(err, apperr.ErrExpiredToken),
		errors.Is(err, apperr.ErrIncompleteRegistration),
		errors.Is(err, apperr.ErrAlreadyMember):
		write(w, http.StatusBadRequest, envelope{Success: false, Message: err.Error()})
	case errors.Is(err, apperr.ErrNotAMember), apperr.IsForbidden(err):
		write(w, http.StatusForbidden, envelope{Success: false, Message: err.Error()})
	default:
		if log != nil {
			log.Error("internal error", zap.Error(err))
		}
		env := envelope{Success: false, Message: "terjadi kesalahan pada server"}
		if devMode {
			env.Error = err.Error()
		}
		write(w, http.StatusInternalServerError, env)
	}
}

// Decode parses the request body into dst. Unknown fields are tolerated
// (clients send extra fields freely); malformed JSON is not.
func Decode(r *http.Request, dst any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}

func write(w http.ResponseWriter, status int, env envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}
