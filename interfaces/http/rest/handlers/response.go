package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"recipebook/application/commands/bus"
	querybus "recipebook/application/queries/bus"
	"recipebook/pkg/auth"
	pkgerrors "recipebook/pkg/errors"
)

// maxBodyBytes bounds JSON request bodies
const maxBodyBytes = 1 << 20

// responder renders JSON bodies and errors for every handler in this package
type responder struct {
	errors *pkgerrors.ErrorHandler
	logger *zap.Logger
}

func (h responder) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

// respondError maps bus errors onto AppErrors before rendering.
// Validation failures without field detail become plain 400s.
func (h responder) respondError(w http.ResponseWriter, r *http.Request, err error) {
	if pkgerrors.GetAppError(err) == nil &&
		(errors.Is(err, bus.ErrValidationFailed) || errors.Is(err, querybus.ErrQueryValidationFailed)) {
		err = pkgerrors.NewValidationError(validationMessage(err)).WithCause(err)
	}
	h.errors.Handle(w, r, err)
}

func (h responder) respondStatus(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.errors.HandleStatus(w, r, status, message)
}

// decodeJSON reads a bounded JSON body, rejecting unknown fields
func (h responder) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		h.respondStatus(w, r, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

// user returns the authenticated caller, writing a 401 when there is none
func (h responder) user(w http.ResponseWriter, r *http.Request) (*auth.UserContext, bool) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.respondStatus(w, r, http.StatusUnauthorized, "Unauthorized")
		return nil, false
	}
	return userCtx, true
}

// validationMessage strips the bus prefix from a validation error
func validationMessage(err error) string {
	msg := err.Error()
	for _, prefix := range []string{bus.ErrValidationFailed.Error() + ": ", querybus.ErrQueryValidationFailed.Error() + ": "} {
		if i := strings.Index(msg, prefix); i >= 0 {
			return msg[i+len(prefix):]
		}
	}
	return msg
}
