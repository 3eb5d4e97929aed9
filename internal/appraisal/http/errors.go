package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/appraisal/internal/appraisal/service"
	"github.com/aussiebroadwan/appraisal/pkg/httpx"
	"github.com/aussiebroadwan/appraisal/pkg/slogx"
	"github.com/aussiebroadwan/appraisal/pkg/validx"
)

// writeServiceError maps a service failure onto the response envelope.
// Anything unrecognised is logged and reported without detail.
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if ve, ok := validx.As(err); ok {
		httpx.WriteError(w, httpx.CodeValidation, "Request validation failed", ve.Fields)
		return
	}

	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		httpx.WriteError(w, httpx.CodeUnauthenticated, "Authentication required", nil)
	case errors.Is(err, service.ErrForbidden):
		httpx.WriteError(w, httpx.CodeForbidden, "You do not have permission to do that", nil)
	case errors.Is(err, service.ErrNotFound):
		httpx.WriteError(w, httpx.CodeNotFound, err.Error(), nil)
	case errors.Is(err, service.ErrExpired):
		httpx.WriteError(w, httpx.CodeExpired, err.Error(), nil)
	case errors.Is(err, service.ErrConflict):
		httpx.WriteError(w, httpx.CodeConflict, err.Error(), nil)
	case errors.Is(err, context.Canceled):
		// Client went away; nobody is left to read the body.
		slogx.FromContext(ctx).Info("request cancelled")
	default:
		slogx.FromContext(ctx).Error("unhandled service error", slog.Any("error", err))
		httpx.WriteError(w, httpx.CodeInternal, "Internal server error", nil)
	}
}

func writeBadJSON(w http.ResponseWriter) {
	httpx.WriteError(w, httpx.CodeValidation, "Invalid JSON body", nil)
}

// actor reads the authenticated caller placed in the context by
// httpx.AuthnMiddleware.
func actor(r *http.Request) service.Actor {
	ctx := r.Context()
	id, _ := httpx.UserIDFromContext(ctx)
	email, _ := ctx.Value(httpx.CtxKeyEmail).(string)
	return service.Actor{UserID: id, Email: email}
}

func ok(w http.ResponseWriter) {
	httpx.WriteData(w, http.StatusOK, statusOK)
}
