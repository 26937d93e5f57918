package handler

import (
	"errors"
	"net/http"

	"mindconnect/internal/api"
	"mindconnect/internal/lifecycle"
	"mindconnect/internal/logging"
	"mindconnect/internal/middleware"
	"mindconnect/internal/model"
	"mindconnect/internal/session"
	"mindconnect/internal/views"
)

func mapError(err error) (int, string, string) {
	var verr *model.ValidationError
	var apiErr *api.Error
	switch {
	case errors.Is(err, errBadBody):
		return http.StatusBadRequest, "bad_request", "invalid JSON body"
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity, "invalid", verr.Error()
	case errors.Is(err, session.ErrNotAuthenticated):
		return http.StatusUnauthorized, "not_signed_in", "sign in first"
	case errors.Is(err, api.ErrUnauthorized):
		return http.StatusUnauthorized, "upstream_unauthorized", "your session has expired, sign in again"
	case errors.Is(err, lifecycle.ErrUnknownSession), errors.Is(err, views.ErrUnknownItem), errors.Is(err, api.ErrNotFound):
		return http.StatusNotFound, "not_found", "not found"
	case errors.Is(err, lifecycle.ErrForbidden):
		return http.StatusForbidden, "forbidden", "not allowed to manage this session"
	case errors.Is(err, lifecycle.ErrInvalidTransition):
		return http.StatusUnprocessableEntity, "invalid_transition", "session cannot move to that status"
	case errors.Is(err, lifecycle.ErrTooSoon):
		return http.StatusUnprocessableEntity, "too_soon", lifecycle.MsgTooSoon
	case errors.Is(err, lifecycle.ErrNoDate):
		return http.StatusUnprocessableEntity, "no_date", lifecycle.MsgNoDate
	case errors.Is(err, views.ErrReadOnly):
		return http.StatusMethodNotAllowed, "read_only", "not supported here"
	case errors.As(err, &apiErr):
		return http.StatusBadGateway, "upstream_error", "backend request failed"
	default:
		return http.StatusInternalServerError, "internal_error", "internal server error"
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code, msg := mapError(err)
	if status >= http.StatusInternalServerError {
		logging.FromContext(r.Context(), h.log).Error("request failed", "path", r.URL.Path, "err", err)
	}
	middleware.WriteError(w, r, status, code, msg)
}
