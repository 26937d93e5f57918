package handler

import (
	"errors"
	"net/http"

	"mindconnect/internal/access"
	"mindconnect/internal/api"
	"mindconnect/internal/auth"
	"mindconnect/internal/middleware"
	"mindconnect/internal/model"
	"mindconnect/internal/views"
)

type signedInResponse struct {
	User     *model.Identity  `json:"user"`
	UserType model.UserType   `json:"userType"`
	Nav      []access.NavItem `json:"nav"`
	Redirect access.Route     `json:"redirect"`
}

// Login signs in upstream under a new gateway session and sets the cookie.
// Failures answer with the inline message the login form shows.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var creds model.Credentials
	if !decode(w, r, &creds) {
		return
	}

	sid := auth.NewSessionID()
	sess, err := h.sessions.Open(r.Context(), sid)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	d := h.depsFor(r.Context(), sess)
	a := views.NewAuth(d)
	if msg, err := a.Login(r.Context(), creds); err != nil {
		middleware.WriteError(w, r, authStatus(err), "login_failed", msg)
		return
	}
	if err := h.setCookie(w, sid); err != nil {
		h.fail(w, r, err)
		return
	}

	p := sess.Principal()
	middleware.WriteJSON(w, http.StatusOK, signedInResponse{
		User:     sess.Identity(),
		UserType: sess.UserType(),
		Nav:      access.Nav(p),
		Redirect: a.Landing(),
	})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var reg model.Registration
	if !decode(w, r, &reg) {
		return
	}
	if msg, err := views.NewAuth(h.deps(r)).Register(r.Context(), reg); err != nil {
		middleware.WriteError(w, r, authStatus(err), "registration_failed", msg)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, map[string]access.Route{"redirect": access.Login})
}

// Logout clears the stored session and the cookie. It always succeeds for
// the browser.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := views.NewAuth(h.deps(r)).Logout(r.Context()); err != nil {
		h.log.Warn("logout storage cleanup failed", "err", err)
	}
	h.clearCookie(w)
	middleware.WriteJSON(w, http.StatusOK, map[string]access.Route{"redirect": access.Login})
}

func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	id, err := views.NewAuth(h.deps(r)).Profile()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, id)
}

func authStatus(err error) int {
	var verr *model.ValidationError
	var apiErr *api.Error
	switch {
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError:
		return apiErr.Status
	case errors.As(err, &apiErr):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
