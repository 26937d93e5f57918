package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"mindconnect/internal/access"
	"mindconnect/internal/middleware"
	"mindconnect/internal/views"
)

type navResponse struct {
	Class     access.Class         `json:"class"`
	Dashboard access.DashboardKind `json:"dashboard"`
	Items     []access.NavItem     `json:"items"`
}

func (h *Handler) Nav(w http.ResponseWriter, r *http.Request) {
	p := middleware.SessionFrom(r.Context()).Principal()
	middleware.WriteJSON(w, http.StatusOK, navResponse{
		Class:     access.Classify(p),
		Dashboard: access.DashboardFor(p),
		Items:     access.Nav(p),
	})
}

type routeResponse struct {
	Path     string       `json:"path"`
	Route    access.Route `json:"route"`
	Allow    bool         `json:"allow"`
	Redirect access.Route `json:"redirect,omitempty"`
}

// Route answers what the role gate decides for ?path= without redirecting.
func (h *Handler) Route(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	route, ok := access.Match(path)
	if !ok {
		middleware.WriteError(w, r, http.StatusNotFound, "not_found", "no such page")
		return
	}
	d := access.Decide(middleware.SessionFrom(r.Context()).Principal(), route)
	middleware.WriteJSON(w, http.StatusOK, routeResponse{
		Path:     path,
		Route:    route,
		Allow:    d.Allow,
		Redirect: d.Redirect,
	})
}

func (h *Handler) ListJournals(w http.ResponseWriter, r *http.Request) {
	j := views.NewJournals(h.deps(r))
	if err := j.SetFilter(r.URL.Query().Get("mood")); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := j.Load(r.Context()); err != nil {
		h.fail(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"filter": j.Filter(),
		"items":  j.Filtered(),
	})
}

func (h *Handler) notifications(w http.ResponseWriter, r *http.Request, n *views.Notifications) {
	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"unread": n.Unread(),
		"items":  n.Items(),
	})
}

func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	n := views.NewNotifications(h.deps(r))
	if err := n.Load(r.Context()); err != nil {
		h.fail(w, r, err)
		return
	}
	h.notifications(w, r, n)
}

func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	n := views.NewNotifications(h.deps(r))
	if err := n.MarkRead(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	h.notifications(w, r, n)
}

// DeleteNotification treats the DELETE itself as the confirmation.
func (h *Handler) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	n := views.NewNotifications(h.deps(r))
	if _, err := n.Delete(r.Context(), id, views.Yes); err != nil {
		h.fail(w, r, err)
		return
	}
	h.notifications(w, r, n)
}

func (h *Handler) ListMotivation(w http.ResponseWriter, r *http.Request) {
	items, err := views.ActiveMotivations(r.Context(), h.deps(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, items)
}

func (h *Handler) ListTherapists(w http.ResponseWriter, r *http.Request) {
	dir := views.NewTherapistDirectory(h.deps(r), r.URL.Query().Get("available") == "true")
	if err := dir.Load(r.Context()); err != nil {
		h.fail(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, dir.Items())
}

func (h *Handler) ToggleMotivation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	m := views.NewMotivations(h.deps(r))
	if err := m.Toggle(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, m.Items())
}

// errBadBody marks a body that is not valid JSON for the resource.
var errBadBody = errors.New("invalid JSON body")

// listResource is one CRUD screen driven over the gateway.
type listResource struct {
	load   func(ctx context.Context) error
	remove func(ctx context.Context, id int64, confirm views.Confirm) (bool, error)
	items  func() any
	create func(ctx context.Context, raw []byte) error
	update func(ctx context.Context, id int64, raw []byte) error
}

func resourceOf[T any](l *views.List[T]) listResource {
	return listResource{
		load:   l.Load,
		remove: l.Delete,
		items:  func() any { return l.Items() },
		create: func(ctx context.Context, raw []byte) error {
			var item T
			if err := json.Unmarshal(raw, &item); err != nil {
				return fmt.Errorf("%w: %v", errBadBody, err)
			}
			return l.Create(ctx, item)
		},
		// the body is laid over a detached copy of the loaded item, so
		// omitted fields keep their current values and the cache is not
		// touched through shared pointers
		update: func(ctx context.Context, id int64, raw []byte) error {
			if err := l.Load(ctx); err != nil {
				return err
			}
			return l.Edit(ctx, id, func(item *T) error {
				cur, err := json.Marshal(*item)
				if err != nil {
					return err
				}
				var next T
				if err := json.Unmarshal(cur, &next); err != nil {
					return err
				}
				if err := json.Unmarshal(raw, &next); err != nil {
					return fmt.Errorf("%w: %v", errBadBody, err)
				}
				*item = next
				return nil
			})
		},
	}
}

func adminResourceFor(d views.Deps, route access.Route) (listResource, bool) {
	switch route {
	case access.AdminUsers:
		return resourceOf(views.NewUsers(d)), true
	case access.AdminTherapists:
		return resourceOf(views.NewTherapists(d)), true
	case access.AdminSessions:
		return resourceOf(views.NewAdminSessions(d)), true
	case access.AdminJournals:
		return resourceOf(views.NewAdminJournals(d)), true
	case access.AdminMotivation:
		return resourceOf(views.NewMotivations(d).List), true
	}
	return listResource{}, false
}

func (h *Handler) admin(w http.ResponseWriter, r *http.Request) (listResource, bool) {
	route, _ := access.Match("/admin/" + chi.URLParam(r, "resource"))
	res, ok := adminResourceFor(h.deps(r), route)
	if !ok {
		middleware.WriteError(w, r, http.StatusNotFound, "not_found", "no such resource")
	}
	return res, ok
}

func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	res, ok := h.admin(w, r)
	if !ok {
		return
	}
	if err := res.load(r.Context()); err != nil {
		h.fail(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, res.items())
}

func (h *Handler) AdminCreate(w http.ResponseWriter, r *http.Request) {
	res, ok := h.admin(w, r)
	if !ok {
		return
	}
	h.create(w, r, res)
}

func (h *Handler) AdminUpdate(w http.ResponseWriter, r *http.Request) {
	res, ok := h.admin(w, r)
	if !ok {
		return
	}
	h.update(w, r, res)
}

func (h *Handler) AdminDelete(w http.ResponseWriter, r *http.Request) {
	res, ok := h.admin(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if _, err := res.remove(r.Context(), id, views.Yes); err != nil {
		h.fail(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, res.items())
}

func (h *Handler) CreateJournal(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, resourceOf(views.NewJournals(h.deps(r)).List))
}

// UpdateJournal edits one of the signed-in user's own entries.
func (h *Handler) UpdateJournal(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, resourceOf(views.NewJournals(h.deps(r)).List))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request, res listResource) {
	raw, ok := readBody(w, r)
	if !ok {
		return
	}
	if err := res.create(r.Context(), raw); err != nil {
		h.fail(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, res.items())
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request, res listResource) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	raw, ok := readBody(w, r)
	if !ok {
		return
	}
	if err := res.update(r.Context(), id, raw); err != nil {
		h.fail(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, res.items())
}
