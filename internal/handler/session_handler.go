package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"mindconnect/internal/access"
	"mindconnect/internal/lifecycle"
	"mindconnect/internal/middleware"
	"mindconnect/internal/model"
	"mindconnect/internal/views"
)

// sessionView is a session plus the actions the dashboard offers for it.
type sessionView struct {
	model.Session
	Actions []lifecycle.Action `json:"actions"`
}

func withActions(list []model.Session, p lifecycle.Partition) []sessionView {
	out := make([]sessionView, len(list))
	for i, s := range list {
		out[i] = sessionView{Session: s, Actions: lifecycle.Actions(s, p)}
	}
	return out
}

type therapistDashboard struct {
	Kind     access.DashboardKind `json:"kind"`
	Stats    lifecycle.Stats      `json:"stats"`
	Today    []sessionView        `json:"today"`
	Upcoming []sessionView        `json:"upcoming"`
	Search   []model.Session      `json:"searchResults,omitempty"`
}

type adminDashboard struct {
	Kind           access.DashboardKind `json:"kind"`
	Stats          views.AdminStats     `json:"stats"`
	RecentUsers    []model.Identity     `json:"recentUsers"`
	RecentSessions []model.Session      `json:"recentSessions"`
	Search         []views.SearchHit    `json:"searchResults,omitempty"`
}

type userDashboard struct {
	Kind           access.DashboardKind `json:"kind"`
	Upcoming       []model.Session      `json:"upcoming"`
	RecentJournals []model.Journal      `json:"recentJournals"`
	Unread         []model.Notification `json:"unread"`
}

func (h *Handler) workflow(r *http.Request) *lifecycle.Workflow {
	d := h.deps(r)
	return lifecycle.New(d.Session, d.API, lifecycle.WithClock(d.Now), lifecycle.WithLogger(d.Log))
}

// Dashboard renders the principal's dashboard; ?q= runs its search.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := middleware.SessionFrom(ctx)
	term := r.URL.Query().Get("q")

	switch kind := access.DashboardFor(sess.Principal()); kind {
	case access.DashboardTherapist:
		wf := h.workflow(r)
		if err := wf.Load(ctx); err != nil {
			h.fail(w, r, err)
			return
		}
		out := therapistDashboard{
			Kind:     kind,
			Stats:    wf.Stats(),
			Today:    withActions(wf.Today(), lifecycle.PartitionToday),
			Upcoming: withActions(wf.Upcoming(), lifecycle.PartitionUpcoming),
		}
		if term != "" {
			found, err := wf.Search(ctx, term)
			if err != nil {
				h.fail(w, r, err)
				return
			}
			out.Search = found
		}
		middleware.WriteJSON(w, http.StatusOK, out)

	case access.DashboardAdmin:
		a := views.NewAdminDashboard(h.deps(r))
		if err := a.Load(ctx); err != nil {
			h.fail(w, r, err)
			return
		}
		out := adminDashboard{
			Kind:           kind,
			Stats:          a.Stats(),
			RecentUsers:    a.RecentUsers(),
			RecentSessions: a.RecentSessions(),
		}
		if term != "" {
			hits, err := a.Search(ctx, term)
			if err != nil {
				h.fail(w, r, err)
				return
			}
			out.Search = hits
		}
		middleware.WriteJSON(w, http.StatusOK, out)

	default:
		u := views.NewUserDashboard(h.deps(r))
		if err := u.Load(ctx); err != nil {
			h.fail(w, r, err)
			return
		}
		middleware.WriteJSON(w, http.StatusOK, userDashboard{
			Kind:           kind,
			Upcoming:       u.Upcoming(),
			RecentJournals: u.RecentJournals(),
			Unread:         u.Unread(),
		})
	}
}

func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	wf := h.workflow(r)
	if err := wf.Load(r.Context()); err != nil {
		h.fail(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, wf.Sessions())
}

// UpdateSessionStatus takes the bare status string as its body, like the
// backend endpoint it fronts.
func (h *Handler) UpdateSessionStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var to model.SessionStatus
	if !decode(w, r, &to) {
		return
	}
	wf := h.workflow(r)
	if err := wf.Load(r.Context()); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := wf.UpdateStatus(r.Context(), id, to); err != nil {
		h.fail(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, wf.Sessions())
}

type rescheduleRequest struct {
	SessionDate model.Timestamp `json:"sessionDate"`
	Notes       *string         `json:"notes"`
}

// RescheduleSession submits the reschedule form. A rejected form answers 422
// with the form's inline message.
func (h *Handler) RescheduleSession(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req rescheduleRequest
	if !decode(w, r, &req) {
		return
	}
	wf := h.workflow(r)
	if err := wf.Load(r.Context()); err != nil {
		h.fail(w, r, err)
		return
	}
	var target *model.Session
	for _, s := range wf.Sessions() {
		if s.ID == id {
			target = &s
			break
		}
	}
	if target == nil {
		h.fail(w, r, lifecycle.ErrUnknownSession)
		return
	}

	form := lifecycle.OpenReschedule(*target)
	form.Date = req.SessionDate.Time
	if req.Notes != nil {
		form.Notes = *req.Notes
	}
	if !form.Submit(r.Context(), wf) {
		middleware.WriteError(w, r, http.StatusUnprocessableEntity, "reschedule_failed", form.Error)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, wf.Sessions())
}

type bookingRequest struct {
	TherapistID int64             `json:"therapistId"`
	SessionDate model.Timestamp   `json:"sessionDate"`
	SessionType model.SessionType `json:"sessionType"`
	Duration    int               `json:"duration"`
	Notes       string            `json:"notes"`
}

func (h *Handler) BookSession(w http.ResponseWriter, r *http.Request) {
	var req bookingRequest
	if !decode(w, r, &req) {
		return
	}
	created, err := views.NewBooking(h.deps(r)).Book(r.Context(), views.BookingRequest{
		TherapistID: req.TherapistID,
		Date:        req.SessionDate,
		Type:        req.SessionType,
		Duration:    req.Duration,
		Notes:       req.Notes,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, created)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		middleware.WriteError(w, r, http.StatusBadRequest, "bad_request", "invalid id")
		return 0, false
	}
	return id, true
}
