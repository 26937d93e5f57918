// Package lifecycle drives therapy sessions through their statuses on behalf
// of the signed-in therapist (or an admin) and derives the dashboard views.
//
// Every mutation is checked locally first, sent to the backend, and followed
// by a full refetch; the cached list is never patched in place.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"mindconnect/internal/access"
	"mindconnect/internal/api"
	"mindconnect/internal/model"
	"mindconnect/internal/session"
)

const (
	UpcomingLimit = 5
	MinLeadTime   = time.Hour
)

var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrTooSoon           = errors.New("new time must be at least one hour from now")
	ErrNoDate            = errors.New("no date selected")
	ErrForbidden         = errors.New("not allowed to manage this session")
	ErrUnknownSession    = errors.New("unknown session")
)

type Partition string

const (
	PartitionNone     Partition = ""
	PartitionToday    Partition = "today"
	PartitionUpcoming Partition = "upcoming"
)

type Action string

const (
	ActionReschedule Action = "reschedule"
	ActionComplete   Action = "complete"
	ActionCancel     Action = "cancel"
)

// Status is the status an action moves a session to; reschedule has none.
func (a Action) Status() model.SessionStatus {
	switch a {
	case ActionComplete:
		return model.StatusCompleted
	case ActionCancel:
		return model.StatusCancelled
	}
	return ""
}

type Stats struct {
	Total     int `json:"totalSessions"`
	Today     int `json:"todaySessions"`
	Upcoming  int `json:"upcomingSessions"`
	Completed int `json:"completedSessions"`
}

type Workflow struct {
	sess *session.Context
	api  *api.Client
	now  func() time.Time
	log  *slog.Logger

	mu       sync.RWMutex
	sessions []model.Session
	results  []model.Session
	term     string
}

type Option func(*Workflow)

func WithClock(now func() time.Time) Option {
	return func(w *Workflow) { w.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(w *Workflow) { w.log = l }
}

func New(sess *session.Context, client *api.Client, opts ...Option) *Workflow {
	w := &Workflow{
		sess: sess,
		api:  client,
		now:  time.Now,
		log:  slog.Default(),
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

func (w *Workflow) fetch(ctx context.Context) ([]model.Session, error) {
	p := w.sess.Principal()
	switch access.Classify(p) {
	case access.ClassTherapist:
		return w.api.SessionsByTherapist(ctx, w.sess.IdentityID())
	case access.ClassAdmin:
		return w.api.Sessions(ctx)
	case access.ClassUser:
		return w.api.SessionsByUser(ctx, w.sess.IdentityID())
	}
	return nil, session.ErrNotAuthenticated
}

// Load refetches the principal's sessions. On failure the previous list is kept.
func (w *Workflow) Load(ctx context.Context) error {
	list, err := w.fetch(ctx)
	if err != nil {
		w.log.Error("fetch sessions failed", "err", err)
		return fmt.Errorf("load sessions: %w", err)
	}
	w.mu.Lock()
	w.sessions = list
	w.mu.Unlock()
	return nil
}

// refresh reloads after a mutation. A failed reload keeps the stale list.
func (w *Workflow) refresh(ctx context.Context) {
	_ = w.Load(ctx)
}

func (w *Workflow) Sessions() []model.Session {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]model.Session(nil), w.sessions...)
}

func (w *Workflow) find(id int64) (model.Session, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, s := range w.sessions {
		if s.ID == id {
			return s, true
		}
	}
	return model.Session{}, false
}

func (w *Workflow) manageable(id int64) (model.Session, error) {
	s, ok := w.find(id)
	if !ok {
		return s, fmt.Errorf("session %d: %w", id, ErrUnknownSession)
	}
	if !access.CanManageSession(w.sess.Principal(), w.sess.IdentityID(), s) {
		return s, fmt.Errorf("session %d: %w", id, ErrForbidden)
	}
	return s, nil
}

// UpdateStatus moves a cached session to a terminal status.
func (w *Workflow) UpdateStatus(ctx context.Context, id int64, to model.SessionStatus) error {
	s, err := w.manageable(id)
	if err != nil {
		return err
	}
	if !ValidTransition(to, s.Status) {
		return fmt.Errorf("session %d %s -> %s: %w", id, s.Status, to, ErrInvalidTransition)
	}
	if err := w.api.UpdateSessionStatus(ctx, id, to); err != nil {
		w.log.Error("update session status failed", "id", id, "status", to, "err", err)
		return fmt.Errorf("update status: %w", err)
	}
	w.log.Info("session status updated", "id", id, "status", to)
	w.refresh(ctx)
	return nil
}

// Reschedule moves a scheduled session to newDate, at least MinLeadTime ahead.
// The whole cached session is sent back with only the date and notes replaced.
func (w *Workflow) Reschedule(ctx context.Context, id int64, newDate time.Time, notes string) error {
	if newDate.IsZero() {
		return ErrNoDate
	}
	if newDate.Before(w.now().Add(MinLeadTime)) {
		return ErrTooSoon
	}
	s, err := w.manageable(id)
	if err != nil {
		return err
	}
	if s.Status != model.StatusScheduled {
		return fmt.Errorf("reschedule session %d in %s: %w", id, s.Status, ErrInvalidTransition)
	}

	s.SessionDate = model.At(newDate)
	s.Notes = notes
	if _, err := w.api.UpdateSession(ctx, s); err != nil {
		w.log.Error("reschedule session failed", "id", id, "err", err)
		return fmt.Errorf("reschedule: %w", err)
	}
	w.log.Info("session rescheduled", "id", id, "date", s.SessionDate.Time)
	w.refresh(ctx)
	return nil
}

// Today lists cached sessions falling on now's local calendar date, any status.
func (w *Workflow) Today() []model.Session {
	now := w.now()
	var out []model.Session
	for _, s := range w.Sessions() {
		if model.SameDay(s.SessionDate.Time, now) {
			out = append(out, s)
		}
	}
	return out
}

func (w *Workflow) upcoming() []model.Session {
	now := w.now()
	var out []model.Session
	for _, s := range w.Sessions() {
		if s.Status == model.StatusScheduled && s.SessionDate.After(now) {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SessionDate.Before(out[j].SessionDate.Time)
	})
	return out
}

// Upcoming is the soonest UpcomingLimit scheduled sessions strictly after now.
func (w *Workflow) Upcoming() []model.Session {
	out := w.upcoming()
	if len(out) > UpcomingLimit {
		out = out[:UpcomingLimit]
	}
	return out
}

func (w *Workflow) Stats() Stats {
	all := w.Sessions()
	st := Stats{
		Total:    len(all),
		Today:    len(w.Today()),
		Upcoming: len(w.upcoming()),
	}
	for _, s := range all {
		if s.Status == model.StatusCompleted {
			st.Completed++
		}
	}
	return st
}

// Actions lists what the dashboard offers for s in the given partition.
func Actions(s model.Session, p Partition) []Action {
	if s.Status != model.StatusScheduled {
		return nil
	}
	switch p {
	case PartitionToday:
		return []Action{ActionReschedule, ActionComplete, ActionCancel}
	case PartitionUpcoming:
		return []Action{ActionReschedule, ActionCancel}
	}
	return nil
}

// Search refetches the therapist's sessions and keeps those whose patient
// first name, last name or email contains term. A blank term clears results.
func (w *Workflow) Search(ctx context.Context, term string) ([]model.Session, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		w.mu.Lock()
		w.term, w.results = "", nil
		w.mu.Unlock()
		return nil, nil
	}

	list, err := w.fetch(ctx)
	if err != nil {
		w.log.Error("search sessions failed", "term", term, "err", err)
		return nil, fmt.Errorf("search: %w", err)
	}
	needle := strings.ToLower(term)
	var found []model.Session
	for _, s := range list {
		if s.User == nil {
			continue
		}
		if strings.Contains(strings.ToLower(s.User.FirstName), needle) ||
			strings.Contains(strings.ToLower(s.User.LastName), needle) ||
			strings.Contains(strings.ToLower(s.User.Email), needle) {
			found = append(found, s)
		}
	}

	w.mu.Lock()
	w.term, w.results = term, found
	w.mu.Unlock()
	return found, nil
}

// Results is the last search, or nil when no search is active.
func (w *Workflow) Results() (string, []model.Session) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.term, append([]model.Session(nil), w.results...)
}
