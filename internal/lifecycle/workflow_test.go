package lifecycle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindconnect/internal/api"
	"mindconnect/internal/model"
	"mindconnect/internal/session"
	"mindconnect/internal/store"
)

// backend is an in-memory stand-in for the sessions endpoints.
type backend struct {
	mu       sync.Mutex
	sessions map[int64]model.Session
	calls    []string
	bodies   []string
	failPut  bool
}

func (b *backend) list(match func(model.Session) bool) []model.Session {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []model.Session{}
	for id := int64(1); id <= int64(len(b.sessions))+10; id++ {
		if s, ok := b.sessions[id]; ok && match(s) {
			out = append(out, s)
		}
	}
	return out
}

func (b *backend) record(r *http.Request) string {
	raw, _ := io.ReadAll(r.Body)
	b.mu.Lock()
	b.calls = append(b.calls, r.Method+" "+r.URL.Path)
	b.bodies = append(b.bodies, string(raw))
	b.mu.Unlock()
	return string(raw)
}

func (b *backend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /sessions/therapist/{id}", func(w http.ResponseWriter, r *http.Request) {
		b.record(r)
		tid, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
		writeJSON(w, b.list(func(s model.Session) bool { return s.TherapistID() == tid }))
	})
	mux.HandleFunc("GET /sessions", func(w http.ResponseWriter, r *http.Request) {
		b.record(r)
		writeJSON(w, b.list(func(model.Session) bool { return true }))
	})
	mux.HandleFunc("PUT /sessions/{id}/status", func(w http.ResponseWriter, r *http.Request) {
		raw := b.record(r)
		if b.failing() {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
		var status model.SessionStatus
		_ = json.Unmarshal([]byte(raw), &status)
		b.mu.Lock()
		s := b.sessions[id]
		s.Status = status
		b.sessions[id] = s
		b.mu.Unlock()
		writeJSON(w, s)
	})
	mux.HandleFunc("PUT /sessions/{id}", func(w http.ResponseWriter, r *http.Request) {
		raw := b.record(r)
		if b.failing() {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		var s model.Session
		_ = json.Unmarshal([]byte(raw), &s)
		b.mu.Lock()
		b.sessions[s.ID] = s
		b.mu.Unlock()
		writeJSON(w, s)
	})
	return mux
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (b *backend) failing() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failPut
}

func (b *backend) setFail(v bool) {
	b.mu.Lock()
	b.failPut = v
	b.mu.Unlock()
}

func (b *backend) lastCall() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[len(b.calls)-1]
}

func (b *backend) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.calls)
}

var (
	therapist = &model.Identity{ID: 5, FirstName: "A"}
	patient   = &model.Person{ID: 9, FirstName: "Jane", LastName: "Roe", Email: "jane@example.com"}
	other     = &model.Person{ID: 10, FirstName: "Max", LastName: "Mustermann", Email: "max@example.com"}
)

func at(s string) model.Timestamp {
	ts, err := model.ParseTimestamp(s)
	if err != nil {
		panic(err)
	}
	return ts
}

func scheduled(id int64, date string, user *model.Person) model.Session {
	return model.Session{
		ID:          id,
		User:        user,
		Therapist:   &model.Person{ID: 5},
		SessionDate: at(date),
		SessionType: model.SessionOnline,
		Duration:    60,
		Status:      model.StatusScheduled,
	}
}

// setupWorkflow signs in the given identity, serves sessions from a fake
// backend and pins the clock to 2024-06-01 09:00 local time.
func setupWorkflow(t *testing.T, who *model.Identity, userType model.UserType, sessions ...model.Session) (*Workflow, *backend) {
	t.Helper()
	ctx := context.Background()

	b := &backend{sessions: map[int64]model.Session{}}
	for _, s := range sessions {
		b.sessions[s.ID] = s
	}
	srv := httptest.NewServer(b.handler())
	t.Cleanup(srv.Close)

	sess := session.New(store.NewMemory(), nil)
	require.NoError(t, sess.Login(ctx, who, "t1", userType))

	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.Local)
	w := New(sess, api.New(srv.URL, sess), WithClock(func() time.Time { return now }))
	require.NoError(t, w.Load(ctx))
	return w, b
}

func ids(list []model.Session) []int64 {
	out := make([]int64, len(list))
	for i, s := range list {
		out[i] = s.ID
	}
	return out
}

func TestTodayAndUpcomingPartitions(t *testing.T) {
	w, b := setupWorkflow(t, therapist, model.UserTypeTherapist,
		scheduled(1, "2024-06-01T14:00:00", patient),
		scheduled(2, "2024-06-02T09:00:00", patient),
	)
	assert.Equal(t, "GET /sessions/therapist/5", b.lastCall())

	assert.Equal(t, []int64{1}, ids(w.Today()))
	assert.Equal(t, []int64{1, 2}, ids(w.Upcoming()))
	assert.Equal(t, Stats{Total: 2, Today: 1, Upcoming: 2}, w.Stats())
}

func TestTodayIncludesAnyStatusAndPastHours(t *testing.T) {
	early := scheduled(1, "2024-06-01T07:00:00", patient)
	done := scheduled(2, "2024-06-01T08:00:00", patient)
	done.Status = model.StatusCompleted
	w, _ := setupWorkflow(t, therapist, model.UserTypeTherapist, early, done)

	assert.Equal(t, []int64{1, 2}, ids(w.Today()))
	assert.Empty(t, w.Upcoming())
	assert.Equal(t, Stats{Total: 2, Today: 2, Upcoming: 0, Completed: 1}, w.Stats())
}

func TestUpcomingIsSortedAndCapped(t *testing.T) {
	var list []model.Session
	for i := 7; i >= 1; i-- {
		list = append(list, scheduled(int64(i), fmt.Sprintf("2024-06-%02dT10:00:00", i+1), patient))
	}
	cancelled := scheduled(8, "2024-06-03T11:00:00", patient)
	cancelled.Status = model.StatusCancelled
	list = append(list, cancelled)

	w, _ := setupWorkflow(t, therapist, model.UserTypeTherapist, list...)

	assert.Equal(t, []int64{1, 2, 3, 4, 5}, ids(w.Upcoming()))
	assert.Equal(t, 7, w.Stats().Upcoming)
}

func TestUpdateStatusSendsBareStatusAndRefetches(t *testing.T) {
	w, b := setupWorkflow(t, therapist, model.UserTypeTherapist, scheduled(1, "2024-06-01T14:00:00", patient))
	before := b.callCount()

	require.NoError(t, w.UpdateStatus(context.Background(), 1, model.StatusCompleted))

	assert.Equal(t, before+2, b.callCount())
	assert.Equal(t, "PUT /sessions/1/status", b.calls[before])
	assert.Equal(t, `"COMPLETED"`, b.bodies[before])
	assert.Equal(t, model.StatusCompleted, w.Sessions()[0].Status)
	assert.Equal(t, 1, w.Stats().Completed)
}

func TestUpdateStatusRejectsLocally(t *testing.T) {
	done := scheduled(2, "2024-05-30T10:00:00", patient)
	done.Status = model.StatusCompleted
	foreign := scheduled(3, "2024-06-03T10:00:00", patient)
	foreign.Therapist = &model.Person{ID: 6}

	w, b := setupWorkflow(t, therapist, model.UserTypeTherapist,
		scheduled(1, "2024-06-01T14:00:00", patient), done, foreign)
	before := b.callCount()
	ctx := context.Background()

	assert.ErrorIs(t, w.UpdateStatus(ctx, 2, model.StatusCancelled), ErrInvalidTransition)
	assert.ErrorIs(t, w.UpdateStatus(ctx, 1, model.StatusScheduled), ErrInvalidTransition)
	assert.ErrorIs(t, w.UpdateStatus(ctx, 99, model.StatusCancelled), ErrUnknownSession)
	assert.Equal(t, before, b.callCount(), "no network call on local rejection")
}

func TestUpdateStatusForeignSessionForbidden(t *testing.T) {
	foreign := scheduled(3, "2024-06-03T10:00:00", patient)
	foreign.Therapist = &model.Person{ID: 6}
	admin := &model.Identity{ID: 1, Role: &model.Role{Name: model.RoleAdmin}}

	w, b := setupWorkflow(t, admin, model.UserTypeUser, foreign)
	assert.Equal(t, "GET /sessions", b.lastCall())
	require.NoError(t, w.UpdateStatus(context.Background(), 3, model.StatusCancelled))

	// a therapist only ever loads their own list, so seed one by hand
	tw, tb := setupWorkflow(t, therapist, model.UserTypeTherapist)
	tw.sessions = []model.Session{foreign}
	before := tb.callCount()
	assert.ErrorIs(t, tw.UpdateStatus(context.Background(), 3, model.StatusCancelled), ErrForbidden)
	assert.Equal(t, before, tb.callCount())
}

func TestUpdateStatusFailureKeepsState(t *testing.T) {
	w, b := setupWorkflow(t, therapist, model.UserTypeTherapist, scheduled(1, "2024-06-01T14:00:00", patient))
	b.setFail(true)

	err := w.UpdateStatus(context.Background(), 1, model.StatusCancelled)
	require.Error(t, err)
	assert.Equal(t, model.StatusScheduled, w.Sessions()[0].Status)
}

func TestRescheduleReplacesOnlyDateAndNotes(t *testing.T) {
	orig := scheduled(1, "2024-06-02T09:00:00", patient)
	orig.Notes = "first visit"
	orig.SessionType = model.SessionInPerson
	orig.Duration = 90
	w, b := setupWorkflow(t, therapist, model.UserTypeTherapist, orig)
	before := b.callCount()

	newDate := time.Date(2024, 6, 3, 15, 30, 0, 0, time.Local)
	require.NoError(t, w.Reschedule(context.Background(), 1, newDate, "moved due to conflict"))

	assert.Equal(t, "PUT /sessions/1", b.calls[before])
	var sent model.Session
	require.NoError(t, json.Unmarshal([]byte(b.bodies[before]), &sent))
	assert.True(t, newDate.Equal(sent.SessionDate.Time))
	assert.Equal(t, "moved due to conflict", sent.Notes)
	assert.Equal(t, orig.User.ID, sent.User.ID)
	assert.Equal(t, orig.Therapist.ID, sent.Therapist.ID)
	assert.Equal(t, model.StatusScheduled, sent.Status)
	assert.Equal(t, 90, sent.Duration)
	assert.Equal(t, model.SessionInPerson, sent.SessionType)

	// refetched, not patched
	assert.Equal(t, "GET /sessions/therapist/5", b.lastCall())
	assert.Equal(t, "moved due to conflict", w.Sessions()[0].Notes)
}

func TestRescheduleValidation(t *testing.T) {
	done := scheduled(2, "2024-05-30T10:00:00", patient)
	done.Status = model.StatusCancelled
	w, b := setupWorkflow(t, therapist, model.UserTypeTherapist, scheduled(1, "2024-06-02T09:00:00", patient), done)
	before := b.callCount()
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.Local)

	assert.ErrorIs(t, w.Reschedule(ctx, 1, time.Time{}, ""), ErrNoDate)
	assert.ErrorIs(t, w.Reschedule(ctx, 1, now.Add(59*time.Minute), ""), ErrTooSoon)
	assert.ErrorIs(t, w.Reschedule(ctx, 2, now.Add(2*time.Hour), ""), ErrInvalidTransition)
	assert.Equal(t, before, b.callCount())

	require.NoError(t, w.Reschedule(ctx, 1, now.Add(time.Hour), ""))
}

func TestRescheduleForm(t *testing.T) {
	orig := scheduled(1, "2024-06-02T09:00:00", patient)
	orig.Notes = "old"
	w, b := setupWorkflow(t, therapist, model.UserTypeTherapist, orig)
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.Local)

	f := OpenReschedule(orig)
	assert.True(t, f.Open)
	assert.Equal(t, "old", f.Notes)
	assert.Equal(t, now.Add(time.Hour), f.MinDate(now))

	assert.False(t, f.Submit(ctx, w))
	assert.Equal(t, MsgNoDate, f.Error)

	f.Date = now.Add(30 * time.Minute)
	assert.False(t, f.Submit(ctx, w))
	assert.Equal(t, MsgTooSoon, f.Error)
	assert.True(t, f.Open)

	b.setFail(true)
	f.Date = now.Add(24 * time.Hour)
	assert.False(t, f.Submit(ctx, w))
	assert.Equal(t, MsgFailed, f.Error)
	assert.True(t, f.Open)

	b.setFail(false)
	f.Notes = "moved due to conflict"
	assert.True(t, f.Submit(ctx, w))
	assert.False(t, f.Open)
	assert.Empty(t, f.Error)
}

func TestActions(t *testing.T) {
	s := model.Session{Status: model.StatusScheduled}
	assert.Equal(t, []Action{ActionReschedule, ActionComplete, ActionCancel}, Actions(s, PartitionToday))
	assert.Equal(t, []Action{ActionReschedule, ActionCancel}, Actions(s, PartitionUpcoming))
	assert.Nil(t, Actions(s, PartitionNone))

	s.Status = model.StatusCompleted
	assert.Nil(t, Actions(s, PartitionToday))

	assert.Equal(t, model.StatusCancelled, ActionCancel.Status())
	assert.Equal(t, model.SessionStatus(""), ActionReschedule.Status())
}

func TestSearch(t *testing.T) {
	w, b := setupWorkflow(t, therapist, model.UserTypeTherapist,
		scheduled(1, "2024-06-02T09:00:00", patient),
		scheduled(2, "2024-06-03T09:00:00", other),
		scheduled(3, "2024-06-04T09:00:00", nil),
	)
	ctx := context.Background()

	cases := []struct {
		term string
		want []int64
	}{
		{"jane", []int64{1}},
		{"ROE", []int64{1}},
		{"example.com", []int64{1, 2}},
		{"muster", []int64{2}},
		{"nobody", []int64{}},
	}
	for _, tt := range cases {
		before := b.callCount()
		got, err := w.Search(ctx, tt.term)
		require.NoError(t, err)
		assert.Equal(t, tt.want, ids(got), tt.term)
		assert.Equal(t, before+1, b.callCount(), "search refetches")
	}

	before := b.callCount()
	got, err := w.Search(ctx, "   ")
	require.NoError(t, err)
	assert.Nil(t, got)
	term, results := w.Results()
	assert.Empty(t, term)
	assert.Empty(t, results)
	assert.Equal(t, before, b.callCount())
}

func TestLoadWithoutSignIn(t *testing.T) {
	sess := session.New(store.NewMemory(), nil)
	w := New(sess, api.New("http://127.0.0.1:1", sess))
	assert.ErrorIs(t, w.Load(context.Background()), session.ErrNotAuthenticated)
}
