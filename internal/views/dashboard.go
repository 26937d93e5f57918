package views

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"mindconnect/internal/model"
)

const (
	RecentLimit        = 5
	UserUpcomingLimit  = 3
	UserRecentJournals = 3
)

type AdminStats struct {
	Users      int `json:"totalUsers"`
	Therapists int `json:"totalTherapists"`
	Sessions   int `json:"totalSessions"`
	Journals   int `json:"totalJournals"`
}

// SearchHit is one person matched by the admin search.
type SearchHit struct {
	Type   model.UserType `json:"type"`
	Person model.Identity `json:"person"`
}

type AdminDashboard struct {
	d Deps

	mu             sync.RWMutex
	stats          AdminStats
	recentUsers    []model.Identity
	recentSessions []model.Session
}

func NewAdminDashboard(d Deps) *AdminDashboard {
	return &AdminDashboard{d: d}
}

// Load fetches users, therapists, sessions and journals. Any failure keeps
// the previous figures.
func (a *AdminDashboard) Load(ctx context.Context) error {
	users, err := a.d.API.Users(ctx)
	if err != nil {
		return a.fail(err)
	}
	therapists, err := a.d.API.Therapists(ctx)
	if err != nil {
		return a.fail(err)
	}
	sessions, err := a.d.API.Sessions(ctx)
	if err != nil {
		return a.fail(err)
	}
	journals, err := a.d.API.Journals(ctx)
	if err != nil {
		return a.fail(err)
	}

	a.mu.Lock()
	a.stats = AdminStats{
		Users:      len(users),
		Therapists: len(therapists),
		Sessions:   len(sessions),
		Journals:   len(journals),
	}
	a.recentUsers = lastReversed(users, RecentLimit)
	a.recentSessions = lastReversed(sessions, RecentLimit)
	a.mu.Unlock()
	return nil
}

func (a *AdminDashboard) fail(err error) error {
	a.d.logger().Error("fetch admin dashboard failed", "err", err)
	return fmt.Errorf("load admin dashboard: %w", err)
}

func (a *AdminDashboard) Stats() AdminStats {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.stats
}

func (a *AdminDashboard) RecentUsers() []model.Identity {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]model.Identity(nil), a.recentUsers...)
}

func (a *AdminDashboard) RecentSessions() []model.Session {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]model.Session(nil), a.recentSessions...)
}

// Search matches users then therapists on first name, last name, email or
// specialization, case-insensitively. A blank term returns nothing.
func (a *AdminDashboard) Search(ctx context.Context, term string) ([]SearchHit, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, nil
	}
	users, err := a.d.API.Users(ctx)
	if err != nil {
		return nil, a.fail(err)
	}
	therapists, err := a.d.API.Therapists(ctx)
	if err != nil {
		return nil, a.fail(err)
	}

	needle := strings.ToLower(term)
	match := func(p model.Identity) bool {
		for _, f := range []string{p.FirstName, p.LastName, p.Email, p.Specialization} {
			if f != "" && strings.Contains(strings.ToLower(f), needle) {
				return true
			}
		}
		return false
	}
	var hits []SearchHit
	for _, u := range users {
		if match(u) {
			hits = append(hits, SearchHit{Type: model.UserTypeUser, Person: u})
		}
	}
	for _, t := range therapists {
		if match(t) {
			hits = append(hits, SearchHit{Type: model.UserTypeTherapist, Person: t})
		}
	}
	return hits, nil
}

// lastReversed returns the last n items, newest first.
func lastReversed[T any](items []T, n int) []T {
	if len(items) > n {
		items = items[len(items)-n:]
	}
	out := make([]T, len(items))
	for i, it := range items {
		out[len(items)-1-i] = it
	}
	return out
}

// UserDashboard is the regular user's landing page.
type UserDashboard struct {
	d Deps

	mu            sync.RWMutex
	upcoming      []model.Session
	journals      []model.Journal
	notifications []model.Notification
}

func NewUserDashboard(d Deps) *UserDashboard {
	return &UserDashboard{d: d}
}

func (u *UserDashboard) Load(ctx context.Context) error {
	me, err := u.d.me()
	if err != nil {
		return err
	}
	sessions, errS := u.d.API.SessionsByUser(ctx, me)
	journals, errJ := u.d.API.JournalsByUser(ctx, me)
	notes, errN := u.d.API.NotificationsByUser(ctx, me)

	u.mu.Lock()
	if errS == nil {
		u.upcoming = capped(upcomingOf(sessions, u.d.now()), UserUpcomingLimit)
	}
	if errJ == nil {
		u.journals = lastReversed(journals, UserRecentJournals)
	}
	if errN == nil {
		u.notifications = notes
	}
	u.mu.Unlock()

	if err := errors.Join(errS, errJ, errN); err != nil {
		u.d.logger().Error("fetch user dashboard failed", "err", err)
		return fmt.Errorf("load user dashboard: %w", err)
	}
	return nil
}

func (u *UserDashboard) Upcoming() []model.Session {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return append([]model.Session(nil), u.upcoming...)
}

func (u *UserDashboard) RecentJournals() []model.Journal {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return append([]model.Journal(nil), u.journals...)
}

func (u *UserDashboard) Unread() []model.Notification {
	u.mu.RLock()
	defer u.mu.RUnlock()
	var out []model.Notification
	for _, n := range u.notifications {
		if !n.Read {
			out = append(out, n)
		}
	}
	return out
}

// upcomingOf keeps SCHEDULED sessions after now, soonest first.
func upcomingOf(list []model.Session, now time.Time) []model.Session {
	var out []model.Session
	for _, s := range list {
		if s.Status == model.StatusScheduled && s.SessionDate.After(now) {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SessionDate.Before(out[j].SessionDate.Time)
	})
	return out
}

func capped[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}
