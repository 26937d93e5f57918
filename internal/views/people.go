package views

import (
	"context"
	"fmt"

	"mindconnect/internal/lifecycle"
	"mindconnect/internal/model"
)

func identityID(i model.Identity) int64 { return i.ID }

func validateIdentity(i model.Identity, creating bool) error {
	if creating && i.Password == "" {
		return &model.ValidationError{Field: "password", Message: "required"}
	}
	return i.Validate()
}

func NewUsers(d Deps) *List[model.Identity] {
	return NewList(Resource[model.Identity]{
		Name:     "users",
		Prompt:   "Are you sure you want to delete this user?",
		ID:       identityID,
		Fetch:    d.API.Users,
		Create:   d.API.CreateUser,
		Update:   d.API.UpdateUser,
		Remove:   d.API.DeleteUser,
		Validate: validateIdentity,
	}, d.logger())
}

func NewTherapists(d Deps) *List[model.Identity] {
	return NewList(Resource[model.Identity]{
		Name:     "therapists",
		Prompt:   "Are you sure you want to delete this therapist?",
		ID:       identityID,
		Fetch:    d.API.Therapists,
		Create:   d.API.CreateTherapist,
		Update:   d.API.UpdateTherapist,
		Remove:   d.API.DeleteTherapist,
		Validate: validateIdentity,
	}, d.logger())
}

// NewTherapistDirectory is the read-only therapist list users browse and book from.
func NewTherapistDirectory(d Deps, availableOnly bool) *List[model.Identity] {
	fetch := d.API.Therapists
	if availableOnly {
		fetch = d.API.AvailableTherapists
	}
	return NewList(Resource[model.Identity]{
		Name:  "therapist directory",
		ID:    identityID,
		Fetch: fetch,
	}, d.logger())
}

// NewAdminSessions is the admin session table. A status edit must follow the
// lifecycle transitions, so a finished session is never reopened.
func NewAdminSessions(d Deps) *List[model.Session] {
	var l *List[model.Session]
	l = NewList(Resource[model.Session]{
		Name:   "admin sessions",
		Prompt: "Are you sure you want to delete this session?",
		ID:     func(s model.Session) int64 { return s.ID },
		Fetch:  d.API.Sessions,
		Create: d.API.CreateSession,
		Update: d.API.UpdateSession,
		Remove: d.API.DeleteSession,
		Validate: func(s model.Session, creating bool) error {
			if creating {
				return s.ValidateNew(d.now())
			}
			if !s.Status.Valid() {
				return &model.ValidationError{Field: "status", Message: "unknown status"}
			}
			cached, ok := l.Get(s.ID)
			if !ok {
				return fmt.Errorf("session %d: %w", s.ID, lifecycle.ErrUnknownSession)
			}
			if s.Status != cached.Status && !lifecycle.ValidTransition(s.Status, cached.Status) {
				return fmt.Errorf("session %d %s -> %s: %w", s.ID, cached.Status, s.Status, lifecycle.ErrInvalidTransition)
			}
			return nil
		},
	}, d.logger())
	return l
}

// Booking lets a user request a session with a therapist.
type Booking struct {
	d          Deps
	Therapists *List[model.Identity]
}

func NewBooking(d Deps) *Booking {
	return &Booking{d: d, Therapists: NewTherapistDirectory(d, false)}
}

type BookingRequest struct {
	TherapistID int64
	Date        model.Timestamp
	Type        model.SessionType
	Duration    int
	Notes       string
}

// Book creates a SCHEDULED session for the signed-in user.
func (b *Booking) Book(ctx context.Context, req BookingRequest) (*model.Session, error) {
	me, err := b.d.me()
	if err != nil {
		return nil, err
	}
	s := model.Session{
		User:        &model.Person{ID: me},
		Therapist:   &model.Person{ID: req.TherapistID},
		SessionDate: req.Date,
		SessionType: req.Type,
		Duration:    req.Duration,
		Notes:       req.Notes,
		Status:      model.StatusScheduled,
	}
	if err := s.ValidateNew(b.d.now()); err != nil {
		return nil, err
	}
	created, err := b.d.API.CreateSession(ctx, s)
	if err != nil {
		b.d.logger().Error("book session failed", "therapist", req.TherapistID, "err", err)
		return nil, fmt.Errorf("book session: %w", err)
	}
	b.d.logger().Info("session booked", "id", created.ID, "therapist", req.TherapistID)
	return created, nil
}
