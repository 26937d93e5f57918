package model

import (
	"slices"
	"strings"
	"time"
)

// ValidationError is a client-side check that failed before any request was sent.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

func (c Credentials) Validate() error {
	if strings.TrimSpace(c.Email) == "" || c.Password == "" {
		return invalid("", "email and password required")
	}
	if c.UserType != UserTypeUser && c.UserType != UserTypeTherapist {
		return invalid("userType", "must be user or therapist")
	}
	return nil
}

func (r Registration) Validate() error {
	if strings.TrimSpace(r.FirstName) == "" || strings.TrimSpace(r.LastName) == "" {
		return invalid("name", "first and last name required")
	}
	if !strings.Contains(r.Email, "@") {
		return invalid("email", "must contain '@'")
	}
	if r.Password == "" {
		return invalid("password", "required")
	}
	switch r.UserType {
	case UserTypeUser, UserTypeTherapist, UserTypeAdmin:
	default:
		return invalid("userType", "must be user, therapist or admin")
	}
	if r.Age < 0 {
		return invalid("age", "cannot be negative")
	}
	return nil
}

// ValidateNew checks a session about to be booked or created.
func (s Session) ValidateNew(now time.Time) error {
	if s.User == nil || s.User.ID == 0 {
		return invalid("user", "required")
	}
	if s.Therapist == nil || s.Therapist.ID == 0 {
		return invalid("therapist", "required")
	}
	if s.SessionDate.IsZero() {
		return invalid("sessionDate", "required")
	}
	if !s.SessionDate.After(now) {
		return invalid("sessionDate", "must be in the future")
	}
	if s.SessionType != SessionOnline && s.SessionType != SessionInPerson {
		return invalid("sessionType", "must be online or in-person")
	}
	if !slices.Contains(Durations, s.Duration) {
		return invalid("duration", "must be 30, 45, 60 or 90 minutes")
	}
	if s.Status != "" && !s.Status.Valid() {
		return invalid("status", "unknown status")
	}
	return nil
}

func (j Journal) Validate() error {
	if strings.TrimSpace(j.Title) == "" {
		return invalid("title", "required")
	}
	if strings.TrimSpace(j.Content) == "" {
		return invalid("content", "required")
	}
	if !j.Mood.Valid() {
		return invalid("mood", "unknown mood")
	}
	return nil
}

func (m Motivation) Validate() error {
	if strings.TrimSpace(m.Title) == "" || strings.TrimSpace(m.Content) == "" {
		return invalid("", "title and content required")
	}
	if !slices.Contains(MotivationTypes, m.Type) {
		return invalid("type", "unknown motivation type")
	}
	return nil
}

func (i Identity) Validate() error {
	if strings.TrimSpace(i.FirstName) == "" || strings.TrimSpace(i.LastName) == "" {
		return invalid("name", "first and last name required")
	}
	if !strings.Contains(i.Email, "@") {
		return invalid("email", "must contain '@'")
	}
	return nil
}
