package lifecycle

import (
	"context"
	"errors"
	"time"

	"mindconnect/internal/model"
)

const (
	MsgNoDate  = "Please select a new date and time"
	MsgTooSoon = "New time must be at least one hour from now"
	MsgFailed  = "Failed to reschedule session"
)

// RescheduleForm is the state of the reschedule dialog for one session.
// It stays open with an inline error until a submit succeeds.
type RescheduleForm struct {
	Session    model.Session
	Date       time.Time
	Notes      string
	Open       bool
	Submitting bool
	Error      string
}

// OpenReschedule starts a form prefilled with the session's notes.
func OpenReschedule(s model.Session) *RescheduleForm {
	return &RescheduleForm{Session: s, Notes: s.Notes, Open: true}
}

// MinDate is the earliest date the form accepts.
func (f *RescheduleForm) MinDate(now time.Time) time.Time {
	return now.Add(MinLeadTime)
}

// Submit sends the form through w and reports whether the dialog closed.
func (f *RescheduleForm) Submit(ctx context.Context, w *Workflow) bool {
	f.Error = ""
	if f.Date.IsZero() {
		f.Error = MsgNoDate
		return false
	}
	f.Submitting = true
	err := w.Reschedule(ctx, f.Session.ID, f.Date, f.Notes)
	f.Submitting = false
	if err != nil {
		f.Error = formMessage(err)
		return false
	}
	f.Close()
	return true
}

func (f *RescheduleForm) Close() {
	f.Open = false
	f.Error = ""
}

func formMessage(err error) string {
	switch {
	case errors.Is(err, ErrNoDate):
		return MsgNoDate
	case errors.Is(err, ErrTooSoon):
		return MsgTooSoon
	}
	return MsgFailed
}
