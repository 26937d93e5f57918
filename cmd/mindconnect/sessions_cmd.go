package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"mindconnect/internal/access"
	"mindconnect/internal/lifecycle"
	"mindconnect/internal/model"
	"mindconnect/internal/views"
)

const timeLayout = "2006-01-02 15:04"

func sessionTable(list []model.Session, p lifecycle.Partition) *TableWriter {
	t := NewTableWriter("ID", "When", "Patient", "Therapist", "Type", "Status", "Actions")
	for _, s := range list {
		var actions []string
		for _, act := range lifecycle.Actions(s, p) {
			actions = append(actions, string(act))
		}
		t.AddRow(
			strconv.FormatInt(s.ID, 10),
			s.SessionDate.Local().Format(timeLayout),
			s.User.FullName(),
			s.Therapist.FullName(),
			fmt.Sprintf("%s %dm", s.SessionType, s.Duration),
			string(s.Status),
			strings.Join(actions, ","),
		)
	}
	return t
}

func (a *app) dashboard(ctx context.Context, _ *Command, _ []string) error {
	if err := a.gate(access.Dashboard); err != nil {
		return err
	}
	switch access.DashboardFor(a.sess.Principal()) {
	case access.DashboardTherapist:
		wf := a.workflow()
		if err := wf.Load(ctx); err != nil {
			return err
		}
		st := wf.Stats()
		a.printf("Sessions: %d total, %d today, %d upcoming, %d completed\n\n",
			st.Total, st.Today, st.Upcoming, st.Completed)
		a.printf("Today\n")
		sessionTable(wf.Today(), lifecycle.PartitionToday).Print(a.out)
		a.printf("Upcoming\n")
		sessionTable(wf.Upcoming(), lifecycle.PartitionUpcoming).Print(a.out)

	case access.DashboardAdmin:
		d := views.NewAdminDashboard(a.deps())
		if err := d.Load(ctx); err != nil {
			return err
		}
		st := d.Stats()
		a.printf("Users: %d  Therapists: %d  Sessions: %d  Journals: %d\n\n",
			st.Users, st.Therapists, st.Sessions, st.Journals)
		a.printf("Recent users\n")
		peopleTable(d.RecentUsers()).Print(a.out)
		a.printf("Recent sessions\n")
		sessionTable(d.RecentSessions(), lifecycle.PartitionNone).Print(a.out)

	default:
		d := views.NewUserDashboard(a.deps())
		err := d.Load(ctx)
		a.printf("Upcoming sessions\n")
		sessionTable(d.Upcoming(), lifecycle.PartitionNone).Print(a.out)
		a.printf("Recent journals\n")
		journalTable(d.RecentJournals()).Print(a.out)
		a.printf("%d unread notifications\n", len(d.Unread()))
		return err
	}
	return nil
}

func (a *app) sessions(ctx context.Context, _ *Command, _ []string) error {
	if err := a.gate(access.Sessions); err != nil {
		return err
	}
	wf := a.workflow()
	if err := wf.Load(ctx); err != nil {
		return err
	}
	if access.DashboardFor(a.sess.Principal()) != access.DashboardTherapist {
		sessionTable(wf.Sessions(), lifecycle.PartitionNone).Print(a.out)
		return nil
	}
	a.printf("Today\n")
	sessionTable(wf.Today(), lifecycle.PartitionToday).Print(a.out)
	a.printf("Upcoming\n")
	sessionTable(wf.Upcoming(), lifecycle.PartitionUpcoming).Print(a.out)
	return nil
}

func (a *app) status(ctx context.Context, _ *Command, args []string) error {
	if err := a.gate(access.Sessions); err != nil {
		return err
	}
	if len(args) != 2 {
		return fmt.Errorf("usage: mindconnect status <session-id> <status>")
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	to := model.SessionStatus(strings.ToUpper(args[1]))
	if !to.Valid() {
		return fmt.Errorf("unknown status %q", args[1])
	}
	wf := a.workflow()
	if err := wf.Load(ctx); err != nil {
		return err
	}
	if err := wf.UpdateStatus(ctx, id, to); err != nil {
		return err
	}
	a.printf("Session %d is now %s\n", id, to)
	return nil
}

func (a *app) reschedule(ctx context.Context, c *Command, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: mindconnect reschedule <session-id> -at <date-time>")
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	fs := c.NewFlagSet(a.out)
	at := fs.String("at", "", "new date and time, e.g. 2024-06-03T15:00")
	notes := fs.String("notes", "", "replace the session notes")
	if ok, err := parse(fs, args[1:]); !ok {
		return err
	}
	if err := a.gate(access.Sessions); err != nil {
		return err
	}

	wf := a.workflow()
	if err := wf.Load(ctx); err != nil {
		return err
	}
	var form *lifecycle.RescheduleForm
	for _, s := range wf.Sessions() {
		if s.ID == id {
			form = lifecycle.OpenReschedule(s)
			break
		}
	}
	if form == nil {
		return lifecycle.ErrUnknownSession
	}
	if *at != "" {
		ts, err := model.ParseTimestamp(*at)
		if err != nil {
			return err
		}
		form.Date = ts.Time
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "notes" {
			form.Notes = *notes
		}
	})
	if !form.Submit(ctx, wf) {
		return errors.New(form.Error)
	}
	a.printf("Session %d moved to %s\n", id, form.Date.Local().Format(timeLayout))
	return nil
}

func (a *app) search(ctx context.Context, _ *Command, args []string) error {
	if err := a.gate(access.Dashboard); err != nil {
		return err
	}
	term := strings.Join(args, " ")
	switch access.DashboardFor(a.sess.Principal()) {
	case access.DashboardTherapist:
		found, err := a.workflow().Search(ctx, term)
		if err != nil {
			return err
		}
		sessionTable(found, lifecycle.PartitionNone).Print(a.out)
	case access.DashboardAdmin:
		hits, err := views.NewAdminDashboard(a.deps()).Search(ctx, term)
		if err != nil {
			return err
		}
		t := NewTableWriter("Type", "ID", "Name", "Email")
		for _, h := range hits {
			t.AddRow(string(h.Type), strconv.FormatInt(h.Person.ID, 10), h.Person.FullName(), h.Person.Email)
		}
		t.Print(a.out)
	default:
		return &gateError{route: "search", redirect: access.Dashboard}
	}
	return nil
}

func (a *app) book(ctx context.Context, c *Command, args []string) error {
	fs := c.NewFlagSet(a.out)
	therapist := fs.Int64("therapist", 0, "therapist id")
	at := fs.String("at", "", "date and time, e.g. 2024-06-10T10:00")
	kind := fs.String("type", string(model.SessionOnline), "online or in-person")
	duration := fs.Int("duration", 60, "minutes: 30, 45, 60 or 90")
	notes := fs.String("notes", "", "notes for the therapist")
	if ok, err := parse(fs, args); !ok {
		return err
	}
	if err := a.gate(access.BookSession); err != nil {
		return err
	}
	var when model.Timestamp
	if *at != "" {
		ts, err := model.ParseTimestamp(*at)
		if err != nil {
			return err
		}
		when = ts
	}
	s, err := views.NewBooking(a.deps()).Book(ctx, views.BookingRequest{
		TherapistID: *therapist,
		Date:        when,
		Type:        model.SessionType(*kind),
		Duration:    *duration,
		Notes:       *notes,
	})
	if err != nil {
		return err
	}
	a.printf("Booked session %d on %s\n", s.ID, s.SessionDate.Local().Format(timeLayout))
	return nil
}
