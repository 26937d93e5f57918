package main

import (
	"context"
	"fmt"
	"strconv"

	"mindconnect/internal/access"
	"mindconnect/internal/model"
	"mindconnect/internal/views"
)

func peopleTable(list []model.Identity) *TableWriter {
	t := NewTableWriter("ID", "Name", "Email", "Specialization", "Available")
	for _, p := range list {
		avail := ""
		if p.Available != nil {
			avail = strconv.FormatBool(*p.Available)
		}
		t.AddRow(strconv.FormatInt(p.ID, 10), p.FullName(), p.Email, p.Specialization, avail)
	}
	return t
}

func journalTable(list []model.Journal) *TableWriter {
	t := NewTableWriter("ID", "Date", "Title", "Mood", "Tags")
	for _, j := range list {
		when := ""
		if j.CreatedAt != nil {
			when = j.CreatedAt.Local().Format(timeLayout)
		}
		t.AddRow(strconv.FormatInt(j.ID, 10), when, j.Title, string(j.Mood), j.TagList)
	}
	return t
}

func motivationTable(list []model.Motivation) *TableWriter {
	t := NewTableWriter("ID", "Type", "Title", "Author", "Active")
	for _, m := range list {
		t.AddRow(strconv.FormatInt(m.ID, 10), string(m.Type), m.Title, m.Author, strconv.FormatBool(m.Active))
	}
	return t
}

func (a *app) journals(ctx context.Context, c *Command, args []string) error {
	if err := a.gate(access.Journals); err != nil {
		return err
	}
	j := views.NewJournals(a.deps())

	if len(args) > 0 {
		switch args[0] {
		case "add", "edit":
			route := access.JournalNew
			if args[0] == "edit" {
				route = access.JournalEdit
			}
			if err := a.gate(route); err != nil {
				return err
			}
			return saveItem(ctx, a, c, j.List, journalFields, model.Journal{Mood: model.MoodNeutral}, args)

		case "delete":
			fs := c.NewFlagSet(a.out)
			yes := fs.Bool("yes", false, "skip the confirmation")
			if len(args) < 2 {
				return fmt.Errorf("usage: mindconnect journals delete <id> [-yes]")
			}
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			if ok, err := parse(fs, args[2:]); !ok {
				return err
			}
			return a.deleted(j.Delete(ctx, id, a.confirm(*yes)))
		}
	}

	fs := c.NewFlagSet(a.out)
	mood := fs.String("mood", views.FilterAll, "filter by mood")
	if ok, err := parse(fs, args); !ok {
		return err
	}
	if err := j.SetFilter(*mood); err != nil {
		return err
	}
	if err := j.Load(ctx); err != nil {
		return err
	}
	journalTable(j.Filtered()).Print(a.out)
	return nil
}

func (a *app) deleted(done bool, err error) error {
	if err != nil {
		return err
	}
	if done {
		a.printf("Deleted\n")
	} else {
		a.printf("Kept\n")
	}
	return nil
}

func (a *app) notifications(ctx context.Context, c *Command, args []string) error {
	if err := a.gate(access.Notifications); err != nil {
		return err
	}
	n := views.NewNotifications(a.deps())

	if len(args) >= 2 {
		id, err := parseID(args[1])
		if err != nil {
			return err
		}
		switch args[0] {
		case "read":
			if err := n.MarkRead(ctx, id); err != nil {
				return err
			}
			a.printf("Marked %d as read\n", id)
			return nil
		case "delete":
			fs := c.NewFlagSet(a.out)
			yes := fs.Bool("yes", false, "skip the confirmation")
			if ok, err := parse(fs, args[2:]); !ok {
				return err
			}
			return a.deleted(n.Delete(ctx, id, a.confirm(*yes)))
		}
		return fmt.Errorf("unknown notifications action %q", args[0])
	}

	if err := n.Load(ctx); err != nil {
		return err
	}
	a.printf("%d unread\n", n.Unread())
	t := NewTableWriter("ID", "Type", "Title", "Message", "Read")
	for _, item := range n.Items() {
		t.AddRow(strconv.FormatInt(item.ID, 10), string(item.Type), item.Title, item.Message, strconv.FormatBool(item.Read))
	}
	t.Print(a.out)
	return nil
}

func (a *app) motivation(ctx context.Context, _ *Command, _ []string) error {
	if err := a.gate(access.Motivation); err != nil {
		return err
	}
	items, err := views.ActiveMotivations(ctx, a.deps())
	if err != nil {
		return err
	}
	for _, m := range items {
		a.printf("[%s] %s\n    %s\n", m.Type, m.Title, m.Content)
		if m.Author != "" {
			a.printf("    - %s\n", m.Author)
		}
	}
	return nil
}

func (a *app) therapists(ctx context.Context, c *Command, args []string) error {
	fs := c.NewFlagSet(a.out)
	available := fs.Bool("available", false, "only therapists taking bookings")
	if ok, err := parse(fs, args); !ok {
		return err
	}
	if err := a.gate(access.Therapists); err != nil {
		return err
	}
	dir := views.NewTherapistDirectory(a.deps(), *available)
	if err := dir.Load(ctx); err != nil {
		return err
	}
	peopleTable(dir.Items()).Print(a.out)
	return nil
}

func (a *app) admin(ctx context.Context, c *Command, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: mindconnect admin <users|therapists|sessions|journals|motivation>")
	}
	route, ok := access.Match("/admin/" + args[0])
	if !ok {
		return fmt.Errorf("unknown admin resource %q", args[0])
	}
	if err := a.gate(route); err != nil {
		return err
	}
	d := a.deps()

	if route == access.AdminMotivation && len(args) == 3 && args[1] == "toggle" {
		id, err := parseID(args[2])
		if err != nil {
			return err
		}
		m := views.NewMotivations(d)
		if err := m.Toggle(ctx, id); err != nil {
			return err
		}
		if item, ok := m.Get(id); ok {
			a.printf("Motivation %d active: %t\n", id, item.Active)
		}
		return nil
	}

	var (
		load   func(context.Context) error
		remove func(context.Context, int64, views.Confirm) (bool, error)
		save   func([]string) error
		show   func()
	)
	switch route {
	case access.AdminUsers:
		l := views.NewUsers(d)
		load, remove, show = l.Load, l.Delete, func() { peopleTable(l.Items()).Print(a.out) }
		save = func(args []string) error { return saveItem(ctx, a, c, l, identityFields, model.Identity{}, args) }
	case access.AdminTherapists:
		l := views.NewTherapists(d)
		load, remove, show = l.Load, l.Delete, func() { peopleTable(l.Items()).Print(a.out) }
		save = func(args []string) error { return saveItem(ctx, a, c, l, identityFields, model.Identity{}, args) }
	case access.AdminSessions:
		l := views.NewAdminSessions(d)
		load, remove, show = l.Load, l.Delete, func() { sessionTable(l.Items(), "").Print(a.out) }
		save = func(args []string) error {
			return saveItem(ctx, a, c, l, sessionFields, model.Session{Status: model.StatusScheduled}, args)
		}
	case access.AdminJournals:
		l := views.NewAdminJournals(d)
		load, remove, show = l.Load, l.Delete, func() { journalTable(l.Items()).Print(a.out) }
		save = func(args []string) error {
			return saveItem(ctx, a, c, l, journalFields, model.Journal{Mood: model.MoodNeutral}, args)
		}
	case access.AdminMotivation:
		l := views.NewMotivations(d)
		load, remove, show = l.Load, l.Delete, func() { motivationTable(l.Items()).Print(a.out) }
		save = func(args []string) error {
			return saveItem(ctx, a, c, l.List, motivationFields, model.Motivation{Active: true}, args)
		}
	}

	if len(args) >= 2 && (args[1] == "add" || args[1] == "edit") {
		return save(args[1:])
	}
	if len(args) >= 3 && args[1] == "delete" {
		id, err := parseID(args[2])
		if err != nil {
			return err
		}
		fs := c.NewFlagSet(a.out)
		yes := fs.Bool("yes", false, "skip the confirmation")
		if ok, err := parse(fs, args[3:]); !ok {
			return err
		}
		return a.deleted(remove(ctx, id, a.confirm(*yes)))
	}
	if err := load(ctx); err != nil {
		return err
	}
	show()
	return nil
}
