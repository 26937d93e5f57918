package main

import (
	"context"
	"flag"
	"fmt"
	"strconv"

	"mindconnect/internal/model"
	"mindconnect/internal/views"
)

// field binds one flag to part of a T.
type field[T any] struct {
	name  string
	usage string
	set   func(*T, string) error
}

func textField[T any](name, usage string, ptr func(*T) *string) field[T] {
	return field[T]{name, usage, func(item *T, v string) error {
		*ptr(item) = v
		return nil
	}}
}

func numberField[T any](name, usage string, ptr func(*T) *int) field[T] {
	return field[T]{name, usage, func(item *T, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%q is not a number", v)
		}
		*ptr(item) = n
		return nil
	}}
}

func personField[T any](name, usage string, ptr func(*T) **model.Person) field[T] {
	return field[T]{name, usage, func(item *T, v string) error {
		id, err := parseID(v)
		if err != nil {
			return err
		}
		*ptr(item) = &model.Person{ID: id}
		return nil
	}}
}

// bindFields registers every field as a string flag. The returned func
// applies only the flags given on the command line, so an edit keeps the
// loaded values of everything else.
func bindFields[T any](fs *flag.FlagSet, fields []field[T]) func(*T) error {
	vals := make([]*string, len(fields))
	for i, f := range fields {
		vals[i] = fs.String(f.name, "", f.usage)
	}
	return func(item *T) error {
		given := map[string]bool{}
		fs.Visit(func(f *flag.Flag) { given[f.Name] = true })
		for i, f := range fields {
			if !given[f.name] {
				continue
			}
			if err := f.set(item, *vals[i]); err != nil {
				return fmt.Errorf("-%s: %w", f.name, err)
			}
		}
		return nil
	}
}

// saveItem runs "add [flags]" or "edit <id> [flags]" against l. New items
// start from base.
func saveItem[T any](ctx context.Context, a *app, c *Command, l *views.List[T], fields []field[T], base T, args []string) error {
	fs := c.NewFlagSet(a.out)
	apply := bindFields(fs, fields)

	if args[0] == "add" {
		if ok, err := parse(fs, args[1:]); !ok {
			return err
		}
		item := base
		if err := apply(&item); err != nil {
			return err
		}
		if err := l.Create(ctx, item); err != nil {
			return err
		}
		a.printf("Saved\n")
		return nil
	}

	if len(args) < 2 {
		return fmt.Errorf("usage: mindconnect %s edit <id> [flags]", c.Name)
	}
	id, err := parseID(args[1])
	if err != nil {
		return err
	}
	if ok, err := parse(fs, args[2:]); !ok {
		return err
	}
	if err := l.Load(ctx); err != nil {
		return err
	}
	if err := l.Edit(ctx, id, apply); err != nil {
		return err
	}
	a.printf("Updated %d\n", id)
	return nil
}

var identityFields = []field[model.Identity]{
	textField("first", "first name", func(i *model.Identity) *string { return &i.FirstName }),
	textField("last", "last name", func(i *model.Identity) *string { return &i.LastName }),
	textField("email", "email", func(i *model.Identity) *string { return &i.Email }),
	textField("password", "password", func(i *model.Identity) *string { return &i.Password }),
	textField("phone", "phone", func(i *model.Identity) *string { return &i.Phone }),
	numberField("age", "age", func(i *model.Identity) *int { return &i.Age }),
	textField("specialization", "specialization", func(i *model.Identity) *string { return &i.Specialization }),
	textField("qualification", "qualification", func(i *model.Identity) *string { return &i.Qualification }),
	numberField("experience", "years of experience", func(i *model.Identity) *int { return &i.Experience }),
	textField("bio", "bio", func(i *model.Identity) *string { return &i.Bio }),
	{"available", "taking bookings (true|false)", func(i *model.Identity, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		i.Available = &b
		return nil
	}},
}

var sessionFields = []field[model.Session]{
	personField("user", "user id", func(s *model.Session) **model.Person { return &s.User }),
	personField("therapist", "therapist id", func(s *model.Session) **model.Person { return &s.Therapist }),
	{"at", "date and time, e.g. 2024-06-03T14:00", func(s *model.Session, v string) error {
		ts, err := model.ParseTimestamp(v)
		if err != nil {
			return err
		}
		s.SessionDate = ts
		return nil
	}},
	{"type", "online or in-person", func(s *model.Session, v string) error {
		s.SessionType = model.SessionType(v)
		return nil
	}},
	numberField("duration", "minutes: 30, 45, 60 or 90", func(s *model.Session) *int { return &s.Duration }),
	textField("notes", "notes", func(s *model.Session) *string { return &s.Notes }),
	{"status", "SCHEDULED, COMPLETED, CANCELLED or NO_SHOW", func(s *model.Session, v string) error {
		s.Status = model.SessionStatus(v)
		return nil
	}},
}

var journalFields = []field[model.Journal]{
	textField("title", "title", func(j *model.Journal) *string { return &j.Title }),
	textField("content", "entry text", func(j *model.Journal) *string { return &j.Content }),
	{"mood", "mood", func(j *model.Journal, v string) error {
		j.Mood = model.Mood(v)
		return nil
	}},
	textField("tags", "comma-separated tags", func(j *model.Journal) *string { return &j.TagList }),
}

var motivationFields = []field[model.Motivation]{
	textField("title", "title", func(m *model.Motivation) *string { return &m.Title }),
	textField("content", "content", func(m *model.Motivation) *string { return &m.Content }),
	{"type", "QUOTE, ARTICLE, TIP, EXERCISE, VIDEO or AUDIO", func(m *model.Motivation, v string) error {
		m.Type = model.MotivationType(v)
		return nil
	}},
	textField("author", "author", func(m *model.Motivation) *string { return &m.Author }),
	textField("category", "category", func(m *model.Motivation) *string { return &m.Category }),
	{"active", "shown on the motivation page (true|false)", func(m *model.Motivation, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		m.Active = b
		return nil
	}},
}
