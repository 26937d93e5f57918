package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"mindconnect/internal/access"
	"mindconnect/internal/model"
	"mindconnect/internal/views"
)

func (a *app) login(ctx context.Context, c *Command, args []string) error {
	fs := c.NewFlagSet(a.out)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "password (default $MINDCONNECT_PASSWORD)")
	userType := fs.String("type", string(model.UserTypeUser), "user or therapist")
	if ok, err := parse(fs, args); !ok {
		return err
	}
	if err := a.gate(access.Login); err != nil {
		return err
	}
	if *password == "" {
		*password = os.Getenv("MINDCONNECT_PASSWORD")
	}

	auth := views.NewAuth(a.deps())
	msg, err := auth.Login(ctx, model.Credentials{
		Email:    *email,
		Password: *password,
		UserType: model.UserType(*userType),
	})
	if err != nil {
		a.log.Debug("login failed", "err", err)
		return errors.New(msg)
	}
	id := a.sess.Identity()
	a.printf("Signed in as %s (%s)\n", id.FullName(), a.sess.UserType())
	return nil
}

func (a *app) logout(ctx context.Context, _ *Command, _ []string) error {
	if err := views.NewAuth(a.deps()).Logout(ctx); err != nil {
		return err
	}
	a.printf("Signed out\n")
	return nil
}

func (a *app) register(ctx context.Context, c *Command, args []string) error {
	fs := c.NewFlagSet(a.out)
	var r model.Registration
	fs.StringVar(&r.FirstName, "first", "", "first name")
	fs.StringVar(&r.LastName, "last", "", "last name")
	fs.StringVar(&r.Email, "email", "", "email")
	fs.StringVar(&r.Password, "password", "", "password, at least 6 characters")
	fs.StringVar(&r.Phone, "phone", "", "phone number")
	fs.IntVar(&r.Age, "age", 0, "age")
	fs.StringVar(&r.Specialization, "specialization", "", "therapist specialization")
	fs.StringVar(&r.Qualification, "qualification", "", "therapist qualification")
	fs.IntVar(&r.Experience, "experience", 0, "therapist years of experience")
	userType := fs.String("type", string(model.UserTypeUser), "user or therapist")
	if ok, err := parse(fs, args); !ok {
		return err
	}
	if err := a.gate(access.Register); err != nil {
		return err
	}
	r.UserType = model.UserType(*userType)

	if msg, err := views.NewAuth(a.deps()).Register(ctx, r); err != nil {
		a.log.Debug("registration failed", "err", err)
		return errors.New(msg)
	}
	a.printf("Registered %s, now run 'mindconnect login'\n", r.Email)
	return nil
}

func (a *app) whoami(_ context.Context, _ *Command, _ []string) error {
	if err := a.gate(access.Profile); err != nil {
		return err
	}
	id, err := views.NewAuth(a.deps()).Profile()
	if err != nil {
		return err
	}
	t := NewTableWriter("Field", "Value")
	t.AddRow("Name", id.FullName())
	t.AddRow("Email", id.Email)
	t.AddRow("Type", string(a.sess.UserType()))
	if role := id.RoleName(); role != "" {
		t.AddRow("Role", role)
	}
	if id.Phone != "" {
		t.AddRow("Phone", id.Phone)
	}
	if id.Specialization != "" {
		t.AddRow("Specialization", id.Specialization)
	}
	if id.Experience > 0 {
		t.AddRow("Experience", strconv.Itoa(id.Experience)+" years")
	}
	t.Print(a.out)
	return nil
}

func (a *app) nav(_ context.Context, _ *Command, _ []string) error {
	p := a.sess.Principal()
	a.printf("Signed in as: %s\n", access.Classify(p))
	t := NewTableWriter("Page", "Path")
	for _, item := range access.Nav(p) {
		t.AddRow(item.Label, string(item.Route))
	}
	t.Print(a.out)
	return nil
}

func (a *app) route(_ context.Context, _ *Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: mindconnect route <path>")
	}
	r, ok := access.Match(args[0])
	if !ok {
		return fmt.Errorf("no such page: %s", args[0])
	}
	if d := access.Decide(a.sess.Principal(), r); !d.Allow {
		a.printf("%s: redirect to %s\n", r, d.Redirect)
		return nil
	}
	a.printf("%s: allowed\n", r)
	return nil
}
