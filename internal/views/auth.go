package views

import (
	"context"
	"errors"
	"fmt"

	"mindconnect/internal/access"
	"mindconnect/internal/api"
	"mindconnect/internal/model"
)

const (
	MsgLoginFailed        = "Login failed"
	MsgRegistrationFailed = "Registration failed"
)

// Auth drives the login and register forms.
type Auth struct {
	d Deps
}

func NewAuth(d Deps) *Auth {
	return &Auth{d: d}
}

// Login signs in and stores the result in the session context. On failure it
// returns the text the form shows inline along with the error.
func (a *Auth) Login(ctx context.Context, creds model.Credentials) (string, error) {
	if err := creds.Validate(); err != nil {
		return inline(err, MsgLoginFailed), err
	}
	resp, err := a.d.API.Login(ctx, creds)
	if err != nil {
		a.d.logger().Warn("login rejected", "email", creds.Email, "err", err)
		return api.Message(err, MsgLoginFailed), fmt.Errorf("login: %w", err)
	}
	if resp.Token == "" {
		return MsgLoginFailed, errors.New("login: no token in response")
	}
	if err := a.d.Session.Login(ctx, resp.User, resp.Token, resp.UserType); err != nil {
		a.d.logger().Error("store session failed", "err", err)
		return MsgLoginFailed, err
	}
	a.d.logger().Info("signed in", "user", resp.User.FullName(), "userType", resp.UserType)
	return "", nil
}

// Register creates an account; the caller then sends the person to login.
func (a *Auth) Register(ctx context.Context, r model.Registration) (string, error) {
	if err := r.Validate(); err != nil {
		return inline(err, MsgRegistrationFailed), err
	}
	if err := a.d.API.Register(ctx, r); err != nil {
		a.d.logger().Warn("registration rejected", "email", r.Email, "err", err)
		return api.Message(err, MsgRegistrationFailed), fmt.Errorf("register: %w", err)
	}
	a.d.logger().Info("registered", "email", r.Email, "userType", r.UserType)
	return "", nil
}

func (a *Auth) Logout(ctx context.Context) error {
	return a.d.Session.Logout(ctx)
}

// Profile is the stored identity, as the profile page shows it.
func (a *Auth) Profile() (*model.Identity, error) {
	return a.d.Session.Require()
}

// Landing is where the person goes after signing in.
func (a *Auth) Landing() access.Route {
	return access.Dashboard
}

func inline(err error, fallback string) string {
	var v *model.ValidationError
	if errors.As(err, &v) {
		return v.Error()
	}
	return fallback
}
