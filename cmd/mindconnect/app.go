package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"mindconnect/internal/access"
	"mindconnect/internal/api"
	"mindconnect/internal/config"
	"mindconnect/internal/lifecycle"
	"mindconnect/internal/session"
	"mindconnect/internal/store"
	"mindconnect/internal/store/sqlite"
	"mindconnect/internal/views"
)

// app is the CLI's view of one signed-in (or anonymous) person. The session
// context persists between invocations in the local state store.
type app struct {
	cfg        config.Config
	log        *slog.Logger
	sess       *session.Context
	out        io.Writer
	in         *bufio.Reader
	now        func() time.Time
	httpClient *http.Client
}

func newApp(ctx context.Context, cfg config.Config, log *slog.Logger, kv store.KV, out io.Writer, in io.Reader) (*app, error) {
	sess := session.New(kv, log)
	if err := sess.Init(ctx); err != nil {
		return nil, fmt.Errorf("restore session: %w", err)
	}
	return &app{
		cfg:  cfg,
		log:  log,
		sess: sess,
		out:  out,
		in:   bufio.NewReader(in),
		now:  time.Now,
	}, nil
}

// openState opens the local state file, sealed when a store key is set.
func openState(ctx context.Context, cfg config.Config) (store.KV, func(), error) {
	st, err := sqlite.Open(ctx, cfg.StatePath)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() { _ = st.Close() }
	if cfg.StoreKey == "" {
		return st, closeFn, nil
	}
	key, err := store.ParseKey(cfg.StoreKey)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return store.Sealed(st, key), closeFn, nil
}

func (a *app) client() *api.Client {
	opts := []api.Option{api.WithLogger(a.log), api.WithUserAgent("mindconnect-cli")}
	if a.httpClient != nil {
		opts = append(opts, api.WithHTTPClient(a.httpClient))
	}
	return api.New(a.cfg.APIURL, a.sess, opts...)
}

func (a *app) deps() views.Deps {
	return views.Deps{Session: a.sess, API: a.client(), Log: a.log, Now: a.now}
}

func (a *app) workflow() *lifecycle.Workflow {
	return lifecycle.New(a.sess, a.client(), lifecycle.WithClock(a.now), lifecycle.WithLogger(a.log))
}

type gateError struct {
	route    access.Route
	redirect access.Route
}

func (e *gateError) Error() string {
	if e.redirect == access.Login {
		return fmt.Sprintf("%s requires sign-in, run 'mindconnect login'", e.route)
	}
	return fmt.Sprintf("%s is not available to you, go to %s", e.route, e.redirect)
}

// gate applies the same role gate the web client does.
func (a *app) gate(route access.Route) error {
	if d := access.Decide(a.sess.Principal(), route); !d.Allow {
		return &gateError{route: route, redirect: d.Redirect}
	}
	return nil
}

// confirm asks on stdin unless yes was given.
func (a *app) confirm(yes bool) views.Confirm {
	if yes {
		return views.Yes
	}
	return func(prompt string) bool {
		fmt.Fprintf(a.out, "%s [y/N] ", prompt)
		line, _ := a.in.ReadString('\n')
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		}
		return false
	}
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
