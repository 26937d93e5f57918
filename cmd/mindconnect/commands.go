package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strconv"
)

func registerCommands(ctx context.Context, r *CommandRegistry, a *app) {
	add := func(fn func(context.Context, *Command, []string) error, c *Command) {
		c.Run = func(args []string) error { return fn(ctx, c, args) }
		r.Register(c)
	}

	add(a.login, &Command{
		Name:        "login",
		Description: "Sign in as a user or therapist",
		Usage:       "mindconnect login -email <email> [-password <pw>] [-type user|therapist]",
		Examples: []string{
			"mindconnect login -email sam@example.com -type user",
			"MINDCONNECT_PASSWORD=... mindconnect login -email ada@example.com -type therapist",
		},
	})
	add(a.logout, &Command{
		Name:        "logout",
		Description: "Sign out and forget the stored session",
		Usage:       "mindconnect logout",
	})
	add(a.register, &Command{
		Name:        "register",
		Description: "Create a user or therapist account",
		Usage:       "mindconnect register -first <name> -last <name> -email <email> -password <pw> [flags]",
		Examples: []string{
			"mindconnect register -first Sam -last Ray -email sam@example.com -password s3cret",
			"mindconnect register -type therapist -specialization anxiety -experience 5 ...",
		},
	})
	add(a.whoami, &Command{
		Name:        "whoami",
		Description: "Show the signed-in profile",
		Usage:       "mindconnect whoami",
	})
	add(a.nav, &Command{
		Name:        "nav",
		Description: "List the pages available to you",
		Usage:       "mindconnect nav",
	})
	add(a.route, &Command{
		Name:        "route",
		Description: "Show whether you may open a page and where you would be sent",
		Usage:       "mindconnect route <path>",
		Examples:    []string{"mindconnect route /admin/users", "mindconnect route /journal/edit/4"},
	})
	add(a.dashboard, &Command{
		Name:        "dashboard",
		Description: "Show your dashboard",
		Usage:       "mindconnect dashboard",
	})
	add(a.sessions, &Command{
		Name:        "sessions",
		Description: "List your sessions with the actions available on each",
		Usage:       "mindconnect sessions",
	})
	add(a.status, &Command{
		Name:        "status",
		Description: "Complete, cancel or mark a session as no-show",
		Usage:       "mindconnect status <session-id> <COMPLETED|CANCELLED|NO_SHOW>",
		Examples:    []string{"mindconnect status 12 COMPLETED"},
	})
	add(a.reschedule, &Command{
		Name:        "reschedule",
		Description: "Move a scheduled session to a new time",
		Usage:       "mindconnect reschedule <session-id> -at <date-time> [-notes <text>]",
		Examples:    []string{"mindconnect reschedule 12 -at 2024-06-03T15:00 -notes \"moved due to conflict\""},
	})
	add(a.search, &Command{
		Name:        "search",
		Description: "Search patients (therapists) or people (admins)",
		Usage:       "mindconnect search <term>",
	})
	add(a.book, &Command{
		Name:        "book",
		Description: "Book a session with a therapist",
		Usage:       "mindconnect book -therapist <id> -at <date-time> [-type online|in-person] [-duration 60] [-notes <text>]",
		Examples:    []string{"mindconnect book -therapist 7 -at 2024-06-10T10:00 -duration 45"},
	})
	add(a.journals, &Command{
		Name:        "journals",
		Description: "List, add or delete journal entries",
		Usage:       "mindconnect journals [-mood <MOOD>] | journals add -title <t> -content <c> -mood <MOOD> [-tags a,b] | journals edit <id> [-title <t>] [-content <c>] [-mood <MOOD>] [-tags a,b] | journals delete <id> [-yes]",
		Examples:    []string{"mindconnect journals -mood CALM", "mindconnect journals add -title Today -content ... -mood HAPPY", "mindconnect journals edit 4 -mood CALM"},
	})
	add(a.notifications, &Command{
		Name:        "notifications",
		Description: "List notifications, mark one read or delete one",
		Usage:       "mindconnect notifications [read <id> | delete <id> [-yes]]",
	})
	add(a.motivation, &Command{
		Name:        "motivation",
		Description: "Show active motivational content",
		Usage:       "mindconnect motivation",
	})
	add(a.therapists, &Command{
		Name:        "therapists",
		Description: "Browse therapists",
		Usage:       "mindconnect therapists [-available]",
	})
	add(a.admin, &Command{
		Name:        "admin",
		Description: "Manage users, therapists, sessions, journals and motivation",
		Usage:       "mindconnect admin <resource> [add [flags] | edit <id> [flags] | delete <id> [-yes]] | admin motivation toggle <id>",
		Examples: []string{"mindconnect admin users", "mindconnect admin sessions edit 4 -notes 'follow up'",
			"mindconnect admin motivation add -title Breathe -content ... -type TIP", "mindconnect admin sessions delete 4 -yes",
			"mindconnect admin motivation toggle 2"},
	})
	add(func(_ context.Context, _ *Command, _ []string) error {
		a.printf("mindconnect %s (commit %s, built %s)\n", r.version.Version, r.version.Commit, r.version.Date)
		return nil
	}, &Command{
		Name:        "version",
		Description: "Show version information",
		Usage:       "mindconnect version",
	})
}

// parse parses args and maps -h to a nil error after printing usage.
func parse(fs *flag.FlagSet, args []string) (bool, error) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
