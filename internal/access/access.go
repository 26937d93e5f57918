// Package access decides which views a principal may reach.
//
// Classification runs an ordered rule list; the first matching rule wins.
// The therapist rule sits before the admin rule, so a therapist whose
// identity also carries the ADMIN role is still treated as a therapist.
package access

import (
	"strings"

	"mindconnect/internal/model"
)

// Principal is the identity facts the gate looks at.
type Principal struct {
	Authenticated bool
	UserType      model.UserType
	RoleName      string
}

type Class string

const (
	ClassAnonymous Class = "anonymous"
	ClassTherapist Class = "therapist"
	ClassAdmin     Class = "admin"
	ClassUser      Class = "user"
)

type rule struct {
	class Class
	match func(Principal) bool
}

var rules = []rule{
	{ClassAnonymous, func(p Principal) bool { return !p.Authenticated }},
	{ClassTherapist, func(p Principal) bool { return p.UserType == model.UserTypeTherapist }},
	{ClassAdmin, func(p Principal) bool { return p.RoleName == model.RoleAdmin }},
	{ClassUser, func(Principal) bool { return true }},
}

func Classify(p Principal) Class {
	for _, r := range rules {
		if r.match(p) {
			return r.class
		}
	}
	return ClassUser
}

// Rules lists the classification order.
func Rules() []Class {
	out := make([]Class, len(rules))
	for i, r := range rules {
		out[i] = r.class
	}
	return out
}

type Route string

const (
	Home            Route = "/"
	About           Route = "/about"
	Contact         Route = "/contact"
	Login           Route = "/login"
	Register        Route = "/register"
	Dashboard       Route = "/dashboard"
	Journals        Route = "/journals"
	JournalNew      Route = "/journal/new"
	JournalEdit     Route = "/journal/edit/:id"
	Sessions        Route = "/sessions"
	BookSession     Route = "/book-session"
	Therapists      Route = "/therapists"
	Motivation      Route = "/motivation"
	Profile         Route = "/profile"
	Notifications   Route = "/notifications"
	AdminUsers      Route = "/admin/users"
	AdminTherapists Route = "/admin/therapists"
	AdminSessions   Route = "/admin/sessions"
	AdminJournals   Route = "/admin/journals"
	AdminMotivation Route = "/admin/motivation"
)

var Routes = []Route{
	Home, About, Contact, Login, Register, Dashboard, Journals, JournalNew,
	JournalEdit, Sessions, BookSession, Therapists, Motivation, Profile,
	Notifications, AdminUsers, AdminTherapists, AdminSessions, AdminJournals,
	AdminMotivation,
}

// Match resolves a concrete path such as "/journal/edit/12" to its route.
func Match(path string) (Route, bool) {
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	if id, ok := strings.CutPrefix(path, "/journal/edit/"); ok {
		if id != "" && !strings.Contains(id, "/") {
			return JournalEdit, true
		}
		return "", false
	}
	for _, r := range Routes {
		if string(r) == path && r != JournalEdit {
			return r, true
		}
	}
	return "", false
}

type set map[Route]bool

func setOf(routes ...Route) set {
	s := make(set, len(routes))
	for _, r := range routes {
		s[r] = true
	}
	return s
}

var views = map[Class]set{
	ClassAnonymous: setOf(Home, About, Contact, Login, Register),
	ClassTherapist: setOf(About, Contact, Dashboard, Sessions, Motivation, Profile),
	ClassAdmin: setOf(About, Contact, Dashboard, Motivation, Profile,
		AdminUsers, AdminTherapists, AdminSessions, AdminJournals, AdminMotivation),
	ClassUser: setOf(About, Contact, Dashboard, Journals, JournalNew, JournalEdit,
		Sessions, BookSession, Therapists, Notifications, Motivation, Profile),
}

// Views returns the routes reachable by p, in declaration order.
func Views(p Principal) []Route {
	allowed := views[Classify(p)]
	var out []Route
	for _, r := range Routes {
		if allowed[r] {
			out = append(out, r)
		}
	}
	return out
}

func CanView(p Principal, r Route) bool {
	return views[Classify(p)][r]
}

type Decision struct {
	Allow    bool
	Redirect Route
}

// Decide admits p to r or names the route to redirect to.
func Decide(p Principal, r Route) Decision {
	class := Classify(p)
	if views[class][r] {
		return Decision{Allow: true}
	}
	if class == ClassAnonymous {
		return Decision{Redirect: Login}
	}
	// covers the guest-only pages (home, login, register) too
	return Decision{Redirect: Dashboard}
}

type NavItem struct {
	Label string `json:"label"`
	Route Route  `json:"route"`
}

var nav = map[Class][]NavItem{
	ClassAnonymous: {
		{"Sign In", Login},
		{"Get Started", Register},
	},
	ClassTherapist: {
		{"Dashboard", Dashboard},
		{"My Sessions", Sessions},
		{"Motivation", Motivation},
		{"Profile", Profile},
	},
	ClassAdmin: {
		{"Dashboard", Dashboard},
		{"Motivation", Motivation},
		{"Profile", Profile},
	},
	ClassUser: {
		{"Dashboard", Dashboard},
		{"Journals", Journals},
		{"Sessions", Sessions},
		{"Book Session", BookSession},
		{"Therapists", Therapists},
		{"Notifications", Notifications},
		{"Motivation", Motivation},
		{"Profile", Profile},
	},
}

func Nav(p Principal) []NavItem {
	items := nav[Classify(p)]
	out := make([]NavItem, len(items))
	copy(out, items)
	return out
}

type DashboardKind string

const (
	DashboardNone      DashboardKind = ""
	DashboardTherapist DashboardKind = "therapist"
	DashboardAdmin     DashboardKind = "admin"
	DashboardUser      DashboardKind = "user"
)

func DashboardFor(p Principal) DashboardKind {
	switch Classify(p) {
	case ClassTherapist:
		return DashboardTherapist
	case ClassAdmin:
		return DashboardAdmin
	case ClassUser:
		return DashboardUser
	}
	return DashboardNone
}

// CanManageSession reports whether p may change the status or time of s.
// Admins manage every session; therapists only their own.
func CanManageSession(p Principal, identityID int64, s model.Session) bool {
	switch Classify(p) {
	case ClassAdmin:
		return true
	case ClassTherapist:
		return identityID != 0 && s.TherapistID() == identityID
	}
	return false
}
