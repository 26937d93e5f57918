package model

import (
	"strings"
)

type UserType string

const (
	UserTypeUser      UserType = "user"
	UserTypeTherapist UserType = "therapist"
	// offered by the register form only; login never returns it
	UserTypeAdmin UserType = "admin"
)

const RoleAdmin = "ADMIN"

type Role struct {
	ID   int64  `json:"id,omitempty"`
	Name string `json:"name"`
}

// Identity is the authenticated principal as returned by the login endpoint.
// Users and therapists share the shape; therapist-only fields stay empty for users.
type Identity struct {
	ID             int64  `json:"id"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Email          string `json:"email"`
	Password       string `json:"password,omitempty"`
	Phone          string `json:"phone,omitempty"`
	Age            int    `json:"age,omitempty"`
	Specialization string `json:"specialization,omitempty"`
	Qualification  string `json:"qualification,omitempty"`
	Experience     int    `json:"experience,omitempty"`
	Bio            string `json:"bio,omitempty"`
	Available      *bool  `json:"available,omitempty"`
	Role           *Role  `json:"role,omitempty"`
}

// Person is a user or therapist reference embedded in other entities.
type Person = Identity

func (i *Identity) FullName() string {
	if i == nil {
		return ""
	}
	return strings.TrimSpace(i.FirstName + " " + i.LastName)
}

func (i *Identity) RoleName() string {
	if i == nil || i.Role == nil {
		return ""
	}
	return i.Role.Name
}

type SessionStatus string

const (
	StatusScheduled SessionStatus = "SCHEDULED"
	StatusCompleted SessionStatus = "COMPLETED"
	StatusCancelled SessionStatus = "CANCELLED"
	StatusNoShow    SessionStatus = "NO_SHOW"
)

var SessionStatuses = []SessionStatus{StatusScheduled, StatusCompleted, StatusCancelled, StatusNoShow}

func (s SessionStatus) Valid() bool {
	for _, v := range SessionStatuses {
		if v == s {
			return true
		}
	}
	return false
}

type SessionType string

const (
	SessionOnline   SessionType = "online"
	SessionInPerson SessionType = "in-person"
)

// allowed session lengths in minutes
var Durations = []int{30, 45, 60, 90}

// Session is a therapy appointment, not the login session.
type Session struct {
	ID          int64         `json:"id,omitempty"`
	User        *Person       `json:"user,omitempty"`
	Therapist   *Person       `json:"therapist,omitempty"`
	SessionDate Timestamp     `json:"sessionDate"`
	SessionType SessionType   `json:"sessionType"`
	Duration    int           `json:"duration"`
	Notes       string        `json:"notes"`
	Status      SessionStatus `json:"status"`
	CreatedAt   *Timestamp    `json:"createdAt,omitempty"`
}

func (s Session) TherapistID() int64 {
	if s.Therapist == nil {
		return 0
	}
	return s.Therapist.ID
}

type Mood string

const (
	MoodVeryHappy Mood = "VERY_HAPPY"
	MoodHappy     Mood = "HAPPY"
	MoodExcited   Mood = "EXCITED"
	MoodCalm      Mood = "CALM"
	MoodNeutral   Mood = "NEUTRAL"
	MoodAnxious   Mood = "ANXIOUS"
	MoodStressed  Mood = "STRESSED"
	MoodSad       Mood = "SAD"
	MoodVerySad   Mood = "VERY_SAD"
	MoodAngry     Mood = "ANGRY"
)

var Moods = []Mood{
	MoodVeryHappy, MoodHappy, MoodExcited, MoodCalm, MoodNeutral,
	MoodAnxious, MoodStressed, MoodSad, MoodVerySad, MoodAngry,
}

func (m Mood) Valid() bool {
	for _, v := range Moods {
		if v == m {
			return true
		}
	}
	return false
}

type Journal struct {
	ID        int64      `json:"id,omitempty"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Mood      Mood       `json:"mood"`
	TagList   string     `json:"tags"`
	User      *Person    `json:"user,omitempty"`
	CreatedAt *Timestamp `json:"createdAt,omitempty"`
}

// Tags splits the comma-separated tag string, dropping blanks.
func (j Journal) Tags() []string {
	var out []string
	for _, t := range strings.Split(j.TagList, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

type MotivationType string

const (
	MotivationQuote    MotivationType = "QUOTE"
	MotivationArticle  MotivationType = "ARTICLE"
	MotivationTip      MotivationType = "TIP"
	MotivationExercise MotivationType = "EXERCISE"
	MotivationVideo    MotivationType = "VIDEO"
	MotivationAudio    MotivationType = "AUDIO"
)

var MotivationTypes = []MotivationType{
	MotivationQuote, MotivationArticle, MotivationTip,
	MotivationExercise, MotivationVideo, MotivationAudio,
}

type Motivation struct {
	ID       int64          `json:"id,omitempty"`
	Title    string         `json:"title"`
	Content  string         `json:"content"`
	Type     MotivationType `json:"type"`
	Author   string         `json:"author"`
	Category string         `json:"category"`
	Active   bool           `json:"active"`
}

type NotificationType string

const (
	NotifySessionCancelled   NotificationType = "SESSION_CANCELLED"
	NotifySessionRescheduled NotificationType = "SESSION_RESCHEDULED"
	NotifySessionCompleted   NotificationType = "SESSION_COMPLETED"
	NotifySessionReminder    NotificationType = "SESSION_REMINDER"
)

type Notification struct {
	ID        int64            `json:"id,omitempty"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Type      NotificationType `json:"type"`
	Read      bool             `json:"read"`
	CreatedAt *Timestamp       `json:"createdAt,omitempty"`
	User      *Person          `json:"user,omitempty"`
}

type Credentials struct {
	Email    string   `json:"email"`
	Password string   `json:"password"`
	UserType UserType `json:"userType"`
}

// LoginResponse is the body of POST /auth/login.
type LoginResponse struct {
	Token    string    `json:"token"`
	User     *Identity `json:"user"`
	UserType UserType  `json:"userType"`
}

type Registration struct {
	FirstName      string   `json:"firstName"`
	LastName       string   `json:"lastName"`
	Email          string   `json:"email"`
	Password       string   `json:"password"`
	Phone          string   `json:"phone,omitempty"`
	Age            int      `json:"age,omitempty"`
	Specialization string   `json:"specialization,omitempty"`
	Qualification  string   `json:"qualification,omitempty"`
	Experience     int      `json:"experience,omitempty"`
	UserType       UserType `json:"userType"`
}
