package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindconnect/internal/model"
)

type seen struct {
	method string
	path   string
	auth   string
	ctype  string
	body   string
}

// setupBackend starts a fake REST backend that records the last request
// and answers with the given status and body.
func setupBackend(t *testing.T, status int, body string) (*httptest.Server, *seen) {
	t.Helper()
	last := &seen{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		*last = seen{
			method: r.Method,
			path:   r.URL.Path,
			auth:   r.Header.Get("Authorization"),
			ctype:  r.Header.Get("Content-Type"),
			body:   string(raw),
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, last
}

func TestBearerTokenOnEveryCall(t *testing.T) {
	srv, last := setupBackend(t, http.StatusOK, `[{"id":1,"status":"SCHEDULED","sessionDate":"2024-06-01T10:00:00"}]`)
	c := New(srv.URL+"/api", StaticToken("t1"))

	got, err := c.SessionsByTherapist(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, model.StatusScheduled, got[0].Status)

	assert.Equal(t, http.MethodGet, last.method)
	assert.Equal(t, "/api/sessions/therapist/5", last.path)
	assert.Equal(t, "Bearer t1", last.auth)
}

func TestNoAuthorizationWithoutToken(t *testing.T) {
	srv, last := setupBackend(t, http.StatusOK, `[]`)
	c := New(srv.URL, nil)

	_, err := c.Therapists(context.Background())
	require.NoError(t, err)
	assert.Empty(t, last.auth)
}

func TestAuthEndpointsSkipBearer(t *testing.T) {
	srv, last := setupBackend(t, http.StatusOK, `{"token":"t2","userType":"user","user":{"id":3,"firstName":"Ann"}}`)
	c := New(srv.URL, StaticToken("stale"))

	resp, err := c.Login(context.Background(), model.Credentials{Email: "a@b.c", Password: "pw", UserType: model.UserTypeUser})
	require.NoError(t, err)
	assert.Equal(t, "t2", resp.Token)
	assert.Equal(t, int64(3), resp.User.ID)
	assert.Equal(t, "/auth/login", last.path)
	assert.Empty(t, last.auth)
}

func TestRegisterDispatchesByUserType(t *testing.T) {
	cases := []struct {
		userType model.UserType
		path     string
	}{
		{model.UserTypeUser, "/auth/register"},
		{model.UserTypeAdmin, "/auth/register"},
		{model.UserTypeTherapist, "/auth/register-therapist"},
	}
	for _, tt := range cases {
		t.Run(string(tt.userType), func(t *testing.T) {
			srv, last := setupBackend(t, http.StatusOK, `{}`)
			c := New(srv.URL, nil)
			require.NoError(t, c.Register(context.Background(), model.Registration{Email: "x@y.z", UserType: tt.userType}))
			assert.Equal(t, tt.path, last.path)
			assert.Equal(t, http.MethodPost, last.method)
		})
	}
}

func TestUpdateSessionStatusSendsBareString(t *testing.T) {
	srv, last := setupBackend(t, http.StatusOK, ``)
	c := New(srv.URL, StaticToken("t1"))

	require.NoError(t, c.UpdateSessionStatus(context.Background(), 42, model.StatusCompleted))
	assert.Equal(t, http.MethodPut, last.method)
	assert.Equal(t, "/sessions/42/status", last.path)
	assert.Equal(t, `"COMPLETED"`, last.body)
	assert.Equal(t, "application/json", last.ctype)
}

func TestUpdateSessionSendsWholeObject(t *testing.T) {
	srv, last := setupBackend(t, http.StatusOK, `{"id":9}`)
	c := New(srv.URL, StaticToken("t1"))

	s := model.Session{ID: 9, Duration: 60, SessionType: model.SessionOnline, Status: model.StatusScheduled, Notes: "n"}
	_, err := c.UpdateSession(context.Background(), s)
	require.NoError(t, err)

	assert.Equal(t, "/sessions/9", last.path)
	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(last.body), &body))
	assert.Equal(t, "n", body["notes"])
	assert.Equal(t, float64(60), body["duration"])
	assert.Equal(t, "SCHEDULED", body["status"])
}

func TestToggleAndMarkReadPaths(t *testing.T) {
	srv, last := setupBackend(t, http.StatusOK, `{}`)
	c := New(srv.URL, StaticToken("t1"))
	ctx := context.Background()

	require.NoError(t, c.ToggleMotivation(ctx, 3))
	assert.Equal(t, "/motivations/3/toggle", last.path)
	assert.Equal(t, http.MethodPut, last.method)

	require.NoError(t, c.MarkNotificationRead(ctx, 4))
	assert.Equal(t, "/notifications/4/read", last.path)

	require.NoError(t, c.DeleteNotification(ctx, 4))
	assert.Equal(t, http.MethodDelete, last.method)
}

func TestErrorClassification(t *testing.T) {
	cases := []struct {
		status int
		target error
	}{
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrUnauthorized},
		{http.StatusNotFound, ErrNotFound},
	}
	for _, tt := range cases {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv, _ := setupBackend(t, tt.status, ``)
			c := New(srv.URL, StaticToken("expired"))
			_, err := c.Journals(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.target)

			var apiErr *Error
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.Status)
		})
	}
}

func TestServerErrorIsNeitherSentinel(t *testing.T) {
	srv, _ := setupBackend(t, http.StatusInternalServerError, `boom`)
	c := New(srv.URL, nil)
	_, err := c.Users(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnauthorized)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestMessage(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"plain text", "Invalid credentials", "Invalid credentials"},
		{"json message", `{"message":"Email already exists"}`, "Email already exists"},
		{"json error", `{"error":"Bad request"}`, "Bad request"},
		{"json string", `"Nope"`, "Nope"},
		{"empty", "", "Login failed"},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := setupBackend(t, http.StatusBadRequest, tt.body)
			c := New(srv.URL, nil)
			_, err := c.Login(context.Background(), model.Credentials{})
			require.Error(t, err)
			assert.Equal(t, tt.want, Message(err, "Login failed"))
		})
	}
	assert.Equal(t, "fallback", Message(errors.New("dial tcp: refused"), "fallback"))
}

func TestBaseURLTrimsSlash(t *testing.T) {
	assert.Equal(t, "http://h/api", New("http://h/api/", nil).BaseURL())
	assert.Equal(t, DefaultBaseURL, New("", nil).BaseURL())
}
