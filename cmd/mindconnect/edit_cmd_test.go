package main

import (
	"flag"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindconnect/internal/lifecycle"
	"mindconnect/internal/model"
	"mindconnect/internal/store"
	"mindconnect/internal/views"
)

const (
	completedSession = `{"id":2,"therapist":{"id":7},"user":{"id":3},` +
		`"sessionDate":"2024-05-20T10:00:00","sessionType":"in-person","duration":45,"notes":"done","status":"COMPLETED"}`
	samJournal = `{"id":5,"title":"Monday","content":"Slept well","mood":"HAPPY","tags":"sleep","user":{"id":3}}`
)

// writeBackend answers as either an admin or a user and keeps request bodies.
type writeBackend struct {
	mu     sync.Mutex
	bodies map[string]string
}

func (b *writeBackend) body(route string) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	body, ok := b.bodies[route]
	return body, ok
}

func setupWriteBackend(t *testing.T, login string) (*httptest.Server, *writeBackend) {
	t.Helper()
	b := &writeBackend{bodies: map[string]string{}}
	mux := http.NewServeMux()
	reply := func(body string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			raw, _ := io.ReadAll(r.Body)
			b.mu.Lock()
			b.bodies[r.Method+" "+r.URL.Path] = string(raw)
			b.mu.Unlock()
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, body)
		}
	}
	mux.HandleFunc("POST /api/auth/login", reply(login))
	mux.HandleFunc("GET /api/sessions", reply("["+session1+","+completedSession+"]"))
	mux.HandleFunc("PUT /api/sessions/2", reply(completedSession))
	mux.HandleFunc("GET /api/motivations", reply(`[]`))
	mux.HandleFunc("POST /api/motivations", reply(`{"id":8,"title":"Breathe","content":"In for four","type":"TIP","active":true}`))
	mux.HandleFunc("GET /api/journals/user/3", reply("["+samJournal+"]"))
	mux.HandleFunc("PUT /api/journals/5", reply(samJournal))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, b
}

const (
	adminLogin = `{"token":"t2","userType":"user",` +
		`"user":{"id":1,"firstName":"Root","lastName":"Admin","email":"root@x.io","role":{"name":"ADMIN"}}}`
	userLogin = `{"token":"t3","userType":"user",` +
		`"user":{"id":3,"firstName":"Sam","lastName":"Ray","email":"sam@x.io"}}`
)

func TestAdminEdits(t *testing.T) {
	srv, b := setupWriteBackend(t, adminLogin)
	c := setupCLI(t, srv.URL+"/api", store.NewMemory(), "")
	require.NoError(t, c.run(t, "login", "-email", "root@x.io", "-password", "pw"))

	t.Run("finished session stays finished", func(t *testing.T) {
		err := c.run(t, "admin", "sessions", "edit", "2", "-status", "SCHEDULED")
		assert.ErrorIs(t, err, lifecycle.ErrInvalidTransition)
		_, sent := b.body("PUT /api/sessions/2")
		assert.False(t, sent)
	})

	t.Run("notes edit keeps the rest of the session", func(t *testing.T) {
		require.NoError(t, c.run(t, "admin", "sessions", "edit", "2", "-notes", "follow up"))
		assert.Equal(t, "Updated 2\n", c.out.String())
		body, sent := b.body("PUT /api/sessions/2")
		require.True(t, sent)
		assert.Contains(t, body, `"notes":"follow up"`)
		assert.Contains(t, body, `"status":"COMPLETED"`)
		assert.Contains(t, body, `"duration":45`)
	})

	t.Run("edit of an unknown session", func(t *testing.T) {
		err := c.run(t, "admin", "sessions", "edit", "9", "-notes", "x")
		assert.ErrorIs(t, err, views.ErrUnknownItem)
	})

	t.Run("bad number", func(t *testing.T) {
		err := c.run(t, "admin", "sessions", "edit", "2", "-duration", "long")
		assert.ErrorContains(t, err, "-duration")
	})

	t.Run("motivation add", func(t *testing.T) {
		require.NoError(t, c.run(t, "admin", "motivation", "add",
			"-title", "Breathe", "-content", "In for four", "-type", "TIP"))
		body, sent := b.body("POST /api/motivations")
		require.True(t, sent)
		assert.Contains(t, body, `"title":"Breathe"`)
		assert.Contains(t, body, `"active":true`)
	})

	t.Run("motivation add needs a known type", func(t *testing.T) {
		var verr *model.ValidationError
		err := c.run(t, "admin", "motivation", "add", "-title", "x", "-content", "y", "-type", "POEM")
		assert.ErrorAs(t, err, &verr)
	})
}

func TestJournalEdit(t *testing.T) {
	srv, b := setupWriteBackend(t, userLogin)
	c := setupCLI(t, srv.URL+"/api", store.NewMemory(), "")
	require.NoError(t, c.run(t, "login", "-email", "sam@x.io", "-password", "pw"))

	require.NoError(t, c.run(t, "journals", "edit", "5", "-mood", "CALM"))
	body, sent := b.body("PUT /api/journals/5")
	require.True(t, sent)
	assert.Contains(t, body, `"mood":"CALM"`)
	assert.Contains(t, body, `"title":"Monday"`)
	assert.Contains(t, body, `"user":{"id":3`)

	assert.ErrorIs(t, c.run(t, "journals", "edit", "6", "-mood", "SAD"), views.ErrUnknownItem)
	assert.ErrorContains(t, c.run(t, "journals", "edit"), "usage")
}

func TestBindFieldsAppliesOnlyGivenFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want model.Motivation
	}{
		{"nothing given", nil, model.Motivation{Title: "Old", Author: "Ana", Active: true}},
		{"title only", []string{"-title", "New"}, model.Motivation{Title: "New", Author: "Ana", Active: true}},
		{"explicit empty author", []string{"-author", ""}, model.Motivation{Title: "Old", Active: true}},
		{"turn off", []string{"-active", "false"}, model.Motivation{Title: "Old", Author: "Ana"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := flag.NewFlagSet("test", flag.ContinueOnError)
			apply := bindFields(fs, motivationFields)
			require.NoError(t, fs.Parse(tt.args))

			item := model.Motivation{Title: "Old", Author: "Ana", Active: true}
			require.NoError(t, apply(&item))
			assert.Equal(t, tt.want, item)
		})
	}
}
