// Package handler is the gateway's HTTP surface: each browser gets a gateway
// session whose MindConnect session context lives in server-side storage.
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"mindconnect/internal/access"
	"mindconnect/internal/api"
	"mindconnect/internal/auth"
	"mindconnect/internal/logging"
	"mindconnect/internal/middleware"
	"mindconnect/internal/session"
	"mindconnect/internal/store"
	"mindconnect/internal/views"
)

type Options struct {
	APIURL     string
	Secret     string
	SessionTTL time.Duration
	Store      store.KV
	Limiter    *middleware.RateLimiter
	HTTPClient *http.Client
	Log        *slog.Logger
	Now        func() time.Time
	// Secure marks the cookie Secure; off for plain-http development.
	Secure bool

	// AllowedOrigins may make credentialed cross-origin calls.
	AllowedOrigins []string
}

type Handler struct {
	opts     Options
	sessions *Sessions
	log      *slog.Logger
}

func New(opts Options) *Handler {
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 24 * time.Hour
	}
	if opts.Store == nil {
		opts.Store = store.NewMemory()
	}
	return &Handler{
		opts:     opts,
		sessions: NewSessions(opts.Store, opts.Log),
		log:      opts.Log,
	}
}

// Routes builds the gateway router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logging(h.log))
	r.Use(middleware.CORS(h.opts.AllowedOrigins))
	r.Use(middleware.Sessions(h.opts.Secret, h.sessions, h.log))

	r.Get("/healthz", h.Health)
	r.Get("/nav", h.Nav)
	r.Get("/route", h.Route)

	r.Group(func(r chi.Router) {
		if h.opts.Limiter != nil {
			r.Use(middleware.RateLimit(h.opts.Limiter))
		}
		r.With(middleware.Gate(access.Login)).Post("/login", h.Login)
		r.With(middleware.Gate(access.Register)).Post("/register", h.Register)
	})
	r.Post("/logout", h.Logout)

	r.With(middleware.Gate(access.Dashboard)).Get("/dashboard", h.Dashboard)

	r.Route("/sessions", func(r chi.Router) {
		r.Use(middleware.Gate(access.Sessions))
		r.Get("/", h.ListSessions)
		r.Put("/{id}/status", h.UpdateSessionStatus)
		r.Post("/{id}/reschedule", h.RescheduleSession)
	})
	r.With(middleware.Gate(access.BookSession)).Post("/book-session", h.BookSession)

	r.Route("/journals", func(r chi.Router) {
		r.With(middleware.Gate(access.Journals)).Get("/", h.ListJournals)
		r.With(middleware.Gate(access.JournalNew)).Post("/", h.CreateJournal)
		r.With(middleware.Gate(access.JournalEdit)).Put("/{id}", h.UpdateJournal)
	})
	r.Route("/notifications", func(r chi.Router) {
		r.Use(middleware.Gate(access.Notifications))
		r.Get("/", h.ListNotifications)
		r.Put("/{id}/read", h.MarkNotificationRead)
		r.Delete("/{id}", h.DeleteNotification)
	})
	r.With(middleware.Gate(access.Motivation)).Get("/motivation", h.ListMotivation)
	r.With(middleware.Gate(access.Therapists)).Get("/therapists", h.ListTherapists)
	r.With(middleware.Gate(access.Profile)).Get("/profile", h.Profile)

	r.Route("/admin", func(r chi.Router) {
		r.With(middleware.Gate(access.AdminMotivation)).Put("/motivation/{id}/toggle", h.ToggleMotivation)
		r.Group(func(r chi.Router) {
			r.Use(middleware.GateFunc(adminRoute))
			r.Get("/{resource}", h.AdminList)
			r.Post("/{resource}", h.AdminCreate)
			r.Put("/{resource}/{id}", h.AdminUpdate)
			r.Delete("/{resource}/{id}", h.AdminDelete)
		})
	})

	return otelhttp.NewHandler(r, "mindconnect-gateway")
}

func adminRoute(r *http.Request) (access.Route, bool) {
	return access.Match("/admin/" + chi.URLParam(r, "resource"))
}

// deps wires the request's session context to a fresh API client.
func (h *Handler) deps(r *http.Request) views.Deps {
	return h.depsFor(r.Context(), middleware.SessionFrom(r.Context()))
}

func (h *Handler) depsFor(ctx context.Context, sess *session.Context) views.Deps {
	log := logging.FromContext(ctx, h.log)
	opts := []api.Option{api.WithLogger(log), api.WithUserAgent("mindconnect-gateway")}
	if h.opts.HTTPClient != nil {
		opts = append(opts, api.WithHTTPClient(h.opts.HTTPClient))
	}
	return views.Deps{
		Session: sess,
		API:     api.New(h.opts.APIURL, sess, opts...),
		Log:     log,
		Now:     h.opts.Now,
	}
}

func (h *Handler) setCookie(w http.ResponseWriter, sid string) error {
	tok, err := auth.MakeToken(sid, h.opts.Secret, h.opts.SessionTTL)
	if err != nil {
		return fmt.Errorf("sign session cookie: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.CookieName,
		Value:    tok,
		Path:     "/",
		MaxAge:   int(h.opts.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (h *Handler) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// readBody returns the raw request body, answering 400 itself when it cannot.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		middleware.WriteError(w, r, http.StatusBadRequest, "bad_request", "request body too large")
		return nil, false
	}
	return raw, true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		middleware.WriteError(w, r, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return false
	}
	return true
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
