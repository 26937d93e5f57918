package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"mindconnect/internal/auth"
	"mindconnect/internal/session"
	"mindconnect/internal/store"
)

type ctxKey string

const (
	sessionKey   ctxKey = "session"
	sessionIDKey ctxKey = "sid"
)

const CookieName = "mc_session"

// Opener restores the session context stored for a gateway session id.
type Opener interface {
	Open(ctx context.Context, sid string) (*session.Context, error)
}

// Sessions resolves the cookie into a session context. Requests without a
// valid cookie get an empty, unpersisted context and are treated as anonymous.
func Sessions(secret string, opener Opener, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			var sess *session.Context
			var sid string

			if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
				claims, err := auth.ParseToken(c.Value, secret)
				if err != nil {
					log.Debug("ignoring session cookie", "err", err)
				} else if s, err := opener.Open(ctx, claims.SessionID); err != nil {
					log.Error("open session failed", "err", err)
					WriteError(w, r, http.StatusInternalServerError, "session_unavailable", "session storage unavailable")
					return
				} else {
					sess, sid = s, claims.SessionID
				}
			}
			if sess == nil {
				sess = session.New(store.NewMemory(), log)
			}

			ctx = context.WithValue(ctx, sessionKey, sess)
			ctx = context.WithValue(ctx, sessionIDKey, sid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFrom returns the context's session, or an empty one outside Sessions.
func SessionFrom(ctx context.Context) *session.Context {
	if s, ok := ctx.Value(sessionKey).(*session.Context); ok {
		return s
	}
	return session.New(store.NewMemory(), nil)
}

// SessionID is "" for anonymous requests.
func SessionID(ctx context.Context) string {
	sid, _ := ctx.Value(sessionIDKey).(string)
	return sid
}
