package middleware

import (
	"context"
	"net/http"

	"github.com/Lixing-Zhang/sweetheart-kart/internal/session"
)

// SessionHeader carries the session id in both directions
const SessionHeader = "X-Session-ID"

type sessionKey struct{}

// Session middleware resolves the caller's session from the X-Session-ID
// header. A missing or unknown id gets a fresh session; the id in use is
// always echoed back in the response header.
func Session(store *session.Store) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, _ := store.GetOrCreate(r.Header.Get(SessionHeader))

			w.Header().Set(SessionHeader, sess.ID)
			ctx := WithSession(r.Context(), sess)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithSession returns a copy of ctx carrying sess
func WithSession(ctx context.Context, sess *session.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, sess)
}

// SessionFromContext returns the session stored by the Session middleware
func SessionFromContext(ctx context.Context) (*session.Session, bool) {
	sess, ok := ctx.Value(sessionKey{}).(*session.Session)
	return sess, ok
}
