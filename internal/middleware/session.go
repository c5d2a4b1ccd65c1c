package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/logging"
)

// SessionCookie is the cookie carrying the session token.
const SessionCookie = "token"

// unauthenticatedMessage is returned for every session defect so callers
// cannot distinguish expired from forged credentials.
const unauthenticatedMessage = "You need to be logged in to visit this route"

// SessionVerifier validates a session token and returns the account id.
type SessionVerifier interface {
	Verify(token string) (string, error)
}

// RequireSession gates a handler on a valid session, independent of which
// operation it protects. The resolved account id is stored on the context.
func RequireSession(verifier SessionVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := verifier.Verify(sessionToken(r))
			if err != nil {
				logging.FromContext(r.Context()).Warn("session rejected", "path", r.URL.Path)
				writeUnauthenticated(w)
				return
			}

			ctx := auth.ContextWithUserID(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalSession attaches the account id when a valid token is present and
// lets anonymous requests through untouched.
func OptionalSession(verifier SessionVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID, err := verifier.Verify(sessionToken(r)); err == nil {
				r = r.WithContext(auth.ContextWithUserID(r.Context(), userID))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func sessionToken(r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

func writeUnauthenticated(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": unauthenticatedMessage})
}
