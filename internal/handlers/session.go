package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/shortreel/backend/internal/logging"
	"github.com/shortreel/backend/internal/models"
)

// SessionCookieName is the cookie carrying the access token for browser clients.
const SessionCookieName = "session"

type identityKey struct{}

// WithIdentity stores the authenticated caller on the context.
func WithIdentity(ctx context.Context, identity models.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// IdentityFromContext returns the authenticated caller, if any.
func IdentityFromContext(ctx context.Context) (models.Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(models.Identity)
	return identity, ok && identity.UserID != ""
}

// RequireSession rejects requests without a valid access token and attaches
// the caller's identity to the request context.
func RequireSession(verifier SessionVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			logger := logging.FromContext(ctx)

			if verifier == nil {
				logger.Error("session verifier unavailable")
				respondError(ctx, w, http.StatusInternalServerError, "authentication services unavailable")
				return
			}

			token := accessTokenFromRequest(r)
			if token == "" {
				respondError(ctx, w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			identity, err := verifier.Verify(token)
			if err != nil {
				logger.Warn("session verification failed", "error", err)
				respondError(ctx, w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			ctx = WithIdentity(ctx, identity)
			ctx = logging.With(ctx, "user_id", identity.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func accessTokenFromRequest(r *http.Request) string {
	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

func setSessionCookie(w http.ResponseWriter, r *http.Request, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}
