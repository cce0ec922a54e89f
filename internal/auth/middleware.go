// ABOUTME: HTTP session plumbing: cookies, bearer tokens, and the request user.
// ABOUTME: A missing or bad token leaves the request anonymous instead of rejecting it.
package auth

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// CookieName is the session cookie.
const CookieName = "caltra_session"

type ctxKey struct{}

// WithUserID returns a context carrying the acting user.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, userID)
}

// UserID returns the acting user, or "" for anonymous requests.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// TokenFromRequest returns the bearer token or session cookie value.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if tok, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(tok)
		}
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}

// Middleware attaches the session user to the request context when the token is valid.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if tok := TokenFromRequest(r); tok != "" {
			if claims, err := m.ParseToken(tok); err == nil {
				r = r.WithContext(WithUserID(r.Context(), claims.UserID))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// SetCookie writes the session cookie.
func SetCookie(w http.ResponseWriter, token string, expires time.Time, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   secure,
		Expires:  expires,
	})
}

// ClearCookie expires the session cookie.
func ClearCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   secure,
		MaxAge:   -1,
	})
}
