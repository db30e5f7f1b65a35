package middleware

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"dropin-backend/util"
)

// Context keys for the authenticated identity and the token it presented.
type contextKey string

const (
	UserIDKey contextKey = "userID"
	TokenKey  contextKey = "sessionToken"
)

// TokenFromRequest extracts the session credential: the auth cookie first,
// then a bearer Authorization header. Returns "" when neither is present.
func TokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(util.SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if header := r.Header.Get("Authorization"); header != "" {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

// ClearSessionCookie expires the auth cookie. Called on every
// authentication failure so a stale cookie never lingers on the client.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     util.SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// AuthMiddleware authenticates the request and binds the user id and token
// into the request context. Invalid and revoked tokens are rejected
// identically, and the session cookie is cleared either way.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := TokenFromRequest(r)
		if token == "" {
			ClearSessionCookie(w)
			http.Error(w, "Please authenticate.", http.StatusUnauthorized)
			return
		}

		userID, err := util.GetUserIDFromSession(token)
		if err != nil {
			log.Printf("AuthMiddleware: rejected request to %s: %v", r.URL.Path, err)
			ClearSessionCookie(w)
			http.Error(w, "Please authenticate.", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), UserIDKey, userID)
		ctx = context.WithValue(ctx, TokenKey, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
