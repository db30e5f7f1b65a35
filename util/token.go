package util

import (
	"fmt"
	"strconv"
	"time"

	"dropin-backend/database"
	"dropin-backend/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const SessionCookieName = "auth_token"

// Signing key and lifetime for session tokens. Overridden from config at
// startup; the defaults only matter for local development and tests.
var (
	jwtSecret  = []byte("dev-secret-change-me")
	sessionTTL = 24 * time.Hour
)

// SetTokenConfig installs the signing secret and token lifetime. Call once
// at startup, before any session is created.
func SetTokenConfig(secret string, ttl time.Duration) {
	if secret != "" {
		jwtSecret = []byte(secret)
	}
	if ttl > 0 {
		sessionTTL = ttl
	}
}

// SessionTTL reports the configured token lifetime (used for cookie expiry).
func SessionTTL() time.Duration {
	return sessionTTL
}

// CreateSession mints a signed session token for the user and records it in
// the user's token set. A user can hold several live tokens at once, one per
// device; revoking one leaves the others valid.
func CreateSession(userID int64) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject: strconv.FormatInt(userID, 10),
		// Distinct jti per token: two logins in the same second must not
		// collide in the user's token set.
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(sessionTTL)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	_, err = database.DB.Exec(
		"INSERT INTO user_tokens (user_id, token, created_at) VALUES (?, ?, ?)",
		userID, token, now,
	)
	if err != nil {
		return "", fmt.Errorf("failed to store session token: %w", err)
	}
	return token, nil
}

// GetUserIDFromSession validates a presented token and returns the user it
// belongs to. The token must both verify structurally (signature, expiry)
// and still be present in the user's token set; a logged-out token parses
// fine but is no longer in the set.
func GetUserIDFromSession(token string) (int64, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return jwtSecret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !parsed.Valid {
		return 0, models.ErrInvalidToken
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, models.ErrInvalidToken
	}

	var exists bool
	err = database.DB.QueryRow(
		"SELECT EXISTS(SELECT 1 FROM user_tokens WHERE user_id = ? AND token = ?)",
		userID, token,
	).Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("failed to look up session: %w", err)
	}
	if !exists {
		return 0, models.ErrUnknownSession
	}
	return userID, nil
}

// DeleteSession removes exactly one token from its owner's token set.
// Deleting a token that is already gone is not an error.
func DeleteSession(token string) error {
	_, err := database.DB.Exec("DELETE FROM user_tokens WHERE token = ?", token)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
