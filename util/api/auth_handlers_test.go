package api

import (
	"net/http"
	"testing"
	"time"

	"dropin-backend/models"
	"dropin-backend/util"

	"github.com/stretchr/testify/require"
)

func TestSignupAndLogin(t *testing.T) {
	setupTest(t)

	rr := doRequest(t, "POST", "/users/signup", "", models.SignupRequest{
		Email:     "ada@example.com",
		Password:  "secret123",
		FirstName: "Ada",
		LastName:  "Lovelace",
	})
	require.Equal(t, http.StatusCreated, rr.Code)

	var signup models.AuthResponse
	decodeBody(t, rr, &signup)
	require.NotEmpty(t, signup.Token)
	require.Equal(t, "ada@example.com", signup.User.Email)

	// The signup response also sets the session cookie.
	cookies := rr.Result().Cookies()
	require.NotEmpty(t, cookies)
	require.Equal(t, util.SessionCookieName, cookies[0].Name)
	require.Equal(t, signup.Token, cookies[0].Value)

	rr = doRequest(t, "POST", "/users/login", "", models.LoginRequest{
		Email:    "ada@example.com",
		Password: "secret123",
	})
	require.Equal(t, http.StatusOK, rr.Code)

	var login models.AuthResponse
	decodeBody(t, rr, &login)
	require.NotEmpty(t, login.Token)
	require.NotEqual(t, signup.Token, login.Token, "each login gets its own token")
}

func TestSignupMissingFields(t *testing.T) {
	setupTest(t)

	rr := doRequest(t, "POST", "/users/signup", "", models.SignupRequest{Email: "x@example.com"})
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSignupDuplicateEmail(t *testing.T) {
	setupTest(t)
	createTestUser(t, "dup@example.com", "First", "User")

	rr := doRequest(t, "POST", "/users/signup", "", models.SignupRequest{
		Email:     "dup@example.com",
		Password:  "secret123",
		FirstName: "Second",
		LastName:  "User",
	})
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	setupTest(t)
	createTestUser(t, "ada@example.com", "Ada", "Lovelace")

	rr := doRequest(t, "POST", "/users/login", "", models.LoginRequest{
		Email:    "ada@example.com",
		Password: "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestSessionLifecycle(t *testing.T) {
	setupTest(t)
	_, token := createTestUser(t, "ada@example.com", "Ada", "Lovelace")

	// Accepted right after issue.
	rr := doRequest(t, "GET", "/users/verify", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	// Rejected right after logout, with the cookie cleared.
	rr = doRequest(t, "POST", "/users/logout", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doRequest(t, "GET", "/users/verify", token, nil)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	cookies := rr.Result().Cookies()
	require.NotEmpty(t, cookies)
	require.Equal(t, util.SessionCookieName, cookies[0].Name)
	require.Empty(t, cookies[0].Value)

	// Logging out again is harmless.
	rr = doRequest(t, "POST", "/users/logout", token, nil)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestLogoutOnlyRevokesPresentedToken(t *testing.T) {
	setupTest(t)
	userID, deviceA := createTestUser(t, "ada@example.com", "Ada", "Lovelace")

	deviceB, err := util.CreateSession(userID)
	require.NoError(t, err)

	rr := doRequest(t, "POST", "/users/logout", deviceA, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doRequest(t, "GET", "/users/verify", deviceA, nil)
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = doRequest(t, "GET", "/users/verify", deviceB, nil)
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestExpiredTokenRejected(t *testing.T) {
	setupTest(t)

	util.SetTokenConfig("", time.Millisecond)
	t.Cleanup(func() { util.SetTokenConfig("", 24*time.Hour) })

	_, token := createTestUser(t, "ada@example.com", "Ada", "Lovelace")
	time.Sleep(10 * time.Millisecond)

	// The token is still in the user's set but structurally expired.
	rr := doRequest(t, "GET", "/users/verify", token, nil)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestGarbageTokenRejected(t *testing.T) {
	setupTest(t)

	rr := doRequest(t, "GET", "/users/verify", "not-a-jwt", nil)
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = doRequest(t, "GET", "/users/verify", "", nil)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}
