package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"dropin-backend/database"
	"dropin-backend/util"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "password123"

// setupTest points the global DB at a fresh SQLite file for this test.
func setupTest(t *testing.T) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	require.NoError(t, database.InitDB(dbPath))
	t.Cleanup(func() { database.DB.Close() })
}

// createTestUser inserts a user directly and opens a session for them.
func createTestUser(t *testing.T, email, firstName, lastName string) (int64, string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	res, err := database.DB.Exec(`
		INSERT INTO users (email, password_hash, first_name, last_name, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		email, string(hash), firstName, lastName, time.Now())
	require.NoError(t, err)
	userID, err := res.LastInsertId()
	require.NoError(t, err)

	token, err := util.CreateSession(userID)
	require.NoError(t, err)
	return userID, token
}

// createTestDropin inserts a dropin the way CreateDropinHandler does: the
// host seeds the attendee list and the counter starts at 1.
func createTestDropin(t *testing.T, hostID int64, dropinType string, date time.Time) int64 {
	t.Helper()
	now := time.Now()
	res, err := database.DB.Exec(`
		INSERT INTO dropins (type, title, date, location, address, description, host_id, attendees_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 1, ?)`,
		dropinType, "Test "+dropinType, date, "Community Hall", "1 Main St", "A test dropin", hostID, now)
	require.NoError(t, err)
	dropinID, err := res.LastInsertId()
	require.NoError(t, err)

	_, err = database.DB.Exec(
		"INSERT INTO dropin_attendees (dropin_id, user_id, joined_at) VALUES (?, ?, ?)",
		dropinID, hostID, now)
	require.NoError(t, err)
	return dropinID
}

// doRequest runs a JSON request through the full route table with bearer
// auth and returns the recorder.
func doRequest(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	NewRouter().ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rr.Body).Decode(out))
}

func attendeeCount(t *testing.T, dropinID int64) int {
	t.Helper()
	var n int
	require.NoError(t, database.DB.QueryRow(
		"SELECT COUNT(*) FROM dropin_attendees WHERE dropin_id = ?", dropinID).Scan(&n))
	return n
}

func storedAttendeesCount(t *testing.T, dropinID int64) int {
	t.Helper()
	var n int
	require.NoError(t, database.DB.QueryRow(
		"SELECT attendees_count FROM dropins WHERE id = ?", dropinID).Scan(&n))
	return n
}
