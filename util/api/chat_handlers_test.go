package api

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"dropin-backend/database"
	"dropin-backend/models"

	"github.com/stretchr/testify/require"
)

func TestCreateGroupChat(t *testing.T) {
	setupTest(t)
	hostID, hostToken := createTestUser(t, "host@example.com", "Holly", "Host")
	dropinID := createTestDropin(t, hostID, "basketball", time.Now().Add(24*time.Hour))

	rr := doRequest(t, "POST", "/groupChats", hostToken, models.CreateGroupChatRequest{DropinID: dropinID})
	require.Equal(t, http.StatusCreated, rr.Code)

	var chat models.GroupChat
	decodeBody(t, rr, &chat)
	require.Equal(t, dropinID, chat.DropinID)

	// The creator is the only initial member.
	member, err := isChatMember(chat.ID, hostID)
	require.NoError(t, err)
	require.True(t, member)

	var members int
	require.NoError(t, database.DB.QueryRow(
		"SELECT COUNT(*) FROM group_chat_members WHERE chat_id = ?", chat.ID).Scan(&members))
	require.Equal(t, 1, members)
}

func TestCreateGroupChatForMissingDropin(t *testing.T) {
	setupTest(t)
	_, token := createTestUser(t, "host@example.com", "Holly", "Host")

	rr := doRequest(t, "POST", "/groupChats", token, models.CreateGroupChatRequest{DropinID: 404})
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestDuplicateGroupChatConflict(t *testing.T) {
	setupTest(t)
	hostID, hostToken := createTestUser(t, "host@example.com", "Holly", "Host")
	_, otherToken := createTestUser(t, "other@example.com", "Olga", "Other")
	dropinID := createTestDropin(t, hostID, "basketball", time.Now().Add(24*time.Hour))

	rr := doRequest(t, "POST", "/groupChats", hostToken, models.CreateGroupChatRequest{DropinID: dropinID})
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = doRequest(t, "POST", "/groupChats", otherToken, models.CreateGroupChatRequest{DropinID: dropinID})
	require.Equal(t, http.StatusConflict, rr.Code)

	var chats int
	require.NoError(t, database.DB.QueryRow(
		"SELECT COUNT(*) FROM group_chats WHERE dropin_id = ?", dropinID).Scan(&chats))
	require.Equal(t, 1, chats)
}

func TestGroupChatUniqueConstraintBacksTheCheck(t *testing.T) {
	setupTest(t)
	hostID, _ := createTestUser(t, "host@example.com", "Holly", "Host")
	dropinID := createTestDropin(t, hostID, "basketball", time.Now().Add(24*time.Hour))

	// Even if two inserts slip past the application pre-check, the
	// storage constraint rejects the second.
	_, err := database.DB.Exec("INSERT INTO group_chats (dropin_id, created_at) VALUES (?, ?)", dropinID, time.Now())
	require.NoError(t, err)
	_, err = database.DB.Exec("INSERT INTO group_chats (dropin_id, created_at) VALUES (?, ?)", dropinID, time.Now())
	require.Error(t, err)
}

func TestCreateGroupChatAtomicWithCreatorMember(t *testing.T) {
	setupTest(t)
	hostID, hostToken := createTestUser(t, "host@example.com", "Holly", "Host")
	dropinID := createTestDropin(t, hostID, "basketball", time.Now().Add(24*time.Hour))

	// Knock the member table out so the membership insert fails mid-create.
	_, err := database.DB.Exec("ALTER TABLE group_chat_members RENAME TO group_chat_members_hidden")
	require.NoError(t, err)

	rr := doRequest(t, "POST", "/groupChats", hostToken, models.CreateGroupChatRequest{DropinID: dropinID})
	require.Equal(t, http.StatusInternalServerError, rr.Code)

	// The failed create must not leave a memberless chat behind.
	var chats int
	require.NoError(t, database.DB.QueryRow(
		"SELECT COUNT(*) FROM group_chats WHERE dropin_id = ?", dropinID).Scan(&chats))
	require.Equal(t, 0, chats)

	// So a retry succeeds instead of tripping the dropin_id constraint.
	_, err = database.DB.Exec("ALTER TABLE group_chat_members_hidden RENAME TO group_chat_members")
	require.NoError(t, err)

	rr = doRequest(t, "POST", "/groupChats", hostToken, models.CreateGroupChatRequest{DropinID: dropinID})
	require.Equal(t, http.StatusCreated, rr.Code)
	var chat models.GroupChat
	decodeBody(t, rr, &chat)

	member, err := isChatMember(chat.ID, hostID)
	require.NoError(t, err)
	require.True(t, member)
}

func TestJoinGroupChat(t *testing.T) {
	setupTest(t)
	hostID, hostToken := createTestUser(t, "host@example.com", "Holly", "Host")
	guestID, guestToken := createTestUser(t, "guest@example.com", "Gary", "Guest")
	dropinID := createTestDropin(t, hostID, "basketball", time.Now().Add(24*time.Hour))

	rr := doRequest(t, "POST", "/groupChats", hostToken, models.CreateGroupChatRequest{DropinID: dropinID})
	require.Equal(t, http.StatusCreated, rr.Code)
	var chat models.GroupChat
	decodeBody(t, rr, &chat)

	// Not yet on the dropin: cannot enter its chat.
	rr = doRequest(t, "POST", fmt.Sprintf("/groupChats/%d/join", chat.ID), guestToken, nil)
	require.Equal(t, http.StatusForbidden, rr.Code)

	rr = doRequest(t, "POST", fmt.Sprintf("/dropins/%d/join", dropinID), guestToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doRequest(t, "POST", fmt.Sprintf("/groupChats/%d/join", chat.ID), guestToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	member, err := isChatMember(chat.ID, guestID)
	require.NoError(t, err)
	require.True(t, member)

	// Joining again is a no-op.
	rr = doRequest(t, "POST", fmt.Sprintf("/groupChats/%d/join", chat.ID), guestToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var members int
	require.NoError(t, database.DB.QueryRow(
		"SELECT COUNT(*) FROM group_chat_members WHERE chat_id = ? AND user_id = ?", chat.ID, guestID).Scan(&members))
	require.Equal(t, 1, members)
}

func TestJoinMissingGroupChat(t *testing.T) {
	setupTest(t)
	_, token := createTestUser(t, "guest@example.com", "Gary", "Guest")

	rr := doRequest(t, "POST", "/groupChats/404/join", token, nil)
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestGetMyGroupChats(t *testing.T) {
	setupTest(t)
	hostID, hostToken := createTestUser(t, "host@example.com", "Holly", "Host")
	_, otherToken := createTestUser(t, "other@example.com", "Olga", "Other")
	dropinID := createTestDropin(t, hostID, "basketball", time.Now().Add(24*time.Hour))

	rr := doRequest(t, "POST", "/groupChats", hostToken, models.CreateGroupChatRequest{DropinID: dropinID})
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = doRequest(t, "GET", "/groupChats/me", hostToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var chats []models.GroupChatResponse
	decodeBody(t, rr, &chats)
	require.Len(t, chats, 1)
	require.Equal(t, dropinID, chats[0].DropinID)
	require.Equal(t, "Test basketball", chats[0].DropinTitle)
	require.Equal(t, hostID, chats[0].Host.ID)

	// Non-members see nothing.
	rr = doRequest(t, "GET", "/groupChats/me", otherToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	chats = nil
	decodeBody(t, rr, &chats)
	require.Empty(t, chats)
}
