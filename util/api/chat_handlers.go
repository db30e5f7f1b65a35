package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"dropin-backend/database"
	"dropin-backend/middleware"
	"dropin-backend/models"

	"github.com/mattn/go-sqlite3"
)

// isChatMember reports whether the user is in the chat's member set.
func isChatMember(chatID, userID int64) (bool, error) {
	var member bool
	err := database.DB.QueryRow(
		"SELECT EXISTS(SELECT 1 FROM group_chat_members WHERE chat_id = ? AND user_id = ?)",
		chatID, userID,
	).Scan(&member)
	return member, err
}

// CreateGroupChatHandler opens the single group chat for a dropin. The
// UNIQUE constraint on group_chats.dropin_id decides races; the pre-check
// only exists to give the common case a clean answer without an insert.
func CreateGroupChatHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok || userID == 0 {
		http.Error(w, "Please authenticate.", http.StatusUnauthorized)
		return
	}

	var req models.CreateGroupChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.DropinID == 0 {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var dropinExists bool
	err := database.DB.QueryRow("SELECT EXISTS(SELECT 1 FROM dropins WHERE id = ?)", req.DropinID).Scan(&dropinExists)
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	if !dropinExists {
		http.Error(w, models.ErrDropinNotFound.Error(), http.StatusNotFound)
		return
	}

	var existing int64
	err = database.DB.QueryRow("SELECT id FROM group_chats WHERE dropin_id = ?", req.DropinID).Scan(&existing)
	if err == nil {
		http.Error(w, models.ErrChatExists.Error(), http.StatusConflict)
		return
	}
	if err != sql.ErrNoRows {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	// Chat row and creator membership land together or not at all: a chat
	// without its creator would block every retry on the dropin_id constraint.
	tx, err := database.DB.Begin()
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	defer tx.Rollback()

	now := time.Now()
	result, err := tx.Exec(
		"INSERT INTO group_chats (dropin_id, created_at) VALUES (?, ?)", req.DropinID, now)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			// Lost the race against a concurrent create for the same dropin.
			http.Error(w, models.ErrChatExists.Error(), http.StatusConflict)
			return
		}
		log.Printf("Error creating group chat for dropin %d: %v", req.DropinID, err)
		http.Error(w, "Failed to create group chat", http.StatusInternalServerError)
		return
	}
	chatID, _ := result.LastInsertId()

	_, err = tx.Exec(
		"INSERT INTO group_chat_members (chat_id, user_id, joined_at) VALUES (?, ?, ?)",
		chatID, userID, now)
	if err != nil {
		log.Printf("Error seeding creator member for chat %d: %v", chatID, err)
		http.Error(w, "Failed to create group chat", http.StatusInternalServerError)
		return
	}
	if err := tx.Commit(); err != nil {
		log.Printf("Error committing group chat for dropin %d: %v", req.DropinID, err)
		http.Error(w, "Failed to create group chat", http.StatusInternalServerError)
		return
	}
	log.Printf("User %d created group chat %d for dropin %d", userID, chatID, req.DropinID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(models.GroupChat{ID: chatID, DropinID: req.DropinID, CreatedAt: now})
}

// GetMyGroupChatsHandler lists the chats the authenticated user belongs to,
// joined with each chat's dropin display fields.
func GetMyGroupChatsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok || userID == 0 {
		http.Error(w, "Please authenticate.", http.StatusUnauthorized)
		return
	}

	rows, err := database.DB.Query(`
		SELECT c.id, c.dropin_id, d.title, d.date, d.location, c.created_at,
		       h.id, h.first_name, h.last_name, h.avatar_path
		FROM group_chats c
		JOIN group_chat_members m ON c.id = m.chat_id AND m.user_id = ?
		JOIN dropins d ON c.dropin_id = d.id
		JOIN users h ON d.host_id = h.id
		ORDER BY c.created_at DESC`, userID)
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	chats := []models.GroupChatResponse{}
	for rows.Next() {
		var c models.GroupChatResponse
		var first, last string
		var avatar sql.NullString
		err := rows.Scan(&c.ID, &c.DropinID, &c.DropinTitle, &c.DropinDate, &c.Location,
			&c.CreatedAt, &c.Host.ID, &first, &last, &avatar)
		if err != nil {
			http.Error(w, "Database error", http.StatusInternalServerError)
			return
		}
		c.Host.Name = first + " " + last
		c.Host.Avatar = avatar.String
		chats = append(chats, c)
	}
	if err := rows.Err(); err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(chats)
}

// JoinGroupChatHandler adds the authenticated user to a chat's member set.
// Only people on the dropin itself (attendees or the host) may enter its
// chat. The add is an idempotent set-insert.
func JoinGroupChatHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok || userID == 0 {
		http.Error(w, "Please authenticate.", http.StatusUnauthorized)
		return
	}

	chatID, err := strconv.ParseInt(r.PathValue("chatID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid chat id", http.StatusBadRequest)
		return
	}

	var dropinID int64
	err = database.DB.QueryRow("SELECT dropin_id FROM group_chats WHERE id = ?", chatID).Scan(&dropinID)
	if err != nil {
		if err == sql.ErrNoRows {
			http.Error(w, models.ErrChatNotFound.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	var allowed bool
	err = database.DB.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM dropin_attendees WHERE dropin_id = ? AND user_id = ?)
		    OR EXISTS(SELECT 1 FROM dropins WHERE id = ? AND host_id = ?)`,
		dropinID, userID, dropinID, userID,
	).Scan(&allowed)
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	if !allowed {
		http.Error(w, models.ErrNotAttendee.Error(), http.StatusForbidden)
		return
	}

	_, err = database.DB.Exec(
		"INSERT OR IGNORE INTO group_chat_members (chat_id, user_id, joined_at) VALUES (?, ?, ?)",
		chatID, userID, time.Now())
	if err != nil {
		log.Printf("Error joining chat %d for user %d: %v", chatID, userID, err)
		http.Error(w, "Failed to join group chat", http.StatusInternalServerError)
		return
	}
	log.Printf("User %d joined group chat %d", userID, chatID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Joined group chat"})
}
