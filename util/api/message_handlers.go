package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"dropin-backend/database"
	"dropin-backend/middleware"
	"dropin-backend/models"
)

// chatExists reports whether a group chat row is present.
func chatExists(chatID int64) (bool, error) {
	var exists bool
	err := database.DB.QueryRow("SELECT EXISTS(SELECT 1 FROM group_chats WHERE id = ?)", chatID).Scan(&exists)
	return exists, err
}

// requireChatAccess runs the shared membership gate for reads and writes.
// It writes the error response itself and reports whether to continue.
func requireChatAccess(w http.ResponseWriter, chatID, userID int64) bool {
	exists, err := chatExists(chatID)
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return false
	}
	if !exists {
		http.Error(w, models.ErrChatNotFound.Error(), http.StatusNotFound)
		return false
	}

	member, err := isChatMember(chatID, userID)
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return false
	}
	if !member {
		http.Error(w, models.ErrNotChatMember.Error(), http.StatusForbidden)
		return false
	}
	return true
}

// PostMessageHandler appends a message to a chat the sender belongs to.
func PostMessageHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok || userID == 0 {
		http.Error(w, "Please authenticate.", http.StatusUnauthorized)
		return
	}

	var req models.PostMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ChatID == 0 {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Text == "" {
		http.Error(w, "Message text cannot be empty", http.StatusBadRequest)
		return
	}

	if !requireChatAccess(w, req.ChatID, userID) {
		return
	}

	now := time.Now()
	result, err := database.DB.Exec(
		"INSERT INTO messages (chat_id, sender_id, text, created_at) VALUES (?, ?, ?, ?)",
		req.ChatID, userID, req.Text, now)
	if err != nil {
		log.Printf("Error saving message in chat %d: %v", req.ChatID, err)
		http.Error(w, "Failed to save message", http.StatusInternalServerError)
		return
	}
	messageID, _ := result.LastInsertId()

	var senderName string
	var first, last string
	if err := database.DB.QueryRow("SELECT first_name, last_name FROM users WHERE id = ?", userID).Scan(&first, &last); err == nil {
		senderName = first + " " + last
	}

	resp := models.MessageResponse{
		Message: models.Message{
			ID:        messageID,
			ChatID:    req.ChatID,
			SenderID:  userID,
			Text:      req.Text,
			CreatedAt: now,
		},
		SenderName: senderName,
	}

	// Live delivery to online members; the stored row is authoritative. The
	// fan-out is a few in-memory writes, so it runs before the response.
	BroadcastToChat(req.ChatID, "chat_message", resp, &userID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(resp)
}

// ListMessagesHandler returns a chat's messages in creation order. Reads are
// gated by the same membership check as writes.
func ListMessagesHandler(w http.ResponseWriter, r *http.Request) {
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

	if !requireChatAccess(w, chatID, userID) {
		return
	}

	rows, err := database.DB.Query(`
		SELECT m.id, m.chat_id, m.sender_id, u.first_name, u.last_name, m.text, m.created_at
		FROM messages m JOIN users u ON m.sender_id = u.id
		WHERE m.chat_id = ?
		ORDER BY m.created_at ASC, m.id ASC`, chatID)
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	messages := []models.MessageResponse{}
	for rows.Next() {
		var m models.MessageResponse
		var first, last string
		if err := rows.Scan(&m.ID, &m.ChatID, &m.SenderID, &first, &last, &m.Text, &m.CreatedAt); err != nil {
			http.Error(w, "Database error", http.StatusInternalServerError)
			return
		}
		m.SenderName = first + " " + last
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(messages)
}
