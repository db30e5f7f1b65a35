package api

import (
	"log"
	"net/http"
	"sync"

	"dropin-backend/database"
	"dropin-backend/middleware"
	"dropin-backend/util"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for dev (restrict in production)
	},
}

// Active WebSocket connections per user.
var (
	activeConnections = make(map[int64]*websocket.Conn)
	connectionsMutex  sync.RWMutex
)

type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// WebSocketHandler keeps one live connection per user for chat delivery.
// New messages posted to a group chat are pushed to its online members.
func WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	// Browsers cannot set headers on websocket dials, so accept the token
	// from the query string as well as the usual cookie/header path.
	token := r.URL.Query().Get("token")
	if token == "" {
		token = middleware.TokenFromRequest(r)
	}
	userID, err := util.GetUserIDFromSession(token)
	if err != nil {
		http.Error(w, "Please authenticate.", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	connectionsMutex.Lock()
	activeConnections[userID] = conn
	connectionsMutex.Unlock()

	log.Printf("User %d connected via WebSocket", userID)

	defer func() {
		connectionsMutex.Lock()
		delete(activeConnections, userID)
		connectionsMutex.Unlock()
		log.Printf("User %d disconnected from WebSocket", userID)
	}()

	conn.WriteJSON(WSMessage{Type: "connected", Data: map[string]string{"status": "connected"}})

	// The connection is push-only; drain client frames until it closes.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// BroadcastToUser delivers one payload to a user's live connection, if any.
func BroadcastToUser(userID int64, msgType string, data interface{}) {
	connectionsMutex.RLock()
	conn, exists := activeConnections[userID]
	connectionsMutex.RUnlock()

	if exists {
		if err := conn.WriteJSON(WSMessage{Type: msgType, Data: data}); err != nil {
			log.Printf("Error broadcasting to user %d: %v", userID, err)
			// Remove dead connection
			connectionsMutex.Lock()
			delete(activeConnections, userID)
			connectionsMutex.Unlock()
		}
	}
}

// BroadcastToChat delivers a payload to every member of a group chat.
func BroadcastToChat(chatID int64, msgType string, data interface{}, excludeUserID *int64) {
	rows, err := database.DB.Query("SELECT user_id FROM group_chat_members WHERE chat_id = ?", chatID)
	if err != nil {
		log.Printf("Error getting chat members: %v", err)
		return
	}
	defer rows.Close()

	for rows.Next() {
		var memberID int64
		if err := rows.Scan(&memberID); err != nil {
			continue
		}
		if excludeUserID != nil && memberID == *excludeUserID {
			continue
		}
		BroadcastToUser(memberID, msgType, data)
	}
}
