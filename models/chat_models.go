package models

import "time"

type GroupChat struct {
	ID        int64     `json:"id"`
	DropinID  int64     `json:"dropin_id"`
	CreatedAt time.Time `json:"created_at"`
}

// GroupChatResponse joins a chat with its dropin's display fields for the
// "my chats" listing. Media fields are intentionally absent.
type GroupChatResponse struct {
	ID          int64       `json:"id"`
	DropinID    int64       `json:"dropin_id"`
	DropinTitle string      `json:"dropin_title"`
	DropinDate  time.Time   `json:"dropin_date"`
	Location    string      `json:"location"`
	Host        UserSummary `json:"host"`
	CreatedAt   time.Time   `json:"created_at"`
}

type Message struct {
	ID        int64     `json:"id"`
	ChatID    int64     `json:"chat_id"`
	SenderID  int64     `json:"sender_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// MessageResponse adds the sender's display name for rendering.
type MessageResponse struct {
	Message
	SenderName string `json:"sender_name"`
}

type PostMessageRequest struct {
	ChatID int64  `json:"group_chat_id"`
	Text   string `json:"text"`
}

type CreateGroupChatRequest struct {
	DropinID int64 `json:"dropin_id"`
}
