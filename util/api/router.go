package api

import (
	"net/http"

	"dropin-backend/middleware"
)

// NewRouter wires every API route. Mutating routes sit behind the auth
// middleware; dropin reads and the feed are public.
func NewRouter() *http.ServeMux {
	mux := http.NewServeMux()

	// Auth
	mux.HandleFunc("POST /users/signup", SignupHandler)
	mux.HandleFunc("POST /users/login", LoginHandler)
	mux.Handle("POST /users/logout", middleware.AuthMiddleware(http.HandlerFunc(LogoutHandler)))
	mux.Handle("GET /users/verify", middleware.AuthMiddleware(http.HandlerFunc(VerifyHandler)))

	// Profile
	mux.Handle("PATCH /users/me", middleware.AuthMiddleware(http.HandlerFunc(UpdateProfileHandler)))
	mux.Handle("POST /users/me/avatar", middleware.AuthMiddleware(http.HandlerFunc(AvatarUploadHandler)))
	mux.HandleFunc("GET /users/{userID}/avatar", GetAvatarHandler)
	mux.Handle("GET /users/me/createdDropins", middleware.AuthMiddleware(http.HandlerFunc(GetCreatedDropinsHandler)))
	mux.Handle("GET /users/me/joinedDropins", middleware.AuthMiddleware(http.HandlerFunc(GetJoinedDropinsHandler)))

	// Dropins
	mux.Handle("POST /dropins/create", middleware.AuthMiddleware(http.HandlerFunc(CreateDropinHandler)))
	mux.HandleFunc("GET /dropins/{dropinID}", GetDropinHandler)
	mux.Handle("POST /dropins/{dropinID}/join", middleware.AuthMiddleware(http.HandlerFunc(JoinDropinHandler)))
	mux.HandleFunc("GET /feed", GetFeedHandler)

	// Group chats
	mux.Handle("POST /groupChats", middleware.AuthMiddleware(http.HandlerFunc(CreateGroupChatHandler)))
	mux.Handle("GET /groupChats/me", middleware.AuthMiddleware(http.HandlerFunc(GetMyGroupChatsHandler)))
	mux.Handle("POST /groupChats/{chatID}/join", middleware.AuthMiddleware(http.HandlerFunc(JoinGroupChatHandler)))

	// Messages
	mux.Handle("POST /messages", middleware.AuthMiddleware(http.HandlerFunc(PostMessageHandler)))
	mux.Handle("GET /messages/{chatID}", middleware.AuthMiddleware(http.HandlerFunc(ListMessagesHandler)))

	// Live chat delivery; does its own auth so browser dials can pass the
	// token in the query string.
	mux.HandleFunc("/ws", WebSocketHandler)

	return mux
}
