package models

import "errors"

// Session errors
var (
	ErrInvalidToken   = errors.New("invalid session token") // 401
	ErrUnknownSession = errors.New("session not found")     // 401
)

// Dropin errors
var (
	ErrDropinNotFound = errors.New("dropin not found")                     // 404
	ErrAlreadyJoined  = errors.New("you have already joined this dropin") // 409
	ErrDropinPast     = errors.New("this dropin has already happened")    // 409
	ErrHostCannotJoin = errors.New("hosts cannot join their own dropin")  // 403
)

// Group chat errors
var (
	ErrChatNotFound  = errors.New("group chat not found")                           // 404
	ErrChatExists    = errors.New("a group chat for this dropin already exists")    // 409
	ErrNotChatMember = errors.New("you are not a member of this group chat")        // 403
	ErrNotAttendee   = errors.New("you must join the dropin before its group chat") // 403
)
