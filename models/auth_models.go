package models

import "time"

// SignupRequest defines the structure for the signup request body.
type SignupRequest struct {
	Email       string   `json:"email"`
	Password    string   `json:"password"`
	FirstName   string   `json:"first_name"`
	LastName    string   `json:"last_name"`
	Gender      string   `json:"gender"`
	DateOfBirth string   `json:"date_of_birth"`
	Address     string   `json:"address"`
	Intro       string   `json:"introduction"`
	Interests   []string `json:"interests"`
}

// LoginRequest defines the structure for the login request body.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// User represents a user row. The password hash never leaves the server.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Gender       string    `json:"gender,omitempty"`
	DateOfBirth  string    `json:"date_of_birth,omitempty"`
	Address      string    `json:"address,omitempty"`
	Intro        string    `json:"introduction,omitempty"`
	Interests    []string  `json:"interests,omitempty"`
	Avatar       string    `json:"avatar,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// AuthResponse is returned by signup and login: the user plus the freshly
// issued session token (the same token is also set as a cookie).
type AuthResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// UpdateProfileRequest enumerates the profile fields a user may change.
// A nil field means "leave unchanged"; unknown fields are rejected at decode
// time. Email and password are deliberately not updatable here.
type UpdateProfileRequest struct {
	FirstName   *string   `json:"first_name"`
	LastName    *string   `json:"last_name"`
	Gender      *string   `json:"gender"`
	DateOfBirth *string   `json:"date_of_birth"`
	Address     *string   `json:"address"`
	Intro       *string   `json:"introduction"`
	Interests   *[]string `json:"interests"`
}

// UserSummary is the compact identity used wherever a user is displayed
// inside another resource (hosts, attendees, chat members).
type UserSummary struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}
