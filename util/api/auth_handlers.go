package api

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"dropin-backend/database"
	"dropin-backend/middleware"
	"dropin-backend/models"
	"dropin-backend/util"

	"golang.org/x/crypto/bcrypt"
)

func setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     util.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(util.SessionTTL()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   false,
	})
}

// SignupHandler creates a user and logs them in.
func SignupHandler(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Error reading request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if req.Email == "" || req.Password == "" || req.FirstName == "" || req.LastName == "" {
		http.Error(w, "Email, password, first name and last name are required", http.StatusBadRequest)
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, "Error processing password", http.StatusInternalServerError)
		log.Printf("Error hashing password: %v", err)
		return
	}

	interestsJSON, _ := json.Marshal(req.Interests)
	now := time.Now()
	result, err := database.DB.Exec(`
		INSERT INTO users (email, password_hash, first_name, last_name, gender, date_of_birth, address, introduction, interests, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.Email, string(hashedPassword), req.FirstName, req.LastName,
		req.Gender, req.DateOfBirth, req.Address, req.Intro, string(interestsJSON), now,
	)
	if err != nil {
		// UNIQUE(email) violation lands here for duplicate signups
		http.Error(w, "Failed to register user: "+err.Error(), http.StatusBadRequest)
		log.Printf("Error inserting user: %v", err)
		return
	}

	userID, err := result.LastInsertId()
	if err != nil {
		http.Error(w, "Failed to retrieve user ID", http.StatusInternalServerError)
		log.Printf("Error getting last insert ID: %v", err)
		return
	}

	token, err := util.CreateSession(userID)
	if err != nil {
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		log.Printf("Failed to create session for new user %d: %v", userID, err)
		return
	}
	setSessionCookie(w, token)
	log.Printf("User %s (ID: %d) signed up and session created.", req.Email, userID)

	user, err := getUserByID(userID)
	if err != nil {
		http.Error(w, "Failed to load user", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(models.AuthResponse{User: *user, Token: token})
}

// LoginHandler authenticates by email and password and issues a new session
// token alongside any the user already holds on other devices.
func LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Error reading request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Password == "" {
		http.Error(w, "Email and password are required", http.StatusBadRequest)
		return
	}

	var userID int64
	var storedHash string
	err := database.DB.QueryRow("SELECT id, password_hash FROM users WHERE email = ?", req.Email).Scan(&userID, &storedHash)
	if err != nil {
		if err == sql.ErrNoRows {
			http.Error(w, "Invalid email or password", http.StatusUnauthorized)
		} else {
			log.Printf("Login failed - database error: %v", err)
			http.Error(w, "Database error", http.StatusInternalServerError)
		}
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(req.Password)); err != nil {
		log.Printf("Login failed - invalid password for: %s", req.Email)
		http.Error(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	token, err := util.CreateSession(userID)
	if err != nil {
		log.Printf("Login failed - session creation error: %v", err)
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}
	setSessionCookie(w, token)
	log.Printf("Login successful for user: %s (ID: %d)", req.Email, userID)

	user, err := getUserByID(userID)
	if err != nil {
		http.Error(w, "Failed to load user", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(models.AuthResponse{User: *user, Token: token})
}

// LogoutHandler revokes the presented token only; sessions on other devices
// stay valid.
func LogoutHandler(w http.ResponseWriter, r *http.Request) {
	token, ok := r.Context().Value(middleware.TokenKey).(string)
	if !ok || token == "" {
		http.Error(w, "No active session", http.StatusUnauthorized)
		return
	}

	if err := util.DeleteSession(token); err != nil {
		log.Printf("Error deleting session: %v", err)
		http.Error(w, "Failed to log out", http.StatusInternalServerError)
		return
	}
	middleware.ClearSessionCookie(w)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Logged out successfully"})
}

// VerifyHandler echoes the authenticated user.
func VerifyHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok || userID == 0 {
		http.Error(w, "Please authenticate.", http.StatusUnauthorized)
		return
	}

	user, err := getUserByID(userID)
	if err != nil {
		http.Error(w, "Failed to load user", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"user": user})
}
