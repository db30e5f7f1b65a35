package api

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"

	"dropin-backend/database"
	"dropin-backend/middleware"
	"dropin-backend/models"
)

// getUserByID loads a full user row.
func getUserByID(userID int64) (*models.User, error) {
	var u models.User
	var gender, dob, address, intro, interests, avatar sql.NullString
	err := database.DB.QueryRow(`
		SELECT id, email, first_name, last_name, gender, date_of_birth, address, introduction, interests, avatar_path, created_at
		FROM users WHERE id = ?`, userID,
	).Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &gender, &dob, &address, &intro, &interests, &avatar, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	u.Gender = gender.String
	u.DateOfBirth = dob.String
	u.Address = address.String
	u.Intro = intro.String
	u.Avatar = avatar.String
	if interests.String != "" {
		if err := json.Unmarshal([]byte(interests.String), &u.Interests); err != nil {
			u.Interests = nil
		}
	}
	return &u, nil
}

// getUserSummary resolves a user to its compact display form.
func getUserSummary(userID int64) (models.UserSummary, error) {
	var s models.UserSummary
	var first, last string
	var avatar sql.NullString
	err := database.DB.QueryRow(
		"SELECT id, first_name, last_name, avatar_path FROM users WHERE id = ?", userID,
	).Scan(&s.ID, &first, &last, &avatar)
	if err != nil {
		return s, err
	}
	s.Name = first + " " + last
	s.Avatar = avatar.String
	return s, nil
}

// UpdateProfileHandler applies a partial profile update. Only the fields
// enumerated in UpdateProfileRequest are updatable; any other field in the
// body fails the decode.
func UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok || userID == 0 {
		http.Error(w, "Please authenticate.", http.StatusUnauthorized)
		return
	}

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	var req models.UpdateProfileRequest
	if err := decoder.Decode(&req); err != nil {
		http.Error(w, "Invalid update.", http.StatusBadRequest)
		return
	}

	query := "UPDATE users SET "
	var args []interface{}
	appendSet := func(column string, value interface{}) {
		if len(args) > 0 {
			query += ", "
		}
		query += column + " = ?"
		args = append(args, value)
	}

	if req.FirstName != nil {
		appendSet("first_name", *req.FirstName)
	}
	if req.LastName != nil {
		appendSet("last_name", *req.LastName)
	}
	if req.Gender != nil {
		appendSet("gender", *req.Gender)
	}
	if req.DateOfBirth != nil {
		appendSet("date_of_birth", *req.DateOfBirth)
	}
	if req.Address != nil {
		appendSet("address", *req.Address)
	}
	if req.Intro != nil {
		appendSet("introduction", *req.Intro)
	}
	if req.Interests != nil {
		interestsJSON, _ := json.Marshal(*req.Interests)
		appendSet("interests", string(interestsJSON))
	}

	if len(args) == 0 {
		http.Error(w, "Invalid update.", http.StatusBadRequest)
		return
	}

	query += " WHERE id = ?"
	args = append(args, userID)
	if _, err := database.DB.Exec(query, args...); err != nil {
		log.Printf("Error updating profile for user %d: %v", userID, err)
		http.Error(w, "Failed to update profile", http.StatusInternalServerError)
		return
	}

	user, err := getUserByID(userID)
	if err != nil {
		http.Error(w, "Failed to load user", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}

// dropinsByQuery runs a dropin listing query and assembles plain Dropin rows.
func dropinsByQuery(query string, args ...interface{}) ([]models.Dropin, error) {
	rows, err := database.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	dropins := []models.Dropin{}
	for rows.Next() {
		d, err := scanDropin(rows)
		if err != nil {
			return nil, err
		}
		dropins = append(dropins, *d)
	}
	return dropins, rows.Err()
}

// GetCreatedDropinsHandler lists dropins hosted by the authenticated user.
func GetCreatedDropinsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok || userID == 0 {
		http.Error(w, "Please authenticate.", http.StatusUnauthorized)
		return
	}

	dropins, err := dropinsByQuery(
		selectDropinSQL+" WHERE host_id = ? ORDER BY created_at DESC", userID)
	if err != nil {
		log.Printf("Error listing created dropins for user %d: %v", userID, err)
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(dropins)
}

// GetJoinedDropinsHandler lists dropins the authenticated user has joined.
func GetJoinedDropinsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok || userID == 0 {
		http.Error(w, "Please authenticate.", http.StatusUnauthorized)
		return
	}

	dropins, err := dropinsByQuery(
		selectDropinSQL+` WHERE id IN (SELECT dropin_id FROM user_joined_dropins WHERE user_id = ?)
		ORDER BY created_at DESC`, userID)
	if err != nil {
		log.Printf("Error listing joined dropins for user %d: %v", userID, err)
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(dropins)
}
