package api

import (
	"database/sql"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"dropin-backend/database"
	"dropin-backend/middleware"

	"github.com/google/uuid"
)

// AvatarUploadHandler stores a new profile picture for the authenticated
// user and records its public path.
func AvatarUploadHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok || userID == 0 {
		http.Error(w, "Please authenticate.", http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		http.Error(w, "Error parsing multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		http.Error(w, "Error retrieving avatar file: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	allowedExts := map[string]bool{".jpg": true, ".jpeg": true, ".png": true}
	if !allowedExts[ext] {
		http.Error(w, "Please upload an image with .jpg, .jpeg, or .png extension", http.StatusBadRequest)
		return
	}

	uploadsDir := "./uploads/avatars"
	if err := os.MkdirAll(uploadsDir, os.ModePerm); err != nil {
		http.Error(w, "Error creating uploads directory", http.StatusInternalServerError)
		log.Printf("Error creating uploads directory: %v", err)
		return
	}

	filename := uuid.NewString() + ext
	filePath := filepath.Join(uploadsDir, filename)
	dst, err := os.Create(filePath)
	if err != nil {
		http.Error(w, "Error creating file", http.StatusInternalServerError)
		log.Printf("Error creating avatar file: %v", err)
		return
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		http.Error(w, "Error saving file", http.StatusInternalServerError)
		log.Printf("Error saving avatar file: %v", err)
		return
	}

	avatarPath := "/uploads/avatars/" + filename
	if _, err := database.DB.Exec("UPDATE users SET avatar_path = ? WHERE id = ?", avatarPath, userID); err != nil {
		http.Error(w, "Failed to update avatar", http.StatusInternalServerError)
		log.Printf("Error updating avatar for user %d: %v", userID, err)
		return
	}

	user, err := getUserByID(userID)
	if err != nil {
		http.Error(w, "Failed to load user", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"user":    user,
		"message": "Avatar updated successfully",
	})
}

// GetAvatarHandler serves a user's profile picture. Public, like the rest
// of the uploads tree.
func GetAvatarHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.PathValue("userID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid user id", http.StatusBadRequest)
		return
	}

	var avatarPath sql.NullString
	err = database.DB.QueryRow("SELECT avatar_path FROM users WHERE id = ?", userID).Scan(&avatarPath)
	if err != nil || avatarPath.String == "" {
		http.Error(w, "Either user or the profile picture does not exist", http.StatusNotFound)
		return
	}

	// Stored paths are always /uploads/...; serve from the local tree.
	http.ServeFile(w, r, "."+avatarPath.String)
}
