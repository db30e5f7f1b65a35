package api

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"dropin-backend/database"
	"dropin-backend/middleware"
	"dropin-backend/models"

	"github.com/google/uuid"
)

const selectDropinSQL = `SELECT id, type, title, date, location, address, navigation, description,
	entry_fee, interest_tags, image_path, host_id, attendees_count, created_at FROM dropins`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDropin(row rowScanner) (*models.Dropin, error) {
	var d models.Dropin
	var navigation, tags, imagePath sql.NullString
	err := row.Scan(&d.ID, &d.Type, &d.Title, &d.Date, &d.Location, &d.Address,
		&navigation, &d.Description, &d.EntryFee, &tags, &imagePath,
		&d.HostID, &d.AttendeesCount, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	d.Navigation = navigation.String
	d.ImagePath = imagePath.String
	if tags.String != "" {
		if err := json.Unmarshal([]byte(tags.String), &d.InterestTags); err != nil {
			d.InterestTags = nil
		}
	}
	return &d, nil
}

// getDropinResponse loads a dropin with host and attendee summaries resolved.
func getDropinResponse(dropinID int64) (*models.DropinResponse, error) {
	d, err := scanDropin(database.DB.QueryRow(selectDropinSQL+" WHERE id = ?", dropinID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrDropinNotFound
		}
		return nil, err
	}

	host, err := getUserSummary(d.HostID)
	if err != nil {
		return nil, err
	}

	rows, err := database.DB.Query(`
		SELECT u.id, u.first_name, u.last_name, u.avatar_path
		FROM dropin_attendees da JOIN users u ON da.user_id = u.id
		WHERE da.dropin_id = ? ORDER BY da.joined_at ASC`, dropinID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	attendees := []models.UserSummary{}
	for rows.Next() {
		var s models.UserSummary
		var first, last string
		var avatar sql.NullString
		if err := rows.Scan(&s.ID, &first, &last, &avatar); err != nil {
			return nil, err
		}
		s.Name = first + " " + last
		s.Avatar = avatar.String
		attendees = append(attendees, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &models.DropinResponse{Dropin: *d, Host: host, Attendees: attendees}, nil
}

// saveDropinImage stores an uploaded image under ./uploads/dropins and
// returns the public path.
func saveDropinImage(r *http.Request) (string, error) {
	file, header, err := r.FormFile("dropInImage")
	if err != nil {
		if err == http.ErrMissingFile {
			return "", nil
		}
		return "", err
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	allowedExts := map[string]bool{".jpg": true, ".jpeg": true, ".png": true}
	if !allowedExts[ext] {
		return "", fmt.Errorf("please upload an image with .jpg, .jpeg, or .png extension")
	}

	uploadsDir := "./uploads/dropins"
	if err := os.MkdirAll(uploadsDir, os.ModePerm); err != nil {
		return "", err
	}

	filename := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(uploadsDir, filename))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		return "", err
	}
	return "/uploads/dropins/" + filename, nil
}

// CreateDropinHandler creates a dropin hosted by the authenticated user.
// The host seeds the attendee list, matching what clients expect to render.
func CreateDropinHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok || userID == 0 {
		http.Error(w, "Please authenticate.", http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		http.Error(w, "Error parsing multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}

	required := []string{"type", "title", "date", "location", "address", "description"}
	var missing []string
	for _, field := range required {
		if r.FormValue(field) == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		http.Error(w, "Missing required fields: "+strings.Join(missing, ", "), http.StatusBadRequest)
		return
	}

	date, err := time.Parse(time.RFC3339, r.FormValue("date"))
	if err != nil {
		http.Error(w, "Invalid date format, expected RFC3339", http.StatusBadRequest)
		return
	}

	entryFee := 0.0
	if v := r.FormValue("entryFee"); v != "" {
		entryFee, err = strconv.ParseFloat(v, 64)
		if err != nil {
			http.Error(w, "Invalid entryFee", http.StatusBadRequest)
			return
		}
	}

	imagePath, err := saveDropinImage(r)
	if err != nil {
		http.Error(w, "Error processing image: "+err.Error(), http.StatusBadRequest)
		return
	}

	dropinType := r.FormValue("type")
	tagsJSON, _ := json.Marshal([]string{dropinType})
	now := time.Now()

	tx, err := database.DB.Begin()
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	defer tx.Rollback()

	result, err := tx.Exec(`
		INSERT INTO dropins (type, title, date, location, address, navigation, description,
			entry_fee, interest_tags, image_path, host_id, attendees_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?)`,
		dropinType, r.FormValue("title"), date, r.FormValue("location"), r.FormValue("address"),
		r.FormValue("navigation"), r.FormValue("description"), entryFee,
		string(tagsJSON), imagePath, userID, now,
	)
	if err != nil {
		log.Printf("Error inserting dropin: %v", err)
		http.Error(w, "Failed to create dropin", http.StatusInternalServerError)
		return
	}
	dropinID, _ := result.LastInsertId()

	// The host opens the attendee list.
	_, err = tx.Exec("INSERT INTO dropin_attendees (dropin_id, user_id, joined_at) VALUES (?, ?, ?)",
		dropinID, userID, now)
	if err != nil {
		log.Printf("Error seeding host attendee for dropin %d: %v", dropinID, err)
		http.Error(w, "Failed to create dropin", http.StatusInternalServerError)
		return
	}

	if err := tx.Commit(); err != nil {
		http.Error(w, "Failed to create dropin", http.StatusInternalServerError)
		return
	}

	resp, err := getDropinResponse(dropinID)
	if err != nil {
		http.Error(w, "Failed to load dropin", http.StatusInternalServerError)
		return
	}
	log.Printf("User %d created dropin %d (%s)", userID, dropinID, resp.Title)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Dropin created successfully",
		"dropin":  resp,
	})
}

// GetDropinHandler returns one dropin with host and attendees resolved.
func GetDropinHandler(w http.ResponseWriter, r *http.Request) {
	dropinID, err := strconv.ParseInt(r.PathValue("dropinID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid dropin id", http.StatusBadRequest)
		return
	}

	resp, err := getDropinResponse(dropinID)
	if err != nil {
		if err == models.ErrDropinNotFound {
			http.Error(w, "Dropin not found", http.StatusNotFound)
			return
		}
		log.Printf("Error retrieving dropin %d: %v", dropinID, err)
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Dropin retrieved successfully",
		"dropin":  resp,
	})
}

// joinDropin enforces the join preconditions and applies both membership
// writes in one transaction. Precondition order matters: nothing is mutated
// until every check has passed, so a failed join leaves no partial state.
func joinDropin(dropinID, userID int64) error {
	tx, err := database.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var hostID int64
	var date time.Time
	err = tx.QueryRow("SELECT host_id, date FROM dropins WHERE id = ?", dropinID).Scan(&hostID, &date)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.ErrDropinNotFound
		}
		return err
	}

	if hostID == userID {
		return models.ErrHostCannotJoin
	}
	if date.Before(time.Now()) {
		return models.ErrDropinPast
	}

	// Both membership stores are consulted so that a divergent row in
	// either one still reports the join as already done.
	var joined bool
	err = tx.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM dropin_attendees WHERE dropin_id = ? AND user_id = ?)
		    OR EXISTS(SELECT 1 FROM user_joined_dropins WHERE user_id = ? AND dropin_id = ?)`,
		dropinID, userID, userID, dropinID,
	).Scan(&joined)
	if err != nil {
		return err
	}
	if joined {
		return models.ErrAlreadyJoined
	}

	result, err := tx.Exec(
		"INSERT OR IGNORE INTO dropin_attendees (dropin_id, user_id, joined_at) VALUES (?, ?, ?)",
		dropinID, userID, time.Now())
	if err != nil {
		return err
	}

	// Only count the add if it actually changed membership; a concurrent
	// duplicate join loses the INSERT OR IGNORE and must not bump the
	// counter a second time.
	if n, err := result.RowsAffected(); err == nil && n == 1 {
		if _, err := tx.Exec("UPDATE dropins SET attendees_count = attendees_count + 1 WHERE id = ?", dropinID); err != nil {
			return err
		}
	}

	_, err = tx.Exec(
		"INSERT OR IGNORE INTO user_joined_dropins (user_id, dropin_id, joined_at) VALUES (?, ?, ?)",
		userID, dropinID, time.Now())
	if err != nil {
		return err
	}

	return tx.Commit()
}

// JoinDropinHandler adds the authenticated user to a dropin's attendee list.
func JoinDropinHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok || userID == 0 {
		http.Error(w, "Please authenticate.", http.StatusUnauthorized)
		return
	}

	dropinID, err := strconv.ParseInt(r.PathValue("dropinID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid dropin id", http.StatusBadRequest)
		return
	}

	if err := joinDropin(dropinID, userID); err != nil {
		switch err {
		case models.ErrDropinNotFound:
			http.Error(w, err.Error(), http.StatusNotFound)
		case models.ErrHostCannotJoin:
			http.Error(w, err.Error(), http.StatusForbidden)
		case models.ErrDropinPast, models.ErrAlreadyJoined:
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			log.Printf("Error joining dropin %d for user %d: %v", dropinID, userID, err)
			http.Error(w, "Failed to join dropin", http.StatusInternalServerError)
		}
		return
	}
	log.Printf("User %d joined dropin %d", userID, dropinID)

	resp, err := getDropinResponse(dropinID)
	if err != nil {
		http.Error(w, "Failed to load dropin", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Joined dropin successfully",
		"dropin":  resp,
	})
}
