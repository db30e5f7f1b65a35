package api

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"dropin-backend/database"
	"dropin-backend/models"
)

// attendeePreview resolves up to FeedPreviewLimit attendee summaries.
func attendeePreview(dropinID int64) ([]models.UserSummary, error) {
	rows, err := database.DB.Query(`
		SELECT u.id, u.first_name, u.last_name, u.avatar_path
		FROM dropin_attendees da JOIN users u ON da.user_id = u.id
		WHERE da.dropin_id = ? ORDER BY da.joined_at ASC LIMIT ?`,
		dropinID, models.FeedPreviewLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	preview := []models.UserSummary{}
	for rows.Next() {
		var s models.UserSummary
		var first, last string
		var avatar sql.NullString
		if err := rows.Scan(&s.ID, &first, &last, &avatar); err != nil {
			return nil, err
		}
		s.Name = first + " " + last
		s.Avatar = avatar.String
		preview = append(preview, s)
	}
	return preview, rows.Err()
}

// buildFeed assembles the categorized discovery view of upcoming dropins:
// per category the newest 10 by creation time, attendee previews capped at
// 5, plus an "All" bucket capped at 10 across categories.
func buildFeed(now time.Time) (models.Feed, error) {
	rows, err := database.DB.Query(`
		SELECT id, type, title, date, location, address, entry_fee, host_id, attendees_count, created_at
		FROM dropins WHERE date >= ? ORDER BY created_at DESC, id DESC`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type candidate struct {
		entry  models.FeedEntry
		hostID int64
	}
	var all []candidate
	byCategory := map[string][]candidate{}
	for rows.Next() {
		var c candidate
		err := rows.Scan(&c.entry.ID, &c.entry.Type, &c.entry.Title, &c.entry.Date,
			&c.entry.Location, &c.entry.Address, &c.entry.EntryFee, &c.hostID,
			&c.entry.AttendeesCount, &c.entry.CreatedAt)
		if err != nil {
			return nil, err
		}
		if len(byCategory[c.entry.Type]) < models.FeedCategoryLimit {
			byCategory[c.entry.Type] = append(byCategory[c.entry.Type], c)
		}
		// Rows arrive newest-first, so the first 10 overall are "All".
		if len(all) < models.FeedCategoryLimit {
			all = append(all, c)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	resolve := func(candidates []candidate) ([]models.FeedEntry, error) {
		entries := []models.FeedEntry{}
		for _, c := range candidates {
			host, err := getUserSummary(c.hostID)
			if err != nil {
				return nil, err
			}
			preview, err := attendeePreview(c.entry.ID)
			if err != nil {
				return nil, err
			}
			c.entry.Host = host
			c.entry.AttendeePreview = preview
			entries = append(entries, c.entry)
		}
		return entries, nil
	}

	feed := models.Feed{}
	for category, candidates := range byCategory {
		entries, err := resolve(candidates)
		if err != nil {
			return nil, err
		}
		feed[category] = entries
	}
	allEntries, err := resolve(all)
	if err != nil {
		return nil, err
	}
	feed[models.FeedCategoryAll] = allEntries
	return feed, nil
}

// GetFeedHandler serves the categorized feed of upcoming dropins.
func GetFeedHandler(w http.ResponseWriter, r *http.Request) {
	feed, err := buildFeed(time.Now())
	if err != nil {
		log.Printf("Error building feed: %v", err)
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(feed)
}
