package models

import "time"

// FeedCategoryAll is the synthetic category holding the newest upcoming
// dropins across all categories.
const FeedCategoryAll = "All"

// Per-category and "All" list cap, and the attendee preview cap.
const (
	FeedCategoryLimit = 10
	FeedPreviewLimit  = 5
)

// FeedEntry is the discovery-view projection of an upcoming dropin.
type FeedEntry struct {
	ID              int64         `json:"id"`
	Type            string        `json:"type"`
	Title           string        `json:"title"`
	Date            time.Time     `json:"date"`
	Location        string        `json:"location"`
	Address         string        `json:"address"`
	EntryFee        float64       `json:"entry_fee"`
	Host            UserSummary   `json:"host"`
	AttendeesCount  int           `json:"attendees_count"`
	AttendeePreview []UserSummary `json:"attendee_preview"`
	CreatedAt       time.Time     `json:"created_at"`
}

// Feed maps category labels (plus "All") to their capped entry lists.
type Feed map[string][]FeedEntry
