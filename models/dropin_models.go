package models

import "time"

type Dropin struct {
	ID             int64     `json:"id"`
	Type           string    `json:"type"`
	Title          string    `json:"title"`
	Date           time.Time `json:"date"`
	Location       string    `json:"location"`
	Address        string    `json:"address"`
	Navigation     string    `json:"navigation,omitempty"`
	Description    string    `json:"description"`
	EntryFee       float64   `json:"entry_fee"`
	InterestTags   []string  `json:"interest_tags,omitempty"`
	ImagePath      string    `json:"image_path,omitempty"`
	HostID         int64     `json:"host_id"`
	AttendeesCount int       `json:"attendees_count"`
	CreatedAt      time.Time `json:"created_at"`
}

// DropinResponse is a dropin with its host and attendees resolved to
// display summaries.
type DropinResponse struct {
	Dropin
	Host      UserSummary   `json:"host"`
	Attendees []UserSummary `json:"attendees"`
}
