package model

import "time"

// LostReport is a report filed by a user for an item they lost.
type LostReport struct {
	ID               int64     `json:"id"`
	UserID           int64     `json:"user_id"`
	CategoryID       int64     `json:"category_id"`
	LocationID       int64     `json:"location_id"`
	ItemName         string    `json:"item_name"`
	Description      string    `json:"description,omitempty"`
	DateLost         time.Time `json:"date_lost"`
	LastSeenLocation string    `json:"last_seen_location,omitempty"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
}

// Lost report statuses. A cancelled report is immutable and never matched.
const (
	LostStatusReported  = "REPORTED_LOST"
	LostStatusCancelled = "CANCELLED"
)
