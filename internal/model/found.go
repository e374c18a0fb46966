package model

import "time"

// FoundItem is an item logged by staff that was handed in.
type FoundItem struct {
	ID              int64     `json:"id"`
	ReportedBy      int64     `json:"reported_by"`
	CategoryID      int64     `json:"category_id"`
	LocationID      int64     `json:"location_id"`
	ItemName        string    `json:"item_name"`
	Description     string    `json:"description,omitempty"`
	DateFound       time.Time `json:"date_found"`
	StorageLocation string    `json:"storage_location,omitempty"`
	ImageMime       string    `json:"image_mime,omitempty"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Found item statuses. The lifecycle only moves forward:
// NEWLY_FOUND -> CLAIMED -> RETURNED, or NEWLY_FOUND -> RETURNED directly.
// RETURNED is terminal; no claims or matches survive it.
const (
	FoundStatusNewlyFound = "NEWLY_FOUND"
	FoundStatusClaimed    = "CLAIMED"
	FoundStatusReturned   = "RETURNED"
)

// ValidFoundStatus reports whether s is a known found item status.
func ValidFoundStatus(s string) bool {
	return s == FoundStatusNewlyFound || s == FoundStatusClaimed || s == FoundStatusReturned
}
