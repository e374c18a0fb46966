package model

import "time"

// Notification is an append-only message to a user. Only the read flag
// is ever mutated after creation.
type Notification struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Href      string    `json:"href,omitempty"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// Notification types.
const (
	NotifMatchSuggested = "MATCH_SUGGESTED"
	NotifClaimSubmitted = "CLAIM_SUBMITTED"
	NotifClaimApproved  = "CLAIM_APPROVED"
	NotifClaimDenied    = "CLAIM_DENIED"
)
