package model

import "time"

// Claim is an ownership claim on a found item.
// At most one claim per found item ever reaches APPROVED.
type Claim struct {
	ID               int64      `json:"id"`
	FoundID          int64      `json:"found_id"`
	ClaimantID       int64      `json:"claimant_id"`
	ProofDescription string     `json:"proof_description"`
	Status           string     `json:"status"`
	ReviewedBy       *int64     `json:"reviewed_by,omitempty"`
	ReviewedAt       *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// Claim statuses. PENDING is the only non-terminal state.
const (
	ClaimStatusPending  = "PENDING"
	ClaimStatusApproved = "APPROVED"
	ClaimStatusDenied   = "DENIED"
)

// Claim decisions.
const (
	DecisionApprove = "APPROVE"
	DecisionDeny    = "DENY"
)
