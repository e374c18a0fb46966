package model

import "time"

// AuditEntry is an append-only record of a state change. Entries are never
// updated or deleted.
type AuditEntry struct {
	ID         int64          `json:"id"`
	ActorID    *int64         `json:"actor_user_id,omitempty"`
	Action     string         `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   *int64         `json:"entity_id,omitempty"`
	Summary    string         `json:"summary,omitempty"`
	Meta       map[string]any `json:"meta,omitempty"`
	IP         string         `json:"ip,omitempty"`
	UserAgent  string         `json:"user_agent,omitempty"`
	RequestID  string         `json:"request_id,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Audit actions.
const (
	AuditLostCreated     = "LOST_REPORT_CREATED"
	AuditLostWithdrawn   = "LOST_REPORT_WITHDRAWN"
	AuditFoundCreated    = "FOUND_ITEM_CREATED"
	AuditFoundUpdated    = "FOUND_ITEM_UPDATED"
	AuditFoundReturned   = "FOUND_ITEM_RETURNED"
	AuditFoundDeleted    = "FOUND_ITEM_DELETED"
	AuditClaimSubmitted  = "CLAIM_SUBMITTED"
	AuditClaimApproved   = "CLAIM_APPROVED"
	AuditClaimDenied     = "CLAIM_DENIED"
	AuditMatchesRefresh  = "MATCHES_REFRESHED"
)

// Audited entity types.
const (
	EntityLostReport = "LostReport"
	EntityFoundItem  = "FoundItem"
	EntityClaim      = "Claim"
)
