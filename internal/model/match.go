package model

import "time"

// Match is a cached scoring suggestion between a lost report and a found
// item, not an ownership relation. At most one row per (lost, found) pair.
type Match struct {
	ID        int64     `json:"id"`
	LostID    int64     `json:"lost_id"`
	FoundID   int64     `json:"found_id"`
	Score     float64   `json:"score"`
	CreatedAt time.Time `json:"created_at"`
}
