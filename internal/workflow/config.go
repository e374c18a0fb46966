package workflow

import "github.com/zanvidmar/najdeno/internal/matching"

// Config holds the tunable thresholds and caps of the matching flows. The
// defaults reproduce the behaviour the service shipped with; none of the
// values is derived from anything, so treat them as knobs.
type Config struct {
	// FoundCandidateLimit caps how many found items are scored when a lost
	// report is created.
	FoundCandidateLimit int

	// LostCandidateLimit caps how many lost reports are scored when a found
	// item is created.
	LostCandidateLimit int

	// StoreFloor is the minimum score for a suggestion to be persisted.
	StoreFloor float64

	// StoreLimit caps how many suggestions are persisted per creation.
	StoreLimit int

	// NotifyFloor is the minimum score for a match to trigger a notification.
	NotifyFloor float64

	// NotifyScan caps how many strong matches are considered when picking
	// the best match per owner.
	NotifyScan int

	// DisplayFloor and DisplayLimit bound the suggestion list returned by
	// a refresh.
	DisplayFloor float64
	DisplayLimit int

	// Weights are passed through to the scorer.
	Weights matching.Weights
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		FoundCandidateLimit: 100,
		LostCandidateLimit:  80,
		StoreFloor:          20,
		StoreLimit:          30,
		NotifyFloor:         40,
		NotifyScan:          10,
		DisplayFloor:        25,
		DisplayLimit:        10,
		Weights:             matching.DefaultWeights(),
	}
}
