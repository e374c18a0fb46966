package workflow

import (
	"sort"
	"strings"

	"github.com/zanvidmar/najdeno/internal/matching"
	"github.com/zanvidmar/najdeno/internal/model"
)

// scoredCandidate pairs one (lost, found) combination with its score.
type scoredCandidate struct {
	LostID      int64
	FoundID     int64
	LostOwnerID int64
	ItemName    string // counterpart name, used in notification copy
	Result      matching.Result
}

// SynthesisResult summarises what one synthesis pass persisted.
type SynthesisResult struct {
	MatchesStored int     `json:"matches_stored"`
	NotifiedUsers int     `json:"notified_users"`
	BestLostID    int64   `json:"best_lost_id,omitempty"`
	BestFoundID   int64   `json:"best_found_id,omitempty"`
	BestScore     float64 `json:"best_score,omitempty"`
}

func lostInput(r *model.LostReport) matching.Input {
	return matching.Input{
		ItemName:    r.ItemName,
		Description: r.Description,
		CategoryID:  r.CategoryID,
		LocationID:  r.LocationID,
		Date:        r.DateLost,
	}
}

func foundInput(f *model.FoundItem) matching.Input {
	return matching.Input{
		ItemName:    f.ItemName,
		Description: f.Description,
		CategoryID:  f.CategoryID,
		LocationID:  f.LocationID,
		Date:        f.DateFound,
	}
}

// selectTop filters candidates at or above floor, orders them best first and
// caps the result. Ties keep candidate fetch order (ascending id), so the
// selection is deterministic for identical inputs.
func selectTop(candidates []scoredCandidate, floor float64, limit int) []scoredCandidate {
	var kept []scoredCandidate
	for _, c := range candidates {
		if c.Result.Score >= floor {
			kept = append(kept, c)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Result.Score > kept[j].Result.Score })
	if limit > 0 && len(kept) > limit {
		kept = kept[:limit]
	}
	return kept
}

// bestPerOwner reduces strong candidates to the single best per lost-report
// owner. One creation event never notifies the same user twice.
func bestPerOwner(strong []scoredCandidate) []scoredCandidate {
	best := make(map[int64]scoredCandidate)
	var order []int64
	for _, c := range strong {
		existing, ok := best[c.LostOwnerID]
		if !ok {
			order = append(order, c.LostOwnerID)
		}
		if !ok || c.Result.Score > existing.Result.Score {
			best[c.LostOwnerID] = c
		}
	}

	selected := make([]scoredCandidate, 0, len(order))
	for _, owner := range order {
		selected = append(selected, best[owner])
	}
	return selected
}

// reasonSummary joins the top reasons for notification copy.
func reasonSummary(reasons []string) string {
	if len(reasons) > 2 {
		reasons = reasons[:2]
	}
	return strings.Join(reasons, ", ")
}
