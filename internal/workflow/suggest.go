package workflow

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/zanvidmar/najdeno/internal/matching"
	"github.com/zanvidmar/najdeno/internal/model"
	"github.com/zanvidmar/najdeno/internal/store"
)

// Suggestion is one ranked match as shown to the report owner. Claimed and
// returned items are included so the caller can render them as unavailable.
type Suggestion struct {
	FoundID    int64    `json:"found_id"`
	ItemName   string   `json:"item_name"`
	Status     string   `json:"status"`
	Score      float64  `json:"score"`
	Reasons    []string `json:"reasons"`
	DateFound  string   `json:"date_found"`
	LocationID int64    `json:"location_id"`
}

// RefreshSuggestions rescores a lost report against current found items and
// replaces the persisted suggestion set in one transaction. It returns the
// display list, which uses a higher floor and a tighter cap than what is
// stored.
func (e *Engine) RefreshSuggestions(ctx context.Context, lostID int64, actor Actor) ([]Suggestion, error) {
	report, err := store.GetLostReport(ctx, e.DB, lostID)
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, fmt.Errorf("%w: lost report %d", ErrNotFound, lostID)
	}

	items, err := store.AllFoundItems(ctx, e.DB, report.CategoryID, report.LocationID, e.Config.FoundCandidateLimit)
	if err != nil {
		return nil, err
	}

	li := lostInput(report)
	scored := make([]scoredCandidate, 0, len(items))
	byFound := make(map[int64]*model.FoundItem, len(items))
	for i := range items {
		f := &items[i]
		byFound[f.ID] = f
		scored = append(scored, scoredCandidate{
			LostID:      report.ID,
			FoundID:     f.ID,
			LostOwnerID: report.UserID,
			ItemName:    f.ItemName,
			Result:      matching.ScoreWith(e.Config.Weights, li, foundInput(f)),
		})
	}

	stored := selectTop(scored, e.Config.StoreFloor, e.Config.StoreLimit)

	err = e.withTx(ctx, func(tx *sql.Tx) error {
		deleted, err := store.DeleteMatchesForLost(ctx, tx, lostID)
		if err != nil {
			return err
		}

		for _, c := range stored {
			if _, err := store.InsertMatch(ctx, tx, c.LostID, c.FoundID, c.Result.Score); err != nil {
				return err
			}
		}

		return store.AppendAudit(ctx, tx, model.AuditEntry{
			ActorID:    actorID(actor),
			Action:     model.AuditMatchesRefresh,
			EntityType: model.EntityLostReport,
			EntityID:   &lostID,
			Summary:    fmt.Sprintf("Refreshed match suggestions for %q", report.ItemName),
			Meta: map[string]any{
				"lost_id":          lostID,
				"matches_deleted":  deleted,
				"matches_inserted": len(stored),
			},
			IP:        actor.IP,
			UserAgent: actor.UserAgent,
			RequestID: actor.RequestID,
		})
	})
	if err != nil {
		return nil, err
	}

	display := selectTop(scored, e.Config.DisplayFloor, e.Config.DisplayLimit)
	suggestions := make([]Suggestion, 0, len(display))
	for _, c := range display {
		f := byFound[c.FoundID]
		suggestions = append(suggestions, Suggestion{
			FoundID:    f.ID,
			ItemName:   f.ItemName,
			Status:     f.Status,
			Score:      c.Result.Score,
			Reasons:    c.Result.Reasons,
			DateFound:  f.DateFound.UTC().Format("2006-01-02"),
			LocationID: f.LocationID,
		})
	}
	return suggestions, nil
}

// ListSuggestions returns the persisted suggestion rows for a lost report,
// best first, without rescoring.
func (e *Engine) ListSuggestions(ctx context.Context, lostID int64) ([]model.Match, error) {
	report, err := store.GetLostReport(ctx, e.DB, lostID)
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, fmt.Errorf("%w: lost report %d", ErrNotFound, lostID)
	}
	return store.ListMatchesForLost(ctx, e.DB, lostID)
}
