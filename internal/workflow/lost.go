package workflow

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/zanvidmar/najdeno/internal/matching"
	"github.com/zanvidmar/najdeno/internal/model"
	"github.com/zanvidmar/najdeno/internal/store"
)

// LostReportInput is the validated shape for filing a lost report.
type LostReportInput struct {
	CategoryID       int64
	LocationID       int64
	ItemName         string
	Description      string
	DateLost         time.Time
	LastSeenLocation string
}

func (in LostReportInput) validate() error {
	if in.CategoryID <= 0 || in.LocationID <= 0 {
		return fmt.Errorf("%w: category and location are required", ErrInvalidArgument)
	}
	if len(in.ItemName) < 2 {
		return fmt.Errorf("%w: item name is required", ErrInvalidArgument)
	}
	if len(in.Description) < 5 {
		return fmt.Errorf("%w: description is required", ErrInvalidArgument)
	}
	if in.DateLost.IsZero() {
		return fmt.Errorf("%w: date lost is required", ErrInvalidArgument)
	}
	if in.LastSeenLocation == "" {
		return fmt.Errorf("%w: last seen location is required", ErrInvalidArgument)
	}
	return nil
}

// CreateLostReport files a lost report and synthesizes match suggestions
// against available found items, all in one transaction. At most one
// notification is created, to the report's own owner, citing the best
// strong match.
func (e *Engine) CreateLostReport(ctx context.Context, in LostReportInput, actor Actor) (*model.LostReport, SynthesisResult, error) {
	if err := in.validate(); err != nil {
		return nil, SynthesisResult{}, err
	}

	var report *model.LostReport
	var synth SynthesisResult

	err := e.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		report, err = store.InsertLostReport(ctx, tx, actor.UserID, in.CategoryID, in.LocationID,
			in.ItemName, in.Description, in.DateLost, in.LastSeenLocation)
		if err != nil {
			return err
		}

		candidates, err := store.AvailableFoundCandidates(ctx, tx, in.CategoryID, in.LocationID, e.Config.FoundCandidateLimit)
		if err != nil {
			return err
		}

		li := lostInput(report)
		scored := make([]scoredCandidate, 0, len(candidates))
		for i := range candidates {
			f := &candidates[i]
			scored = append(scored, scoredCandidate{
				LostID:      report.ID,
				FoundID:     f.ID,
				LostOwnerID: report.UserID,
				ItemName:    f.ItemName,
				Result:      matching.ScoreWith(e.Config.Weights, li, foundInput(f)),
			})
		}

		stored := selectTop(scored, e.Config.StoreFloor, e.Config.StoreLimit)
		for _, c := range stored {
			inserted, err := store.InsertMatch(ctx, tx, c.LostID, c.FoundID, c.Result.Score)
			if err != nil {
				return err
			}
			if inserted {
				synth.MatchesStored++
			}
		}
		// The best persisted match is recorded even when it stays below the
		// notify floor.
		if len(stored) > 0 {
			synth.BestFoundID = stored[0].FoundID
			synth.BestScore = stored[0].Result.Score
		}

		strong := selectTop(scored, e.Config.NotifyFloor, 1)
		if len(strong) > 0 {
			best := strong[0]
			synth.NotifiedUsers = 1

			message := fmt.Sprintf(
				"We found a possible match for your lost report %q (best: %q, score %.0f). Reasons: %s",
				report.ItemName, best.ItemName, best.Result.Score, reasonSummary(best.Result.Reasons),
			)
			err = store.InsertNotification(ctx, tx, report.UserID, model.NotifMatchSuggested,
				"Possible match found", message, fmt.Sprintf("/lost/%d", report.ID))
			if err != nil {
				return err
			}
		}

		meta := map[string]any{
			"lost_id":           report.ID,
			"category_id":       report.CategoryID,
			"location_id":       report.LocationID,
			"match_saved_count": synth.MatchesStored,
			"notified":          synth.NotifiedUsers > 0,
		}
		if synth.BestFoundID != 0 {
			meta["best_match_found_id"] = synth.BestFoundID
			meta["best_match_score"] = synth.BestScore
		}

		return store.AppendAudit(ctx, tx, model.AuditEntry{
			ActorID:    actorID(actor),
			Action:     model.AuditLostCreated,
			EntityType: model.EntityLostReport,
			EntityID:   &report.ID,
			Summary:    fmt.Sprintf("Created lost report: %q", report.ItemName),
			Meta:       meta,
			IP:         actor.IP,
			UserAgent:  actor.UserAgent,
			RequestID:  actor.RequestID,
		})
	})
	if err != nil {
		return nil, SynthesisResult{}, err
	}
	return report, synth, nil
}

// WithdrawLostReport cancels a lost report. Withdrawing an already cancelled
// report is a no-op; the caller gets the current status either way.
func (e *Engine) WithdrawLostReport(ctx context.Context, lostID int64, actor Actor) (string, error) {
	report, err := store.GetLostReport(ctx, e.DB, lostID)
	if err != nil {
		return "", err
	}
	if report == nil {
		return "", fmt.Errorf("%w: lost report %d", ErrNotFound, lostID)
	}
	if report.Status == model.LostStatusCancelled {
		return model.LostStatusCancelled, nil
	}

	err = e.withTx(ctx, func(tx *sql.Tx) error {
		cancelled, err := store.CancelLostReport(ctx, tx, lostID)
		if err != nil {
			return err
		}
		if !cancelled {
			return fmt.Errorf("%w: lost report %d is not active", ErrConflict, lostID)
		}

		return store.AppendAudit(ctx, tx, model.AuditEntry{
			ActorID:    actorID(actor),
			Action:     model.AuditLostWithdrawn,
			EntityType: model.EntityLostReport,
			EntityID:   &lostID,
			Summary:    fmt.Sprintf("Withdrew lost report %q", report.ItemName),
			Meta: map[string]any{
				"lost_id":       lostID,
				"owner_user_id": report.UserID,
				"prev_status":   report.Status,
				"new_status":    model.LostStatusCancelled,
			},
			IP:        actor.IP,
			UserAgent: actor.UserAgent,
			RequestID: actor.RequestID,
		})
	})
	if err != nil {
		return "", err
	}
	return model.LostStatusCancelled, nil
}
