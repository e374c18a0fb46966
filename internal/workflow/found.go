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

// FoundItemInput is the validated shape for logging a found item.
type FoundItemInput struct {
	CategoryID      int64
	LocationID      int64
	ItemName        string
	Description     string
	DateFound       time.Time
	StorageLocation string
}

func (in FoundItemInput) validate() error {
	if in.CategoryID <= 0 || in.LocationID <= 0 {
		return fmt.Errorf("%w: category and location are required", ErrInvalidArgument)
	}
	if len(in.ItemName) < 2 {
		return fmt.Errorf("%w: item name is required", ErrInvalidArgument)
	}
	if len(in.Description) < 5 {
		return fmt.Errorf("%w: description is required", ErrInvalidArgument)
	}
	if len(in.StorageLocation) < 2 {
		return fmt.Errorf("%w: storage location is required", ErrInvalidArgument)
	}
	if in.DateFound.IsZero() {
		return fmt.Errorf("%w: date found is required", ErrInvalidArgument)
	}
	return nil
}

// CreateFoundItem logs a found item and synthesizes match suggestions
// against active lost reports, all in one transaction. Strong matches fan
// out notifications, but never more than one per lost-report owner.
func (e *Engine) CreateFoundItem(ctx context.Context, in FoundItemInput, actor Actor) (*model.FoundItem, SynthesisResult, error) {
	if err := in.validate(); err != nil {
		return nil, SynthesisResult{}, err
	}

	var item *model.FoundItem
	var synth SynthesisResult

	err := e.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		item, err = store.InsertFoundItem(ctx, tx, actor.UserID, in.CategoryID, in.LocationID,
			in.ItemName, in.Description, in.DateFound, in.StorageLocation)
		if err != nil {
			return err
		}

		candidates, err := store.ActiveLostCandidates(ctx, tx, in.CategoryID, in.LocationID, e.Config.LostCandidateLimit)
		if err != nil {
			return err
		}

		fi := foundInput(item)
		scored := make([]scoredCandidate, 0, len(candidates))
		for i := range candidates {
			l := &candidates[i]
			scored = append(scored, scoredCandidate{
				LostID:      l.ID,
				FoundID:     item.ID,
				LostOwnerID: l.UserID,
				ItemName:    l.ItemName,
				Result:      matching.ScoreWith(e.Config.Weights, lostInput(l), fi),
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
			synth.BestLostID = stored[0].LostID
			synth.BestScore = stored[0].Result.Score
		}

		strong := selectTop(scored, e.Config.NotifyFloor, e.Config.NotifyScan)
		for _, c := range bestPerOwner(strong) {
			message := fmt.Sprintf(
				"A newly found item %q may match your lost report (score %.0f). Reasons: %s",
				item.ItemName, c.Result.Score, reasonSummary(c.Result.Reasons),
			)
			err := store.InsertNotification(ctx, tx, c.LostOwnerID, model.NotifMatchSuggested,
				"Possible match found", message, fmt.Sprintf("/lost/%d", c.LostID))
			if err != nil {
				return err
			}
			synth.NotifiedUsers++
		}

		meta := map[string]any{
			"found_id":               item.ID,
			"category_id":            item.CategoryID,
			"location_id":            item.LocationID,
			"status":                 item.Status,
			"date_found":             in.DateFound.UTC().Format(time.RFC3339),
			"storage_location":       in.StorageLocation,
			"matches_inserted":       synth.MatchesStored,
			"notifications_inserted": synth.NotifiedUsers,
		}
		if synth.BestLostID != 0 {
			meta["best_match_lost_id"] = synth.BestLostID
			meta["best_match_score"] = synth.BestScore
		}

		return store.AppendAudit(ctx, tx, model.AuditEntry{
			ActorID:    actorID(actor),
			Action:     model.AuditFoundCreated,
			EntityType: model.EntityFoundItem,
			EntityID:   &item.ID,
			Summary:    fmt.Sprintf("Created found item: %q", item.ItemName),
			Meta:       meta,
			IP:         actor.IP,
			UserAgent:  actor.UserAgent,
			RequestID:  actor.RequestID,
		})
	})
	if err != nil {
		return nil, SynthesisResult{}, err
	}
	return item, synth, nil
}

// FoundItemPatch is a partial update. Nil pointers mean "leave unchanged".
type FoundItemPatch struct {
	CategoryID      *int64
	LocationID      *int64
	ItemName        *string
	Description     *string
	DateFound       *time.Time
	StorageLocation *string
	Status          *string
}

// fields maps the patch onto column updates, validating each field.
func (p FoundItemPatch) fields() (map[string]any, error) {
	fields := make(map[string]any)

	if p.CategoryID != nil {
		if *p.CategoryID <= 0 {
			return nil, fmt.Errorf("%w: invalid category", ErrInvalidArgument)
		}
		fields["category_id"] = *p.CategoryID
	}
	if p.LocationID != nil {
		if *p.LocationID <= 0 {
			return nil, fmt.Errorf("%w: invalid location", ErrInvalidArgument)
		}
		fields["location_id"] = *p.LocationID
	}
	if p.ItemName != nil {
		if len(*p.ItemName) < 2 {
			return nil, fmt.Errorf("%w: item name is required", ErrInvalidArgument)
		}
		fields["item_name"] = *p.ItemName
	}
	if p.Description != nil {
		if len(*p.Description) < 5 {
			return nil, fmt.Errorf("%w: description is required", ErrInvalidArgument)
		}
		fields["description"] = *p.Description
	}
	if p.DateFound != nil {
		if p.DateFound.IsZero() {
			return nil, fmt.Errorf("%w: invalid date found", ErrInvalidArgument)
		}
		fields["date_found"] = *p.DateFound
	}
	if p.StorageLocation != nil {
		if len(*p.StorageLocation) < 2 {
			return nil, fmt.Errorf("%w: storage location is required", ErrInvalidArgument)
		}
		fields["storage_location"] = *p.StorageLocation
	}
	if p.Status != nil {
		if !model.ValidFoundStatus(*p.Status) {
			return nil, fmt.Errorf("%w: invalid status", ErrInvalidArgument)
		}
		fields["status"] = *p.Status
	}

	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: no fields to update", ErrInvalidArgument)
	}
	return fields, nil
}

// auditSnapshot captures the before-values of the touched columns so the
// audit entry carries a field diff instead of a full row dump.
func auditSnapshot(item *model.FoundItem, fields map[string]any) map[string]any {
	before := make(map[string]any, len(fields))
	for col := range fields {
		switch col {
		case "category_id":
			before[col] = item.CategoryID
		case "location_id":
			before[col] = item.LocationID
		case "item_name":
			before[col] = item.ItemName
		case "description":
			before[col] = item.Description
		case "date_found":
			before[col] = item.DateFound.UTC().Format(time.RFC3339)
		case "storage_location":
			before[col] = item.StorageLocation
		case "status":
			before[col] = item.Status
		}
	}
	return before
}

// UpdateFoundItem applies an administrative partial update and records a
// before/after diff of the touched fields.
func (e *Engine) UpdateFoundItem(ctx context.Context, foundID int64, patch FoundItemPatch, actor Actor) (*model.FoundItem, error) {
	fields, err := patch.fields()
	if err != nil {
		return nil, err
	}

	before, err := store.GetFoundItem(ctx, e.DB, foundID)
	if err != nil {
		return nil, err
	}
	if before == nil {
		return nil, fmt.Errorf("%w: found item %d", ErrNotFound, foundID)
	}

	after := make(map[string]any, len(fields))
	for col, v := range fields {
		if t, ok := v.(time.Time); ok {
			after[col] = t.UTC().Format(time.RFC3339)
			continue
		}
		after[col] = v
	}

	err = e.withTx(ctx, func(tx *sql.Tx) error {
		if err := store.UpdateFoundItemFields(ctx, tx, foundID, fields); err != nil {
			return err
		}

		return store.AppendAudit(ctx, tx, model.AuditEntry{
			ActorID:    actorID(actor),
			Action:     model.AuditFoundUpdated,
			EntityType: model.EntityFoundItem,
			EntityID:   &foundID,
			Summary:    fmt.Sprintf("Updated found item %q", before.ItemName),
			Meta: map[string]any{
				"found_id": foundID,
				"before":   auditSnapshot(before, fields),
				"after":    after,
			},
			IP:        actor.IP,
			UserAgent: actor.UserAgent,
			RequestID: actor.RequestID,
		})
	})
	if err != nil {
		return nil, err
	}

	return store.GetFoundItem(ctx, e.DB, foundID)
}

// ReturnResult summarises a return cascade.
type ReturnResult struct {
	MatchesDeleted      int64 `json:"matches_deleted"`
	PendingClaimsDenied int64 `json:"pending_claims_denied"`
}

// ReturnFoundItem marks an item as handed back to its owner. Suggestions for
// the item stop being actionable and are deleted; open claims are denied and
// each claimant is told why. All of it commits together.
func (e *Engine) ReturnFoundItem(ctx context.Context, foundID int64, actor Actor) (ReturnResult, error) {
	item, err := store.GetFoundItem(ctx, e.DB, foundID)
	if err != nil {
		return ReturnResult{}, err
	}
	if item == nil {
		return ReturnResult{}, fmt.Errorf("%w: found item %d", ErrNotFound, foundID)
	}
	if item.Status == model.FoundStatusReturned {
		return ReturnResult{}, fmt.Errorf("%w: item already returned", ErrConflict)
	}

	var result ReturnResult

	err = e.withTx(ctx, func(tx *sql.Tx) error {
		return e.returnFoundItemTx(ctx, tx, item, actor, &result)
	})
	if err != nil {
		return ReturnResult{}, err
	}
	return result, nil
}

// returnFoundItemTx is the transactional body of ReturnFoundItem; tests
// drive it directly to verify rollback leaves no partial state.
func (e *Engine) returnFoundItemTx(ctx context.Context, tx *sql.Tx, item *model.FoundItem, actor Actor, result *ReturnResult) error {
	now := time.Now().UTC()

	// Re-check inside the transaction; a concurrent return loses here.
	changed, err := store.SetFoundItemStatus(ctx, tx, item.ID, item.Status, model.FoundStatusReturned)
	if err != nil {
		return err
	}
	if !changed {
		return fmt.Errorf("%w: item state changed concurrently", ErrConflict)
	}

	result.MatchesDeleted, err = store.DeleteMatchesForFound(ctx, tx, item.ID)
	if err != nil {
		return err
	}

	pending, err := store.PendingClaimsForFound(ctx, tx, item.ID)
	if err != nil {
		return err
	}

	if len(pending) > 0 {
		result.PendingClaimsDenied, err = store.DenyPendingClaims(ctx, tx, item.ID, 0, actor.UserID, now)
		if err != nil {
			return err
		}

		for _, claim := range pending {
			message := fmt.Sprintf("Your claim for %q was closed because the item has been returned.", item.ItemName)
			err := store.InsertNotification(ctx, tx, claim.ClaimantID, model.NotifClaimDenied,
				"Claim closed", message, "/claims")
			if err != nil {
				return err
			}

			err = store.AppendAudit(ctx, tx, model.AuditEntry{
				ActorID:    actorID(actor),
				Action:     model.AuditClaimDenied,
				EntityType: model.EntityClaim,
				EntityID:   &claim.ID,
				Summary:    fmt.Sprintf("Auto-denied claim (item returned) for %q", item.ItemName),
				Meta: map[string]any{
					"claim_id": claim.ID,
					"found_id": item.ID,
					"reason":   "ITEM_RETURNED",
				},
				IP:        actor.IP,
				UserAgent: actor.UserAgent,
				RequestID: actor.RequestID,
			})
			if err != nil {
				return err
			}
		}
	}

	return store.AppendAudit(ctx, tx, model.AuditEntry{
		ActorID:    actorID(actor),
		Action:     model.AuditFoundReturned,
		EntityType: model.EntityFoundItem,
		EntityID:   &item.ID,
		Summary:    fmt.Sprintf("Marked found item as RETURNED: %q", item.ItemName),
		Meta: map[string]any{
			"found_id":              item.ID,
			"prev_status":           item.Status,
			"matches_deleted":       result.MatchesDeleted,
			"pending_claims_denied": result.PendingClaimsDenied,
		},
		IP:        actor.IP,
		UserAgent: actor.UserAgent,
		RequestID: actor.RequestID,
	})
}

// DeleteFoundItem hard-deletes an item that never accumulated claim history.
// Any claim of any status blocks deletion so the history stays intact; the
// caller is told to use RETURN instead.
func (e *Engine) DeleteFoundItem(ctx context.Context, foundID int64, actor Actor) error {
	item, err := store.GetFoundItem(ctx, e.DB, foundID)
	if err != nil {
		return err
	}
	if item == nil {
		return fmt.Errorf("%w: found item %d", ErrNotFound, foundID)
	}

	return e.withTx(ctx, func(tx *sql.Tx) error {
		claims, err := store.CountClaims(ctx, tx, foundID)
		if err != nil {
			return err
		}
		if claims > 0 {
			return fmt.Errorf("%w: item has %d claim(s); use RETURN instead of DELETE", ErrConflict, claims)
		}

		if _, err := store.DeleteMatchesForFound(ctx, tx, foundID); err != nil {
			return err
		}
		if err := store.DeleteFoundItemRow(ctx, tx, foundID); err != nil {
			return err
		}

		return store.AppendAudit(ctx, tx, model.AuditEntry{
			ActorID:    actorID(actor),
			Action:     model.AuditFoundDeleted,
			EntityType: model.EntityFoundItem,
			EntityID:   &foundID,
			Summary:    fmt.Sprintf("Deleted found item: %q", item.ItemName),
			Meta: map[string]any{
				"found_id":    foundID,
				"prev_status": item.Status,
			},
			IP:        actor.IP,
			UserAgent: actor.UserAgent,
			RequestID: actor.RequestID,
		})
	})
}
