package workflow

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/zanvidmar/najdeno/internal/model"
	"github.com/zanvidmar/najdeno/internal/store"
)

const minProofLen = 10

// SubmitClaim opens a PENDING claim on a found item and alerts staff. A user
// holds at most one open claim per item; items that are already claimed or
// returned cannot be claimed at all.
func (e *Engine) SubmitClaim(ctx context.Context, foundID int64, proof string, actor Actor) (*model.Claim, error) {
	if len(proof) < minProofLen {
		return nil, fmt.Errorf("%w: proof description must be at least %d characters", ErrInvalidArgument, minProofLen)
	}

	item, err := store.GetFoundItem(ctx, e.DB, foundID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("%w: found item %d", ErrNotFound, foundID)
	}
	switch item.Status {
	case model.FoundStatusClaimed:
		return nil, fmt.Errorf("%w: item has already been claimed", ErrConflict)
	case model.FoundStatusReturned:
		return nil, fmt.Errorf("%w: item has already been returned", ErrConflict)
	}

	pending, err := store.HasPendingClaim(ctx, e.DB, foundID, actor.UserID)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, fmt.Errorf("%w: you already have a pending claim on this item", ErrConflict)
	}

	claimant, err := store.GetUser(ctx, e.DB, actor.UserID)
	if err != nil {
		return nil, err
	}
	if claimant == nil {
		return nil, fmt.Errorf("%w: user %d", ErrNotFound, actor.UserID)
	}

	var claim *model.Claim

	err = e.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		claim, err = store.InsertClaim(ctx, tx, foundID, actor.UserID, proof)
		if err != nil {
			return err
		}

		err = store.AppendAudit(ctx, tx, model.AuditEntry{
			ActorID:    actorID(actor),
			Action:     model.AuditClaimSubmitted,
			EntityType: model.EntityClaim,
			EntityID:   &claim.ID,
			Summary:    fmt.Sprintf("Submitted claim for %q", item.ItemName),
			Meta: map[string]any{
				"claim_id":     claim.ID,
				"found_id":     foundID,
				"claim_status": claim.Status,
				"proof_len":    len(proof),
			},
			IP:        actor.IP,
			UserAgent: actor.UserAgent,
			RequestID: actor.RequestID,
		})
		if err != nil {
			return err
		}

		staff, err := store.ListUserIDsByRoles(ctx, tx, model.RoleStaff, model.RoleAdmin)
		if err != nil {
			return err
		}
		message := fmt.Sprintf("%s submitted a claim for %q (Found #%d).",
			claimant.FullName, item.ItemName, foundID)
		for _, userID := range staff {
			err := store.InsertNotification(ctx, tx, userID, model.NotifClaimSubmitted,
				"New claim submitted", message, "/staff/dashboard")
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claim, nil
}

// DecisionResult reports what a claim decision did.
type DecisionResult struct {
	Status     string `json:"status"`
	AutoDenied int64  `json:"auto_denied"`
}

// DecideClaim resolves a PENDING claim. APPROVE moves the item to CLAIMED,
// auto-denies every other open claim on it and notifies all parties; DENY
// touches only the one claim. Either way the claim, the item, the sibling
// claims, the notifications and the audit entry commit together. Deciding a
// claim that is no longer PENDING is a conflict, never an overwrite.
func (e *Engine) DecideClaim(ctx context.Context, claimID int64, decision string, actor Actor) (DecisionResult, error) {
	if decision != model.DecisionApprove && decision != model.DecisionDeny {
		return DecisionResult{}, fmt.Errorf("%w: decision must be APPROVE or DENY", ErrInvalidArgument)
	}

	claim, err := store.GetClaim(ctx, e.DB, claimID)
	if err != nil {
		return DecisionResult{}, err
	}
	if claim == nil {
		return DecisionResult{}, fmt.Errorf("%w: claim %d", ErrNotFound, claimID)
	}
	if claim.Status != model.ClaimStatusPending {
		return DecisionResult{}, fmt.Errorf("%w: claim is already %s", ErrConflict, claim.Status)
	}

	item, err := store.GetFoundItem(ctx, e.DB, claim.FoundID)
	if err != nil {
		return DecisionResult{}, err
	}
	if item == nil {
		return DecisionResult{}, fmt.Errorf("%w: found item %d", ErrNotFound, claim.FoundID)
	}

	var result DecisionResult
	err = e.withTx(ctx, func(tx *sql.Tx) error {
		return e.decideClaimTx(ctx, tx, claim, item, decision, actor, &result)
	})
	if err != nil {
		return DecisionResult{}, err
	}
	return result, nil
}

// decideClaimTx is the transactional body of DecideClaim; tests drive it
// directly to verify rollback leaves no partial state.
func (e *Engine) decideClaimTx(ctx context.Context, tx *sql.Tx, claim *model.Claim, item *model.FoundItem, decision string, actor Actor, result *DecisionResult) error {
	now := time.Now().UTC()

	if decision == model.DecisionDeny {
		moved, err := store.TransitionClaim(ctx, tx, claim.ID, model.ClaimStatusDenied, actor.UserID, now)
		if err != nil {
			return err
		}
		if !moved {
			return fmt.Errorf("%w: claim was decided concurrently", ErrConflict)
		}
		result.Status = model.ClaimStatusDenied

		err = store.InsertNotification(ctx, tx, claim.ClaimantID, model.NotifClaimDenied,
			"Claim denied", fmt.Sprintf("Your claim for %q was denied by staff.", item.ItemName), "/claims")
		if err != nil {
			return err
		}

		return store.AppendAudit(ctx, tx, model.AuditEntry{
			ActorID:    actorID(actor),
			Action:     model.AuditClaimDenied,
			EntityType: model.EntityClaim,
			EntityID:   &claim.ID,
			Summary:    fmt.Sprintf("Denied claim for %q", item.ItemName),
			Meta: map[string]any{
				"claim_id": claim.ID,
				"found_id": item.ID,
				"decision": decision,
			},
			IP:        actor.IP,
			UserAgent: actor.UserAgent,
			RequestID: actor.RequestID,
		})
	}

	moved, err := store.TransitionClaim(ctx, tx, claim.ID, model.ClaimStatusApproved, actor.UserID, now)
	if err != nil {
		return err
	}
	if !moved {
		return fmt.Errorf("%w: claim was decided concurrently", ErrConflict)
	}
	result.Status = model.ClaimStatusApproved

	changed, err := store.SetFoundItemStatus(ctx, tx, item.ID, model.FoundStatusNewlyFound, model.FoundStatusClaimed)
	if err != nil {
		return err
	}
	if !changed {
		return fmt.Errorf("%w: item is no longer available", ErrConflict)
	}

	// Siblings must be read before the bulk deny flips their status.
	siblings, err := store.PendingClaimsForFound(ctx, tx, item.ID)
	if err != nil {
		return err
	}

	result.AutoDenied, err = store.DenyPendingClaims(ctx, tx, item.ID, claim.ID, actor.UserID, now)
	if err != nil {
		return err
	}

	err = store.InsertNotification(ctx, tx, claim.ClaimantID, model.NotifClaimApproved,
		"Claim approved",
		fmt.Sprintf("Your claim for %q was approved. Please coordinate pickup with the office.", item.ItemName),
		"/claims")
	if err != nil {
		return err
	}

	for _, sibling := range siblings {
		if sibling.ID == claim.ID {
			continue
		}
		err := store.InsertNotification(ctx, tx, sibling.ClaimantID, model.NotifClaimDenied,
			"Claim closed",
			fmt.Sprintf("Your claim for %q was closed because another claim was approved.", item.ItemName),
			"/claims")
		if err != nil {
			return err
		}
	}

	return store.AppendAudit(ctx, tx, model.AuditEntry{
		ActorID:    actorID(actor),
		Action:     model.AuditClaimApproved,
		EntityType: model.EntityClaim,
		EntityID:   &claim.ID,
		Summary:    fmt.Sprintf("Approved claim for %q", item.ItemName),
		Meta: map[string]any{
			"claim_id":          claim.ID,
			"found_id":          item.ID,
			"decision":          decision,
			"auto_denied_count": result.AutoDenied,
		},
		IP:        actor.IP,
		UserAgent: actor.UserAgent,
		RequestID: actor.RequestID,
	})
}
