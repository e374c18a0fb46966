package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/zanvidmar/najdeno/internal/model"
)

const claimColumns = `id, found_id, claimant_id, proof_description, status,
	reviewed_by, reviewed_at, created_at`

// InsertClaim creates a PENDING claim.
func InsertClaim(ctx context.Context, db DBTX, foundID, claimantID int64, proof string) (*model.Claim, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO claims (found_id, claimant_id, proof_description) VALUES (?, ?, ?)`,
		foundID, claimantID, proof,
	)
	if err != nil {
		return nil, fmt.Errorf("creating claim: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting claim id: %w", err)
	}

	return GetClaim(ctx, db, id)
}

// GetClaim returns a claim by ID.
func GetClaim(ctx context.Context, db DBTX, id int64) (*model.Claim, error) {
	c := &model.Claim{}
	err := db.QueryRowContext(ctx,
		`SELECT `+claimColumns+` FROM claims WHERE id = ?`, id,
	).Scan(&c.ID, &c.FoundID, &c.ClaimantID, &c.ProofDescription, &c.Status,
		&c.ReviewedBy, &c.ReviewedAt, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting claim: %w", err)
	}
	return c, nil
}

// ListClaims returns claims, optionally filtered by found item, claimant and
// status. Newest first.
func ListClaims(ctx context.Context, db DBTX, foundID, claimantID int64, status string) ([]model.Claim, error) {
	query := `SELECT ` + claimColumns + ` FROM claims WHERE 1=1`
	var args []any

	if foundID > 0 {
		query += ` AND found_id = ?`
		args = append(args, foundID)
	}
	if claimantID > 0 {
		query += ` AND claimant_id = ?`
		args = append(args, claimantID)
	}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing claims: %w", err)
	}
	defer rows.Close()

	var claims []model.Claim
	for rows.Next() {
		var c model.Claim
		if err := rows.Scan(&c.ID, &c.FoundID, &c.ClaimantID, &c.ProofDescription, &c.Status,
			&c.ReviewedBy, &c.ReviewedAt, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning claim: %w", err)
		}
		claims = append(claims, c)
	}
	return claims, rows.Err()
}

// HasPendingClaim reports whether the claimant already has an open claim on
// the found item.
func HasPendingClaim(ctx context.Context, db DBTX, foundID, claimantID int64) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM claims WHERE found_id = ? AND claimant_id = ? AND status = ?`,
		foundID, claimantID, model.ClaimStatusPending,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking pending claim: %w", err)
	}
	return count > 0, nil
}

// CountClaims returns the number of claims of any status on a found item.
func CountClaims(ctx context.Context, db DBTX, foundID int64) (int, error) {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM claims WHERE found_id = ?`, foundID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting claims: %w", err)
	}
	return count, nil
}

// TransitionClaim moves a claim out of PENDING, stamping the reviewer and the
// review time. The WHERE status = 'PENDING' clause is the concurrency guard:
// if another reviewer got there first the update affects zero rows and the
// caller reports a conflict instead of overwriting the earlier decision.
func TransitionClaim(ctx context.Context, db DBTX, id int64, to string, reviewerID int64, reviewedAt time.Time) (bool, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE claims SET status = ?, reviewed_by = ?, reviewed_at = ?
		 WHERE id = ? AND status = ?`,
		to, reviewerID, reviewedAt, id, model.ClaimStatusPending,
	)
	if err != nil {
		return false, fmt.Errorf("transitioning claim: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("transitioning claim: %w", err)
	}
	return n > 0, nil
}

// PendingClaimsForFound returns the open claims on a found item, oldest first.
// Callers use the result to notify each claimant before bulk-denying.
func PendingClaimsForFound(ctx context.Context, db DBTX, foundID int64) ([]model.Claim, error) {
	return ListClaimsOldestFirst(ctx, db, foundID, model.ClaimStatusPending)
}

// ListClaimsOldestFirst returns claims on a found item with the given status,
// oldest first.
func ListClaimsOldestFirst(ctx context.Context, db DBTX, foundID int64, status string) ([]model.Claim, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+claimColumns+` FROM claims WHERE found_id = ? AND status = ? ORDER BY id`,
		foundID, status,
	)
	if err != nil {
		return nil, fmt.Errorf("listing claims for found item: %w", err)
	}
	defer rows.Close()

	var claims []model.Claim
	for rows.Next() {
		var c model.Claim
		if err := rows.Scan(&c.ID, &c.FoundID, &c.ClaimantID, &c.ProofDescription, &c.Status,
			&c.ReviewedBy, &c.ReviewedAt, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning claim: %w", err)
		}
		claims = append(claims, c)
	}
	return claims, rows.Err()
}

// DenyPendingClaims bulk-denies open claims on a found item, optionally
// excluding one claim id (the one just approved). Returns the number of
// claims denied.
func DenyPendingClaims(ctx context.Context, db DBTX, foundID, excludeClaimID, reviewerID int64, reviewedAt time.Time) (int64, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE claims SET status = ?, reviewed_by = ?, reviewed_at = ?
		 WHERE found_id = ? AND status = ? AND id != ?`,
		model.ClaimStatusDenied, reviewerID, reviewedAt,
		foundID, model.ClaimStatusPending, excludeClaimID,
	)
	if err != nil {
		return 0, fmt.Errorf("denying pending claims: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("denying pending claims: %w", err)
	}
	return n, nil
}
