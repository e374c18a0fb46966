package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/zanvidmar/najdeno/internal/model"
)

// InsertMatch stores a suggestion for a (lost, found) pair. Inserting an
// existing pair is a no-op: the unique index on (lost_id, found_id) plus
// INSERT OR IGNORE keep the at-most-one-row invariant regardless of how
// often synthesis runs. Returns whether a row was actually inserted.
func InsertMatch(ctx context.Context, db DBTX, lostID, foundID int64, score float64) (bool, error) {
	result, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO matches (lost_id, found_id, score) VALUES (?, ?, ?)`,
		lostID, foundID, score,
	)
	if err != nil {
		return false, fmt.Errorf("inserting match: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("inserting match: %w", err)
	}
	return n > 0, nil
}

// ListMatchesForLost returns stored suggestions for a lost report, best first.
func ListMatchesForLost(ctx context.Context, db DBTX, lostID int64) ([]model.Match, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, lost_id, found_id, score, created_at FROM matches
		 WHERE lost_id = ? ORDER BY score DESC, found_id`, lostID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing matches for lost report: %w", err)
	}
	defer rows.Close()

	return scanMatches(rows)
}

// ListMatchesForFound returns stored suggestions for a found item, best first.
func ListMatchesForFound(ctx context.Context, db DBTX, foundID int64) ([]model.Match, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, lost_id, found_id, score, created_at FROM matches
		 WHERE found_id = ? ORDER BY score DESC, lost_id`, foundID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing matches for found item: %w", err)
	}
	defer rows.Close()

	return scanMatches(rows)
}

func scanMatches(rows *sql.Rows) ([]model.Match, error) {
	var matches []model.Match
	for rows.Next() {
		var m model.Match
		if err := rows.Scan(&m.ID, &m.LostID, &m.FoundID, &m.Score, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning match: %w", err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// DeleteMatchesForFound removes all suggestions referencing a found item and
// returns the number of rows deleted. Called when the item is returned or
// deleted and the suggestions stop being actionable.
func DeleteMatchesForFound(ctx context.Context, db DBTX, foundID int64) (int64, error) {
	result, err := db.ExecContext(ctx, `DELETE FROM matches WHERE found_id = ?`, foundID)
	if err != nil {
		return 0, fmt.Errorf("deleting matches for found item: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("deleting matches for found item: %w", err)
	}
	return n, nil
}

// DeleteMatchesForLost removes all suggestions for a lost report. Used by the
// suggestion refresh before re-inserting the current top candidates.
func DeleteMatchesForLost(ctx context.Context, db DBTX, lostID int64) (int64, error) {
	result, err := db.ExecContext(ctx, `DELETE FROM matches WHERE lost_id = ?`, lostID)
	if err != nil {
		return 0, fmt.Errorf("deleting matches for lost report: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("deleting matches for lost report: %w", err)
	}
	return n, nil
}
