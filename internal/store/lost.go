package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/zanvidmar/najdeno/internal/model"
)

const lostColumns = `id, user_id, category_id, location_id, item_name, description,
	date_lost, last_seen_location, status, created_at`

func scanLostReport(row *sql.Row) (*model.LostReport, error) {
	r := &model.LostReport{}
	var description, lastSeen sql.NullString
	err := row.Scan(&r.ID, &r.UserID, &r.CategoryID, &r.LocationID, &r.ItemName,
		&description, &r.DateLost, &lastSeen, &r.Status, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning lost report: %w", err)
	}
	r.Description = description.String
	r.LastSeenLocation = lastSeen.String
	return r, nil
}

// InsertLostReport inserts a lost report row and returns it.
func InsertLostReport(ctx context.Context, db DBTX, userID, categoryID, locationID int64,
	itemName, description string, dateLost time.Time, lastSeenLocation string) (*model.LostReport, error) {

	result, err := db.ExecContext(ctx,
		`INSERT INTO lost_reports (user_id, category_id, location_id, item_name, description, date_lost, last_seen_location)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		userID, categoryID, locationID, itemName, description, dateLost, lastSeenLocation,
	)
	if err != nil {
		return nil, fmt.Errorf("creating lost report: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting lost report id: %w", err)
	}

	return GetLostReport(ctx, db, id)
}

// GetLostReport returns a lost report by ID.
func GetLostReport(ctx context.Context, db DBTX, id int64) (*model.LostReport, error) {
	return scanLostReport(db.QueryRowContext(ctx,
		`SELECT `+lostColumns+` FROM lost_reports WHERE id = ?`, id,
	))
}

// ListLostReports returns lost reports, optionally filtered by status and owner.
func ListLostReports(ctx context.Context, db DBTX, status string, userID int64) ([]model.LostReport, error) {
	query := `SELECT ` + lostColumns + ` FROM lost_reports WHERE 1=1`
	var args []any

	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	if userID > 0 {
		query += ` AND user_id = ?`
		args = append(args, userID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing lost reports: %w", err)
	}
	defer rows.Close()

	var reports []model.LostReport
	for rows.Next() {
		var r model.LostReport
		var description, lastSeen sql.NullString
		if err := rows.Scan(&r.ID, &r.UserID, &r.CategoryID, &r.LocationID, &r.ItemName,
			&description, &r.DateLost, &lastSeen, &r.Status, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning lost report: %w", err)
		}
		r.Description = description.String
		r.LastSeenLocation = lastSeen.String
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// ActiveLostCandidates returns up to limit active lost reports sharing the
// category or the location with a new found item. The cap bounds scoring
// work as the corpus grows.
func ActiveLostCandidates(ctx context.Context, db DBTX, categoryID, locationID int64, limit int) ([]model.LostReport, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+lostColumns+` FROM lost_reports
		 WHERE status = ? AND (category_id = ? OR location_id = ?)
		 ORDER BY id LIMIT ?`,
		model.LostStatusReported, categoryID, locationID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("fetching lost candidates: %w", err)
	}
	defer rows.Close()

	var reports []model.LostReport
	for rows.Next() {
		var r model.LostReport
		var description, lastSeen sql.NullString
		if err := rows.Scan(&r.ID, &r.UserID, &r.CategoryID, &r.LocationID, &r.ItemName,
			&description, &r.DateLost, &lastSeen, &r.Status, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning lost candidate: %w", err)
		}
		r.Description = description.String
		r.LastSeenLocation = lastSeen.String
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// CancelLostReport flips a report to CANCELLED. Returns false if the report
// was not in REPORTED_LOST (already cancelled).
func CancelLostReport(ctx context.Context, db DBTX, id int64) (bool, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE lost_reports SET status = ? WHERE id = ? AND status = ?`,
		model.LostStatusCancelled, id, model.LostStatusReported,
	)
	if err != nil {
		return false, fmt.Errorf("cancelling lost report: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("cancelling lost report: %w", err)
	}
	return n > 0, nil
}
