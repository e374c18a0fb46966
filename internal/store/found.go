package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/zanvidmar/najdeno/internal/model"
)

const foundColumns = `id, reported_by, category_id, location_id, item_name, description,
	date_found, storage_location, image_mime, status, created_at, updated_at`

func scanFoundItem(scan func(dest ...any) error) (*model.FoundItem, error) {
	f := &model.FoundItem{}
	var description, storage, imageMime sql.NullString
	err := scan(&f.ID, &f.ReportedBy, &f.CategoryID, &f.LocationID, &f.ItemName,
		&description, &f.DateFound, &storage, &imageMime, &f.Status, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	f.Description = description.String
	f.StorageLocation = storage.String
	f.ImageMime = imageMime.String
	return f, nil
}

// InsertFoundItem inserts a found item row and returns it.
func InsertFoundItem(ctx context.Context, db DBTX, reportedBy, categoryID, locationID int64,
	itemName, description string, dateFound time.Time, storageLocation string) (*model.FoundItem, error) {

	result, err := db.ExecContext(ctx,
		`INSERT INTO found_items (reported_by, category_id, location_id, item_name, description, date_found, storage_location)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		reportedBy, categoryID, locationID, itemName, description, dateFound, storageLocation,
	)
	if err != nil {
		return nil, fmt.Errorf("creating found item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting found item id: %w", err)
	}

	return GetFoundItem(ctx, db, id)
}

// GetFoundItem returns a found item by ID.
func GetFoundItem(ctx context.Context, db DBTX, id int64) (*model.FoundItem, error) {
	item, err := scanFoundItem(db.QueryRowContext(ctx,
		`SELECT `+foundColumns+` FROM found_items WHERE id = ?`, id,
	).Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting found item: %w", err)
	}
	return item, nil
}

// FoundItemFilter narrows ListFoundItems. Zero values mean "no filter".
type FoundItemFilter struct {
	Status     string
	CategoryID int64
	LocationID int64
	Query      string // substring of the item name
	Limit      uint64
	Offset     uint64
}

// ListFoundItems returns found items matching the filter, newest first.
func ListFoundItems(ctx context.Context, db DBTX, filter FoundItemFilter) ([]model.FoundItem, error) {
	builder := sq.Select("id", "reported_by", "category_id", "location_id", "item_name",
		"description", "date_found", "storage_location", "image_mime", "status",
		"created_at", "updated_at").
		From("found_items").
		OrderBy("created_at DESC, id DESC")

	if filter.Status != "" {
		builder = builder.Where(sq.Eq{"status": filter.Status})
	}
	if filter.CategoryID > 0 {
		builder = builder.Where(sq.Eq{"category_id": filter.CategoryID})
	}
	if filter.LocationID > 0 {
		builder = builder.Where(sq.Eq{"location_id": filter.LocationID})
	}
	if filter.Query != "" {
		builder = builder.Where(sq.Like{"item_name": "%" + filter.Query + "%"})
	}
	if filter.Limit > 0 {
		builder = builder.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		builder = builder.Offset(filter.Offset)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building found item query: %w", err)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing found items: %w", err)
	}
	defer rows.Close()

	var items []model.FoundItem
	for rows.Next() {
		item, err := scanFoundItem(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning found item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// AvailableFoundCandidates returns up to limit NEWLY_FOUND items sharing the
// category or the location with a new lost report.
func AvailableFoundCandidates(ctx context.Context, db DBTX, categoryID, locationID int64, limit int) ([]model.FoundItem, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+foundColumns+` FROM found_items
		 WHERE status = ? AND (category_id = ? OR location_id = ?)
		 ORDER BY id LIMIT ?`,
		model.FoundStatusNewlyFound, categoryID, locationID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("fetching found candidates: %w", err)
	}
	defer rows.Close()

	var items []model.FoundItem
	for rows.Next() {
		item, err := scanFoundItem(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning found candidate: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// AllFoundItems returns up to limit found items sharing the category or the
// location, regardless of status. Used by the suggestion refresh, which also
// shows claimed items so the UI can disable them.
func AllFoundItems(ctx context.Context, db DBTX, categoryID, locationID int64, limit int) ([]model.FoundItem, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+foundColumns+` FROM found_items
		 WHERE category_id = ? OR location_id = ?
		 ORDER BY id LIMIT ?`,
		categoryID, locationID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("fetching found items: %w", err)
	}
	defer rows.Close()

	var items []model.FoundItem
	for rows.Next() {
		item, err := scanFoundItem(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning found item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// UpdateFoundItemFields applies a partial update. Keys must be column names;
// the caller validates values before reaching the store.
func UpdateFoundItemFields(ctx context.Context, db DBTX, id int64, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}

	builder := sq.Update("found_items").
		SetMap(fields).
		Set("updated_at", sq.Expr("CURRENT_TIMESTAMP")).
		Where(sq.Eq{"id": id})

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("building found item update: %w", err)
	}

	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("updating found item: %w", err)
	}
	return nil
}

// SetFoundItemStatus transitions a found item's status only when it is still
// in the expected state, returning whether a row changed. The conditional
// write is the optimistic concurrency guard for the claim workflow.
func SetFoundItemStatus(ctx context.Context, db DBTX, id int64, from, to string) (bool, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE found_items SET status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = ?`,
		to, id, from,
	)
	if err != nil {
		return false, fmt.Errorf("setting found item status: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("setting found item status: %w", err)
	}
	return n > 0, nil
}

// DeleteFoundItemRow hard-deletes a found item. The workflow layer guards
// against deleting items with claim history.
func DeleteFoundItemRow(ctx context.Context, db DBTX, id int64) error {
	_, err := db.ExecContext(ctx, `DELETE FROM found_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting found item: %w", err)
	}
	return nil
}

// SetFoundItemImage sets a found item's image data.
func SetFoundItemImage(ctx context.Context, db DBTX, id int64, image []byte, mime string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE found_items SET image = ?, image_mime = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		image, mime, id,
	)
	if err != nil {
		return fmt.Errorf("setting found item image: %w", err)
	}
	return nil
}

// GetFoundItemImage returns a found item's image data and MIME type.
func GetFoundItemImage(ctx context.Context, db DBTX, id int64) ([]byte, string, error) {
	var image []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT image, image_mime FROM found_items WHERE id = ?`, id,
	).Scan(&image, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting found item image: %w", err)
	}
	return image, mime.String, nil
}
