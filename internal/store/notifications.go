package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/zanvidmar/najdeno/internal/model"
)

// InsertNotification appends a notification for a user.
func InsertNotification(ctx context.Context, db DBTX, userID int64, typ, title, message, href string) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO notifications (user_id, type, title, message, href) VALUES (?, ?, ?, ?, ?)`,
		userID, typ, title, message, href,
	)
	if err != nil {
		return fmt.Errorf("creating notification: %w", err)
	}
	return nil
}

// ListNotifications returns a user's notifications, newest first. When
// unreadOnly is set, read notifications are skipped.
func ListNotifications(ctx context.Context, db DBTX, userID int64, unreadOnly bool) ([]model.Notification, error) {
	query := `SELECT id, user_id, type, title, message, href, is_read, created_at
	          FROM notifications WHERE user_id = ?`
	args := []any{userID}

	if unreadOnly {
		query += ` AND is_read = 0`
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	defer rows.Close()

	var notifications []model.Notification
	for rows.Next() {
		var n model.Notification
		var href sql.NullString
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &href, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning notification: %w", err)
		}
		n.Href = href.String
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// CountNotifications returns how many notifications a user has, optionally
// only unread ones.
func CountNotifications(ctx context.Context, db DBTX, userID int64, unreadOnly bool) (int, error) {
	query := `SELECT COUNT(*) FROM notifications WHERE user_id = ?`
	if unreadOnly {
		query += ` AND is_read = 0`
	}

	var count int
	if err := db.QueryRowContext(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting notifications: %w", err)
	}
	return count, nil
}

// MarkNotificationRead flips the read flag on a single notification. The
// user id scoping keeps users from marking each other's notifications.
func MarkNotificationRead(ctx context.Context, db DBTX, id, userID int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("marking notification read: %w", err)
	}
	return nil
}

// MarkAllNotificationsRead flips the read flag on all of a user's
// notifications.
func MarkAllNotificationsRead(ctx context.Context, db DBTX, userID int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE user_id = ? AND is_read = 0`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("marking notifications read: %w", err)
	}
	return nil
}
