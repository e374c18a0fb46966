package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/zanvidmar/najdeno/internal/model"
)

// AppendAudit appends an audit entry. Entries are written in the same
// transaction as the change they describe so "it happened" and "it was
// recorded" commit together.
func AppendAudit(ctx context.Context, db DBTX, e model.AuditEntry) error {
	var meta any
	if e.Meta != nil {
		data, err := json.Marshal(e.Meta)
		if err != nil {
			return fmt.Errorf("encoding audit meta: %w", err)
		}
		meta = string(data)
	}

	_, err := db.ExecContext(ctx,
		`INSERT INTO audit_logs (actor_user_id, action, entity_type, entity_id, summary, meta, ip, user_agent, request_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ActorID, e.Action, e.EntityType, e.EntityID, e.Summary, meta, e.IP, e.UserAgent, e.RequestID,
	)
	if err != nil {
		return fmt.Errorf("appending audit entry: %w", err)
	}
	return nil
}

// AuditFilter narrows ListAudit. Zero values mean "no filter".
type AuditFilter struct {
	Action     string
	EntityType string
	ActorID    int64
	Since      time.Time
	Until      time.Time
	Limit      uint64
	Offset     uint64
}

// ListAudit returns audit entries matching the filter, newest first. The
// query is assembled dynamically because the admin view combines filters
// freely.
func ListAudit(ctx context.Context, db DBTX, filter AuditFilter) ([]model.AuditEntry, error) {
	builder := sq.Select("id", "actor_user_id", "action", "entity_type", "entity_id",
		"summary", "meta", "ip", "user_agent", "request_id", "created_at").
		From("audit_logs").
		OrderBy("created_at DESC, id DESC")

	if filter.Action != "" {
		builder = builder.Where(sq.Eq{"action": filter.Action})
	}
	if filter.EntityType != "" {
		builder = builder.Where(sq.Eq{"entity_type": filter.EntityType})
	}
	if filter.ActorID > 0 {
		builder = builder.Where(sq.Eq{"actor_user_id": filter.ActorID})
	}
	if !filter.Since.IsZero() {
		builder = builder.Where(sq.GtOrEq{"created_at": filter.Since})
	}
	if !filter.Until.IsZero() {
		builder = builder.Where(sq.Lt{"created_at": filter.Until})
	}

	limit := filter.Limit
	if limit == 0 || limit > 500 {
		limit = 100
	}
	builder = builder.Limit(limit)
	if filter.Offset > 0 {
		builder = builder.Offset(filter.Offset)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building audit query: %w", err)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing audit entries: %w", err)
	}
	defer rows.Close()

	var entries []model.AuditEntry
	for rows.Next() {
		var e model.AuditEntry
		var summary, meta, ip, userAgent, requestID sql.NullString
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Action, &e.EntityType, &e.EntityID,
			&summary, &meta, &ip, &userAgent, &requestID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}
		e.Summary = summary.String
		e.IP = ip.String
		e.UserAgent = userAgent.String
		e.RequestID = requestID.String
		if meta.Valid && meta.String != "" {
			if err := json.Unmarshal([]byte(meta.String), &e.Meta); err != nil {
				return nil, fmt.Errorf("decoding audit meta: %w", err)
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
