// Package store contains all SQL access. Functions take a DBTX so the same
// statements serve both plain connections and the workflow transactions.
package store

import (
	"context"
	"database/sql"
)

// DBTX is the subset of database/sql satisfied by both *sql.DB and *sql.Tx.
// Workflow operations pass a transaction; handlers pass the pool directly.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
