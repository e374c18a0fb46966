// Package workflow implements the transactional core of the lost & found
// service: match synthesis on creation, claim adjudication and the found
// item lifecycle cascades. Every operation runs as one all-or-nothing
// transaction; notifications and audit entries commit together with the
// state change they describe.
package workflow

import (
	"context"
	"database/sql"
	"fmt"
)

// Actor identifies who performs an operation and where the request came
// from. Core operations never reach into ambient request state; everything
// they record is passed in here.
type Actor struct {
	UserID    int64
	IP        string
	UserAgent string
	RequestID string
}

// Engine runs the core operations against a database.
type Engine struct {
	DB     *sql.DB
	Config Config
}

// NewEngine returns an Engine with the default thresholds.
func NewEngine(db *sql.DB) *Engine {
	return &Engine{DB: db, Config: DefaultConfig()}
}

// withTx runs fn inside a transaction, rolling back on error.
func (e *Engine) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func actorID(a Actor) *int64 {
	if a.UserID == 0 {
		return nil
	}
	id := a.UserID
	return &id
}
