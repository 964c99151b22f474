// Package repository provides data access layers for imported save data.
package repository

import (
	"context"
	"database/sql"
)

// Querier is the subset of database operations the repositories need.
// It is satisfied by both *sql.DB and *sql.Tx, so a repository can run
// standalone or join the per-file import transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}
