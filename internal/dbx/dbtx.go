// Package dbx provides tiny DB abstractions shared by repositories:
// a minimal interface (DBTX) implemented by both *sql.DB and *sql.Tx,
// a helper to run functions inside a transaction, and Conn, which lets
// services open transactions without knowing what backs the repositories.
package dbx

import (
	"context"
	"database/sql"
)

// DBTX is the subset of database/sql used by our repos.
// Both *sql.DB and *sql.Tx satisfy this interface.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx begins a transaction, runs fn with a transactional handle, and then
// commits on success or rolls back on error/panic. Panics are rethrown.
//
// Typical use:
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    // use tx instead of db
//	    _, err := tx.ExecContext(ctx, "UPDATE ...")
//	    return err
//	})
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = fn(ctx, tx)
	return err
}

// Conn is a handle repositories are bound to, plus a way to run a unit of
// work atomically on it.
type Conn interface {
	// Handle returns the non-transactional handle.
	Handle() DBTX
	// WithTx runs fn inside a transaction on this connection.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error
}

// SQLConn is a Conn over a *sql.DB.
type SQLConn struct {
	db   *sql.DB
	opts *sql.TxOptions
}

// NewSQLConn wraps db. opts may be nil to use the driver defaults.
func NewSQLConn(db *sql.DB, opts *sql.TxOptions) *SQLConn {
	return &SQLConn{db: db, opts: opts}
}

func (c *SQLConn) Handle() DBTX {
	return c.db
}

func (c *SQLConn) WithTx(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error {
	return WithTx(ctx, c.db, c.opts, fn)
}

// NopConn is used with repositories that keep their state in memory: it
// hands out a nil handle and runs fn directly.
type NopConn struct{}

func (NopConn) Handle() DBTX {
	return nil
}

func (NopConn) WithTx(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error {
	return fn(ctx, nil)
}
