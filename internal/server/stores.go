package server

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/dailyagg/internal/dbx"
	"github.com/dmitrijs2005/dailyagg/internal/server/config"
	"github.com/dmitrijs2005/dailyagg/internal/server/repositories/repomanager"
)

// Stores bundles the connection and repositories selected by the config.
type Stores struct {
	Conn  dbx.Conn
	Repos repomanager.RepositoryManager
	db    *sql.DB
}

// openPostgres is a seam for tests.
var openPostgres = repomanager.OpenPostgres

// OpenStores connects to PostgreSQL and applies migrations, or sets up the
// in-memory store when the DSN asks for it.
func OpenStores(ctx context.Context, c *config.Config) (*Stores, error) {
	if c.UseMemoryStore() {
		return &Stores{Conn: dbx.NopConn{}, Repos: repomanager.NewMemoryRepositoryManager()}, nil
	}

	db, err := openPostgres(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	repos := repomanager.NewPostgresRepositoryManager()
	if err := repos.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return &Stores{Conn: dbx.NewSQLConn(db, nil), Repos: repos, db: db}, nil
}

// Persistent reports whether the stores outlive the process.
func (s *Stores) Persistent() bool {
	return s.db != nil
}

func (s *Stores) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
