package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/dailyagg/internal/dbx"
	"github.com/dmitrijs2005/dailyagg/internal/server/repositories/entries"
	"github.com/dmitrijs2005/dailyagg/internal/server/repositories/summaries"
)

// MemoryRepositoryManager hands out the same in-memory repositories whatever
// handle it is given. Pair it with dbx.NopConn.
type MemoryRepositoryManager struct {
	entries   *entries.MemoryRepository
	summaries *summaries.MemoryRepository
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{
		entries:   entries.NewMemoryRepository(),
		summaries: summaries.NewMemoryRepository(),
	}
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *MemoryRepositoryManager) Entries(dbx.DBTX) entries.Repository { return m.entries }

func (m *MemoryRepositoryManager) Summaries(dbx.DBTX) summaries.Repository { return m.summaries }
