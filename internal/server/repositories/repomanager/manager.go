package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/dailyagg/internal/dbx"
	"github.com/dmitrijs2005/dailyagg/internal/server/repositories/entries"
	"github.com/dmitrijs2005/dailyagg/internal/server/repositories/summaries"
)

// RepositoryManager vends repositories bound to a DB handle or transaction,
// so a caller inside dbx.Conn.WithTx gets repos that share that transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Entries(db dbx.DBTX) entries.Repository
	Summaries(db dbx.DBTX) summaries.Repository
}
