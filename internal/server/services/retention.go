package services

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dmitrijs2005/dailyagg/internal/dbx"
	"github.com/dmitrijs2005/dailyagg/internal/logging"
	"github.com/dmitrijs2005/dailyagg/internal/server/config"
	"github.com/dmitrijs2005/dailyagg/internal/server/daykey"
	"github.com/dmitrijs2005/dailyagg/internal/server/repositories/repomanager"
)

// CleanupResult counts what a cleanup removed.
type CleanupResult struct {
	Cutoff           civil.Date
	EntriesDeleted   int64
	SummariesDeleted int64
}

// RetentionService drops entries and summaries that fell out of the
// retention window.
type RetentionService struct {
	conn          dbx.Conn
	repomanager   repomanager.RepositoryManager
	days          *daykey.Resolver
	retentionDays int
	interval      time.Duration
	logger        logging.Logger
}

func NewRetentionService(conn dbx.Conn, m repomanager.RepositoryManager, cfg *config.Config, logger logging.Logger) *RetentionService {
	return &RetentionService{
		conn:          conn,
		repomanager:   m,
		days:          daykey.NewResolver(),
		retentionDays: cfg.RetentionDays,
		interval:      cfg.RetentionInterval,
		logger:        logger.With("module", "retention"),
	}
}

// Enabled reports whether a retention window is configured.
func (s *RetentionService) Enabled() bool {
	return s.retentionDays > 0
}

// Cleanup deletes every entry and summary dated before the cutoff, both in
// one transaction.
func (s *RetentionService) Cleanup(ctx context.Context, before civil.Date) (*CleanupResult, error) {
	res := &CleanupResult{Cutoff: before}
	err := s.conn.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		n, err := s.repomanager.Entries(tx).DeleteBefore(ctx, before)
		if err != nil {
			return fmt.Errorf("delete entries: %w", err)
		}
		res.EntriesDeleted = n

		n, err = s.repomanager.Summaries(tx).DeleteBefore(ctx, before)
		if err != nil {
			return fmt.Errorf("delete summaries: %w", err)
		}
		res.SummariesDeleted = n
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "retention cleanup done",
		"cutoff", before.String(), "entries", res.EntriesDeleted, "summaries", res.SummariesDeleted)
	return res, nil
}

// Cutoff is the first day still inside the retention window. Days are
// counted in UTC so the cutoff does not depend on any one user.
func (s *RetentionService) Cutoff() civil.Date {
	return s.days.Today("UTC").AddDays(-s.retentionDays)
}

// Run cleans up once per interval until ctx is done. It returns nil at
// once when retention is disabled.
func (s *RetentionService) Run(ctx context.Context) error {
	if !s.Enabled() {
		return nil
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if ctx.Err() != nil {
			return nil
		}
		if _, err := s.Cleanup(ctx, s.Cutoff()); err != nil {
			s.logger.Error(ctx, "retention cleanup failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
