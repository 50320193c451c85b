package aggctl

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/dailyagg/internal/filex"
	"github.com/dmitrijs2005/dailyagg/internal/logging"
	"github.com/dmitrijs2005/dailyagg/internal/netx"
	"github.com/dmitrijs2005/dailyagg/internal/server"
	"github.com/dmitrijs2005/dailyagg/internal/server/config"
	"github.com/dmitrijs2005/dailyagg/internal/server/services"
	"github.com/spf13/cobra"
)

// withStores opens the configured stores for the duration of run.
func withStores(ctx context.Context, opts *options, run func(*config.Config, *server.Stores) error) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	stores, err := server.OpenStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer stores.Close()

	return run(cfg, stores)
}

func newMigrateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStores(cmd.Context(), opts, func(_ *config.Config, stores *server.Stores) error {
				if !stores.Persistent() {
					fmt.Fprintln(cmd.OutOrStdout(), "in-memory store, nothing to migrate")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
				return nil
			})
		},
	}
}

func newCleanupCmd(opts *options) *cobra.Command {
	var before string

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete entries and summaries older than a day",
		Long:  "cleanup deletes entries and summaries of days before --before, or before the configured retention cutoff when --before is not given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStores(cmd.Context(), opts, func(cfg *config.Config, stores *server.Stores) error {
				svc := services.NewRetentionService(stores.Conn, stores.Repos, cfg, logging.NopLogger{})

				cutoff := svc.Cutoff()
				if before != "" {
					d, err := parseDay("before", before)
					if err != nil {
						return err
					}
					cutoff = d
				} else if !svc.Enabled() {
					return fmt.Errorf("retention is disabled, pass --before")
				}

				res, err := svc.Cleanup(cmd.Context(), cutoff)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "before %s: removed %d entries, %d summaries\n", cutoff, res.EntriesDeleted, res.SummariesDeleted)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&before, "before", "", "Delete days before this one (YYYY-MM-DD)")
	return cmd
}

func newExportCmd(opts *options) *cobra.Command {
	var userID, start, end, out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Upload a user's summaries for a range and print a download link",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := parseDay("start", start)
			if err != nil {
				return err
			}
			e, err := parseDay("end", end)
			if err != nil {
				return err
			}
			return withStores(cmd.Context(), opts, func(cfg *config.Config, stores *server.Stores) error {
				agg := services.NewAggregationService(stores.Conn, stores.Repos, cfg, logging.NopLogger{})
				exp, err := services.NewExportService(agg, cfg, logging.NopLogger{}).ExportRange(cmd.Context(), userID, s, e)
				if err != nil {
					return err
				}
				if out != "" {
					if err := download(cmd.Context(), exp.URL, out); err != nil {
						return err
					}
				}
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"key":       exp.Key,
					"url":       exp.URL,
					"expiresAt": exp.ExpiresAt.Format(time.RFC3339),
					"days":      exp.Days,
				})
			})
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "User ID")
	cmd.Flags().StringVar(&start, "start", "", "First day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "Last day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&out, "out", "", "Also download the export to this file")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

// download saves the object behind a presigned link to path.
func download(ctx context.Context, url, path string) error {
	f, err := filex.Create(path)
	if err != nil {
		return err
	}
	if _, err := netx.DownloadPresignedURL(ctx, url, f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
