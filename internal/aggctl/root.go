// Package aggctl is the operator command line of the aggregation server:
// migrations, maintenance on the store, tokens, and reads and rebuilds on a
// running server.
package aggctl

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/dmitrijs2005/dailyagg/internal/buildinfo"
	"github.com/dmitrijs2005/dailyagg/internal/server/config"
	"github.com/spf13/cobra"
)

type options struct {
	configFile string
	dsn        string
}

// NewRootCmd builds the aggctl command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "aggctl",
		Short:         "aggctl operates the daily aggregation server",
		Long:          "aggctl migrates and maintains the summary store, issues access tokens and reads summaries from a running server.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "Path to server config file (.json or .toml)")
	root.PersistentFlags().StringVar(&opts.dsn, "dsn", "", "Database DSN, or \"memory\"; overrides the config")

	root.AddCommand(
		newMigrateCmd(opts),
		newRecomputeCmd(opts),
		newCleanupCmd(opts),
		newExportCmd(opts),
		newTokenCmd(opts),
		newSummaryCmd(),
		newVersionCmd(),
	)
	return root
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig resolves the server config the same way the server does, with
// --config and --dsn taking the place of -c and -d.
func (o *options) loadConfig() (*config.Config, error) {
	var args []string
	if o.configFile != "" {
		args = append(args, "-c", o.configFile)
	}
	if o.dsn != "" {
		args = append(args, "-d", o.dsn)
	}
	return config.Load(args)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version/build metadata",
		Run: func(cmd *cobra.Command, args []string) {
			buildinfo.PrintBuildData(cmd.OutOrStdout())
		},
	}
}

func parseDay(flag, value string) (civil.Date, error) {
	d, err := civil.ParseDate(strings.TrimSpace(value))
	if err != nil {
		return civil.Date{}, fmt.Errorf("--%s: expected YYYY-MM-DD, got %q", flag, value)
	}
	return d, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
