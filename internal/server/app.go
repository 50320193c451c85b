// Package server wires the configuration, stores, services and transports of
// the aggregation server and runs them until shutdown.
package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/dailyagg/internal/logging"
	"github.com/dmitrijs2005/dailyagg/internal/server/config"
	"github.com/dmitrijs2005/dailyagg/internal/server/services"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/dailyagg/internal/server/grpc"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	stores      *Stores
	aggregation *services.AggregationService
	exports     *services.ExportService
	retention   *services.RetentionService
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)
	return newApp(ctx, c, logger)
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	stores, err := OpenStores(ctx, c)
	if err != nil {
		return nil, err
	}
	if !stores.Persistent() {
		logger.Warn(ctx, "using in-memory store, data is lost on exit")
	}

	agg := services.NewAggregationService(stores.Conn, stores.Repos, c, logger)

	app := &App{
		config:      c,
		logger:      logger,
		stores:      stores,
		aggregation: agg,
		retention:   services.NewRetentionService(stores.Conn, stores.Repos, c, logger),
	}
	if c.S3Bucket != "" {
		app.exports = services.NewExportService(agg, c, logger)
	}
	return app, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) grpcServer() *gs.GRPCServer {
	var exporter gs.Exporter
	if app.exports != nil {
		exporter = app.exports
	}
	return gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.aggregation, exporter, app.config.SecretKey)
}

// Run serves until ctx is cancelled, a signal arrives or a component fails.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return app.grpcServer().Run(ctx)
	})

	g.Go(func() error {
		return app.retention.Run(ctx)
	})

	err := g.Wait()
	if err != nil {
		app.logger.Error(ctx, "app stopped with error", "error", err)
	}

	if cerr := app.stores.Close(); cerr != nil {
		app.logger.Error(ctx, "close stores", "error", cerr)
	}

	app.logger.Info(ctx, "App stopped")
	return err
}
