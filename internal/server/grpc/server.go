// Package grpc exposes the aggregation services over gRPC.
package grpc

import (
	"context"
	"errors"
	"net"

	"cloud.google.com/go/civil"
	"github.com/dmitrijs2005/dailyagg/internal/logging"
	"github.com/dmitrijs2005/dailyagg/internal/server/models"
	"github.com/dmitrijs2005/dailyagg/internal/server/services"
	"google.golang.org/grpc"
)

// Aggregation is the part of services.AggregationService the transport uses.
type Aggregation interface {
	RecordMeal(ctx context.Context, userID string, in services.MealInput, tz string) (*models.Entry, *models.DaySummary, error)
	RecordWorkout(ctx context.Context, userID string, in services.WorkoutInput, tz string) (*models.Entry, *models.DaySummary, error)
	DeleteMeal(ctx context.Context, userID, mealID string) (*models.DaySummary, error)
	UpdateWorkout(ctx context.Context, userID, workoutID string, in services.WorkoutInput, tz string) (*models.Entry, *models.DaySummary, error)
	DeleteWorkout(ctx context.Context, userID, workoutID string) (*models.DaySummary, error)
	SyncMetrics(ctx context.Context, userID string, m models.MetricsFields, tz string) (*models.DaySummary, error)
	GetSummary(ctx context.Context, userID string, day civil.Date) (*models.DaySummary, error)
	GetToday(ctx context.Context, userID, tz string) (*models.DaySummary, error)
	GetRange(ctx context.Context, userID string, start, end civil.Date) ([]*models.DaySummary, error)
	ListEntries(ctx context.Context, userID string, day civil.Date, kind models.EntryKind) ([]*models.Entry, error)
	Recompute(ctx context.Context, userID string, day civil.Date) (*models.DaySummary, error)
}

// Exporter uploads summary ranges.
type Exporter interface {
	ExportRange(ctx context.Context, userID string, start, end civil.Date) (*services.Export, error)
}

type GRPCServer struct {
	address   string
	agg       Aggregation
	exports   Exporter
	logger    logging.Logger
	jwtSecret []byte
}

func NewGRPCServer(a string, l logging.Logger, agg Aggregation, exports Exporter, secretKey string) *GRPCServer {
	return &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		agg:       agg,
		exports:   exports,
		jwtSecret: []byte(secretKey),
	}
}

// NewServer builds a grpc.Server with the auth interceptor and the service
// registered.
func (s *GRPCServer) NewServer(opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts, grpc.ChainUnaryInterceptor(s.accessTokenInterceptor))
	srv := grpc.NewServer(opts...)
	RegisterDailySummaryServer(srv, s)
	return srv
}

// Run serves on the configured address until ctx is done, then stops
// gracefully.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve is Run on an existing listener.
func (s *GRPCServer) Serve(ctx context.Context, listen net.Listener) error {
	srv := s.NewServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	// Serve reports ErrServerStopped when ctx ended before it started.
	if err := srv.Serve(listen); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}
