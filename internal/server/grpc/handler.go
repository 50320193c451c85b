package grpc

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/dailyagg/internal/common"
	"github.com/dmitrijs2005/dailyagg/internal/server/models"
	"github.com/dmitrijs2005/dailyagg/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

func (s *GRPCServer) Ping(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return encodeStruct(PingResponse{Status: "ok"})
}

func (s *GRPCServer) RecordMeal(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	var req MealRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}

	e, summary, err := s.agg.RecordMeal(ctx, userID, services.MealInput{
		IdempotencyKey: req.IdempotencyKey,
		Name:           req.Name,
		MealType:       models.MealType(req.MealType),
		Calories:       req.Calories,
		Protein:        req.Protein,
		Carbs:          req.Carbs,
		Fat:            req.Fat,
		Notes:          req.Notes,
		OccurredAt:     occurredAt(req.OccurredAt),
	}, timezone(ctx, req.Timezone))
	if err != nil {
		return nil, s.fail(ctx, MethodRecordMeal, err)
	}
	return encodeStruct(RecordResponse{Entry: entryView(e), Summary: summary})
}

func (s *GRPCServer) DeleteMeal(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return s.deleteEntry(ctx, in, MethodDeleteMeal, s.agg.DeleteMeal)
}

func (s *GRPCServer) RecordWorkout(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	var req WorkoutRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}

	e, summary, err := s.agg.RecordWorkout(ctx, userID, services.WorkoutInput{
		IdempotencyKey:  req.IdempotencyKey,
		Name:            req.Name,
		WorkoutType:     models.WorkoutType(req.WorkoutType),
		DurationMinutes: req.DurationMinutes,
		CaloriesBurned:  req.CaloriesBurned,
		Notes:           req.Notes,
		OccurredAt:      occurredAt(req.OccurredAt),
	}, timezone(ctx, req.Timezone))
	if err != nil {
		return nil, s.fail(ctx, MethodRecordWorkout, err)
	}
	return encodeStruct(RecordResponse{Entry: entryView(e), Summary: summary})
}

func (s *GRPCServer) UpdateWorkout(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	var req UpdateWorkoutRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}

	e, summary, err := s.agg.UpdateWorkout(ctx, userID, req.ID, services.WorkoutInput{
		Name:            req.Name,
		WorkoutType:     models.WorkoutType(req.WorkoutType),
		DurationMinutes: req.DurationMinutes,
		CaloriesBurned:  req.CaloriesBurned,
		Notes:           req.Notes,
		OccurredAt:      occurredAt(req.OccurredAt),
	}, timezone(ctx, req.Timezone))
	if err != nil {
		return nil, s.fail(ctx, MethodUpdateWorkout, err)
	}
	return encodeStruct(RecordResponse{Entry: entryView(e), Summary: summary})
}

func (s *GRPCServer) DeleteWorkout(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return s.deleteEntry(ctx, in, MethodDeleteWorkout, s.agg.DeleteWorkout)
}

func (s *GRPCServer) SyncMetrics(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	var req MetricsRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}

	summary, err := s.agg.SyncMetrics(ctx, userID, req.MetricsFields, timezone(ctx, req.Timezone))
	if err != nil {
		return nil, s.fail(ctx, MethodSyncMetrics, err)
	}
	return encodeStruct(SummaryResponse{Summary: summary})
}

func (s *GRPCServer) GetSummary(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	var req DayRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}

	summary, err := s.agg.GetSummary(ctx, userID, req.Day)
	if err != nil {
		return nil, s.fail(ctx, MethodGetSummary, err)
	}
	return encodeStruct(SummaryResponse{Summary: summary})
}

func (s *GRPCServer) GetToday(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	var req TodayRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}

	summary, err := s.agg.GetToday(ctx, userID, timezone(ctx, req.Timezone))
	if err != nil {
		return nil, s.fail(ctx, MethodGetToday, err)
	}
	return encodeStruct(SummaryResponse{Summary: summary})
}

func (s *GRPCServer) GetRange(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	var req RangeRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}

	days, err := s.agg.GetRange(ctx, userID, req.Start, req.End)
	if err != nil {
		return nil, s.fail(ctx, MethodGetRange, err)
	}
	return encodeStruct(RangeResponse{Days: days})
}

func (s *GRPCServer) ListEntries(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	var req ListRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}

	list, err := s.agg.ListEntries(ctx, userID, req.Day, models.EntryKind(req.Kind))
	if err != nil {
		return nil, s.fail(ctx, MethodListEntries, err)
	}

	views := make([]*EntryView, 0, len(list))
	for _, e := range list {
		views = append(views, entryView(e))
	}
	return encodeStruct(EntriesResponse{Entries: views})
}

func (s *GRPCServer) Recompute(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	var req DayRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}

	summary, err := s.agg.Recompute(ctx, userID, req.Day)
	if err != nil {
		return nil, s.fail(ctx, MethodRecompute, err)
	}
	return encodeStruct(SummaryResponse{Summary: summary})
}

func (s *GRPCServer) ExportRange(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if s.exports == nil {
		return nil, status.Error(codes.Unimplemented, "export storage is not configured")
	}
	var req RangeRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}

	exp, err := s.exports.ExportRange(ctx, userID, req.Start, req.End)
	if err != nil {
		return nil, s.fail(ctx, MethodExportRange, err)
	}
	return encodeStruct(ExportResponse{Key: exp.Key, URL: exp.URL, ExpiresAt: exp.ExpiresAt, Days: exp.Days})
}

type deleteFunc func(ctx context.Context, userID, id string) (*models.DaySummary, error)

func (s *GRPCServer) deleteEntry(ctx context.Context, in *structpb.Struct, method string, del deleteFunc) (*structpb.Struct, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	var req IDRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}

	summary, err := del(ctx, userID, req.ID)
	if err != nil {
		return nil, s.fail(ctx, method, err)
	}
	return encodeStruct(SummaryResponse{Summary: summary})
}

// fail logs unexpected errors and converts err to a status.
func (s *GRPCServer) fail(ctx context.Context, method string, err error) error {
	st := toStatus(err)
	switch status.Code(st) {
	case codes.InvalidArgument, codes.NotFound, codes.Canceled, codes.DeadlineExceeded:
	default:
		s.logger.Error(ctx, "request failed", "method", method, "error", err)
	}
	return st
}

func decodeRequest(in *structpb.Struct, out any) error {
	if err := decodeStruct(in, out); err != nil {
		return toStatus(fmt.Errorf("%w: %w", common.ErrValidation, err))
	}
	return nil
}

func occurredAt(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
