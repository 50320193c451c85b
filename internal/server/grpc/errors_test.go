package grpc

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dmitrijs2005/dailyagg/internal/common"
	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestToStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want codes.Code
	}{
		{"validation", fmt.Errorf("%w: bad meal", common.ErrValidation), codes.InvalidArgument},
		{"not found", common.ErrNotFound, codes.NotFound},
		{"stale beats store", fmt.Errorf("%w: save: %w", common.ErrSummaryStale, common.ErrStoreUnavailable), codes.Aborted},
		{"cancelled", fmt.Errorf("%w: %w", common.ErrCancelled, context.Canceled), codes.Canceled},
		{"cancelled by deadline", fmt.Errorf("%w: %w", common.ErrCancelled, context.DeadlineExceeded), codes.DeadlineExceeded},
		{"store", fmt.Errorf("%w: conn refused", common.ErrStoreUnavailable), codes.Unavailable},
		{"invalid token", common.ErrInvalidToken, codes.Unauthenticated},
		{"expired token", common.ErrTokenExpired, codes.Unauthenticated},
		{"other", errors.New("boom"), codes.Internal},
		{"already a status", status.Error(codes.PermissionDenied, "no"), codes.PermissionDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, status.Code(toStatus(tt.err)))
		})
	}

	assert.NoError(t, toStatus(nil))
}

func TestToStatus_InternalHidesDetails(t *testing.T) {
	st, _ := status.FromError(toStatus(errors.New("pq: password authentication failed")))
	assert.Equal(t, "internal error", st.Message())
}
