package grpc

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/dailyagg/internal/common"
	"github.com/dmitrijs2005/dailyagg/internal/logging"
	"github.com/dmitrijs2005/dailyagg/internal/server/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const testSecret = "test-secret"

func incoming(kv ...string) context.Context {
	return metadata.NewIncomingContext(context.Background(), metadata.Pairs(kv...))
}

func TestAccessTokenInterceptor(t *testing.T) {
	s := NewGRPCServer(":0", logging.NopLogger{}, nil, nil, testSecret)

	valid, err := auth.GenerateToken("u1", []byte(testSecret), time.Hour)
	require.NoError(t, err)
	expired, err := auth.GenerateToken("u1", []byte(testSecret), -time.Minute)
	require.NoError(t, err)
	foreign, err := auth.GenerateToken("u1", []byte("other"), time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name     string
		ctx      context.Context
		method   string
		wantCode codes.Code
		wantUser string
	}{
		{"ping is public", context.Background(), MethodPing, codes.OK, ""},
		{"no metadata", context.Background(), MethodGetToday, codes.Unauthenticated, ""},
		{"empty token", incoming(common.AccessTokenHeaderName, " "), MethodGetToday, codes.Unauthenticated, ""},
		{"expired", incoming(common.AccessTokenHeaderName, expired), MethodGetToday, codes.Unauthenticated, ""},
		{"wrong secret", incoming(common.AccessTokenHeaderName, foreign), MethodGetToday, codes.Unauthenticated, ""},
		{"valid", incoming(common.AccessTokenHeaderName, valid), MethodRecordMeal, codes.OK, "u1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotUser string
			called := false
			handler := func(ctx context.Context, req any) (any, error) {
				called = true
				gotUser, _ = ctx.Value(userIDKey).(string)
				return "ok", nil
			}

			_, err := s.accessTokenInterceptor(tt.ctx, nil, &grpc.UnaryServerInfo{FullMethod: FullMethod(tt.method)}, handler)
			assert.Equal(t, tt.wantCode, status.Code(err))
			assert.Equal(t, tt.wantCode == codes.OK, called)
			assert.Equal(t, tt.wantUser, gotUser)
		})
	}
}

func TestUserIDFromContext(t *testing.T) {
	_, err := userIDFromContext(context.Background())
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	id, err := userIDFromContext(context.WithValue(context.Background(), userIDKey, "u9"))
	require.NoError(t, err)
	assert.Equal(t, "u9", id)
}

func TestTimezone(t *testing.T) {
	ctx := incoming(common.TimezoneHeaderName, "Asia/Tokyo")

	assert.Equal(t, "Europe/Riga", timezone(ctx, "Europe/Riga"))
	assert.Equal(t, "Asia/Tokyo", timezone(ctx, ""))
	assert.Equal(t, "Asia/Tokyo", timezone(ctx, "  "))
	assert.Equal(t, "", timezone(context.Background(), ""))
}
