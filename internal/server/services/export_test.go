package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/dailyagg/internal/common"
	"github.com/dmitrijs2005/dailyagg/internal/logging"
	"github.com/dmitrijs2005/dailyagg/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubS3 replaces the SDK seams for one test and restores them afterwards.
func stubS3(t *testing.T) {
	t.Helper()
	origLoad := loadDefaultAWSConfig
	origNewS3 := newS3ClientFromConfig
	origNewPre := newS3PresignClient
	origPut := putObject
	origPresign := presignGetObject
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNewS3
		newS3PresignClient = origNewPre
		putObject = origPut
		presignGetObject = origPresign
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return &s3.Client{}
	}
	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return &s3.PresignClient{}
	}
}

func newExportService(t *testing.T) (*ExportService, *AggregationService) {
	t.Helper()
	agg, _ := newTestService(t, time.Date(2025, time.August, 10, 12, 0, 0, 0, time.UTC))

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.S3Bucket = "exports"
	cfg.S3BaseEndpoint = "http://127.0.0.1:9000"
	cfg.ExportURLExpiry = 10 * time.Minute

	svc := NewExportService(agg, cfg, logging.NopLogger{})
	svc.now = func() time.Time { return time.Date(2025, time.August, 10, 12, 0, 0, 0, time.UTC) }
	return svc, agg
}

func TestGetClients_AppliesConfig(t *testing.T) {
	stubS3(t)
	svc, _ := newExportService(t)

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			if err := fn(&lo); err != nil {
				t.Fatalf("load options fn error: %v", err)
			}
		}
		if lo.Region != "us-east-1" {
			t.Fatalf("region not applied: %q", lo.Region)
		}
		return aws.Config{}, nil
	}

	var opts s3.Options
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		for _, fn := range optFns {
			fn(&opts)
		}
		return &s3.Client{}
	}

	c, pc, err := svc.getClients(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, c)
	assert.NotNil(t, pc)
	require.NotNil(t, opts.BaseEndpoint)
	assert.Equal(t, "http://127.0.0.1:9000", *opts.BaseEndpoint)
	assert.True(t, opts.UsePathStyle)

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("load-fail")
	}
	_, _, err = svc.getClients(context.Background())
	assert.EqualError(t, err, "load-fail")
}

func TestExportRange_UploadsAndPresigns(t *testing.T) {
	stubS3(t)
	svc, agg := newExportService(t)
	ctx := context.Background()

	_, _, err := agg.RecordMeal(ctx, "u1", MealInput{
		Name: "toast", Calories: intPtr(80),
		OccurredAt: time.Date(2025, time.August, 2, 8, 0, 0, 0, time.UTC),
	}, "UTC")
	require.NoError(t, err)

	var (
		putKey, putBucket string
		putBody           []byte
	)
	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		putBucket, putKey = *in.Bucket, *in.Key
		b, err := io.ReadAll(in.Body)
		if err != nil {
			return nil, err
		}
		putBody = b
		return &s3.PutObjectOutput{}, nil
	}

	var expires time.Duration
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		var po s3.PresignOptions
		for _, fn := range optFns {
			fn(&po)
		}
		expires = po.Expires
		if *in.Key != putKey {
			t.Fatalf("presigned key %q differs from uploaded key %q", *in.Key, putKey)
		}
		return &v4.PresignedHTTPRequest{URL: "https://s3.example/" + *in.Key}, nil
	}

	exp, err := svc.ExportRange(ctx, "u1", date(2025, time.August, 1), date(2025, time.August, 3))
	require.NoError(t, err)

	assert.Equal(t, "exports", putBucket)
	assert.True(t, strings.HasPrefix(putKey, "exports/u1/2025-08-01_2025-08-03/"), putKey)
	assert.Equal(t, "https://s3.example/"+putKey, exp.URL)
	assert.Equal(t, 3, exp.Days)
	assert.Equal(t, 10*time.Minute, expires)
	assert.Equal(t, time.Date(2025, time.August, 10, 12, 10, 0, 0, time.UTC), exp.ExpiresAt)

	var doc struct {
		UserID string `json:"userId"`
		Days   []struct {
			DayKey        string `json:"dayKey"`
			TotalCalories int    `json:"totalCalories"`
		} `json:"days"`
	}
	require.NoError(t, json.Unmarshal(putBody, &doc))
	assert.Equal(t, "u1", doc.UserID)
	require.Len(t, doc.Days, 3)
	assert.Equal(t, "2025-08-02", doc.Days[1].DayKey)
	assert.Equal(t, 80, doc.Days[1].TotalCalories)
	assert.Equal(t, 0, doc.Days[2].TotalCalories)
}

func TestExportRange_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid range never reaches s3", func(t *testing.T) {
		stubS3(t)
		svc, _ := newExportService(t)
		putObject = func(*s3.Client, context.Context, *s3.PutObjectInput, ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
			t.Error("unexpected upload")
			return nil, errors.New("unexpected upload")
		}
		_, err := svc.ExportRange(ctx, "u1", date(2025, time.August, 3), date(2025, time.August, 1))
		assert.ErrorIs(t, err, common.ErrValidation)
	})

	t.Run("upload failure", func(t *testing.T) {
		stubS3(t)
		svc, _ := newExportService(t)
		putObject = func(*s3.Client, context.Context, *s3.PutObjectInput, ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
			return nil, errors.New("put-fail")
		}
		_, err := svc.ExportRange(ctx, "u1", date(2025, time.August, 1), date(2025, time.August, 1))
		assert.ErrorContains(t, err, "upload export: put-fail")
	})

	t.Run("presign failure", func(t *testing.T) {
		stubS3(t)
		svc, _ := newExportService(t)
		putObject = func(*s3.Client, context.Context, *s3.PutObjectInput, ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
			return &s3.PutObjectOutput{}, nil
		}
		presignGetObject = func(*s3.PresignClient, context.Context, *s3.GetObjectInput, ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
			return nil, errors.New("presign-fail")
		}
		_, err := svc.ExportRange(ctx, "u1", date(2025, time.August, 1), date(2025, time.August, 1))
		assert.ErrorContains(t, err, "presign export: presign-fail")
	})
}
