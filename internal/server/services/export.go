package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dmitrijs2005/dailyagg/internal/logging"
	sc "github.com/dmitrijs2005/dailyagg/internal/server/config"
	"github.com/dmitrijs2005/dailyagg/internal/server/models"
	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// Export describes an uploaded range export.
type Export struct {
	Key       string
	URL       string
	ExpiresAt time.Time
	Days      int
}

// exportDocument is the JSON object written to the bucket.
type exportDocument struct {
	UserID     string               `json:"userId"`
	Start      civil.Date           `json:"start"`
	End        civil.Date           `json:"end"`
	ExportedAt time.Time            `json:"exportedAt"`
	Days       []*models.DaySummary `json:"days"`
}

// ExportService writes gap-free summary ranges to S3-compatible storage and
// hands out presigned download links.
type ExportService struct {
	summaries *AggregationService
	config    *sc.Config
	logger    logging.Logger
	now       func() time.Time
}

func NewExportService(summaries *AggregationService, cfg *sc.Config, logger logging.Logger) *ExportService {
	return &ExportService{
		summaries: summaries,
		config:    cfg,
		logger:    logger.With("module", "export"),
		now:       time.Now,
	}
}

// ExportKey names the object an export is stored under.
func ExportKey(userID string, start, end civil.Date, at time.Time) string {
	return fmt.Sprintf("exports/%s/%s_%s/%d-%s.json", userID, start, end, at.Unix(), uuid.New())
}

func (s *ExportService) getClients(ctx context.Context) (*s3.Client, *s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return client, newS3PresignClient(client), nil
}

// ExportRange uploads the user's summaries for start..end as one JSON
// document and returns a presigned GET link to it.
func (s *ExportService) ExportRange(ctx context.Context, userID string, start, end civil.Date) (*Export, error) {
	days, err := s.summaries.GetRange(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	body, err := json.Marshal(exportDocument{UserID: userID, Start: start, End: end, ExportedAt: now, Days: days})
	if err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}

	client, presignClient, err := s.getClients(ctx)
	if err != nil {
		return nil, fmt.Errorf("s3 config: %w", err)
	}

	bucket := s.config.S3Bucket
	key := ExportKey(userID, start, end, now)

	if _, err := putObject(client, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	}); err != nil {
		return nil, fmt.Errorf("upload export: %w", err)
	}

	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(s.config.ExportURLExpiry))
	if err != nil {
		return nil, fmt.Errorf("presign export: %w", err)
	}

	s.logger.Info(ctx, "range exported", "user_id", userID, "start", start.String(), "end", end.String(), "key", key)

	return &Export{
		Key:       key,
		URL:       req.URL,
		ExpiresAt: now.Add(s.config.ExportURLExpiry),
		Days:      len(days),
	}, nil
}
