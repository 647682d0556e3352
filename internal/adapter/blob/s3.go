package blob

import (
	"context"
	"errors"
	"fmt"

	"docquiz/internal/config"
	"docquiz/internal/domain"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Store reads documents from an S3-compatible bucket (AWS, R2, MinIO, Supabase).
type S3Store struct {
	client   *s3.Client
	bucket   string
	maxBytes int64
}

func NewS3Store(ctx context.Context, cfg config.StorageConfig) (*S3Store, error) {
	region := cfg.Region
	if region == "" {
		region = "auto"
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS SDK config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Store{client: client, bucket: cfg.Bucket, maxBytes: cfg.MaxDocumentBytes}, nil
}

func (s *S3Store) Download(ctx context.Context, path string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("%w: %s", domain.ErrBlobNotFound, path)
		}
		return nil, fmt.Errorf("failed to get object %s: %w", path, err)
	}
	defer out.Body.Close()

	if out.ContentLength != nil && s.maxBytes > 0 && *out.ContentLength > s.maxBytes {
		return nil, fmt.Errorf("object %s exceeds %d bytes", path, s.maxBytes)
	}
	return readLimited(out.Body, s.maxBytes, path)
}
