package utils

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store uploads run outputs to a single bucket.
type S3Store struct {
	Bucket  string
	client  objectPutter
	presign *s3.PresignClient
}

// NewS3Store loads the default AWS credential chain for region.
func NewS3Store(ctx context.Context, region, bucket string) (*S3Store, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}

	client := s3.NewFromConfig(cfg)
	zap.L().Info("S3 client initialized", zap.String("bucket", bucket), zap.String("region", region))
	return &S3Store{
		Bucket:  bucket,
		client:  client,
		presign: s3.NewPresignClient(client),
	}, nil
}

// UploadFile uploads body under objectKey and returns the key.
func (s *S3Store) UploadFile(ctx context.Context, body io.Reader, objectKey, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(objectKey),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s to S3: %w", objectKey, err)
	}
	return objectKey, nil
}

// PresignURL returns a GET URL for objectKey valid for one hour.
func (s *S3Store) PresignURL(ctx context.Context, objectKey string) (string, error) {
	if s.presign == nil {
		return "", fmt.Errorf("presigning is not configured")
	}
	request, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(objectKey),
	}, s3.WithPresignExpires(1*time.Hour))
	if err != nil {
		return "", fmt.Errorf("failed to sign request: %w", err)
	}
	return request.URL, nil
}
