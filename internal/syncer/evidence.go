package syncer

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// EvidenceStore receives supporting photos (captured identity cards)
// tied to queued records. Records reference evidence by object key, so
// the photo must land before the record uploads.
type EvidenceStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
}

// S3EvidenceStore uploads evidence to S3-compatible object storage
// (R2 in production).
type S3EvidenceStore struct {
	client *s3.Client
	bucket string
}

// NewS3EvidenceStore builds a store against an S3-compatible endpoint.
func NewS3EvidenceStore(ctx context.Context, endpoint, region, bucket, accessKey, secretKey string) (*S3EvidenceStore, error) {
	loadCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cfg, err := awsconfig.LoadDefaultConfig(loadCtx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKey,
			secretKey,
			"",
		)),
		awsconfig.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("syncer: configure evidence store: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	return &S3EvidenceStore{client: client, bucket: bucket}, nil
}

func (s *S3EvidenceStore) Put(ctx context.Context, key string, body []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("%w: evidence %s: %v", ErrUploadFailed, key, err)
	}
	return nil
}
