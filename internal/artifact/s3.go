package artifact

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/mavenlabs/rewards-insight/internal/pkg/logger"
	"github.com/mavenlabs/rewards-insight/internal/segmentation"
)

// S3Store keeps the artifact as a single S3 object. S3 PutObject replaces the
// object atomically, which gives the same train-then-swap publication
// semantics as FileStore.Save.
type S3Store struct {
	client *s3.Client
	bucket string
	key    string
}

// NewS3Store creates an S3-backed artifact store using the default AWS
// credential chain.
func NewS3Store(ctx context.Context, bucket, key, region string) (*S3Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config for artifact store: %w", err)
	}
	return &S3Store{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
		key:    key,
	}, nil
}

// Save uploads the encoded artifact, replacing any previous version.
func (s *S3Store) Save(ctx context.Context, a *segmentation.Artifact) error {
	data, err := a.Encode()
	if err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("S3 PutObject %s/%s: %w", s.bucket, s.key, err)
	}

	logger.Info("artifact published", "bucket", s.bucket, "key", s.key, "artifact_id", a.ID.String())
	return nil
}

// Load downloads and validates the artifact object. A missing object maps to
// segmentation.ErrModelNotFound rather than an S3 error.
func (s *S3Store) Load(ctx context.Context) (*segmentation.Artifact, error) {
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		// AWS SDK v2 surfaces missing objects as NoSuchKey / NotFound strings
		if isNotFound(err.Error()) {
			return nil, segmentation.ErrModelNotFound
		}
		return nil, fmt.Errorf("S3 GetObject %s/%s: %w", s.bucket, s.key, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading S3 artifact body: %w", err)
	}
	return segmentation.DecodeArtifact(data)
}

func isNotFound(errStr string) bool {
	return strings.Contains(errStr, "NoSuchKey") ||
		strings.Contains(errStr, "NotFound") ||
		strings.Contains(errStr, "404")
}
