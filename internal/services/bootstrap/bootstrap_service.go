package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3API is the slice of the S3 API the bootstrap checks need.
type S3API interface {
	s3.ListObjectsV2APIClient
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// Snapshot describes one bootstrap archive in the snapshot bucket.
type Snapshot struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// BootstrapService verifies the fullnode snapshot bucket before a deploy so
// a typo in the S3 URI fails fast instead of after the node starts syncing.
type BootstrapService struct {
	client S3API
}

func NewBootstrapService(client S3API) *BootstrapService {
	return &BootstrapService{client: client}
}

// ParseS3URI splits s3://bucket/prefix into its parts. The prefix may be
// empty.
func ParseS3URI(uri string) (bucket string, prefix string, err error) {
	trimmed, ok := strings.CutPrefix(uri, "s3://")
	if !ok {
		return "", "", fmt.Errorf("invalid S3 URI %q, expected s3://bucket[/prefix]", uri)
	}
	bucket, prefix, _ = strings.Cut(trimmed, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("invalid S3 URI %q, bucket name is empty", uri)
	}
	return bucket, prefix, nil
}

// VerifyBucket confirms the bucket exists and is reachable with the current
// credentials.
func (s *BootstrapService) VerifyBucket(ctx context.Context, bucket string) error {
	if _, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: &bucket}); err != nil {
		return fmt.Errorf("bootstrap bucket %s is not accessible: %w", bucket, err)
	}
	slog.Info("✅ bootstrap bucket is accessible", "bucket", bucket)
	return nil
}

// NewestSnapshot returns the most recently modified object under the prefix,
// or an error when the prefix holds no objects.
func (s *BootstrapService) NewestSnapshot(ctx context.Context, bucket, prefix string) (*Snapshot, error) {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: &bucket,
		Prefix: &prefix,
	})

	var newest *Snapshot
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list snapshots in s3://%s/%s: %w", bucket, prefix, err)
		}
		for _, object := range page.Contents {
			if object.Key == nil || object.LastModified == nil {
				continue
			}
			if newest == nil || object.LastModified.After(newest.LastModified) {
				newest = &Snapshot{
					Key:          *object.Key,
					LastModified: *object.LastModified,
				}
				if object.Size != nil {
					newest.Size = *object.Size
				}
			}
		}
	}

	if newest == nil {
		return nil, fmt.Errorf("no snapshots found in s3://%s/%s", bucket, prefix)
	}
	slog.Info("📖 newest bootstrap snapshot", "key", newest.Key, "last_modified", newest.LastModified)
	return newest, nil
}

// Verify runs the full preflight for a bootstrap URI: parse, bucket access,
// and at least one snapshot present.
func (s *BootstrapService) Verify(ctx context.Context, uri string) (*Snapshot, error) {
	bucket, prefix, err := ParseS3URI(uri)
	if err != nil {
		return nil, err
	}
	if err := s.VerifyBucket(ctx, bucket); err != nil {
		return nil, err
	}
	return s.NewestSnapshot(ctx, bucket, prefix)
}
