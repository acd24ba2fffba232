// Package uploads stores post attachments in S3-compatible object storage.
package uploads

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"feedbase/api/internal/util"
)

// Config holds object storage settings.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicBaseURL is the externally reachable URL prefix for stored
	// objects, e.g. https://cdn.feedbase.dev/attachments.
	PublicBaseURL string
}

// allowed attachment content types; everything else is rejected
var allowedContentTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ErrUnsupportedType is returned for attachments outside the image whitelist.
var ErrUnsupportedType = fmt.Errorf("unsupported attachment content type")

// Store wraps a minio client for attachment uploads.
type Store struct {
	client *minio.Client
	config Config
}

// New connects to the object storage endpoint and ensures the bucket exists.
func New(ctx context.Context, config Config) (*Store, error) {
	client, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKey, config.SecretKey, ""),
		Secure: config.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create object storage client: %w", err)
	}

	s := &Store{client: client, config: config}
	if err := s.ensureBucket(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.config.Bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.config.Bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.config.Bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", s.config.Bucket, err)
	}
	return nil
}

// Upload stores an attachment under the workspace prefix and returns its
// public URL. The object key is generated, callers cannot pick names.
func (s *Store) Upload(ctx context.Context, workspaceID, contentType string, size int64, body io.Reader) (string, error) {
	ext, ok := allowedContentTypes[contentType]
	if !ok {
		return "", ErrUnsupportedType
	}

	key := workspaceID + "/" + util.NewID("att") + ext
	_, err := s.client.PutObject(ctx, s.config.Bucket, key, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}

	return s.PublicURL(key), nil
}

// Delete removes a stored attachment by its object key.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.config.Bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %s: %w", key, err)
	}
	return nil
}

// PublicURL returns the externally reachable URL for an object key.
func (s *Store) PublicURL(key string) string {
	base := strings.TrimSuffix(s.config.PublicBaseURL, "/")
	if base == "" {
		scheme := "http"
		if s.config.UseSSL {
			scheme = "https"
		}
		base = fmt.Sprintf("%s://%s/%s", scheme, s.config.Endpoint, s.config.Bucket)
	}
	return base + "/" + key
}
