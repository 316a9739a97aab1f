package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Store keeps the uploaded label files in a MinIO bucket. Stored report rows
// carry the relative object key as file_url; Resolve turns it into a
// fetchable URL.
type Store struct {
	client *minio.Client
	bucket string
	region string
}

func New(ctx context.Context, endpoint, region, bucket, accessKey, secretKey string, useSSL bool) (*Store, error) {
	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, err
	}

	// pastikan bucket ada
	exists, err := cli.BucketExists(ctx, bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := cli.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
			return nil, err
		}
	}

	return &Store{client: cli, bucket: bucket, region: region}, nil
}

// Ping verifies the bucket is still reachable, for health checks.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.BucketExists(ctx, s.bucket)
	return err
}

// Upload stores the file bytes under key and returns the relative storage
// path persisted on the report row.
func (s *Store) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if contentType == "" {
		contentType = contentTypeFor(key)
	}
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", err
	}
	return key, nil
}

// Remove deletes the blob behind a stored file URL. Callers treat this as
// best-effort; the report row is the source of truth.
func (s *Store) Remove(ctx context.Context, fileURL string) error {
	return s.client.RemoveObject(ctx, s.bucket, s.objectKey(fileURL), minio.RemoveObjectOptions{})
}

// Resolve maps a stored file URL to a fetchable URL. Absolute URLs pass
// through untouched.
func (s *Store) Resolve(fileURL string) string {
	if strings.HasPrefix(fileURL, "http://") || strings.HasPrefix(fileURL, "https://") {
		return fileURL
	}
	scheme := "http"
	if s.client.EndpointURL().Scheme == "https" {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.client.EndpointURL().Host, s.bucket, s.objectKey(fileURL))
}

// FetchText reads the blob back as text for plain-text previews. The fetch
// is an explicit fallible step; callers map failure to an unavailable
// preview, never a crash.
func (s *Store) FetchText(ctx context.Context, fileURL string) (string, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.objectKey(fileURL), minio.GetObjectOptions{})
	if err != nil {
		return "", err
	}
	defer obj.Close()

	b, err := io.ReadAll(obj)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// objectKey strips scheme, host and bucket prefix off absolute URLs so both
// relative keys and fully-resolved URLs locate the same object.
func (s *Store) objectKey(fileURL string) string {
	key := fileURL
	if i := strings.Index(key, "://"); i >= 0 {
		key = key[i+3:]
		if j := strings.IndexByte(key, '/'); j >= 0 {
			key = key[j+1:]
		}
	}
	key = strings.TrimPrefix(key, s.bucket+"/")
	return strings.TrimPrefix(key, "/")
}

// contentTypeFor is the fallback when the declared media type was lost.
func contentTypeFor(key string) string {
	switch strings.ToLower(filepath.Ext(key)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	case ".pdf":
		return "application/pdf"
	case ".txt":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}
