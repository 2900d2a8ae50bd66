// Package pagestore stores rendered page images in S3-compatible object
// storage. Objects are keyed `<session>/<document>/<page>.jpeg` so a
// retrieval hit maps straight back to its image.
package pagestore

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const contentTypeJPEG = "image/jpeg"

// Config holds object storage connection settings.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Store uploads and downloads page images.
type Store struct {
	client *minio.Client
	bucket string
}

// New creates a page image store for the given endpoint and bucket.
func New(cfg Config) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create object storage client: %w", err)
	}
	return &Store{client: client, bucket: cfg.Bucket}, nil
}

// EnsureBucket creates the bucket if it does not exist. Idempotent.
func (s *Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket: %w", err)
	}
	return nil
}

// UploadPage stores one page image under the session/document/page key.
func (s *Store) UploadPage(ctx context.Context, sessionID, document string, page int, data []byte) error {
	key := PagePath(sessionID, document, page)
	_, err := s.client.PutObject(ctx, s.bucket, key,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentTypeJPEG})
	if err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}

// DownloadPage fetches one page image.
func (s *Store) DownloadPage(ctx context.Context, sessionID, document string, page int) ([]byte, error) {
	key := PagePath(sessionID, document, page)
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

// PagePath builds the object key for one page image.
func PagePath(sessionID, document string, page int) string {
	return fmt.Sprintf("%s/%s/%d.jpeg", sessionID, document, page)
}
