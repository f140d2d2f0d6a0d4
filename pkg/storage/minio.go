package storage

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// presignTTL bounds how long a document link stays readable
const presignTTL = 15 * time.Minute

// ErrUnavailable is returned when the server started without a reachable
// MinIO and document operations are disabled.
var ErrUnavailable = errors.New("document storage unavailable")

// Storage defines the interface for document storage operations
type Storage interface {
	UploadDocument(ctx context.Context, file multipart.File, header *multipart.FileHeader, folder string) (*UploadResult, error)
	Delete(ctx context.Context, objectName string) error
	PresignedURL(ctx context.Context, objectName string) (string, error)
}

// UploadResult contains the result of a document upload
type UploadResult struct {
	Key      string // object key in storage
	URL      string // time-limited read URL
	FileName string
	FileSize int64
	MimeType string
}

// MinIOStorage implements Storage using MinIO. The bucket stays private:
// driver licenses and vehicle papers are served through presigned URLs only.
type MinIOStorage struct {
	client *minio.Client
	bucket string
}

// Config holds MinIO connection configuration
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// NewMinIO creates a new MinIO storage client
func NewMinIO(cfg Config) (*MinIOStorage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MinIO: %w", err)
	}

	ctx := context.Background()
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return &MinIOStorage{client: client, bucket: cfg.Bucket}, nil
}

// UploadDocument stores a driver document under a dated, unique key
func (s *MinIOStorage) UploadDocument(ctx context.Context, file multipart.File, header *multipart.FileHeader, folder string) (*UploadResult, error) {
	if s == nil || s.client == nil {
		return nil, ErrUnavailable
	}

	ext := filepath.Ext(header.Filename)
	key := fmt.Sprintf("%s/%s/%s%s",
		folder,
		time.Now().Format("2006/01/02"),
		uuid.New().String(),
		ext,
	)

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = detectContentType(ext)
	}

	_, err := s.client.PutObject(ctx, s.bucket, key, file, header.Size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload document: %w", err)
	}

	readURL, err := s.PresignedURL(ctx, key)
	if err != nil {
		return nil, err
	}

	return &UploadResult{
		Key:      key,
		URL:      readURL,
		FileName: header.Filename,
		FileSize: header.Size,
		MimeType: contentType,
	}, nil
}

// Delete removes an object from the bucket
func (s *MinIOStorage) Delete(ctx context.Context, objectName string) error {
	if s == nil || s.client == nil {
		return ErrUnavailable
	}
	return s.client.RemoveObject(ctx, s.bucket, objectName, minio.RemoveObjectOptions{})
}

// PresignedURL issues a time-limited read link for a stored document
func (s *MinIOStorage) PresignedURL(ctx context.Context, objectName string) (string, error) {
	if s == nil || s.client == nil {
		return "", ErrUnavailable
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucket, objectName, presignTTL, url.Values{})
	if err != nil {
		return "", fmt.Errorf("failed to presign object: %w", err)
	}
	return u.String(), nil
}

// detectContentType returns MIME type based on file extension
func detectContentType(ext string) string {
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
