// Package documents stores merchant verification uploads on local disk or S3.
package documents

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	appconfig "sitex/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
)

const (
	KindIDDocument      = "id"
	KindBusinessLicense = "license"
)

// Store persists an uploaded document and returns its storage key.
type Store interface {
	Save(ctx context.Context, kind string, merchantID uint, filename string, r io.Reader, size int64) (string, error)
}

// objectKey mirrors merchant/documents/<kind>/<merchant>/<uuid><ext>.
func objectKey(kind string, merchantID uint, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return path.Join("merchant", "documents", kind, fmt.Sprint(merchantID), uuid.NewString()+ext)
}

// LocalStore writes documents below a base directory.
type LocalStore struct {
	dir    string
	create func(name string) (io.WriteCloser, error)
}

func NewLocalStore(dir string) *LocalStore {
	return &LocalStore{
		dir:    dir,
		create: func(name string) (io.WriteCloser, error) { return os.Create(name) },
	}
}

func (s *LocalStore) Save(_ context.Context, kind string, merchantID uint, filename string, r io.Reader, _ int64) (string, error) {
	key := objectKey(kind, merchantID, filename)
	dst := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create document dir: %w", err)
	}
	f, err := s.create(dst)
	if err != nil {
		return "", fmt.Errorf("create document: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(dst)
		return "", fmt.Errorf("write document: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("close document: %w", err)
	}
	return key, nil
}

// S3Store uploads documents to a bucket.
type S3Store struct {
	client *s3.Client
	bucket string
}

// NewS3Store builds an S3 client with static credentials; a custom endpoint switches to path-style URLs.
func NewS3Store(ctx context.Context, cfg appconfig.DocumentConfig) (*S3Store, error) {
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("S3_BUCKET is required for the s3 document store")
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.S3Region)}
	if cfg.S3AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKeyID, cfg.S3SecretKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})
	log.Infof("document store: s3://%s", cfg.S3Bucket)
	return &S3Store{client: client, bucket: cfg.S3Bucket}, nil
}

func (s *S3Store) Save(ctx context.Context, kind string, merchantID uint, filename string, r io.Reader, size int64) (string, error) {
	key := objectKey(kind, merchantID, filename)
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          r,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType(filename)),
	})
	if err != nil {
		return "", fmt.Errorf("upload s3://%s/%s: %w", s.bucket, key, err)
	}
	return key, nil
}

func contentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "application/pdf"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	default:
		return "application/octet-stream"
	}
}

// New selects the store named by cfg.Store.
func New(ctx context.Context, cfg appconfig.DocumentConfig) (Store, error) {
	switch cfg.Store {
	case "s3":
		return NewS3Store(ctx, cfg)
	case "local", "":
		log.Infof("document store: %s", cfg.Dir)
		return NewLocalStore(cfg.Dir), nil
	default:
		return nil, fmt.Errorf("unknown DOCUMENT_STORE %q", cfg.Store)
	}
}
