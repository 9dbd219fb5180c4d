package assets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// UploadsDir is the directory, relative to the static root, that local
// uploads are written to and served from.
const UploadsDir = "uploads"

// Storage persists uploaded files and returns their public URL.
type Storage interface {
	Put(ctx context.Context, name string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, name string) error
}

// LocalStorage writes uploads below StaticDir/uploads, served by the app
// under /public/uploads.
type LocalStorage struct {
	StaticDir string
	URLPrefix string // default "/public"
}

// NewLocalStorage returns a LocalStorage rooted at staticDir.
func NewLocalStorage(staticDir string) *LocalStorage {
	return &LocalStorage{StaticDir: staticDir, URLPrefix: "/public"}
}

func (l *LocalStorage) dir() string {
	return filepath.Join(l.StaticDir, UploadsDir)
}

// Put writes data under a name that does not collide with an existing
// upload, appending a counter when needed.
func (l *LocalStorage) Put(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(l.dir(), 0o755); err != nil {
		return "", fmt.Errorf("create uploads dir: %w", err)
	}
	name = l.unique(filepath.Base(name))
	if err := os.WriteFile(filepath.Join(l.dir(), name), data, 0o644); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	return path.Join(l.URLPrefix, UploadsDir, name), nil
}

func (l *LocalStorage) unique(name string) string {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	candidate := name
	for n := 2; ; n++ {
		if _, err := os.Stat(filepath.Join(l.dir(), candidate)); errors.Is(err, os.ErrNotExist) {
			return candidate
		}
		candidate = fmt.Sprintf("%s-%d%s", base, n, ext)
	}
}

// Delete removes an upload. A missing file is not an error.
func (l *LocalStorage) Delete(ctx context.Context, name string) error {
	err := os.Remove(filepath.Join(l.dir(), filepath.Base(name)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// S3Config configures an S3-compatible bucket.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string // optional, for S3-compatible providers
	AccessKeyID     string
	SecretAccessKey string
	PublicURL       string // base URL objects are served from
}

// S3Storage uploads into an S3 bucket.
type S3Storage struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

// NewS3Storage builds an S3 client from static credentials.
func NewS3Storage(cfg S3Config) (*S3Storage, error) {
	if cfg.Bucket == "" || cfg.Region == "" || cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, errors.New("incomplete s3 config: bucket, region, access key and secret are required")
	}
	opts := s3.Options{
		Region:      cfg.Region,
		Credentials: credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
		opts.UsePathStyle = true
	}
	public := strings.TrimRight(cfg.PublicURL, "/")
	if public == "" {
		public = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}
	return &S3Storage{client: s3.New(opts), bucket: cfg.Bucket, publicURL: public}, nil
}

// Put uploads data under uploads/<random>-<name>.
func (s *S3Storage) Put(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	key := s.key(uuid.NewString()[:8] + "-" + path.Base(name))
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("s3 put %s: %w", key, err)
	}
	return s.publicURL + "/" + key, nil
}

// Delete removes an object by its name or public URL.
func (s *S3Storage) Delete(ctx context.Context, name string) error {
	key := strings.TrimPrefix(name, s.publicURL+"/")
	if !strings.HasPrefix(key, UploadsDir+"/") {
		key = s.key(key)
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %s: %w", key, err)
	}
	return nil
}

func (s *S3Storage) key(name string) string {
	return UploadsDir + "/" + name
}
