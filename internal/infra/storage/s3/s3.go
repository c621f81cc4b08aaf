package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/Chimarrao/GuiaDeFilmes.com/internal/domain"
)

type Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	PathStyle bool
}

// Storage: архив отчётов прогрева в S3-совместимом бакете.
type Storage struct {
	cl     *minio.Client
	bucket string
	region string
	logger *log.Logger
}

func New(cfg Config, logger *log.Logger) (*Storage, error) {
	opts := &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	}
	if cfg.PathStyle {
		opts.BucketLookup = minio.BucketLookupPath
	}
	cl, err := minio.New(cfg.Endpoint, opts)
	if err != nil {
		return nil, err
	}
	return &Storage{cl: cl, bucket: cfg.Bucket, region: cfg.Region, logger: logger}, nil
}

func (s *Storage) Ping(ctx context.Context) error {
	ok, err := s.cl.BucketExists(ctx, s.bucket)
	if err != nil {
		s.logger.Printf("bucket %q check failed: %v", s.bucket, err)
		return err
	}
	if !ok {
		return fmt.Errorf("bucket %q: %w", s.bucket, domain.ErrNotFound)
	}
	return nil
}

// EnsureBucket создаёт бакет, если его ещё нет.
func (s *Storage) EnsureBucket(ctx context.Context) error {
	ok, err := s.cl.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	if err := s.cl.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
		s.logger.Printf("make bucket %q failed: %v", s.bucket, err)
		return err
	}
	s.logger.Printf("bucket %q created", s.bucket)
	return nil
}

func (s *Storage) Put(ctx context.Context, key string, body []byte, contentType string) error {
	start := time.Now()
	info, err := s.cl.PutObject(ctx, s.bucket, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		s.logger.Printf("PUT %q failed after %s: %v", key, time.Since(start), err)
		return err
	}
	s.logger.Printf("PUT %q ok in %s (%d bytes)", key, time.Since(start), info.Size)
	return nil
}

// Latest читает последний по имени объект под префиксом.
// Ключи отчётов начинаются с UTC-времени, поэтому имя упорядочено по времени.
func (s *Storage) Latest(ctx context.Context, prefix string) ([]byte, string, error) {
	var latest string
	for obj := range s.cl.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			s.logger.Printf("LIST %q failed: %v", prefix, obj.Err)
			return nil, "", obj.Err
		}
		if obj.Key > latest {
			latest = obj.Key
		}
	}
	if latest == "" {
		return nil, "", fmt.Errorf("no objects under %q: %w", prefix, domain.ErrNotFound)
	}

	o, err := s.cl.GetObject(ctx, s.bucket, latest, minio.GetObjectOptions{})
	if err != nil {
		return nil, "", err
	}
	defer o.Close()
	body, err := io.ReadAll(o)
	if err != nil {
		s.logger.Printf("GET %q failed: %v", latest, err)
		return nil, "", err
	}
	s.logger.Printf("GET %q ok (%d bytes)", latest, len(body))
	return body, latest, nil
}

// ReportKey — "<prefix>/2006/01/02/20060102T150405Z-<run id>.json".
func ReportKey(prefix string, at time.Time, runID string) string {
	at = at.UTC()
	name := fmt.Sprintf("%s-%s.json", at.Format("20060102T150405Z"), sanitize(runID))
	return path.Join(prefix, at.Format("2006/01/02"), name)
}

func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, name)
}
