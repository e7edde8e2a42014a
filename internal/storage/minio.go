package storage

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

type MinioOpts func(c *minioConfig)

type minioConfig struct {
	endpoint        string
	bucket          string
	accessKey       string
	secretAccessKey string
	prefix          string
	useSSL          bool
}

func newConfig(opts ...MinioOpts) *minioConfig {
	cfg := &minioConfig{
		useSSL: false,
		bucket: "downloads",
	}

	for _, o := range opts {
		o(cfg)
	}
	return cfg
}

func (c *minioConfig) key(name string) string {
	if c.prefix == "" {
		return name
	}
	return c.prefix + "/" + name
}

// Mirror keeps a copy of finished downloads in an S3 compatible bucket.
type Mirror struct {
	cfg    *minioConfig
	client *minio.Client
}

func NewMinioMirror(opts ...MinioOpts) (*Mirror, error) {
	cfg := newConfig(opts...)

	minioClient, err := minio.New(cfg.endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.accessKey, cfg.secretAccessKey, ""),
		Secure: cfg.useSSL,
	})
	if err != nil {
		return nil, err
	}

	return &Mirror{cfg: cfg, client: minioClient}, nil
}

// EnsureBucket creates the bucket when it does not exist.
func (m *Mirror) EnsureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.cfg.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", m.cfg.bucket, err)
	}
	if exists {
		return nil
	}
	if err := m.client.MakeBucket(ctx, m.cfg.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", m.cfg.bucket, err)
	}
	zap.S().Named("storage").Infow("bucket created", "bucket", m.cfg.bucket)
	return nil
}

func (m *Mirror) Upload(ctx context.Context, path string) error {
	name := filepath.Base(path)
	_, err := m.client.FPutObject(ctx, m.cfg.bucket, m.cfg.key(name), path, minio.PutObjectOptions{
		ContentType: contentType(name),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", name, err)
	}
	return nil
}

func (m *Mirror) Open(ctx context.Context, name string) (*File, error) {
	if name == "" {
		return nil, ErrEmptyName
	}

	object, err := m.client.GetObject(ctx, m.cfg.bucket, m.cfg.key(name), minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}

	objInfo, err := object.Stat()
	if err != nil {
		_ = object.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &File{
		ReadSeekCloser: object,
		Name:           name,
		Size:           objInfo.Size,
		ModTime:        objInfo.LastModified,
	}, nil
}

func (m *Mirror) Remove(ctx context.Context, name string) error {
	return m.client.RemoveObject(ctx, m.cfg.bucket, m.cfg.key(name), minio.RemoveObjectOptions{})
}

func (m *Mirror) Type() string {
	return "minio"
}

func contentType(name string) string {
	switch filepath.Ext(name) {
	case ".mp4":
		return "video/mp4"
	case ".mp3":
		return "audio/mpeg"
	default:
		return "application/octet-stream"
	}
}

func WithEndpoint(endpoint string) MinioOpts {
	return func(c *minioConfig) {
		c.endpoint = endpoint
	}
}

func WithBucket(bucket string) MinioOpts {
	return func(c *minioConfig) {
		c.bucket = bucket
	}
}

func WithPrefix(prefix string) MinioOpts {
	return func(c *minioConfig) {
		c.prefix = prefix
	}
}

func WithAccessKey(accessKey string) MinioOpts {
	return func(c *minioConfig) {
		c.accessKey = accessKey
	}
}

func WithSecretKey(secretKey string) MinioOpts {
	return func(c *minioConfig) {
		c.secretAccessKey = secretKey
	}
}

func WithSSL(useSSL bool) MinioOpts {
	return func(c *minioConfig) {
		c.useSSL = useSSL
	}
}
