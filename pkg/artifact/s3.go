package artifact

import (
	"context"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/matzehuels/stacknotice/pkg/errors"
)

// S3Config configures an S3Sink.
type S3Config struct {
	Endpoint  string `toml:"endpoint"`
	Region    string `toml:"region"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	Bucket    string `toml:"bucket"`
	UseSSL    bool   `toml:"use_ssl"`
}

// Enabled reports whether an endpoint and bucket are configured.
func (c S3Config) Enabled() bool {
	return strings.TrimSpace(c.Endpoint) != "" && strings.TrimSpace(c.Bucket) != ""
}

// S3Sink uploads notices to an S3-compatible object store. The bucket is
// created on first use if it does not exist.
type S3Sink struct {
	client   *minio.Client
	bucket   string
	region   string
	initOnce sync.Once
	initErr  error
}

// NewS3Sink creates an S3Sink. It does not contact the store.
func NewS3Sink(cfg S3Config) (*S3Sink, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "s3 endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "s3 access key and secret key are required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "s3 bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "init s3 client")
	}
	return &S3Sink{client: client, bucket: bucket, region: region}, nil
}

func (s *S3Sink) Name() string { return "s3" }

func (s *S3Sink) ensureBucket(ctx context.Context) error {
	s.initOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucket)
		if err != nil {
			s.initErr = err
			return
		}
		if exists {
			return
		}
		s.initErr = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region})
	})
	return s.initErr
}

// Put uploads the notice content and returns its s3:// location.
func (s *S3Sink) Put(ctx context.Context, a *Artifact) (string, error) {
	key, err := objectKey(a)
	if err != nil {
		return "", err
	}
	if err := s.ensureBucket(ctx); err != nil {
		return "", errors.Wrap(errors.ErrCodeNetwork, err, "ensure bucket %s", s.bucket)
	}

	body := strings.NewReader(a.Content)
	_, err = s.client.PutObject(ctx, s.bucket, key, body, body.Size(), minio.PutObjectOptions{
		ContentType: contentType(a.Format),
		UserMetadata: map[string]string{
			"run-id": a.RunID,
			"format": string(a.Format),
			"mode":   a.Mode,
		},
	})
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeNetwork, err, "upload %s", key)
	}
	return "s3://" + s.bucket + "/" + key, nil
}

// objectKey returns <repository>/<run id>/<filename>.
func objectKey(a *Artifact) (string, error) {
	if strings.TrimSpace(a.RunID) == "" {
		return "", errors.New(errors.ErrCodeInvalidInput, "run id is required")
	}
	if err := errors.ValidateFilename(a.Filename); err != nil {
		return "", err
	}
	key := strings.Trim(strings.TrimSpace(a.Repository), "/") + "/" + strings.TrimSpace(a.RunID) + "/" + a.Filename
	if err := errors.ValidatePath(key); err != nil {
		return "", err
	}
	return key, nil
}
