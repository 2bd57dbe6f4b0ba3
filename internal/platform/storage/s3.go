package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/yungbote/contactos-backend/internal/platform/logger"
)

type s3Store struct {
	log           *logger.Logger
	client        *s3.Client
	bucket        string
	region        string
	publicBaseURL string
}

// NewS3Store uses the default AWS credential chain. S3_ENDPOINT switches the
// client to path-style addressing for MinIO and similar gateways.
func NewS3Store(ctx context.Context, log *logger.Logger, cfg Config) (ObjectStore, error) {
	storeLog := log.With("service", "S3Store")

	var opts []func(*awsconfig.LoadOptions) error
	if cfg.S3Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.S3Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	endpoint := strings.TrimRight(cfg.S3Endpoint, "/")
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	publicBase := strings.TrimRight(cfg.S3PublicBaseURL, "/")
	if publicBase == "" {
		publicBase = strings.TrimRight(cfg.PublicBaseURL, "/")
	}
	if publicBase == "" && endpoint != "" {
		publicBase = endpoint + "/" + cfg.S3Bucket
	}

	storeLog.Info(
		"Object storage initialized",
		"mode", ModeS3,
		"bucket", cfg.S3Bucket,
		"region", awsCfg.Region,
		"endpoint", endpoint,
		"public_base_url", publicBase,
	)

	return &s3Store{
		log:           storeLog,
		client:        client,
		bucket:        cfg.S3Bucket,
		region:        awsCfg.Region,
		publicBaseURL: publicBase,
	}, nil
}

// Upload buffers the body so the SDK can sign a seekable payload.
func (s *s3Store) Upload(ctx context.Context, key string, r io.Reader) error {
	if err := ValidKey(key); err != nil {
		return err
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read upload body: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(ContentTypeForKey(key)),
	})
	if err != nil {
		return fmt.Errorf("put s3 object %q: %w", key, err)
	}
	return nil
}

func (s *s3Store) Delete(ctx context.Context, key string) error {
	if err := ValidKey(key); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete s3 object %q in bucket %q: %w", key, s.bucket, err)
	}
	return nil
}

func (s *s3Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ValidKey(key); err != nil {
		return nil, err
	}
	ctx2, cancel := context.WithTimeout(ctx, 2*time.Minute)
	out, err := s.client.GetObject(ctx2, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		cancel()
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("get s3 object %q: %w", key, err)
	}
	return &readCloserWithCancel{ReadCloser: out.Body, cancel: cancel}, nil
}

func (s *s3Store) PublicURL(key string) string {
	return s3PublicURL(s.publicBaseURL, s.bucket, s.region, key)
}

func s3PublicURL(publicBaseURL, bucket, region, key string) string {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if publicBaseURL != "" {
		return publicBaseURL + "/" + key
	}
	if region == "" {
		return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, region, key)
}
