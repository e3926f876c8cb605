package mirror

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config configures the S3 mirror.
type S3Config struct {
	// Bucket is the name of the S3 bucket.
	Bucket string

	// Prefix is prepended to every object key, e.g. "audio/".
	Prefix string

	// Region is the AWS region. Default: "us-east-1"
	Region string

	// Endpoint is the S3 endpoint URL (e.g., "http://localhost:9000" for MinIO).
	// If empty, uses the default AWS endpoint for the region.
	Endpoint string

	// AccessKeyID and SecretAccessKey select static credentials. When either
	// is empty the default credential chain is used.
	AccessKeyID     string
	SecretAccessKey string

	// UsePathStyle enables path-style addressing (required for MinIO).
	UsePathStyle bool

	// ContentType is sent with every upload. Default: "audio/wav"
	ContentType string
}

// S3 mirrors artifacts into an S3 bucket.
type S3 struct {
	client      *s3.Client
	bucket      string
	prefix      string
	contentType string
}

// NewS3 creates an S3 mirror with the given configuration.
func NewS3(ctx context.Context, cfg S3Config) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 mirror: bucket name is required")
	}

	opts := []func(*config.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	} else {
		opts = append(opts, config.WithRegion("us-east-1"))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("s3 mirror: load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
		o.DisableLogOutputChecksumValidationSkipped = true
		// Older S3-compatible stores reject the default trailing checksums.
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
	})

	contentType := cfg.ContentType
	if contentType == "" {
		contentType = "audio/wav"
	}

	return &S3{
		client:      client,
		bucket:      cfg.Bucket,
		prefix:      cfg.Prefix,
		contentType: contentType,
	}, nil
}

// Name implements artifact.Mirror.
func (m *S3) Name() string { return "s3" }

func (m *S3) key(name string) string {
	if m.prefix == "" {
		return name
	}
	return path.Join(m.prefix, name)
}

// Put implements artifact.Mirror.
func (m *S3) Put(ctx context.Context, name string, data []byte) error {
	_, err := m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(m.bucket),
		Key:           aws.String(m.key(name)),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(m.contentType),
	})
	if err != nil {
		return fmt.Errorf("s3 mirror: put %s: %w", m.key(name), err)
	}
	return nil
}

// Delete implements artifact.Mirror. S3 reports success for missing keys.
func (m *S3) Delete(ctx context.Context, name string) error {
	_, err := m.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(m.key(name)),
	})
	if err != nil {
		return fmt.Errorf("s3 mirror: delete %s: %w", m.key(name), err)
	}
	return nil
}

// Close implements artifact.Mirror.
func (m *S3) Close() error { return nil }
