package objstore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/studyvault/noteaccess/internal/common"
)

// S3Client is the subset of the AWS S3 client the store uses. Narrowing the
// dependency keeps the store mockable in tests.
type S3Client interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Config holds connection settings for the S3-compatible backend.
type Config struct {
	Bucket       string
	Region       string
	AccessKey    string // MINIO_ROOT_USER equivalent
	SecretKey    string // MINIO_ROOT_PASSWORD equivalent
	BaseEndpoint string
}

// S3Store implements ObjectStore against AWS S3 or an S3-compatible backend
// such as MinIO.
type S3Store struct {
	client S3Client
	bucket string
}

// NewS3Store builds the AWS client from config and wraps it.
func NewS3Store(ctx context.Context, cfg Config) (*S3Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("aws config error: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
		}
		o.UsePathStyle = true // MinIO and most S3-compatible backends
	})

	return &S3Store{client: client, bucket: cfg.Bucket}, nil
}

// NewS3StoreWithClient wraps a pre-built client. Used by tests.
func NewS3StoreWithClient(client S3Client, bucket string) *S3Store {
	return &S3Store{client: client, bucket: bucket}
}

func (s *S3Store) Stat(ctx context.Context, key string) (int64, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return 0, common.ErrorNotFound
		}
		return 0, fmt.Errorf("object stat error: %w", err)
	}
	if out.ContentLength == nil {
		return 0, fmt.Errorf("object stat error: no content length for %q", key)
	}
	return *out.ContentLength, nil
}

func (s *S3Store) Read(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("object read error: %w", err)
	}
	return out.Body, nil
}

func (s *S3Store) ReadRange(ctx context.Context, key string, offset, length int64) (io.ReadCloser, error) {
	// S3 range requests use an inclusive last byte.
	rng := fmt.Sprintf("bytes=%d-%d", offset, offset+length-1)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Range:  aws.String(rng),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("object range read error: %w", err)
	}
	return out.Body, nil
}

func isNotFound(err error) bool {
	var notFound *types.NotFound
	var noSuchKey *types.NoSuchKey
	return errors.As(err, &notFound) || errors.As(err, &noSuchKey)
}
