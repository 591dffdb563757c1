package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

type S3Config struct {
	Endpoint       string
	Region         string
	AccessKey      string
	SecretKey      string
	ForcePathStyle bool
	Bucket         string
	// PublicBaseURL overrides the URL prefix returned for stored objects (CDN, MinIO proxy).
	PublicBaseURL string
}

// S3Store writes objects to an S3-compatible bucket.
type S3Store struct {
	raw    *s3.Client
	config S3Config
}

func NewS3Store(ctx context.Context, c S3Config) (*S3Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(c.Region)}
	// Static keys when configured, otherwise the default AWS credential chain.
	if c.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKey, c.SecretKey, ""),
		))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Endpoint)
		}
		o.UsePathStyle = c.ForcePathStyle
	})

	store := &S3Store{raw: client, config: c}
	if err := store.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket %s: %w", c.Bucket, err)
	}
	return store, nil
}

func (s *S3Store) Health(ctx context.Context) error {
	_, err := s.raw.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: &s.config.Bucket})
	return err
}

// EnsureBucket creates the bucket when it does not exist yet.
func (s *S3Store) EnsureBucket(ctx context.Context) error {
	bucket := s.config.Bucket
	if _, err := s.raw.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: &bucket}); err == nil {
		return nil
	}

	in := &s3.CreateBucketInput{Bucket: &bucket}
	if s.config.Region != "" && s.config.Region != "us-east-1" {
		in.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(s.config.Region),
		}
	}

	_, err := s.raw.CreateBucket(ctx, in)
	if err == nil || isAPIError(err, "BucketAlreadyOwnedByYou", "BucketAlreadyExists") {
		return nil
	}
	return err
}

func (s *S3Store) Put(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	_, err := s.raw.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        &s.config.Bucket,
		Key:           &key,
		Body:          bytes.NewReader(body),
		ContentType:   &contentType,
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return s.publicURL(key), nil
}

func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.raw.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &s.config.Bucket,
		Key:    &key,
	})
	if err != nil && !isAPIError(err, "NoSuchKey", "NotFound") {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

func (s *S3Store) publicURL(key string) string {
	return objectURL(s.config, key)
}

func objectURL(c S3Config, key string) string {
	if c.PublicBaseURL != "" {
		return strings.TrimRight(c.PublicBaseURL, "/") + "/" + key
	}
	if c.Endpoint != "" {
		return strings.TrimRight(c.Endpoint, "/") + "/" + c.Bucket + "/" + key
	}
	region := c.Region
	if region == "" {
		region = "us-east-1"
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", c.Bucket, region, key)
}

func isAPIError(err error, codes ...string) bool {
	var ae smithy.APIError
	if !errors.As(err, &ae) {
		return false
	}
	for _, code := range codes {
		if ae.ErrorCode() == code {
			return true
		}
	}
	return false
}
