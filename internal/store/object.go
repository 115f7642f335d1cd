package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	"github.com/majorjayant/siteconfig/pkg/logger"
)

const (
	defaultObjectKey = "site_config.json"
	maxObjectBytes   = 1 << 20
)

// S3API is the subset of the S3 client used by ObjectStore.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
}

// ObjectStore keeps the configuration as one JSON object in a bucket. Writes
// use the object's ETag as a precondition so concurrent writers retry
// instead of silently dropping keys.
type ObjectStore struct {
	client S3API
	bucket string
	key    string
	region string
	log    *zap.Logger
}

// NewObjectStore returns an object storage adapter.
func NewObjectStore(client S3API, bucket, key, region string) *ObjectStore {
	if key == "" {
		key = defaultObjectKey
	}
	return &ObjectStore{
		client: client,
		bucket: bucket,
		key:    key,
		region: region,
		log:    logger.WithModule("store"),
	}
}

func (s *ObjectStore) Kind() Kind { return KindS3 }

func (s *ObjectStore) Read(ctx context.Context) (map[string]string, error) {
	var values map[string]string
	err := s.withBucket(ctx, "s3 read", func() error {
		var err error
		values, _, err = s.get(ctx)
		return err
	})
	if err != nil {
		return nil, unavailable("s3 read", err)
	}
	return values, nil
}

func (s *ObjectStore) Write(ctx context.Context, partial map[string]string) error {
	if len(partial) == 0 {
		return nil
	}

	err := s.withBucket(ctx, "s3 write", func() error {
		var lastErr error
		for attempt := 0; attempt < maxConditionalRetries; attempt++ {
			current, etag, err := s.get(ctx)
			if err != nil && !errors.Is(err, ErrNotFound) {
				return err
			}

			lastErr = s.put(ctx, mergeInto(current, partial), etag)
			if !isPreconditionFailed(lastErr) {
				return lastErr
			}
			s.log.Debug("s3 write conflict, retrying", zap.Int("attempt", attempt+1))
		}
		return fmt.Errorf("concurrent writers kept winning: %w", lastErr)
	})
	if err != nil {
		return unavailable("s3 write", err)
	}
	return nil
}

func (s *ObjectStore) Close() error { return nil }

func (s *ObjectStore) get(ctx context.Context) (map[string]string, string, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		if isAPIError(err, "NoSuchKey", "NotFound") {
			return nil, "", ErrNotFound
		}
		return nil, "", err
	}
	defer out.Body.Close()

	body, err := io.ReadAll(io.LimitReader(out.Body, maxObjectBytes))
	if err != nil {
		return nil, "", fmt.Errorf("read object body: %w", err)
	}

	etag := aws.ToString(out.ETag)
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, etag, ErrNotFound
	}

	values, err := decodeSnapshot(body)
	if err != nil {
		return nil, etag, err
	}
	if len(values) == 0 {
		return nil, etag, ErrNotFound
	}
	return values, etag, nil
}

func (s *ObjectStore) put(ctx context.Context, values map[string]string, etag string) error {
	data, err := encodeSnapshot(values)
	if err != nil {
		return err
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	}
	if etag != "" {
		input.IfMatch = aws.String(etag)
	} else {
		input.IfNoneMatch = aws.String("*")
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("s3 put object: %w", err)
	}
	return nil
}

func (s *ObjectStore) withBucket(ctx context.Context, op string, fn func() error) error {
	err := fn()
	if err == nil || !isNoSuchBucket(err) {
		return err
	}

	s.log.Warn("s3 bucket missing, creating it", zap.String("bucket", s.bucket), zap.String("operation", op))
	if createErr := s.createBucket(ctx); createErr != nil {
		return fmt.Errorf("%w: create bucket %s: %w", ErrSchemaMismatch, s.bucket, createErr)
	}

	err = fn()
	if isNoSuchBucket(err) {
		return fmt.Errorf("%w: %w", ErrSchemaMismatch, err)
	}
	return err
}

func (s *ObjectStore) createBucket(ctx context.Context) error {
	input := &s3.CreateBucketInput{Bucket: aws.String(s.bucket)}
	if s.region != "" && s.region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(s.region),
		}
	}

	_, err := s.client.CreateBucket(ctx, input)
	if err != nil && !isAPIError(err, "BucketAlreadyOwnedByYou") {
		return err
	}
	return nil
}

func isNoSuchBucket(err error) bool {
	var nsb *types.NoSuchBucket
	return errors.As(err, &nsb) || isAPIError(err, "NoSuchBucket")
}

func isPreconditionFailed(err error) bool {
	return isAPIError(err, "PreconditionFailed", "ConditionalRequestConflict")
}

func isAPIError(err error, codes ...string) bool {
	if err == nil {
		return false
	}
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	for _, code := range codes {
		if apiErr.ErrorCode() == code {
			return true
		}
	}
	return false
}

var _ Store = (*ObjectStore)(nil)
