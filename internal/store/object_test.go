package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	mu           sync.Mutex
	bucketExists bool
	body         []byte
	etagSeq      int
	etag         string
	creates      int
	puts         int
	conflicts    int
	getErr       error
	lastCreate   *s3.CreateBucketInput
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.bucketExists {
		return nil, &types.NoSuchBucket{Message: aws.String("The specified bucket does not exist")}
	}
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.body == nil {
		return nil, &types.NoSuchKey{Message: aws.String("The specified key does not exist.")}
	}
	return &s3.GetObjectOutput{
		Body: io.NopCloser(bytes.NewReader(f.body)),
		ETag: aws.String(f.etag),
	}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.puts++
	if !f.bucketExists {
		return nil, &smithy.GenericAPIError{Code: "NoSuchBucket", Message: "The specified bucket does not exist"}
	}
	if f.conflicts > 0 {
		f.conflicts--
		return nil, &smithy.GenericAPIError{Code: "PreconditionFailed", Message: "At least one of the pre-conditions you specified did not hold"}
	}
	if in.IfMatch != nil && aws.ToString(in.IfMatch) != f.etag {
		return nil, &smithy.GenericAPIError{Code: "PreconditionFailed"}
	}
	if in.IfNoneMatch != nil && f.body != nil {
		return nil, &smithy.GenericAPIError{Code: "PreconditionFailed"}
	}

	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.body = data
	f.etagSeq++
	f.etag = fmt.Sprintf(`"etag-%d"`, f.etagSeq)
	return &s3.PutObjectOutput{ETag: aws.String(f.etag)}, nil
}

func (f *fakeS3) CreateBucket(_ context.Context, in *s3.CreateBucketInput, _ ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.creates++
	f.lastCreate = in
	f.bucketExists = true
	return &s3.CreateBucketOutput{}, nil
}

func TestObjectStoreMissingKeyIsNotFound(t *testing.T) {
	fake := &fakeS3{bucketExists: true}
	s := NewObjectStore(fake, "portfolio", "", "us-east-1")

	_, err := s.Read(context.Background())
	require.ErrorIs(t, err, ErrNotFound)
	require.Zero(t, fake.creates)
}

func TestObjectStoreCreatesMissingBucket(t *testing.T) {
	fake := &fakeS3{}
	s := NewObjectStore(fake, "portfolio", "", "ap-southeast-2")

	_, err := s.Read(context.Background())
	require.ErrorIs(t, err, ErrNotFound)
	require.Equal(t, 1, fake.creates)
	require.NotNil(t, fake.lastCreate.CreateBucketConfiguration)
	require.Equal(t, types.BucketLocationConstraint("ap-southeast-2"), fake.lastCreate.CreateBucketConfiguration.LocationConstraint)
}

func TestObjectStoreWriteMerges(t *testing.T) {
	fake := &fakeS3{bucketExists: true}
	s := NewObjectStore(fake, "portfolio", "config/site.json", "")
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, map[string]string{"a": "1", "b": "2"}))
	require.NoError(t, s.Write(ctx, map[string]string{"b": "3"}))

	got, err := s.Read(ctx)
	require.NoError(t, err)
	require.Equal(t, map[string]string{"a": "1", "b": "3"}, got)
	require.JSONEq(t, `{"a":"1","b":"3"}`, string(fake.body))
}

func TestObjectStoreRetriesPreconditionFailures(t *testing.T) {
	fake := &fakeS3{bucketExists: true, conflicts: 1}
	s := NewObjectStore(fake, "portfolio", "", "")

	require.NoError(t, s.Write(context.Background(), map[string]string{"a": "1"}))
	require.Equal(t, 2, fake.puts)
}

func TestObjectStoreWriteCreatesMissingBucket(t *testing.T) {
	fake := &fakeS3{}
	s := NewObjectStore(fake, "portfolio", "", "us-east-1")

	require.NoError(t, s.Write(context.Background(), map[string]string{"a": "1"}))
	require.Equal(t, 1, fake.creates)
	require.Nil(t, fake.lastCreate.CreateBucketConfiguration)
}

func TestObjectStoreAccessDeniedIsUnavailable(t *testing.T) {
	fake := &fakeS3{bucketExists: true, getErr: &smithy.GenericAPIError{Code: "AccessDenied", Message: "Access Denied"}}
	s := NewObjectStore(fake, "portfolio", "", "")

	_, err := s.Read(context.Background())
	require.ErrorIs(t, err, ErrUnavailable)

	var apiErr smithy.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, "AccessDenied", apiErr.ErrorCode())
}
