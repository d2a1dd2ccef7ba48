package storage

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpupo63/portfolio-cms/errs"
)

type fakeS3 struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, f.err
}

func TestS3StorePut(t *testing.T) {
	client := &fakeS3{}
	store := NewS3StoreWithClient(client, "media", "https://cdn.example.com/")

	url, err := store.Put(context.Background(), "2024/05/x.png", "image/png", []byte("png"))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/2024/05/x.png", url)
	assert.Equal(t, "media", aws.ToString(client.input.Bucket))
	assert.Equal(t, "image/png", aws.ToString(client.input.ContentType))
	assert.Equal(t, []byte("png"), client.body)
}

func TestS3StorePutFailure(t *testing.T) {
	store := NewS3StoreWithClient(&fakeS3{err: errors.New("denied")}, "media", "https://cdn")
	_, err := store.Put(context.Background(), "k", "image/png", nil)
	assert.True(t, errs.IsStorageUploadError(err))
}

func TestNewS3StoreRequiresBucket(t *testing.T) {
	_, err := NewS3Store(context.Background(), S3Config{})
	assert.True(t, errs.IsConfigMissingError(err))
}
