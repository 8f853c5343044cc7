package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"filevault/internal/common"
	sc "filevault/internal/server/config"
)

// s3API is the subset of *s3.Client used by S3Store. It exists so tests can
// substitute a fake without a running object store.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Store keeps blobs in an S3-compatible bucket. Objects are uploaded as
// opaque binary (application/octet-stream); the locator is the bucket's
// public URL for the object.
type S3Store struct {
	client  s3API
	bucket  string
	baseURL string
}

// NewS3Store builds an S3 client from the server config and wraps it.
func NewS3Store(ctx context.Context, c *sc.Config) (*S3Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(c.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			c.S3RootUser,
			c.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(c.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return &S3Store{
		client:  client,
		bucket:  c.S3Bucket,
		baseURL: strings.TrimSuffix(c.S3BaseEndpoint, "/"),
	}, nil
}

// storageKey generates a date-partitioned object key carrying the original
// file extension, e.g. "users/2026/8/31/<uuid>.txt".
func storageKey(originalName string) string {
	d := time.Now()
	return fmt.Sprintf("users/%d/%d/%d/%v%s", d.Year(), d.Month(), d.Day(), uuid.New(), path.Ext(originalName))
}

// Store uploads content under a fresh key. The S3 PUT either fully succeeds
// or stores nothing, which gives the catalog its atomicity guarantee.
func (s *S3Store) Store(ctx context.Context, content io.Reader, originalName string) (*StoredObject, error) {
	key := storageKey(originalName)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        content,
		ContentType: aws.String("application/octet-stream"),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: put %s: %v", common.ErrorStorageFailure, key, err)
	}

	return &StoredObject{
		Locator:    fmt.Sprintf("%s/%s/%s", s.baseURL, s.bucket, key),
		StorageKey: key,
	}, nil
}

// Delete removes the object. A missing key is not an error.
func (s *S3Store) Delete(ctx context.Context, storageKey string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(storageKey),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil
		}
		return fmt.Errorf("%w: delete %s: %v", common.ErrorStorageFailure, storageKey, err)
	}
	return nil
}

// Resolve returns a redirect to the object's public URL.
func (s *S3Store) Resolve(ctx context.Context, obj StoredObject) (*Resolution, error) {
	return &Resolution{Redirect: obj.Locator}, nil
}
