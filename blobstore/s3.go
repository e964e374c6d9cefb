package blobstore

import (
	"context"
	"errors"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Store implements Store against an S3 bucket, for mirroring sealed
// segment files off-process (spec §9 durability discussion). Grounded on the
// teacher's blobstore/s3.Store.
type S3Store struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Store creates an S3Store. prefix is prepended to every object key,
// e.g. "annstore/segments/".
func NewS3Store(client *s3.Client, bucket, prefix string) *S3Store {
	return &S3Store{client: client, bucket: bucket, prefix: prefix}
}

func (s *S3Store) key(name string) string {
	return path.Join(s.prefix, name)
}

// Open fetches name from the bucket, streaming its body.
func (s *S3Store) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return out.Body, nil
}

// Create returns a pipe writer whose contents are streamed to S3 via a
// managed multipart upload as the caller writes; Close blocks until the
// upload finishes.
func (s *S3Store) Create(ctx context.Context, name string) (io.WriteCloser, error) {
	pr, pw := io.Pipe()
	up := &s3Upload{pw: pw, done: make(chan error, 1)}

	uploader := manager.NewUploader(s.client)
	go func() {
		_, err := uploader.Upload(ctx, &s3.PutObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(s.key(name)),
			Body:   pr,
		})
		_ = pr.CloseWithError(err)
		up.done <- err
	}()

	return up, nil
}

// Remove deletes name from the bucket.
func (s *S3Store) Remove(ctx context.Context, name string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	return err
}

// s3Upload adapts the pipe-plus-background-upload pattern to io.WriteCloser:
// Close waits for the multipart upload to actually finish, so callers who
// treat Close as "durably written" get an accurate signal.
type s3Upload struct {
	pw   *io.PipeWriter
	done chan error
}

func (u *s3Upload) Write(p []byte) (int, error) {
	return u.pw.Write(p)
}

func (u *s3Upload) Close() error {
	if err := u.pw.Close(); err != nil {
		return err
	}
	return <-u.done
}
