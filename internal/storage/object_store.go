// Package storage abstracts the document object store behind the narrow
// surface the synchronizer needs.
package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectStore downloads stored document binaries.
type ObjectStore interface {
	Download(ctx context.Context, key string) (io.ReadCloser, error)
}

type s3Store struct {
	client *s3.Client
	bucket string
}

// NewS3Store creates an S3-backed object store
func NewS3Store(client *s3.Client, bucket string) ObjectStore {
	return &s3Store{client: client, bucket: bucket}
}

func (s *s3Store) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", key, err)
	}
	return out.Body, nil
}
