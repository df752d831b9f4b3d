package s3store

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Store archives helpdesk attachments in an S3 bucket.
type Store struct {
	client *s3.Client
	bucket string
	region string
	prefix string
}

// New loads AWS credentials from the default chain.
func New(ctx context.Context, region, bucket, prefix string) (*Store, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("cannot load AWS config: %w", err)
	}

	return &Store{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
		region: region,
		prefix: prefix,
	}, nil
}

// Key builds the object key for a submission's attachment.
func (s *Store) Key(submissionID, field, filename string) string {
	return ObjectKey(s.prefix, submissionID, field, filename)
}

// ObjectKey joins prefix/submission/field-filename.
func ObjectKey(prefix, submissionID, field, filename string) string {
	return path.Join(prefix, submissionID, field+"-"+path.Base(filename))
}

// Put uploads content under key and returns the object URL.
func (s *Store) Put(ctx context.Context, key string, content []byte, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(content),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("cannot upload object: %w", err)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key), nil
}
