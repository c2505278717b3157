// internal/storage/s3.go
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/contoso/storefront/internal/apperrors"
)

type S3Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
}

// S3Store implements ObjectStore against an S3 bucket.
type S3Store struct {
	client *s3.S3
	bucket string
}

func NewS3Store(cfg S3Config) (*S3Store, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.Region),
		Credentials: credentials.NewStaticCredentials(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	return &S3Store{client: s3.New(sess), bucket: cfg.Bucket}, nil
}

func (s *S3Store) GetMetadata(ctx context.Context, name string) (map[string]string, error) {
	out, err := s.client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(name),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, apperrors.NotFound(name)
		}
		if err := apperrors.FromContext(ctx); err != nil {
			return nil, err
		}
		return nil, apperrors.Unavailable(err)
	}
	metadata := make(map[string]string, len(out.Metadata))
	for k, v := range out.Metadata {
		if v != nil {
			metadata[k] = *v
		}
	}
	return metadata, nil
}

func (s *S3Store) PutObject(ctx context.Context, name string, data []byte, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(name),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := s.client.PutObjectWithContext(ctx, input); err != nil {
		if err := apperrors.FromContext(ctx); err != nil {
			return err
		}
		return apperrors.Unavailable(err)
	}
	return nil
}

// SetMetadata replaces user metadata via a self-copy, which is how S3
// mutates metadata on an existing object.
func (s *S3Store) SetMetadata(ctx context.Context, name string, metadata map[string]string) error {
	meta := make(map[string]*string, len(metadata))
	for k, v := range metadata {
		meta[k] = aws.String(v)
	}
	_, err := s.client.CopyObjectWithContext(ctx, &s3.CopyObjectInput{
		Bucket:            aws.String(s.bucket),
		Key:               aws.String(name),
		CopySource:        aws.String(s.bucket + "/" + name),
		Metadata:          meta,
		MetadataDirective: aws.String(s3.MetadataDirectiveReplace),
	})
	if err != nil {
		if isNotFound(err) {
			return apperrors.NotFound(name)
		}
		if err := apperrors.FromContext(ctx); err != nil {
			return err
		}
		return apperrors.Unavailable(err)
	}
	return nil
}

// SignURL presigns a read-only GET. The request is signed as of validFrom
// so the URL tolerates client clock skew, and expires at validTo.
func (s *S3Store) SignURL(name string, validFrom, validTo time.Time) (string, error) {
	req, _ := s.client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(name),
	})
	req.Time = validFrom
	url, err := req.Presign(validTo.Sub(validFrom))
	if err != nil {
		return "", fmt.Errorf("failed to presign %s: %w", name, err)
	}
	return url, nil
}

func isNotFound(err error) bool {
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		switch aerr.Code() {
		case s3.ErrCodeNoSuchKey, "NotFound":
			return true
		}
	}
	var rf awserr.RequestFailure
	return errors.As(err, &rf) && rf.StatusCode() == 404
}
