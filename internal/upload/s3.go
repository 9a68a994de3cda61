package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// S3Config configures the S3 backend. Endpoint switches to path-style addressing for
// S3-compatible stores (MinIO and friends).
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	Prefix    string
	AccessKey string
	SecretKey string
}

// S3 stores participant sheets in a bucket. Whether the returned URL is publicly
// readable is up to the bucket policy.
type S3 struct {
	client s3iface.S3API
	cfg    S3Config
}

// NewS3 creates an S3 backend. Without static keys the SDK's default credential chain is used.
func NewS3(cfg S3Config) (*S3, error) {
	if cfg.Bucket == "" || cfg.Region == "" {
		return nil, fmt.Errorf("s3: bucket and region are required")
	}

	awsCfg := &aws.Config{Region: aws.String(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, "")
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("s3: create session: %w", err)
	}
	return &S3{client: s3.New(sess), cfg: cfg}, nil
}

// Save uploads body under Prefix+name.
func (s *S3) Save(ctx context.Context, name string, body io.Reader, contentType string) (Object, error) {
	// PutObject needs a seekable body for signing; sheets are small and already size-capped
	data, err := io.ReadAll(body)
	if err != nil {
		return Object{}, fmt.Errorf("s3: read body: %w", err)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := s.cfg.Prefix + name
	_, err = s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:             aws.String(s.cfg.Bucket),
		Key:                aws.String(key),
		Body:               bytes.NewReader(data),
		ContentType:        aws.String(contentType),
		ContentDisposition: aws.String(fmt.Sprintf("attachment; filename=%q", name)),
	})
	if err != nil {
		return Object{}, fmt.Errorf("s3: put %s: %w", key, err)
	}

	return Object{Name: name, Path: key, URL: s.objectURL(key)}, nil
}

func (s *S3) objectURL(key string) string {
	if s.cfg.Endpoint != "" {
		return strings.TrimRight(s.cfg.Endpoint, "/") + "/" + s.cfg.Bucket + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.Bucket, s.cfg.Region, key)
}
