package s3infra

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-rolegate/internal/config"
	"github.com/go-rolegate/internal/infrastructure/awsconf"
)

type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Mirror copies the role snapshot document to a fixed S3 object.
type Mirror struct {
	client objectPutter
	bucket string
	key    string
}

// NewClient creates an S3 client. Against LocalStack it switches to path-style addressing.
func NewClient(ctx context.Context, cfg *config.Config) (*s3.Client, error) {
	awsCfg, err := awsconf.Load(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("s3: %w", err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.AWSEndpointURL != ""
	}), nil
}

func NewMirror(client *s3.Client, bucket, key string) *Mirror {
	return &Mirror{client: client, bucket: bucket, key: key}
}

// Put overwrites the mirrored object with data.
func (m *Mirror) Put(ctx context.Context, data []byte) error {
	_, err := m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(m.bucket),
		Key:           aws.String(m.key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("s3 put object %s/%s: %w", m.bucket, m.key, err)
	}
	return nil
}

// Location is the s3:// URL of the mirrored object.
func (m *Mirror) Location() string {
	return fmt.Sprintf("s3://%s/%s", m.bucket, m.key)
}
