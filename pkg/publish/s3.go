package publish

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	fk_config "github.com/fleetkey/go-fleetkey/pkg/config"
	"github.com/fleetkey/go-fleetkey/pkg/wellknown"
)

// S3API is the subset of the S3 client used by S3Publisher.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Publisher publishes the public key to an S3 bucket for operators
// who serve their site from an object store.
type S3Publisher struct {
	client     S3API
	bucketName string
	prefix     string
}

// NewS3Publisher creates a new S3Publisher from the configuration.
func NewS3Publisher(ctx context.Context, cfg *fk_config.Config) (*S3Publisher, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}

	if cfg.PublishRegion != "" {
		awsCfg.Region = cfg.PublishRegion
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.PublishEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.PublishEndpoint)
		}
		if cfg.PublishPathStyle {
			o.UsePathStyle = true
		}
	})

	return &S3Publisher{
		client:     client,
		bucketName: cfg.PublishBucket,
		prefix:     cfg.PublishPrefix,
	}, nil
}

// NewS3PublisherWithClient creates an S3Publisher around an existing
// client. Used by tests.
func NewS3PublisherWithClient(client S3API, bucket, prefix string) *S3Publisher {
	return &S3Publisher{client: client, bucketName: bucket, prefix: prefix}
}

// ObjectKey returns the bucket key the public key is published under.
func (p *S3Publisher) ObjectKey() string {
	return wellknown.ObjectKey(p.prefix)
}

// Publish uploads the public key to the bucket's well-known key.
func (p *S3Publisher) Publish(ctx context.Context, publicKeyPEM []byte) error {
	_, err := p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucketName),
		Key:         aws.String(p.ObjectKey()),
		Body:        bytes.NewReader(publicKeyPEM),
		ContentType: aws.String("application/x-pem-file"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload public key to s3://%s/%s: %w", p.bucketName, p.ObjectKey(), err)
	}

	return nil
}
