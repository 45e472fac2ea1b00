// Package mirror uploads ingested payloads to an S3-compatible object
// store. The mirror is the second sink of the dual-write performed during
// ingestion; objects are keyed by the declared file name.
package mirror

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dkruglov/fileshare/internal/common"
	sc "github.com/dkruglov/fileshare/internal/server/config"
)

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	putObject = func(client *s3.Client, ctx context.Context, in *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
		return client.PutObject(ctx, in)
	}
)

// S3Mirror mirrors payloads into a single bucket.
type S3Mirror struct {
	config *sc.Config
}

func NewS3Mirror(config *sc.Config) *S3Mirror {
	return &S3Mirror{config: config}
}

func (m *S3Mirror) getClient(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(m.config.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			m.config.S3RootUser,     // MINIO_ROOT_USER
			m.config.S3RootPassword, // MINIO_ROOT_PASSWORD
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(m.config.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return client, nil
}

// Put stores data under the given key. Failures wrap ErrRemoteStorage;
// the caller aborts ingestion of the part, no retry happens here.
func (m *S3Mirror) Put(ctx context.Context, key string, data []byte) error {
	client, err := m.getClient(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrRemoteStorage, err)
	}

	bucket := m.config.S3Bucket

	_, err = putObject(client, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrRemoteStorage, err)
	}

	return nil
}
