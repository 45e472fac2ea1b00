package mirror

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dkruglov/fileshare/internal/common"
	sc "github.com/dkruglov/fileshare/internal/server/config"
)

func testConfig() *sc.Config {
	cfg := &sc.Config{}
	cfg.LoadDefaults()
	return cfg
}

func TestPut_Success(t *testing.T) {
	origPut := putObject
	t.Cleanup(func() { putObject = origPut })

	var gotBucket, gotKey string
	var gotBody []byte
	putObject = func(client *s3.Client, ctx context.Context, in *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
		gotBucket = aws.ToString(in.Bucket)
		gotKey = aws.ToString(in.Key)
		b, err := io.ReadAll(in.Body)
		if err != nil {
			return nil, err
		}
		gotBody = b
		return &s3.PutObjectOutput{}, nil
	}

	m := NewS3Mirror(testConfig())
	if err := m.Put(context.Background(), "report", []byte("payload")); err != nil {
		t.Fatalf("Put error: %v", err)
	}

	if gotBucket != "fileshare" || gotKey != "report" || string(gotBody) != "payload" {
		t.Fatalf("unexpected upload: bucket=%q key=%q body=%q", gotBucket, gotKey, gotBody)
	}
}

func TestPut_UploadError(t *testing.T) {
	origPut := putObject
	t.Cleanup(func() { putObject = origPut })

	putObject = func(client *s3.Client, ctx context.Context, in *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
		return nil, errors.New("bucket unreachable")
	}

	m := NewS3Mirror(testConfig())
	err := m.Put(context.Background(), "report", []byte("payload"))
	if !errors.Is(err, common.ErrRemoteStorage) {
		t.Fatalf("want ErrRemoteStorage, got %v", err)
	}
}

func TestPut_ConfigError(t *testing.T) {
	origLoad := loadDefaultAWSConfig
	t.Cleanup(func() { loadDefaultAWSConfig = origLoad })

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no credentials")
	}

	m := NewS3Mirror(testConfig())
	err := m.Put(context.Background(), "report", []byte("payload"))
	if !errors.Is(err, common.ErrRemoteStorage) {
		t.Fatalf("want ErrRemoteStorage, got %v", err)
	}
}
