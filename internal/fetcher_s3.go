package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	awsCreds "github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	jsonschema "github.com/lychee-technology/jsonschema"
	"go.uber.org/zap"
)

type s3GetObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Fetcher fetches s3://bucket/key documents.
type S3Fetcher struct {
	client s3GetObjectAPI
}

// NewS3Fetcher wraps an S3 client.
func NewS3Fetcher(client s3GetObjectAPI) *S3Fetcher {
	return &S3Fetcher{client: client}
}

// NewS3FetcherFromConfig builds the S3 client from the default AWS config
// chain, overridden by cfg.
func NewS3FetcherFromConfig(ctx context.Context, cfg jsonschema.S3FetchConfig) (*S3Fetcher, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	if cfg.Region != "" {
		awsCfg.Region = cfg.Region
	}
	if cfg.AccessKey != "" {
		awsCfg.Credentials = awsCreds.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return NewS3Fetcher(client), nil
}

func (f *S3Fetcher) Name() string { return "s3" }

func (f *S3Fetcher) Supports(uri string) bool {
	return strings.HasPrefix(uri, "s3://")
}

func (f *S3Fetcher) FetchDocument(ctx context.Context, uri string) ([]byte, error) {
	bucket, key, err := parseS3URI(uri)
	if err != nil {
		return nil, jsonschema.NewInvalidURIError(uri, err)
	}
	out, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, jsonschema.NewDocumentNotFoundError(uri)
		}
		return nil, jsonschema.NewFetchFailedError(uri, err)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, jsonschema.NewFetchFailedError(uri, err)
	}
	zap.S().Debugw("fetched schema from s3", "bucket", bucket, "key", key, "bytes", len(data))
	return data, nil
}

func parseS3URI(uri string) (string, string, error) {
	u, err := url.Parse(jsonschema.TrimFragment(uri))
	if err != nil {
		return "", "", err
	}
	key := strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return "", "", fmt.Errorf("expected s3://bucket/key")
	}
	return u.Host, key, nil
}

func isS3NotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound", "NoSuchBucket":
			return true
		}
	}
	return false
}
