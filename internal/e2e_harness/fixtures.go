package e2e_harness

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/lib/pq"
)

// StoreDocuments creates the document table the Postgres fetcher reads and
// stores documents in it, keyed by URI.
func (s *DocumentStores) StoreDocuments(ctx context.Context, table string, documents map[string]string) error {
	db := s.DB
	quoted := pq.QuoteIdentifier(table)
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
  uri TEXT PRIMARY KEY,
  document JSONB NOT NULL
);`, quoted)
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	insert := fmt.Sprintf(`INSERT INTO %s (uri, document) VALUES ($1, $2::jsonb)
ON CONFLICT (uri) DO UPDATE SET document = EXCLUDED.document`, quoted)
	for uri, doc := range documents {
		if _, err := db.ExecContext(ctx, insert, uri, doc); err != nil {
			return fmt.Errorf("insert %s: %w", uri, err)
		}
	}
	return nil
}

// UploadDocuments stores documents in bucket, creating the bucket when it
// does not exist. Keys are the object names, so a document uploaded as
// "a.json" is addressed as s3://bucket/a.json.
func (s *DocumentStores) UploadDocuments(ctx context.Context, bucket string, documents map[string]string) error {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(storeRegion),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(storeAccessKey, storeSecretKey, "")),
		config.WithBaseEndpoint(s.S3Endpoint),
	)
	if err != nil {
		return fmt.Errorf("load aws config: %w", err)
	}

	s3Client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	if _, err := s3Client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)}); err != nil {
		if _, cerr := s3Client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(bucket)}); cerr != nil {
			var apiErr smithy.APIError
			if !errors.As(cerr, &apiErr) {
				return fmt.Errorf("create bucket: %w", cerr)
			}
			code := apiErr.ErrorCode()
			if code != "BucketAlreadyOwnedByYou" && code != "BucketAlreadyExists" {
				return fmt.Errorf("create bucket: %w", cerr)
			}
		}
	}

	for key, doc := range documents {
		_, err := s3Client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(bucket),
			Key:         aws.String(key),
			Body:        strings.NewReader(doc),
			ContentType: aws.String("application/schema+json"),
		})
		if err != nil {
			return fmt.Errorf("s3 upload %s: %w", key, err)
		}
	}
	return nil
}
