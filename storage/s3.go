package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"paper-birthdays/config"
	"paper-birthdays/models"
)

// NewS3Client erstellt einen S3-Client. Ohne SNAPSHOT_S3_URL gilt der AWS-Standardendpunkt,
// sonst wird auf den S3-kompatiblen Endpunkt umgebogen.
func NewS3Client(ctx context.Context, cfg *config.Config) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.SnapshotS3Region),
	}
	if cfg.SnapshotS3Key != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.SnapshotS3Key, cfg.SnapshotS3Secret, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.SnapshotS3URL != "" {
			o.BaseEndpoint = aws.String(cfg.SnapshotS3URL)
			o.UsePathStyle = true
		}
	}), nil
}

// S3Store legt Snapshot-Dateien in einem Bucket ab.
type S3Store struct {
	Client *s3.Client
	Bucket string
}

// NewS3Store erstellt den Store für SNAPSHOT_S3_BUCKET.
func NewS3Store(ctx context.Context, cfg *config.Config) (*S3Store, error) {
	if !cfg.SnapshotEnabled() {
		return nil, fmt.Errorf("SNAPSHOT_S3_BUCKET is not set")
	}
	client, err := NewS3Client(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &S3Store{Client: client, Bucket: cfg.SnapshotS3Bucket}, nil
}

// Put lädt ein Objekt hoch und überschreibt eine vorhandene Version.
func (s *S3Store) Put(ctx context.Context, key string, body []byte, contentType string) error {
	_, err := s.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", s.Bucket, key, err)
	}
	return nil
}

// List liefert alle Objekte unter prefix, seitenweise über ListObjectsV2.
func (s *S3Store) List(ctx context.Context, prefix string) ([]models.StoredObject, error) {
	var out []models.StoredObject
	p := s3.NewListObjectsV2Paginator(s.Client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.Bucket),
		Prefix: aws.String(prefix),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list s3://%s/%s: %w", s.Bucket, prefix, err)
		}
		for _, obj := range page.Contents {
			o := models.StoredObject{Key: aws.ToString(obj.Key)}
			if obj.LastModified != nil {
				o.LastModified = *obj.LastModified
			}
			out = append(out, o)
		}
	}
	return out, nil
}

// Delete entfernt ein Objekt.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete s3://%s/%s: %w", s.Bucket, key, err)
	}
	return nil
}
