// Package storage implements the blob-store gateway backed by an
// S3-compatible object store.
package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	sc "fileshare/internal/server/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// Gateway is the narrow blob-store contract the services depend on.
type Gateway interface {
	// Put stores body under key with the given content type.
	Put(ctx context.Context, key string, body io.Reader, contentType string) error
	// PresignGetURL returns a time-limited URL granting direct retrieval
	// of the blob at key, with no further checks by this system.
	PresignGetURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// Seams for tests: exercise error paths without an S3 backend.
var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// S3Gateway talks to an S3-compatible backend (AWS S3, MinIO) using static
// credentials from config.
type S3Gateway struct {
	config *sc.Config
}

func NewS3Gateway(config *sc.Config) *S3Gateway {
	return &S3Gateway{config: config}
}

// RandomStorageKey builds a date-partitioned random key for a new upload,
// preserving the original extension. Keys never collide regardless of the
// uploaded filename.
func RandomStorageKey(ext string) string {
	d := time.Now()
	return fmt.Sprintf("uploads/%d/%d/%d/%v%s", d.Year(), d.Month(), d.Day(), uuid.New(), ext)
}

func (g *S3Gateway) getClient(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(g.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			g.config.S3RootUser,
			g.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(g.config.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return client, nil
}

func (g *S3Gateway) Put(ctx context.Context, key string, body io.Reader, contentType string) error {
	client, err := g.getClient(ctx)
	if err != nil {
		return err
	}

	bucket := g.config.S3Bucket

	_, err = putObject(client, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		Body:        body,
		ContentType: &contentType,
	})
	return err
}

func (g *S3Gateway) PresignGetURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	client, err := g.getClient(ctx)
	if err != nil {
		return "", err
	}

	presignClient := newS3PresignClient(client)
	bucket := g.config.S3Bucket

	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}
