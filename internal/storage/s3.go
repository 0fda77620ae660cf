package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	appconfig "github.com/smallbiznis/pixelbin/internal/config"
)

const thumbnailContentType = "image/png"

// S3Store keeps blobs in a single bucket under variant-prefixed keys.
type S3Store struct {
	client    *s3.Client
	presigner *s3.PresignClient
	bucket    string
}

// NewS3Store builds the production blob store. A custom endpoint (minio,
// localstack) switches the client to path-style addressing.
func NewS3Store(ctx context.Context, cfg appconfig.Config) (*S3Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.S3Region)}
	if cfg.S3AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Store{
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    cfg.S3Bucket,
	}, nil
}

func (s *S3Store) PutOriginal(ctx context.Context, imageID string, contentType string, data []byte) error {
	return s.put(ctx, BuildKey(VariantOriginal, imageID), contentType, data)
}

func (s *S3Store) PutThumbnail(ctx context.Context, imageID string, data []byte) error {
	return s.put(ctx, BuildKey(VariantThumbnail, imageID), thumbnailContentType, data)
}

func (s *S3Store) put(ctx context.Context, key, contentType string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
		Body:        bytes.NewReader(data),
	})
	return err
}

func (s *S3Store) GetThumbnail(ctx context.Context, imageID string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(BuildKey(VariantThumbnail, imageID)),
	})
	if err != nil {
		return nil, translateGetErr(err)
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

// OriginalURL presigns a GET so the public original route can redirect
// instead of proxying bytes.
func (s *S3Store) OriginalURL(ctx context.Context, imageID string, ttl time.Duration) (string, error) {
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(BuildKey(VariantOriginal, imageID)),
	}, func(o *s3.PresignOptions) { o.Expires = ttl })
	if err != nil {
		return "", err
	}
	return req.URL, nil
}

func translateGetErr(err error) error {
	var noKey *types.NoSuchKey
	if errors.As(err, &noKey) {
		return ErrBlobNotFound
	}
	return err
}
