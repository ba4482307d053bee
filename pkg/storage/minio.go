package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/PhantomInTheWire/tiff-tiler/pkg/monitoring"
)

type MinioConfig struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
}

// API is the subset of the S3 client used to publish tiles.
type API interface {
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, in *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// NewClient builds a path-style S3 client for a MinIO (or any S3) endpoint.
func NewClient(ctx context.Context, cfg MinioConfig) (*s3.Client, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, err
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = true
	}), nil
}

// Uploader pushes tile files into a bucket under a key prefix.
type Uploader struct {
	Client API
	Bucket string
	Prefix string
}

func NewUploader(client API, cfg MinioConfig) *Uploader {
	return &Uploader{Client: client, Bucket: cfg.Bucket, Prefix: cfg.Prefix}
}

// Key is the object key a tile at filePath is stored under.
func (u *Uploader) Key(filePath string) string {
	return path.Join(u.Prefix, filepath.Base(filePath))
}

// UploadTiles makes sure the bucket exists and uploads every file. A failed
// file is logged and the rest are still attempted; all failures are returned
// joined.
func (u *Uploader) UploadTiles(ctx context.Context, files []string) error {
	if err := u.ensureBucket(ctx); err != nil {
		return err
	}

	var errs []error
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := u.put(ctx, f); err != nil {
			monitoring.Logf("failed to upload %s: %v", f, err)
			errs = append(errs, fmt.Errorf("upload %s: %w", f, err))
			continue
		}
		monitoring.Logf("uploaded: %s", u.Key(f))
	}
	return errors.Join(errs...)
}

func (u *Uploader) ensureBucket(ctx context.Context) error {
	_, err := u.Client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(u.Bucket)})
	if err == nil {
		return nil
	}
	if _, err := u.Client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(u.Bucket)}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", u.Bucket, err)
	}
	monitoring.Logf("created bucket: %s", u.Bucket)
	return nil
}

func (u *Uploader) put(ctx context.Context, filePath string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = u.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.Bucket),
		Key:         aws.String(u.Key(filePath)),
		Body:        file,
		ContentType: aws.String("image/jpeg"),
	})
	return err
}
