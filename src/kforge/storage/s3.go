package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/bitswalk/kforge/src/common/errors"
)

// S3Config configures an S3-compatible backend
type S3Config struct {
	// Endpoint is the service URL, e.g. "https://s3.amazonaws.com" or
	// "http://minio:9000". Empty means AWS.
	Endpoint string

	Region string
	Bucket string

	// Prefix is prepended to every key, e.g. "kforge/"
	Prefix string

	AccessKeyID     string
	SecretAccessKey string

	// UsePathStyle is required by most S3-compatible servers
	UsePathStyle bool
}

// S3Backend stores objects in an S3 bucket
type S3Backend struct {
	client *s3.Client
	config S3Config
}

// NewS3 creates an S3 backend. No request is made until first use.
func NewS3(cfg S3Config) (*S3Backend, error) {
	if cfg.Bucket == "" {
		return nil, errors.ErrStorageUnavailable.WithMessage("s3 bucket is not configured")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	awsCfg := aws.Config{
		Region:      cfg.Region,
		Credentials: aws.AnonymousCredentials{},
	}
	if cfg.AccessKeyID != "" {
		awsCfg.Credentials = credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
		// S3-compatible servers commonly reject the newer default checksums
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
	})

	return &S3Backend{client: client, config: cfg}, nil
}

func (b *S3Backend) objectKey(key string) string {
	return b.config.Prefix + CleanKey(key)
}

// EnsureBucket creates the bucket when HeadBucket cannot see it
func (b *S3Backend) EnsureBucket(ctx context.Context) error {
	_, err := b.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(b.config.Bucket),
	})
	if err == nil {
		return nil
	}

	_, err = b.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(b.config.Bucket),
	})
	if err != nil {
		return errors.ErrStorageUnavailable.WithMessagef("failed to create bucket %s", b.config.Bucket).WithCause(err)
	}
	log.Info("Created bucket", "bucket", b.config.Bucket)
	return nil
}

// Put uploads an object
func (b *S3Backend) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(b.config.Bucket),
		Key:    aws.String(b.objectKey(key)),
		Body:   r,
	}
	if size > 0 {
		input.ContentLength = aws.Int64(size)
	}
	if contentType == "" {
		contentType = mime.TypeByExtension(path.Ext(key))
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := b.client.PutObject(ctx, input); err != nil {
		return errors.ErrStorageUploadFailed.WithMessagef("failed to upload %s", key).WithCause(err)
	}
	return nil
}

// Get downloads an object
func (b *S3Backend) Get(ctx context.Context, key string) (io.ReadCloser, *ObjectInfo, error) {
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.config.Bucket),
		Key:    aws.String(b.objectKey(key)),
	})
	if err != nil {
		return nil, nil, b.classify(key, err)
	}

	return out.Body, &ObjectInfo{
		Key:          CleanKey(key),
		Size:         aws.ToInt64(out.ContentLength),
		ContentType:  aws.ToString(out.ContentType),
		ETag:         aws.ToString(out.ETag),
		LastModified: aws.ToTime(out.LastModified),
	}, nil
}

// Delete removes an object
func (b *S3Backend) Delete(ctx context.Context, key string) error {
	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.config.Bucket),
		Key:    aws.String(b.objectKey(key)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}
	return nil
}

// Exists reports whether key is stored
func (b *S3Backend) Exists(ctx context.Context, key string) (bool, error) {
	_, err := b.Stat(ctx, key)
	if errors.Is(err, errors.ErrStorageNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Stat returns object metadata
func (b *S3Backend) Stat(ctx context.Context, key string) (*ObjectInfo, error) {
	out, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.config.Bucket),
		Key:    aws.String(b.objectKey(key)),
	})
	if err != nil {
		return nil, b.classify(key, err)
	}
	return &ObjectInfo{
		Key:          CleanKey(key),
		Size:         aws.ToInt64(out.ContentLength),
		ContentType:  aws.ToString(out.ContentType),
		ETag:         aws.ToString(out.ETag),
		LastModified: aws.ToTime(out.LastModified),
	}, nil
}

// List pages through the objects under prefix
func (b *S3Backend) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	var objects []ObjectInfo

	paginator := s3.NewListObjectsV2Paginator(b.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(b.config.Bucket),
		Prefix: aws.String(b.config.Prefix + strings.TrimPrefix(prefix, "/")),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}
		for _, obj := range page.Contents {
			objects = append(objects, ObjectInfo{
				Key:          strings.TrimPrefix(aws.ToString(obj.Key), b.config.Prefix),
				Size:         aws.ToInt64(obj.Size),
				ETag:         aws.ToString(obj.ETag),
				LastModified: aws.ToTime(obj.LastModified),
			})
		}
	}
	return objects, nil
}

// URL returns a presigned GET URL valid for expiry
func (b *S3Backend) URL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	req, err := s3.NewPresignClient(b.client).PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.config.Bucket),
		Key:    aws.String(b.objectKey(key)),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return "", fmt.Errorf("failed to presign %s: %w", key, err)
	}
	return req.URL, nil
}

// Ping checks that the bucket is reachable with the configured credentials
func (b *S3Backend) Ping(ctx context.Context) error {
	_, err := b.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(b.config.Bucket),
	})
	if err != nil {
		return errors.ErrStorageUnavailable.WithMessagef("bucket %s is not reachable", b.config.Bucket).WithCause(err)
	}
	return nil
}

// Type returns "s3"
func (b *S3Backend) Type() string {
	return "s3"
}

// Location returns endpoint/bucket/prefix
func (b *S3Backend) Location() string {
	endpoint := b.config.Endpoint
	if endpoint == "" {
		endpoint = "s3://"
	} else {
		endpoint = strings.TrimSuffix(endpoint, "/") + "/"
	}
	return endpoint + b.config.Bucket + "/" + b.config.Prefix
}

func (b *S3Backend) classify(key string, err error) error {
	var noKey *types.NoSuchKey
	var notFound *types.NotFound
	if errors.As(err, &noKey) || errors.As(err, &notFound) {
		return errors.ErrStorageNotFound.WithMessagef("object not found: %s", key)
	}
	return fmt.Errorf("failed to access object %s: %w", key, err)
}
