// Package publish uploads rendered artifacts and the entity manifest to an
// S3 (or S3-compatible) bucket.
package publish

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"git.home.luguber.info/inful/contentbuilder/internal/config"
	foundationerrors "git.home.luguber.info/inful/contentbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/contentbuilder/internal/logfields"
)

// ObjectPutter is the part of the S3 client the publisher uses.
type ObjectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Publisher uploads files to one bucket under a key prefix.
type Publisher struct {
	client       ObjectPutter
	bucket       string
	prefix       string
	cacheControl string
}

// NewS3Client builds an S3 client from the default AWS configuration chain
// with the overrides in cfg.
func NewS3Client(ctx context.Context, cfg *config.S3Config) (*s3.Client, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.Profile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryPublish, "failed to load AWS configuration").
			WithContext("bucket", cfg.Bucket).
			Build()
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}

// New returns a Publisher for cfg using client.
func New(client ObjectPutter, cfg *config.S3Config) *Publisher {
	return &Publisher{
		client:       client,
		bucket:       cfg.Bucket,
		prefix:       strings.Trim(cfg.Prefix, "/"),
		cacheControl: cfg.CacheControl,
	}
}

// Key returns the object key for a file name.
func (p *Publisher) Key(name string) string {
	if p.prefix == "" {
		return name
	}
	return path.Join(p.prefix, name)
}

// Upload puts every named file of dir into the bucket. It stops at the first
// failure and returns the number of objects uploaded so far.
func (p *Publisher) Upload(ctx context.Context, dir string, names []string) (int, error) {
	uploaded := 0
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return uploaded, err
		}
		if err := p.putFile(ctx, filepath.Join(dir, name), p.Key(name)); err != nil {
			return uploaded, err
		}
		uploaded++
	}
	slog.Info("Published artifacts", slog.String("bucket", p.bucket), logfields.Count(uploaded))
	return uploaded, nil
}

// UploadFile puts a single file under its base name.
func (p *Publisher) UploadFile(ctx context.Context, file string) error {
	return p.putFile(ctx, file, p.Key(filepath.Base(file)))
}

func (p *Publisher) putFile(ctx context.Context, file, key string) error {
	f, err := os.Open(file)
	if err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryPublish, "failed to open file for upload").
			WithContext("path", file).
			Build()
	}
	defer func() { _ = f.Close() }()

	in := &s3.PutObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
		Body:   f,
	}
	if ct := contentType(file); ct != "" {
		in.ContentType = aws.String(ct)
	}
	if p.cacheControl != "" {
		in.CacheControl = aws.String(p.cacheControl)
	}

	if _, err := p.client.PutObject(ctx, in); err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryPublish, "failed to upload object").
			WithContext("bucket", p.bucket).
			WithContext("key", key).
			Retryable().
			Build()
	}
	slog.Debug("Uploaded object", slog.String("bucket", p.bucket), slog.String("key", key))
	return nil
}

func contentType(file string) string {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".png":
		return "image/png"
	case ".json":
		return "application/json"
	default:
		return ""
	}
}

// String describes the destination for logs.
func (p *Publisher) String() string {
	return fmt.Sprintf("s3://%s/%s", p.bucket, p.prefix)
}
