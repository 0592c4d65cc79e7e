// Package objectstore uploads public files (property images, exports) to S3 or an
// S3 compatible store.
package objectstore

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/estate-ordinals/common/errs"
)

type Config struct {
	Bucket string `mapstructure:"bucket"`
	Region string `mapstructure:"region"`

	// Endpoint overrides the S3 endpoint, e.g. MinIO or R2.
	Endpoint     string `mapstructure:"endpoint"`
	UsePathStyle bool   `mapstructure:"use_path_style"`

	// PublicBaseURL is prepended to object keys to build public URLs (e.g. a CDN).
	// Default is the virtual-hosted S3 URL of the bucket.
	PublicBaseURL string `mapstructure:"public_base_url"`

	// Prefix is prepended to every object key.
	Prefix string `mapstructure:"prefix"`
}

// Enabled reports whether a bucket is configured.
func (c Config) Enabled() bool {
	return c.Bucket != ""
}

type Store struct {
	uploader *manager.Uploader
	conf     Config
}

// New creates a store using the default AWS credential chain.
func New(ctx context.Context, conf Config) (*Store, error) {
	if !conf.Enabled() {
		return nil, errors.Wrap(errs.InvalidArgument, "object store bucket is required")
	}

	opts := []func(*awsconfig.LoadOptions) error{}
	if conf.Region != "" {
		opts = append(opts, awsconfig.WithRegion(conf.Region))
	}
	sdkConfig, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "can't load aws user config")
	}

	client := s3.NewFromConfig(sdkConfig, func(o *s3.Options) {
		if conf.Endpoint != "" {
			o.BaseEndpoint = aws.String(conf.Endpoint)
		}
		o.UsePathStyle = conf.UsePathStyle
	})
	return NewWithClient(client, conf), nil
}

// NewWithClient creates a store on top of an existing s3 client.
func NewWithClient(client manager.UploadAPIClient, conf Config) *Store {
	return &Store{
		uploader: manager.NewUploader(client),
		conf:     conf,
	}
}

// Upload stores body under key and returns its public URL.
func (s *Store) Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	key = s.objectKey(key)
	if key == "" {
		return "", errors.Wrap(errs.InvalidArgument, "object key is required")
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.conf.Bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return "", errors.Wrapf(err, "can't upload %q to bucket %q", key, s.conf.Bucket)
	}
	return s.URL(key), nil
}

// URL returns the public URL of an already prefixed object key.
func (s *Store) URL(key string) string {
	escaped := (&url.URL{Path: key}).EscapedPath()
	if s.conf.PublicBaseURL != "" {
		return strings.TrimSuffix(s.conf.PublicBaseURL, "/") + "/" + escaped
	}
	if s.conf.Endpoint != "" {
		return strings.TrimSuffix(s.conf.Endpoint, "/") + "/" + s.conf.Bucket + "/" + escaped
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.conf.Bucket, s.conf.Region, escaped)
}

func (s *Store) objectKey(key string) string {
	key = strings.TrimPrefix(path.Clean("/"+key), "/")
	if key == "" || key == "." {
		return ""
	}
	if s.conf.Prefix == "" {
		return key
	}
	return path.Join(strings.Trim(s.conf.Prefix, "/"), key)
}
