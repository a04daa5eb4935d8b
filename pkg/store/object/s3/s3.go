// Package s3 implements the object gateway on Amazon S3 (or any S3
// compatible service such as Localstack or MinIO).
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/marmos91/clouddrive/internal/logger"
	"github.com/marmos91/clouddrive/pkg/store/object"
)

// S3Gateway stores objects in one bucket.
//
// Keys are used verbatim; Prefix only narrows ListAll. Signed view links
// are presigned GetObject requests, so they are served by S3 directly.
type S3Gateway struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	prefix  string

	// locatorBase is prepended to keys to build locators
	locatorBase string

	metrics S3Metrics
}

// Config holds connection settings, decoded from the objects.s3 section.
type Config struct {
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
	Prefix          string `mapstructure:"prefix"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`

	// PublicURL overrides the base used for locators
	PublicURL string `mapstructure:"public_url"`

	// MaxAttempts bounds SDK level attempts per call (default 1: no retry)
	MaxAttempts int `mapstructure:"max_attempts"`

	// Client, when set, is used instead of building one from the fields above
	Client *s3.Client `mapstructure:"-"`

	// Metrics receives per-operation observations (optional)
	Metrics S3Metrics `mapstructure:"-"`
}

// NewClient builds an S3 client from cfg using the default AWS credential
// chain unless static keys are given.
func NewClient(ctx context.Context, cfg Config) (*s3.Client, error) {
	if cfg.Region == "" {
		return nil, errors.New("S3 gateway: region is required")
	}

	var configOptions []func(*awsConfig.LoadOptions) error
	configOptions = append(configOptions, awsConfig.WithRegion(cfg.Region))

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		credProvider := credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"", // session token (empty for static credentials)
		)
		configOptions = append(configOptions, awsConfig.WithCredentialsProvider(credProvider))
	}

	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	configOptions = append(configOptions, awsConfig.WithRetryer(func() aws.Retryer {
		return retry.NewStandard(func(o *retry.StandardOptions) {
			o.MaxAttempts = maxAttempts
		})
	}))

	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, configOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// New creates a gateway and verifies that the bucket is reachable.
func New(ctx context.Context, cfg Config) (*S3Gateway, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if cfg.Bucket == "" {
		return nil, errors.New("S3 gateway: bucket is required")
	}

	client := cfg.Client
	if client == nil {
		var err error
		client, err = NewClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
	}

	metrics := cfg.Metrics
	if metrics == nil {
		metrics = noopMetrics{}
	}

	g := &S3Gateway{
		client:      client,
		presign:     s3.NewPresignClient(client),
		bucket:      cfg.Bucket,
		prefix:      cfg.Prefix,
		locatorBase: locatorBase(cfg),
		metrics:     metrics,
	}

	if err := g.Healthcheck(ctx); err != nil {
		return nil, fmt.Errorf("failed to access bucket %q: %w", cfg.Bucket, err)
	}

	logger.Info("S3 gateway initialized: bucket=%s, region=%s, prefix=%s", cfg.Bucket, cfg.Region, cfg.Prefix)
	return g, nil
}

// locatorBase mirrors how S3 reports object locations: virtual-hosted
// URLs on AWS, path-style URLs on custom endpoints.
func locatorBase(cfg Config) string {
	switch {
	case cfg.PublicURL != "":
		return strings.TrimRight(cfg.PublicURL, "/")
	case cfg.Endpoint != "":
		return strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	case cfg.Region != "":
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	default:
		return fmt.Sprintf("https://%s.s3.amazonaws.com", cfg.Bucket)
	}
}

// isNotFound recognizes NoSuchKey (GetObject) and NotFound (HeadObject).
func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}

// wrapError classifies every non not-found failure as unavailable.
func wrapError(op, key string, err error) error {
	return fmt.Errorf("s3 %s %s: %w: %w", op, key, object.ErrUnavailable, err)
}

func (g *S3Gateway) observe(op string, start time.Time, err error) {
	g.metrics.ObserveOperation(op, time.Since(start), err)
}

func (g *S3Gateway) Put(ctx context.Context, key string, data []byte, contentType string) (locator string, err error) {
	if err := object.ValidateKey(key); err != nil {
		return "", err
	}
	start := time.Now()
	defer func() { g.observe("PutObject", start, err) }()

	input := &s3.PutObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := g.client.PutObject(ctx, input); err != nil {
		return "", wrapError("put", key, err)
	}
	g.metrics.RecordBytes("PutObject", int64(len(data)))

	return g.locatorBase + "/" + escapePath(key), nil
}

func (g *S3Gateway) Get(ctx context.Context, key string) (data []byte, err error) {
	start := time.Now()
	defer func() { g.observe("GetObject", start, err) }()

	result, err := g.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("object %s: %w", key, object.ErrObjectNotFound)
		}
		return nil, wrapError("get", key, err)
	}
	defer result.Body.Close()

	data, err = io.ReadAll(result.Body)
	if err != nil {
		return nil, wrapError("read", key, err)
	}
	g.metrics.RecordBytes("GetObject", int64(len(data)))
	return data, nil
}

func (g *S3Gateway) Exists(ctx context.Context, key string) (ok bool, err error) {
	start := time.Now()
	defer func() { g.observe("HeadObject", start, err) }()

	_, err = g.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, wrapError("head", key, err)
	}
	return true, nil
}

// Delete is idempotent: S3 reports success for absent keys.
func (g *S3Gateway) Delete(ctx context.Context, key string) (err error) {
	start := time.Now()
	defer func() { g.observe("DeleteObject", start, err) }()

	_, err = g.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(key),
	})
	if err != nil && !isNotFound(err) {
		return wrapError("delete", key, err)
	}
	return nil
}

// KeyFromLocator strips the gateway's own locator base first so a public
// URL path such as "/media" never ends up in the key.
func (g *S3Gateway) KeyFromLocator(locator string) (string, error) {
	if key, ok, err := object.KeyUnderBase(locator, g.locatorBase); ok {
		return key, err
	}
	return object.KeyFromLocator(locator, g.bucket)
}

func (g *S3Gateway) Namespace() string {
	return g.prefix
}

// Healthcheck issues HeadBucket.
func (g *S3Gateway) Healthcheck(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { g.observe("HeadBucket", start, err) }()

	if _, err := g.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(g.bucket)}); err != nil {
		return wrapError("head bucket", g.bucket, err)
	}
	return nil
}

func escapePath(key string) string {
	segs := strings.Split(key, "/")
	for i, seg := range segs {
		segs[i] = url.PathEscape(seg)
	}
	return strings.Join(segs, "/")
}
