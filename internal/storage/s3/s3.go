package s3store

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type Storage struct {
	name   string
	bucket string
	prefix string
	client Client
}

type Options struct {
	Name         string
	Bucket       string
	Region       string
	Prefix       string
	Endpoint     string
	UsePathStyle bool
	AccessKey    string
	SecretKey    string
}

// New builds an S3-backed storage. Static credentials are used when both keys
// are set; otherwise the default chain applies (the Glue job role).
func New(ctx context.Context, opt Options) (*Storage, error) {
	if opt.Bucket == "" {
		return nil, fmt.Errorf("s3: bucket is required")
	}
	if (opt.AccessKey == "") != (opt.SecretKey == "") {
		return nil, fmt.Errorf("s3: access_key and secret_key must be set together")
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if opt.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opt.Region))
	}
	if opt.AccessKey != "" {
		creds := credentials.NewStaticCredentialsProvider(opt.AccessKey, opt.SecretKey, "")
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(creds))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opt.Endpoint != "" {
			o.BaseEndpoint = aws.String(opt.Endpoint)
		}
		o.UsePathStyle = opt.UsePathStyle
	})

	return NewWithClient(opt.Name, opt.Bucket, opt.Prefix, client), nil
}

// NewWithClient wraps an existing client, e.g. one pointed at a local S3
// compatible endpoint.
func NewWithClient(name, bucket, prefix string, client Client) *Storage {
	return &Storage{
		name:   name,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		client: client,
	}
}

func (s *Storage) Name() string {
	return s.name
}

func (s *Storage) Bucket() string {
	return s.bucket
}

// Location renders the full scoped prefix as an s3:// URI.
func (s *Storage) Location(prefix string) string {
	return fmt.Sprintf("s3://%s/%s", s.bucket, s.scoped(prefix))
}

// Truncate deletes every object under prefix, relative to the storage root
// prefix. Options other than WithPrefix are passed through to the Truncator.
func (s *Storage) Truncate(ctx context.Context, prefix string, opts ...TruncateOption) error {
	opts = append(slices.Clone(opts), WithPrefix(s.scoped(prefix)))

	t, err := NewTruncator(s.client, s.bucket, opts...)
	if err != nil {
		return err
	}
	return t.Run(ctx)
}

// scoped joins the root prefix and a job prefix without cleaning it, so a
// trailing slash keeps its directory-only meaning.
func (s *Storage) scoped(prefix string) string {
	if s.prefix == "" {
		return prefix
	}
	return s.prefix + "/" + strings.TrimPrefix(prefix, "/")
}
