package s3store

import (
	"context"
	"fmt"
	"iter"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/dev-tams/gluekit/internal/batch"
)

// DefaultBatchSize matches the S3 DeleteObjects per-request key limit.
const DefaultBatchSize = 1000

// DeleteObjectsAPI is the bulk delete half of the S3 client.
type DeleteObjectsAPI interface {
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

// Client lists and bulk-deletes objects. *s3.Client satisfies it.
type Client interface {
	s3.ListObjectsV2APIClient
	DeleteObjectsAPI
}

// ResponseHook receives every DeleteObjects response, including the per-key
// errors S3 reports inside it. A non-nil return stops the truncation.
type ResponseHook func(out *s3.DeleteObjectsOutput) error

type truncateOptions struct {
	prefix    string
	batchSize int
	hook      ResponseHook
}

// TruncateOption configures a Truncator.
type TruncateOption func(*truncateOptions)

// WithPrefix restricts deletion to keys starting with prefix. Empty means
// every key in the bucket.
func WithPrefix(prefix string) TruncateOption {
	return func(o *truncateOptions) { o.prefix = prefix }
}

// WithBatchSize sets the number of keys per DeleteObjects call.
func WithBatchSize(n int) TruncateOption {
	return func(o *truncateOptions) { o.batchSize = n }
}

// WithResponseHook calls h with every DeleteObjects response, in order.
func WithResponseHook(h ResponseHook) TruncateOption {
	return func(o *truncateOptions) { o.hook = h }
}

// Truncator deletes every object under a prefix, one listing page at a time.
type Truncator struct {
	client    Client
	bucket    string
	prefix    string
	batchSize int
	hook      ResponseHook
}

// NewTruncator validates the options up front; a non-positive batch size
// fails here with batch.ErrInvalidArgument rather than on Run.
func NewTruncator(client Client, bucket string, opts ...TruncateOption) (*Truncator, error) {
	if client == nil {
		return nil, fmt.Errorf("s3: client is required: %w", batch.ErrInvalidArgument)
	}
	if bucket == "" {
		return nil, fmt.Errorf("s3: bucket is required: %w", batch.ErrInvalidArgument)
	}

	o := truncateOptions{batchSize: DefaultBatchSize}
	for _, opt := range opts {
		opt(&o)
	}
	if o.batchSize <= 0 {
		return nil, fmt.Errorf("s3: batch size must be > 0, got %d: %w", o.batchSize, batch.ErrInvalidArgument)
	}

	return &Truncator{
		client:    client,
		bucket:    bucket,
		prefix:    o.prefix,
		batchSize: o.batchSize,
		hook:      o.hook,
	}, nil
}

// Run walks the listing and issues one DeleteObjects call per batch, in
// listing order. Batches never span listing pages. Errors from listing,
// deleting or the hook are returned as-is and stop the walk; batches already
// deleted stay deleted.
func (t *Truncator) Run(ctx context.Context) error {
	in := &s3.ListObjectsV2Input{Bucket: aws.String(t.bucket)}
	if t.prefix != "" {
		in.Prefix = aws.String(t.prefix)
	}

	pages := s3.NewListObjectsV2Paginator(t.client, in)
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return err
		}
		if len(page.Contents) == 0 {
			continue
		}

		// size already validated in NewTruncator
		batches, _ := batch.Of(objectIdentifiers(page.Contents), t.batchSize)
		for ids := range batches {
			out, err := t.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
				Bucket: aws.String(t.bucket),
				Delete: &types.Delete{Objects: ids},
			})
			if err != nil {
				return err
			}
			if t.hook != nil {
				if err := t.hook(out); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func objectIdentifiers(objs []types.Object) iter.Seq[types.ObjectIdentifier] {
	return func(yield func(types.ObjectIdentifier) bool) {
		for _, obj := range objs {
			if !yield(types.ObjectIdentifier{Key: obj.Key}) {
				return
			}
		}
	}
}
