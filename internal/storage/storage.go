package storage

import (
	"context"

	s3store "github.com/dev-tams/gluekit/internal/storage/s3"
)

// Truncater is a named object store that can wipe a key prefix.
type Truncater interface {
	Name() string
	// Location renders prefix as a URI for logs and notifications.
	Location(prefix string) string
	Truncate(ctx context.Context, prefix string, opts ...s3store.TruncateOption) error
}
