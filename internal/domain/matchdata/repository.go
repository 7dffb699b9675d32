package matchdata

import "context"

// Repository persists the assembled dataset document. Save replaces the whole
// document atomically; a failed Save must leave any previous document intact.
type Repository interface {
	Save(ctx context.Context, ds *Dataset) error
	Load(ctx context.Context) (*Dataset, error)
}
