// internal/common/rating/store.go
package rating

import "context"

// Store is the append-only rating storage.
type Store interface {
	Append(ctx context.Context, record Record) error
	Records(ctx context.Context) ([]Record, error)
}
