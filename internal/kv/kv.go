package kv

import "context"

// Store is the persisted key-value substrate the session layer writes through.
// Implementations must apply SetMulti atomically: readers racing a write see
// either the old or the new value set, never a mix.
type Store interface {
	// GetMulti returns the values for keys. Missing keys map to "" with
	// ok=false in the returned presence slice.
	GetMulti(ctx context.Context, keys ...string) ([]string, []bool, error)
	SetMulti(ctx context.Context, pairs map[string]string) error
	Delete(ctx context.Context, keys ...string) error
}
