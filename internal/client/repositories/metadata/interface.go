// Package metadata is the key/value table of the local client store. The
// persisted auth snapshot lives here under its storage key.
package metadata

import (
	"context"
	"time"
)

// Record is one stored value with the time it was last written.
type Record struct {
	Key       string
	Value     []byte
	UpdatedAt time.Time
}

type Repository interface {
	// Get returns (nil, nil) when key is absent.
	Get(ctx context.Context, key string) (*Record, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) ([]Record, error)
	Clear(ctx context.Context) error
}
