package checkpoint

import (
	"context"
	"time"
)

// Record is a persisted line-index snapshot for one file, with enough file
// metadata to judge whether it is still valid.
type Record struct {
	LineStarts []int64
	HighWater  int64
	FileSize   int64
	FileMod    time.Time
}

// Valid reports whether the record can warm-start an index over a file of
// the given size. A file that shrank below the high-water mark was truncated
// or rotated, so the snapshot no longer describes its content. Content drift
// below the high-water mark is not detected.
func (r *Record) Valid(currentSize int64) bool {
	return currentSize >= r.HighWater
}

// Store persists line-index checkpoints keyed by file path.
type Store interface {
	// Get retrieves the checkpoint for a file, or nil if none is stored.
	Get(ctx context.Context, path string) (*Record, error)

	// Put stores the checkpoint for a file, replacing any previous one.
	Put(ctx context.Context, path string, rec *Record) error

	// Delete removes the checkpoint for a file.
	Delete(ctx context.Context, path string) error

	// List returns the indexed high-water mark for every stored file.
	List(ctx context.Context) (map[string]int64, error)

	// Close closes the store.
	Close() error
}
