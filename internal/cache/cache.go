// Package cache stores recomputable read-side aggregates. Entries are keyed
// by a generation that writers bump synchronously after every commit, so a
// value computed before a write can never be read after it.
package cache

import "context"

type Cache interface {
	// Generation is the current namespace version. Readers key entries by it.
	Generation(ctx context.Context) (int64, error)
	// Get decodes the cached value for key into dest and reports whether it was present.
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	// Invalidate bumps the generation, orphaning every existing entry.
	Invalidate(ctx context.Context) error
}

// Nop never stores anything. Used when REDIS_ADDR is empty.
type Nop struct{}

func (Nop) Generation(context.Context) (int64, error)      { return 0, nil }
func (Nop) Get(context.Context, string, any) (bool, error) { return false, nil }
func (Nop) Set(context.Context, string, any) error         { return nil }
func (Nop) Invalidate(context.Context) error               { return nil }
