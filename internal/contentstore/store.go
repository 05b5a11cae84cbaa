// Package contentstore wraps content-addressable blob stores behind a single
// Store contract. Content is immutable once stored: putting identical bytes
// again yields the identical CID.
package contentstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shackstack/shackstack/internal/common"
	"github.com/shackstack/shackstack/internal/jsonx"
)

// Store is a content-addressable store of JSON values.
type Store interface {
	// Put serializes value to canonical JSON, stores it and returns its CID.
	Put(ctx context.Context, value any) (string, error)

	// Get returns the value stored under cid, or common.ErrNotFound.
	Get(ctx context.Context, cid string) (any, error)

	// Pin asks the store to retain cid. Callers treat failure as non-fatal.
	Pin(ctx context.Context, cid string) error
}

// encode produces the canonical bytes for v. encoding/json sorts map keys,
// which makes the encoding stable for equal values.
func encode(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("serialize value: %w", err)
	}
	return b, nil
}

// decode returns numbers as json.Number so they re-encode to the same bytes.
func decode(b []byte) (any, error) {
	v, err := jsonx.Decode(b)
	if err != nil {
		return nil, fmt.Errorf("%w: stored content is not JSON: %v", common.ErrCorrupt, err)
	}
	return v, nil
}

// await runs fn on its own goroutine and returns early if ctx is done. It
// adapts client calls that take no context.
func await[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)

	go func() {
		v, err := fn()
		ch <- result{v: v, err: err}
	}()

	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case r := <-ch:
		return r.v, r.err
	}
}
