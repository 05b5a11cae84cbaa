package contentstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/shackstack/shackstack/internal/cidutil"
	"github.com/shackstack/shackstack/internal/common"
)

// LocalStore persists content in a pebble database on local disk, keyed by
// CID. Every write is synced, so Pin only checks presence.
type LocalStore struct {
	db *pebble.DB
}

// OpenLocalStore opens (creating if needed) the database in dir.
func OpenLocalStore(dir string) (*LocalStore, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}
	return &LocalStore{db: db}, nil
}

func (s *LocalStore) Put(ctx context.Context, value any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	b, err := encode(value)
	if err != nil {
		return "", err
	}
	id, err := cidutil.Sum(b)
	if err != nil {
		return "", err
	}

	if err := s.db.Set([]byte(id), b, pebble.Sync); err != nil {
		return "", fmt.Errorf("local store write: %w", err)
	}
	return id, nil
}

func (s *LocalStore) Get(ctx context.Context, cid string) (any, error) {
	b, err := s.read(ctx, cid)
	if err != nil {
		return nil, err
	}
	if err := cidutil.Verify(cid, b); err != nil {
		return nil, err
	}
	return decode(b)
}

func (s *LocalStore) Pin(ctx context.Context, cid string) error {
	_, err := s.read(ctx, cid)
	return err
}

func (s *LocalStore) read(ctx context.Context, cid string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	val, closer, err := s.db.Get([]byte(cid))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, fmt.Errorf("content %s: %w", cid, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("local store read: %w", err)
	}
	defer closer.Close()

	return append([]byte(nil), val...), nil
}

func (s *LocalStore) Close() error {
	return s.db.Close()
}
