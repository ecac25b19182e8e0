package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/cockroachdb/pebble"
)

// PebbleStore implements Store on an embedded Pebble database directory.
type PebbleStore struct {
	db *pebble.DB
}

// NewPebbleStore opens (creating if needed) a Pebble database in dir.
func NewPebbleStore(dir string) (*PebbleStore, error) {
	if err := validateString(dir, "dir"); err != nil {
		return nil, err
	}
	db, err := pebble.Open(filepath.Clean(dir), &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("pebble open: %w", err)
	}
	return &PebbleStore{db: db}, nil
}

// Get returns a copy of the value at key.
func (p *PebbleStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	v, closer, err := p.db.Get([]byte(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	defer closer.Close()
	return append([]byte(nil), v...), nil
}

// Set writes value at key and syncs the WAL.
func (p *PebbleStore) Set(ctx context.Context, key string, value []byte) error {
	if err := validateKV(ctx, key, value); err != nil {
		return err
	}
	if err := p.db.Set([]byte(key), value, pebble.Sync); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (p *PebbleStore) Delete(ctx context.Context, key string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := p.db.Delete([]byte(key), pebble.Sync); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// Keys lists stored keys in byte order.
func (p *PebbleStore) Keys(_ context.Context) ([]string, error) {
	it, err := p.db.NewIter(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open iterator: %w", err)
	}
	defer it.Close()

	var keys []string
	for it.First(); it.Valid(); it.Next() {
		keys = append(keys, string(it.Key()))
	}
	return keys, nil
}

// Close closes the database.
func (p *PebbleStore) Close() error { return p.db.Close() }
