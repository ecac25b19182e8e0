// Package storage provides the durable key-value stores backing the client's
// local state: session, forecast cache, SKU map and products snapshot.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/Veraticus/amo-inventory/internal/common"
)

// Well-known keys.
const (
	KeyForecastCache = "forecast_cache"
	KeySKUMap        = "sku_map"
	KeyProducts      = "products_cache"
	KeySession       = "session"
)

// ErrNotFound is returned by Get when a key is absent.
var ErrNotFound = fmt.Errorf("key %w", common.ErrNotFound)

// Store is a durable string-keyed byte store. Implementations must be safe
// for concurrent use.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Lister is implemented by stores that can enumerate their keys.
type Lister interface {
	Keys(ctx context.Context) ([]string, error)
}

// ErrListUnsupported is returned by Keys for stores that cannot list keys.
var ErrListUnsupported = errors.New("store cannot list keys")

// Keys lists the keys of s in sorted order.
func Keys(ctx context.Context, s Store) ([]string, error) {
	l, ok := s.(Lister)
	if !ok {
		return nil, ErrListUnsupported
	}
	keys, err := l.Keys(ctx)
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

// GetJSON decodes the value at key into v. It returns ErrNotFound for absent keys.
func GetJSON(ctx context.Context, s Store, key string, v any) error {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

// SetJSON encodes v and stores it at key.
func SetJSON(ctx context.Context, s Store, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return s.Set(ctx, key, raw)
}

// IsNotFound reports whether err means the key was absent.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
