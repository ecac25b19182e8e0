// Package sku derives stable SKU keys for products that were created without one.
package sku

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"unicode/utf16"

	"github.com/Veraticus/amo-inventory/internal/common"
	"github.com/Veraticus/amo-inventory/internal/metrics"
	"github.com/Veraticus/amo-inventory/internal/storage"
)

const (
	hashSeed   = 5381
	hashLength = 6
)

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// Resolver maps product IDs to SKU keys. Derived keys are persisted so the
// same product keeps its key across runs.
type Resolver struct {
	store   storage.Store
	metrics *metrics.Registry
	mapping map[string]string
	mu      sync.Mutex
	loaded  bool
}

// NewResolver creates a resolver backed by store. A nil store keeps keys in memory only.
func NewResolver(store storage.Store, m *metrics.Registry) *Resolver {
	return &Resolver{
		store:   store,
		metrics: m,
		mapping: make(map[string]string),
	}
}

// Resolve returns existingKey when set, otherwise the persisted key for
// productID, otherwise a key derived from productName.
func (r *Resolver) Resolve(ctx context.Context, productID, productName, existingKey string) string {
	if existingKey != "" {
		return existingKey
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.loadLocked(ctx)
	if key, ok := r.mapping[productID]; ok && key != "" {
		return key
	}

	key := Derive(productName)
	r.mapping[productID] = key
	if r.metrics != nil {
		r.metrics.SKUsDerived.Inc()
	}
	slog.Debug("Derived SKU key", "product_id", productID, "sku", key)

	r.persistLocked(ctx)
	return key
}

// Mapping returns a copy of the known product ID to SKU key mapping.
func (r *Resolver) Mapping(ctx context.Context) map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loadLocked(ctx)
	return maps.Clone(r.mapping)
}

// loadLocked merges the persisted map into memory once. Keys derived in this
// process win over persisted ones.
func (r *Resolver) loadLocked(ctx context.Context) {
	if r.loaded || r.store == nil {
		return
	}
	r.loaded = true

	persisted := make(map[string]string)
	if err := storage.GetJSON(ctx, r.store, storage.KeySKUMap, &persisted); err != nil {
		if !storage.IsNotFound(err) {
			r.failure("load", err)
		}
		return
	}
	for id, key := range persisted {
		if _, ok := r.mapping[id]; !ok {
			r.mapping[id] = key
		}
	}
}

func (r *Resolver) persistLocked(ctx context.Context) {
	if r.store == nil {
		return
	}
	if err := storage.SetJSON(ctx, r.store, storage.KeySKUMap, r.mapping); err != nil {
		r.failure("persist", err)
	}
}

func (r *Resolver) failure(op string, err error) {
	r.metrics.StorageError("sku", op)
	common.LogDebug("SKU map storage unavailable", common.Fields{"op": op, "error": err.Error()})
}

// Derive builds slug(name) + "-" + a six character hash of name.
func Derive(name string) string {
	return fmt.Sprintf("%s-%s", Slugify(name), ShortHash(name))
}

// Slugify lowercases name, collapses runs of characters outside [a-z0-9]
// into a single dash and trims dashes from both ends.
func Slugify(name string) string {
	slug := nonAlphanumeric.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(slug, "-")
}

// ShortHash is the first six hex digits of the unpadded 32-bit djb2 hash of
// name's UTF-16 code units. Hashes shorter than six digits are left-padded
// with zeros.
func ShortHash(name string) string {
	var h uint32 = hashSeed
	for _, unit := range utf16.Encode([]rune(name)) {
		h = h*33 + uint32(unit)
	}
	s := strconv.FormatUint(uint64(h), 16)
	if len(s) >= hashLength {
		return s[:hashLength]
	}
	return strings.Repeat("0", hashLength-len(s)) + s
}
