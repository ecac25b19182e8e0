package sku

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/amo-inventory/internal/metrics"
	"github.com/Veraticus/amo-inventory/internal/storage"
)

type failingStore struct{}

func (failingStore) Get(context.Context, string) ([]byte, error) { return nil, errors.New("disk full") }
func (failingStore) Set(context.Context, string, []byte) error { return errors.New("disk full") }
func (failingStore) Delete(context.Context, string) error { return errors.New("disk full") }
func (failingStore) Close() error { return nil }

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "Milk", "milk"},
		{"spaces", "Whole Milk 1L", "whole-milk-1l"},
		{"punctuation run", "Greek Yogurt (500g)", "greek-yogurt-500g"},
		{"leading and trailing", "  --Eggs!!  ", "eggs"},
		{"accents are not alphanumeric", "Café Crème", "caf-cr-me"},
		{"emoji", "🍎 Apple", "apple"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}

func TestShortHash(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Milk", "7c8915"},
		{"Whole Milk 1L", "723003"},
		{"Café Crème", "e938b4"},
		{"🍎 Apple", "25664a"},
		{"Bread", "ce98f2"},
		{"Tea", "b88259"},
		{"a", "02b606"},
		{"", "001505"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ShortHash(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Len(t, got, hashLength)
		})
	}
}

func TestDerive(t *testing.T) {
	assert.Equal(t, "greek-yogurt-500g-ee2f9f", Derive("Greek Yogurt (500g)"))
	assert.Equal(t, Derive("Milk"), Derive("Milk"))
	assert.NotEqual(t, Derive("Milk"), Derive("milk"), "hash is case sensitive even though the slug is not")
}

func TestResolver_ExistingKeyWins(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	r := NewResolver(store, nil)

	assert.Equal(t, "CUSTOM-1", r.Resolve(ctx, "p1", "Milk", "CUSTOM-1"))

	// Nothing was derived or persisted.
	_, err := store.Get(ctx, storage.KeySKUMap)
	assert.True(t, storage.IsNotFound(err))
}

func TestResolver_Idempotent(t *testing.T) {
	ctx := context.Background()
	reg := metrics.NewRegistry()
	r := NewResolver(storage.NewMemoryStore(), reg)

	first := r.Resolve(ctx, "p1", "Milk", "")
	assert.Equal(t, "milk-7c8915", first)

	// The stored key sticks even if the product is renamed.
	assert.Equal(t, first, r.Resolve(ctx, "p1", "Oat Milk", ""))
	assert.InDelta(t, 1, testutil.ToFloat64(reg.SKUsDerived), 0.0001)
}

func TestResolver_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()

	first := NewResolver(store, nil).Resolve(ctx, "p1", "Milk", "")

	var persisted map[string]string
	require.NoError(t, storage.GetJSON(ctx, store, storage.KeySKUMap, &persisted))
	assert.Equal(t, map[string]string{"p1": first}, persisted)

	second := NewResolver(store, nil)
	assert.Equal(t, first, second.Resolve(ctx, "p1", "Something Else", ""))
	assert.Equal(t, map[string]string{"p1": first}, second.Mapping(ctx))
}

func TestResolver_UsesPreexistingMap(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, storage.SetJSON(ctx, store, storage.KeySKUMap, map[string]string{"p9": "legacy-key"}))

	r := NewResolver(store, nil)
	assert.Equal(t, "legacy-key", r.Resolve(ctx, "p9", "Milk", ""))
}

func TestResolver_StorageFailure(t *testing.T) {
	ctx := context.Background()
	reg := metrics.NewRegistry()
	r := NewResolver(failingStore{}, reg)

	key := r.Resolve(ctx, "p1", "Milk", "")
	assert.Equal(t, "milk-7c8915", key)
	assert.Equal(t, key, r.Resolve(ctx, "p1", "Milk", ""), "key must stay stable within the process")
	assert.InDelta(t, 1, testutil.ToFloat64(reg.StorageErrors.WithLabelValues("sku", "persist")), 0.0001)
	assert.InDelta(t, 1, testutil.ToFloat64(reg.StorageErrors.WithLabelValues("sku", "load")), 0.0001)
}

func TestResolver_MappingIsACopy(t *testing.T) {
	ctx := context.Background()
	r := NewResolver(nil, nil)
	r.Resolve(ctx, "p1", "Milk", "")

	m := r.Mapping(ctx)
	m["p1"] = "tampered"
	assert.Equal(t, "milk-7c8915", r.Mapping(ctx)["p1"])
}
