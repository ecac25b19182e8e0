package session

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/amo-inventory/internal/common"
	"github.com/Veraticus/amo-inventory/internal/storage"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestManager_SaveLoadClear(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	m := NewManager(storage.NewMemoryStore(), clock)

	_, err := m.Load(ctx)
	assert.ErrorIs(t, err, ErrNoSession)
	assert.ErrorIs(t, err, common.ErrUnauthorized)

	require.NoError(t, m.Save(ctx, "tok", "alice"))
	s, err := m.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok", s.Token)
	assert.Equal(t, "alice", s.Username)
	assert.True(t, clock.Now().Equal(s.SavedAt))

	require.NoError(t, m.Clear(ctx))
	_, err = m.Load(ctx)
	assert.ErrorIs(t, err, ErrNoSession)
	assert.NoError(t, m.Clear(ctx), "clearing twice is fine")
}

func TestManager_SaveRequiresToken(t *testing.T) {
	m := NewManager(storage.NewMemoryStore(), nil)
	assert.ErrorIs(t, m.Save(context.Background(), " ", "alice"), common.ErrValidation)
}

func TestManager_Inspect(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	m := NewManager(storage.NewMemoryStore(), clock)
	exp := clock.Now().Add(time.Hour)

	info, err := m.Inspect(signedToken(t, jwt.MapClaims{"sub": "42", "exp": exp.Unix()}))
	require.NoError(t, err)
	assert.True(t, info.HasExpiry)
	assert.False(t, info.Expired)
	assert.Equal(t, "42", info.Subject)
	assert.Equal(t, exp.Unix(), info.ExpiresAt.Unix())

	clock.Advance(2 * time.Hour)
	info, err = m.Inspect(signedToken(t, jwt.MapClaims{"exp": exp.Unix()}))
	require.NoError(t, err)
	assert.True(t, info.Expired, "expired tokens still decode")

	info, err = m.Inspect(signedToken(t, jwt.MapClaims{"sub": "42"}))
	require.NoError(t, err)
	assert.False(t, info.HasExpiry)

	_, err = m.Inspect("not-a-jwt")
	assert.Error(t, err)
}

func TestManager_Warning(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	m := NewManager(storage.NewMemoryStore(), clock)

	assert.Contains(t, m.Warning(ctx), "Missing JWT token")

	require.NoError(t, m.Save(ctx, signedToken(t, jwt.MapClaims{"exp": clock.Now().Add(time.Minute).Unix()}), "alice"))
	assert.Empty(t, m.Warning(ctx))

	clock.Advance(time.Minute)
	assert.Contains(t, m.Warning(ctx), "Session expired")

	require.NoError(t, m.Save(ctx, "opaque-token", "alice"))
	assert.Empty(t, m.Warning(ctx), "opaque tokens cannot be checked locally")
}
