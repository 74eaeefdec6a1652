package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/EcommerceGo/storefront/internal/domain"
)

func TestSlotStore_SaveAndLoad(t *testing.T) {
	s := NewSlotStore(0)
	ctx := context.Background()

	v, err := s.Save(ctx, "sess", "cart", []byte(`{"lines":[]}`), 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	payload, version, err := s.Load(ctx, "sess", "cart")
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)
	assert.JSONEq(t, `{"lines":[]}`, string(payload))
}

func TestSlotStore_VersionMismatch(t *testing.T) {
	s := NewSlotStore(0)
	ctx := context.Background()

	_, err := s.Save(ctx, "sess", "cart", []byte(`{}`), 0)
	require.NoError(t, err)

	_, err = s.Save(ctx, "sess", "cart", []byte(`{}`), 0)
	assert.ErrorIs(t, err, domain.ErrVersionConflict)

	_, err = s.Save(ctx, "sess", "cart", []byte(`{}`), 5)
	assert.ErrorIs(t, err, domain.ErrVersionConflict)
}

func TestSlotStore_Expiry(t *testing.T) {
	s := NewSlotStore(time.Hour)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	_, err := s.Save(ctx, "sess", "cart", []byte(`{}`), 0)
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	payload, version, err := s.Load(ctx, "sess", "cart")
	require.NoError(t, err)
	assert.Nil(t, payload)
	assert.Equal(t, int64(0), version)

	v, err := s.Save(ctx, "sess", "cart", []byte(`{}`), 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)
}

func TestSlotStore_LoadReturnsCopy(t *testing.T) {
	s := NewSlotStore(0)
	ctx := context.Background()
	_, _ = s.Save(ctx, "sess", "cart", []byte(`abc`), 0)

	p, _, _ := s.Load(ctx, "sess", "cart")
	p[0] = 'z'

	again, _, _ := s.Load(ctx, "sess", "cart")
	assert.Equal(t, "abc", string(again))
}

func TestSlotStore_PurgeExpired(t *testing.T) {
	s := NewSlotStore(time.Hour)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	_, _ = s.Save(ctx, "old", "cart", []byte(`{}`), 0)
	now = now.Add(30 * time.Minute)
	_, _ = s.Save(ctx, "fresh", "cart", []byte(`{}`), 0)
	now = now.Add(45 * time.Minute)

	n, err := s.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Len(t, s.entries, 1)
}
