package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/marketplace/internal/models"
)

func setupTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client, time.Hour), mr
}

func TestAddAccumulates(t *testing.T) {
	store, mr := setupTestStore(t)
	ctx := context.Background()

	_, err := store.Add(ctx, "s1", 3, 1)
	require.NoError(t, err)
	cart, err := store.Add(ctx, "s1", 3, 2)
	require.NoError(t, err)

	assert.Equal(t, Cart{3: 3}, cart)
	assert.Equal(t, time.Hour, mr.TTL(cartKey("s1")))
}

func TestAddNegativeRemovesLine(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	_, err := store.Add(ctx, "s1", 5, 1)
	require.NoError(t, err)
	cart, err := store.Add(ctx, "s1", 5, -1)
	require.NoError(t, err)
	assert.Empty(t, cart)
}

func TestQuantityClampedToColumnRange(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	_, err := store.Add(ctx, "s3", 7, models.MaxQuantity)
	require.NoError(t, err)
	cart, err := store.Add(ctx, "s3", 7, models.MaxQuantity)
	require.NoError(t, err)
	assert.Equal(t, Cart{7: models.MaxQuantity}, cart)

	cart, err = store.Set(ctx, "s3", 8, models.MaxQuantity+5)
	require.NoError(t, err)
	assert.Equal(t, models.MaxQuantity, cart[8])
}

func TestSetAndClear(t *testing.T) {
	store, mr := setupTestStore(t)
	ctx := context.Background()

	cart, err := store.Set(ctx, "s2", 1, 4)
	require.NoError(t, err)
	assert.Equal(t, Cart{1: 4}, cart)

	cart, err = store.Set(ctx, "s2", 1, 0)
	require.NoError(t, err)
	assert.Empty(t, cart)

	_, err = store.Add(ctx, "s2", 2, 1)
	require.NoError(t, err)
	require.NoError(t, store.Clear(ctx, "s2"))
	assert.False(t, mr.Exists(cartKey("s2")))
}

func TestGetSkipsGarbage(t *testing.T) {
	store, mr := setupTestStore(t)
	mr.HSet(cartKey("s3"), "7", "2")
	mr.HSet(cartKey("s3"), "abc", "1")
	mr.HSet(cartKey("s3"), "8", "zero")
	mr.HSet(cartKey("s3"), "9", "-4")

	cart, err := store.Get(context.Background(), "s3")
	require.NoError(t, err)
	assert.Equal(t, Cart{7: 2}, cart)
}

func TestProductIDsSortedPositiveOnly(t *testing.T) {
	c := Cart{9: 1, 2: 3, 5: 0, 4: -1}
	assert.Equal(t, []uint{2, 9}, c.ProductIDs())
}

func TestCartKeyFormat(t *testing.T) {
	assert.Equal(t, "cart:abc", cartKey("abc"))
}
