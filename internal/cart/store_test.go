package cart

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dessy-cafe/storefront-backend/pkg/redis"
)

// fakeCmdable backs the Redis client with a plain map.
type fakeCmdable struct {
	values map[string]string
}

func newFakeCmdable() *fakeCmdable {
	return &fakeCmdable{values: map[string]string{}}
}

func (f *fakeCmdable) Ping(ctx context.Context) *goredis.StatusCmd {
	cmd := goredis.NewStatusCmd(ctx)
	cmd.SetVal("PONG")
	return cmd
}

func (f *fakeCmdable) Set(ctx context.Context, key string, value any, _ time.Duration) *goredis.StatusCmd {
	cmd := goredis.NewStatusCmd(ctx)
	switch v := value.(type) {
	case string:
		f.values[key] = v
	case []byte:
		f.values[key] = string(v)
	}
	cmd.SetVal("OK")
	return cmd
}

func (f *fakeCmdable) Get(ctx context.Context, key string) *goredis.StringCmd {
	cmd := goredis.NewStringCmd(ctx)
	value, ok := f.values[key]
	if !ok {
		cmd.SetErr(goredis.Nil)
		return cmd
	}
	cmd.SetVal(value)
	return cmd
}

func (f *fakeCmdable) SetNX(ctx context.Context, key string, value any, ttl time.Duration) *goredis.BoolCmd {
	cmd := goredis.NewBoolCmd(ctx)
	if _, exists := f.values[key]; exists {
		cmd.SetVal(false)
		return cmd
	}
	f.Set(ctx, key, value, ttl)
	cmd.SetVal(true)
	return cmd
}

func (f *fakeCmdable) Incr(ctx context.Context, _ string) *goredis.IntCmd {
	return goredis.NewIntCmd(ctx)
}

func (f *fakeCmdable) Expire(ctx context.Context, _ string, _ time.Duration) *goredis.BoolCmd {
	cmd := goredis.NewBoolCmd(ctx)
	cmd.SetVal(true)
	return cmd
}

func (f *fakeCmdable) Del(ctx context.Context, keys ...string) *goredis.IntCmd {
	cmd := goredis.NewIntCmd(ctx)
	var removed int64
	for _, key := range keys {
		if _, ok := f.values[key]; ok {
			delete(f.values, key)
			removed++
		}
	}
	cmd.SetVal(removed)
	return cmd
}

func newTestRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	store, err := NewRedisStore(redis.NewWithStore(newFakeCmdable()), time.Hour)
	require.NoError(t, err)
	return store
}

func TestRedisStoreRoundTrip(t *testing.T) {
	store := newTestRedisStore(t)
	ctx := context.Background()

	variantID := uuid.New()
	snap := Snapshot{
		Items: []LineItem{{
			ProductID:   uuid.New(),
			VariantID:   &variantID,
			ProductName: "Choco Tub",
			CategoryID:  uuid.New(),
			UnitPrice:   money("250"),
			Quantity:    2,
		}},
		Coupon: &AppliedCoupon{Code: "SAVE10", Discount: money("10")},
	}

	require.NoError(t, store.Save(ctx, "user-1", snap))

	loaded, err := store.Load(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, loaded.Items, 1)
	assert.Equal(t, "Choco Tub", loaded.Items[0].ProductName)
	assert.True(t, loaded.Items[0].UnitPrice.Equal(money("250")))
	require.NotNil(t, loaded.Coupon)
	assert.Equal(t, "SAVE10", loaded.Coupon.Code)
}

func TestRedisStoreMissIsEmptyCart(t *testing.T) {
	store := newTestRedisStore(t)

	snap, err := store.Load(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, snap.Items)
	assert.Nil(t, snap.Coupon)
}

func TestRedisStoreDelete(t *testing.T) {
	store := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "user-1", Snapshot{Items: []LineItem{{
		ProductID: uuid.New(),
		UnitPrice: money("100"),
		Quantity:  1,
	}}}))
	require.NoError(t, store.Delete(ctx, "user-1"))

	snap, err := store.Load(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, snap.Items)
}
