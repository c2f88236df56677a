package session

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	values map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{values: map[string]string{}}
}

func (f *fakeStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	f.values[key] = value.(string)
	return nil
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	v, ok := f.values[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.values, key)
	}
	return nil
}

type fakeKeyer struct{}

func (fakeKeyer) AccessSessionKey(accessID string) string {
	return "test:session:access:" + accessID
}

func newTestManager() (*Manager, *fakeStore) {
	store := newFakeStore()
	return &Manager{store: store, keyer: fakeKeyer{}, ttl: time.Hour}, store
}

func TestGenerateAndHasSession(t *testing.T) {
	mgr, _ := newTestManager()
	ctx := context.Background()

	accessID := NewAccessID()
	token, err := mgr.Generate(ctx, accessID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	ok, err := mgr.HasSession(ctx, accessID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = mgr.HasSession(ctx, NewAccessID())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRotateInvalidatesOldSession(t *testing.T) {
	mgr, _ := newTestManager()
	ctx := context.Background()

	accessID := NewAccessID()
	token, err := mgr.Generate(ctx, accessID)
	require.NoError(t, err)

	newAccessID, newToken, err := mgr.Rotate(ctx, accessID, token)
	require.NoError(t, err)
	assert.NotEqual(t, accessID, newAccessID)
	assert.NotEqual(t, token, newToken)

	ok, err := mgr.HasSession(ctx, accessID)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = mgr.HasSession(ctx, newAccessID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRotateRejectsWrongToken(t *testing.T) {
	mgr, _ := newTestManager()
	ctx := context.Background()

	accessID := NewAccessID()
	_, err := mgr.Generate(ctx, accessID)
	require.NoError(t, err)

	_, _, err = mgr.Rotate(ctx, accessID, "forged")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestRevoke(t *testing.T) {
	mgr, _ := newTestManager()
	ctx := context.Background()

	accessID := NewAccessID()
	_, err := mgr.Generate(ctx, accessID)
	require.NoError(t, err)

	require.NoError(t, mgr.Revoke(ctx, accessID))

	ok, err := mgr.HasSession(ctx, accessID)
	require.NoError(t, err)
	assert.False(t, ok)
}
