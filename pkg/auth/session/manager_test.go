package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/shop-backend/pkg/config"
)

type memStore struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
	err  error
}

func newMemStore() *memStore {
	return &memStore{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = fmt.Sprint(value)
	m.ttls[key] = ttl
	return nil
}

func (m *memStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	v, ok := m.data[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (m *memStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *memStore) AccessSessionKey(accessID string) string {
	return "sess:" + accessID
}

func TestSessionLifecycle(t *testing.T) {
	store := newMemStore()
	m, err := newManager(store, time.Hour)
	require.NoError(t, err)
	ctx := context.Background()
	owner := uuid.New()

	require.NoError(t, m.Open(ctx, "jti-1", owner))
	require.Equal(t, owner.String(), store.data["sess:jti-1"])
	require.Equal(t, time.Hour, store.ttls["sess:jti-1"])

	live, err := m.HasSession(ctx, "jti-1", owner)
	require.NoError(t, err)
	require.True(t, live)

	live, err = m.HasSession(ctx, "jti-1", uuid.New())
	require.NoError(t, err)
	require.False(t, live, "a jti issued to another user must not authenticate")

	require.NoError(t, m.Revoke(ctx, "jti-1"))
	live, err = m.HasSession(ctx, "jti-1", owner)
	require.NoError(t, err)
	require.False(t, live)

	require.NoError(t, m.Revoke(ctx, "jti-1"), "double logout is fine")
}

func TestSessionRequiresAccessID(t *testing.T) {
	m, err := newManager(newMemStore(), time.Hour)
	require.NoError(t, err)
	ctx := context.Background()

	require.ErrorIs(t, m.Open(ctx, " ", uuid.New()), ErrMissingAccessID)
	require.ErrorIs(t, m.Revoke(ctx, ""), ErrMissingAccessID)
	_, err = m.HasSession(ctx, "", uuid.New())
	require.ErrorIs(t, err, ErrMissingAccessID)
}

func TestSessionSurfacesStoreErrors(t *testing.T) {
	store := newMemStore()
	store.err = errors.New("redis down")
	m, err := newManager(store, time.Hour)
	require.NoError(t, err)

	_, err = m.HasSession(context.Background(), "jti-1", uuid.New())
	require.EqualError(t, err, "redis down")
}

func TestNewManagerValidation(t *testing.T) {
	_, err := NewManager(nil, config.JWTConfig{ExpirationMinutes: 5})
	require.ErrorIs(t, err, ErrNoStore)

	_, err = newManager(newMemStore(), 0)
	require.ErrorIs(t, err, ErrBadTTL)
}
