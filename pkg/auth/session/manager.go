// Package session keeps a Redis marker per issued access token so a logout
// invalidates the JWT before its exp claim does.
package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/shop-backend/pkg/config"
	"github.com/angelmondragon/shop-backend/pkg/redis"
)

var (
	ErrMissingAccessID = errors.New("session: access id is required")
	ErrNoStore         = errors.New("session: redis client is required")
	ErrBadTTL          = errors.New("session: access token ttl must be positive")
)

type store interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	AccessSessionKey(accessID string) string
}

// AccessSessionChecker is what the auth middleware needs: is this jti still
// live, and does it belong to the user named in the token.
type AccessSessionChecker interface {
	HasSession(ctx context.Context, accessID string, userID uuid.UUID) (bool, error)
}

// Manager stores "<jti> -> user id" with the token's lifetime as TTL.
type Manager struct {
	store store
	ttl   time.Duration
}

func NewManager(client *redis.Client, cfg config.JWTConfig) (*Manager, error) {
	if client == nil {
		return nil, ErrNoStore
	}
	return newManager(client, cfg.TTL())
}

func newManager(s store, ttl time.Duration) (*Manager, error) {
	if ttl <= 0 {
		return nil, ErrBadTTL
	}
	return &Manager{store: s, ttl: ttl}, nil
}

func (m *Manager) key(accessID string) (string, error) {
	accessID = strings.TrimSpace(accessID)
	if accessID == "" {
		return "", ErrMissingAccessID
	}
	return m.store.AccessSessionKey(accessID), nil
}

// Open marks accessID live for userID.
func (m *Manager) Open(ctx context.Context, accessID string, userID uuid.UUID) error {
	key, err := m.key(accessID)
	if err != nil {
		return err
	}
	return m.store.Set(ctx, key, userID.String(), m.ttl)
}

// Revoke drops the marker. Revoking an unknown or expired session succeeds.
func (m *Manager) Revoke(ctx context.Context, accessID string) error {
	key, err := m.key(accessID)
	if err != nil {
		return err
	}
	return m.store.Del(ctx, key)
}

// HasSession is false when the marker is gone or was issued to another user.
func (m *Manager) HasSession(ctx context.Context, accessID string, userID uuid.UUID) (bool, error) {
	key, err := m.key(accessID)
	if err != nil {
		return false, err
	}
	owner, err := m.store.Get(ctx, key)
	switch {
	case redis.IsMiss(err):
		return false, nil
	case err != nil:
		return false, err
	}
	return owner == userID.String(), nil
}

// NewAccessID mints the jti shared by the JWT and its session marker.
func NewAccessID() string {
	return uuid.NewString()
}
