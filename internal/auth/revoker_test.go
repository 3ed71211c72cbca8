package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRedis records SET expirations and answers EXISTS from them.
type fakeRedis struct {
	redis.Cmdable
	ttls map[string]time.Duration
	err  error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Set(_ context.Context, key string, _ interface{}, expiration time.Duration) *redis.StatusCmd {
	if f.err != nil {
		return redis.NewStatusResult("", f.err)
	}
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Exists(_ context.Context, keys ...string) *redis.IntCmd {
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	var n int64
	for _, k := range keys {
		if _, ok := f.ttls[k]; ok {
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestRedisRevoker(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 2, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		expiresAt time.Time
		wantTTL   time.Duration
		stored    bool
	}{
		{name: "live token is stored until expiry", expiresAt: now.Add(90 * time.Minute), wantTTL: 90 * time.Minute, stored: true},
		{name: "expired token is skipped", expiresAt: now.Add(-time.Second)},
		{name: "token expiring now is skipped", expiresAt: now},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFakeRedis()
			r := NewRedisRevoker(fake)
			r.now = func() time.Time { return now }

			require.NoError(t, r.Revoke(ctx, "jti-1", tt.expiresAt))

			ttl, ok := fake.ttls["docsmanager:revoked:jti-1"]
			assert.Equal(t, tt.stored, ok)
			assert.Equal(t, tt.wantTTL, ttl)

			revoked, err := r.IsRevoked(ctx, "jti-1")
			require.NoError(t, err)
			assert.Equal(t, tt.stored, revoked)
		})
	}

	t.Run("other ids are not revoked", func(t *testing.T) {
		fake := newFakeRedis()
		r := NewRedisRevoker(fake)
		require.NoError(t, r.Revoke(ctx, "jti-1", time.Now().Add(time.Hour)))

		revoked, err := r.IsRevoked(ctx, "jti-2")
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("redis errors are wrapped", func(t *testing.T) {
		fake := newFakeRedis()
		fake.err = errors.New("connection refused")
		r := NewRedisRevoker(fake)

		err := r.Revoke(ctx, "jti-1", time.Now().Add(time.Hour))
		assert.ErrorContains(t, err, "revoke session: connection refused")

		_, err = r.IsRevoked(ctx, "jti-1")
		assert.ErrorContains(t, err, "check session revocation: connection refused")
	})
}
