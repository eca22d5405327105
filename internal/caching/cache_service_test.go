package caching

import (
	"context"
	"testing"
	"time"

	"invoicelink/internal/models"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionKey(t *testing.T) {
	assert.Equal(t, "invoicelink:session:abc:user", sessionKey("abc"))
	assert.Equal(t, "invoicelink:ratelimit:login:x@y.test", rateLimitKey("login:x@y.test"))
}

func TestMemoryCache_SessionRoundTripAndExpiry(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClockAt(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	cache := NewMemoryCacheService(clock)

	session := &models.Session{
		ID:      "s1",
		Account: &models.Account{ID: uuid.New(), Email: "a@b.test", SubscriptionStatus: models.StatusTrial},
	}
	require.NoError(t, cache.SetSession(ctx, session, time.Hour))

	got, err := cache.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, session.Account.ID, got.Account.ID)
	assert.Equal(t, models.StatusTrial, got.Account.SubscriptionStatus)

	// callers get their own copy
	got.Account.Email = "changed@b.test"
	again, _ := cache.GetSession(ctx, "s1")
	assert.Equal(t, "a@b.test", again.Account.Email)

	clock.Advance(time.Hour)
	_, err = cache.GetSession(ctx, "s1")
	assert.ErrorIs(t, err, models.ErrSessionNotFound)
}

func TestMemoryCache_DeleteSession(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCacheService(clockwork.NewFakeClock())

	require.NoError(t, cache.SetSession(ctx, &models.Session{ID: "s2"}, time.Hour))
	require.NoError(t, cache.DeleteSession(ctx, "s2"))

	_, err := cache.GetSession(ctx, "s2")
	assert.ErrorIs(t, err, models.ErrSessionNotFound)
}

func TestMemoryCache_RateLimit(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClock()
	cache := NewMemoryCacheService(clock)

	for i := 0; i < 3; i++ {
		limited, err := cache.IsRateLimited(ctx, "login:a", 3, time.Minute)
		require.NoError(t, err)
		assert.False(t, limited, "attempt %d", i+1)
	}
	limited, _ := cache.IsRateLimited(ctx, "login:a", 3, time.Minute)
	assert.True(t, limited)

	clock.Advance(time.Minute)
	limited, _ = cache.IsRateLimited(ctx, "login:a", 3, time.Minute)
	assert.False(t, limited)

	require.NoError(t, cache.ResetRateLimit(ctx, "login:a"))
	assert.NoError(t, cache.Ping(ctx))
}

func TestRedisCache_UnreachableDoesNotLimit(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()
	cache := NewRedisCacheServiceFromClient(client, zerolog.Nop())

	limited, err := cache.IsRateLimited(context.Background(), "login:a", 3, time.Minute)

	assert.Error(t, err)
	assert.False(t, limited)
}
