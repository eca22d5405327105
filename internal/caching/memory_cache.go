package caching

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"invoicelink/internal/models"

	"github.com/jonboulle/clockwork"
)

type entry struct {
	data      []byte
	count     int
	expiresAt time.Time
}

// memoryCacheService keeps sessions in process when no Redis is configured.
// Sessions are stored serialized so callers never share state with the cache.
type memoryCacheService struct {
	mu      sync.Mutex
	clock   clockwork.Clock
	entries map[string]*entry
}

func NewMemoryCacheService(clock clockwork.Clock) CacheService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &memoryCacheService{clock: clock, entries: make(map[string]*entry)}
}

// get returns a live entry; the caller holds mu.
func (m *memoryCacheService) get(key string) *entry {
	e, ok := m.entries[key]
	if !ok {
		return nil
	}
	if !e.expiresAt.IsZero() && !m.clock.Now().Before(e.expiresAt) {
		delete(m.entries, key)
		return nil
	}
	return e
}

func (m *memoryCacheService) expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return m.clock.Now().Add(ttl)
}

func (m *memoryCacheService) SetSession(_ context.Context, session *models.Session, ttl time.Duration) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[sessionKey(session.ID)] = &entry{data: data, expiresAt: m.expiry(ttl)}
	return nil
}

func (m *memoryCacheService) GetSession(_ context.Context, sessionID string) (*models.Session, error) {
	m.mu.Lock()
	e := m.get(sessionKey(sessionID))
	m.mu.Unlock()
	if e == nil {
		return nil, models.ErrSessionNotFound
	}

	var session models.Session
	if err := json.Unmarshal(e.data, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (m *memoryCacheService) DeleteSession(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, sessionKey(sessionID))
	return nil
}

func (m *memoryCacheService) IsRateLimited(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := rateLimitKey(key)
	e := m.get(k)
	if e == nil {
		e = &entry{expiresAt: m.expiry(window)}
		m.entries[k] = e
	}
	e.count++
	return e.count > limit, nil
}

func (m *memoryCacheService) ResetRateLimit(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, rateLimitKey(key))
	return nil
}

func (m *memoryCacheService) Ping(context.Context) error {
	return nil
}
