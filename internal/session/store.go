// Package session keeps per-session tax-rate overrides in memory. Values are
// opaque to the projection code; the store only remembers what the client
// last wrote.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/comp-calculator/pkg/finance"
	"go.uber.org/zap"
)

// Store reads and writes tax-rate overrides keyed by session ID.
type Store interface {
	Get(id string) (finance.TaxRates, bool)
	Put(id string, rates finance.TaxRates)
}

type entry struct {
	rates   finance.TaxRates
	touched time.Time
}

// MemoryStore is a Store that forgets sessions idle longer than its TTL.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
	logger  *zap.Logger
}

// NewMemoryStore creates an empty store. A non-positive ttl keeps sessions
// for the life of the process.
func NewMemoryStore(logger *zap.Logger, ttl time.Duration) *MemoryStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryStore{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
		logger:  logger,
	}
}

// NewID mints a fresh session ID.
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id looks like an ID minted by NewID.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Get returns the overrides stored for id.
func (s *MemoryStore) Get(id string) (finance.TaxRates, bool) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok || s.expired(e) {
		return finance.TaxRates{}, false
	}
	return e.rates, true
}

// Put replaces the overrides for id and evicts idle sessions.
func (s *MemoryStore) Put(id string, rates finance.TaxRates) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[id] = entry{rates: rates, touched: s.now()}
	for key, e := range s.entries {
		if s.expired(e) {
			delete(s.entries, key)
			s.logger.Debug("evicted idle session",
				zap.String("op", "session.Put"),
				zap.String("session", key),
			)
		}
	}
}

// Len returns the number of sessions held, including idle ones not yet evicted.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *MemoryStore) expired(e entry) bool {
	return s.ttl > 0 && s.now().Sub(e.touched) > s.ttl
}
