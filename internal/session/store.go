package session

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type entry[T any] struct {
	value    T
	lastSeen time.Time
}

// Store keeps one value per browser session and forgets sessions that have
// been idle for longer than the TTL. When a limit is set, creating an entry
// past it evicts the least recently used one. Nothing is persisted.
type Store[T any] struct {
	mu      sync.Mutex
	entries map[string]*entry[T]
	ttl     time.Duration
	limit   int
	factory func(key string) T
	now     func() time.Time
	name    string
	log     *logrus.Logger
}

type Option func(*options)

type options struct {
	limit int
}

// WithLimit caps the number of live entries. Zero means no cap.
func WithLimit(n int) Option {
	return func(o *options) { o.limit = n }
}

func NewStore[T any](name string, ttl time.Duration, factory func(key string) T, logger *logrus.Logger, opts ...Option) *Store[T] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return &Store[T]{
		entries: make(map[string]*entry[T]),
		ttl:     ttl,
		limit:   o.limit,
		factory: factory,
		now:     time.Now,
		name:    name,
		log:     logger,
	}
}

// SetClock replaces the time source; used by tests.
func (s *Store[T]) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Get returns the value for key, creating it on first use.
func (s *Store[T]) Get(key string) T {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		if s.limit > 0 && len(s.entries) >= s.limit {
			s.evictOldest()
		}
		e = &entry[T]{value: s.factory(key)}
		s.entries[key] = e
		s.log.Debugf("SessionStore(%s): created entry", s.name)
	}
	e.lastSeen = s.now()
	return e.value
}

// View returns the value for key without creating an entry. An unknown key
// gets a fresh value from the factory that is not kept.
func (s *Store[T]) View(key string) T {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[key]; ok {
		e.lastSeen = s.now()
		return e.value
	}
	return s.factory(key)
}

func (s *Store[T]) evictOldest() {
	var (
		oldestKey string
		oldest    time.Time
		found     bool
	)
	for key, e := range s.entries {
		if !found || e.lastSeen.Before(oldest) {
			oldestKey, oldest, found = key, e.lastSeen, true
		}
	}
	delete(s.entries, oldestKey)
	s.log.Warnf("SessionStore(%s): limit of %d reached, evicted least recently used entry", s.name, s.limit)
}

func (s *Store[T]) Peek(key string) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		var zero T
		return zero, false
	}
	return e.value, true
}

func (s *Store[T]) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

func (s *Store[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep drops idle entries and returns how many were removed.
func (s *Store[T]) Sweep() int {
	if s.ttl <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.ttl)
	removed := 0
	for key, e := range s.entries {
		if e.lastSeen.Before(cutoff) {
			delete(s.entries, key)
			removed++
		}
	}
	if removed > 0 {
		s.log.Infof("SessionStore(%s): evicted %d idle entries", s.name, removed)
	}
	return removed
}
