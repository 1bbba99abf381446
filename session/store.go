// Package session holds server-side conversation state for the stateful
// proxy variant. Sessions live in memory for the process lifetime; an
// optional TTL janitor evicts idle ones.
package session

import (
	"sync"
	"time"

	"github.com/carverhealth/medgate/domain"
)

// SeedSystemPrompt opens every session's conversation.
const SeedSystemPrompt = "You are a helpful medical assistant. Answer questions about symptoms, conditions, medications, procedures, medical coding, and insurance billing clearly and accurately. Recommend consulting a healthcare professional for diagnosis and treatment decisions."

type entry struct {
	messages  []domain.ChatMessage
	updatedAt time.Time
}

// Store is a mutex-guarded in-memory session map.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	ttl      time.Duration
	done     chan struct{}
	stopOnce sync.Once
}

// NewStore creates a store. ttl of zero disables eviction.
func NewStore(ttl time.Duration) *Store {
	s := &Store{
		sessions: make(map[string]*entry),
		ttl:      ttl,
		done:     make(chan struct{}),
	}
	if ttl > 0 {
		go s.janitor()
	}
	return s
}

// Append adds a message to the session, creating it with the seeded system
// message if absent.
func (s *Store) Append(sessionID string, msg domain.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.getOrSeedLocked(sessionID)
	e.messages = append(e.messages, msg)
	e.updatedAt = time.Now()
}

// Get returns a copy of the session's ordered message list, creating the
// seeded session if absent.
func (s *Store) Get(sessionID string) []domain.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.getOrSeedLocked(sessionID)
	out := make([]domain.ChatMessage, len(e.messages))
	copy(out, e.messages)
	return out
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close stops the eviction janitor.
func (s *Store) Close() {
	s.stopOnce.Do(func() { close(s.done) })
}

func (s *Store) getOrSeedLocked(sessionID string) *entry {
	e, ok := s.sessions[sessionID]
	if !ok {
		e = &entry{
			messages:  []domain.ChatMessage{{Role: domain.RoleSystem, Content: SeedSystemPrompt}},
			updatedAt: time.Now(),
		}
		s.sessions[sessionID] = e
	}
	return e
}

func (s *Store) janitor() {
	interval := s.ttl / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.evictExpired(time.Now())
		}
	}
}

func (s *Store) evictExpired(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.sessions {
		if now.Sub(e.updatedAt) > s.ttl {
			delete(s.sessions, id)
		}
	}
}
