package session

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/carverhealth/medgate/domain"
)

func TestGetSeedsNewSession(t *testing.T) {
	s := NewStore(0)
	defer s.Close()

	msgs := s.Get("s1")
	if len(msgs) != 1 {
		t.Fatalf("expected seeded session, got %d messages", len(msgs))
	}
	if msgs[0].Role != domain.RoleSystem || msgs[0].Content != SeedSystemPrompt {
		t.Fatalf("unexpected seed message: %+v", msgs[0])
	}
}

func TestAppendPreservesOrder(t *testing.T) {
	s := NewStore(0)
	defer s.Close()

	s.Append("s1", domain.ChatMessage{Role: domain.RoleUser, Content: "I have a headache"})
	s.Append("s1", domain.ChatMessage{Role: domain.RoleAssistant, Content: "How long have you had it?"})
	s.Append("s1", domain.ChatMessage{Role: domain.RoleUser, Content: "what painkiller should I take?"})

	msgs := s.Get("s1")
	if len(msgs) != 4 {
		t.Fatalf("expected seed + 3 messages, got %d", len(msgs))
	}
	want := []string{domain.RoleSystem, domain.RoleUser, domain.RoleAssistant, domain.RoleUser}
	for i, role := range want {
		if msgs[i].Role != role {
			t.Fatalf("position %d: expected role %s, got %s", i, role, msgs[i].Role)
		}
	}
}

func TestSessionsAreIndependent(t *testing.T) {
	s := NewStore(0)
	defer s.Close()

	s.Append("a", domain.ChatMessage{Role: domain.RoleUser, Content: "fever"})
	s.Append("b", domain.ChatMessage{Role: domain.RoleUser, Content: "billing"})

	if got := len(s.Get("a")); got != 2 {
		t.Fatalf("session a: expected 2 messages, got %d", got)
	}
	if got := len(s.Get("b")); got != 2 {
		t.Fatalf("session b: expected 2 messages, got %d", got)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	s := NewStore(0)
	defer s.Close()

	s.Append("s1", domain.ChatMessage{Role: domain.RoleUser, Content: "original"})
	msgs := s.Get("s1")
	msgs[1].Content = "mutated"

	if got := s.Get("s1")[1].Content; got != "original" {
		t.Fatalf("store contents were mutated through the returned slice: %q", got)
	}
}

func TestEvictExpired(t *testing.T) {
	s := NewStore(time.Minute)
	defer s.Close()

	s.Append("old", domain.ChatMessage{Role: domain.RoleUser, Content: "hi"})
	s.Append("fresh", domain.ChatMessage{Role: domain.RoleUser, Content: "hi"})

	s.mu.Lock()
	s.sessions["old"].updatedAt = time.Now().Add(-2 * time.Minute)
	s.mu.Unlock()

	s.evictExpired(time.Now())

	if s.Len() != 1 {
		t.Fatalf("expected 1 live session, got %d", s.Len())
	}
	s.mu.RLock()
	_, oldAlive := s.sessions["old"]
	_, freshAlive := s.sessions["fresh"]
	s.mu.RUnlock()
	if oldAlive || !freshAlive {
		t.Fatalf("expected old evicted and fresh kept (old=%v fresh=%v)", oldAlive, freshAlive)
	}
}

func TestConcurrentAppend(t *testing.T) {
	s := NewStore(0)
	defer s.Close()

	const workers = 16
	const perWorker = 50

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				s.Append("shared", domain.ChatMessage{
					Role:    domain.RoleUser,
					Content: fmt.Sprintf("worker %d message %d", n, j),
				})
			}
		}(i)
	}
	wg.Wait()

	if got := len(s.Get("shared")); got != workers*perWorker+1 {
		t.Fatalf("expected %d messages, got %d", workers*perWorker+1, got)
	}
}
