package chat

import (
	"errors"
	"testing"
	"time"
)

func TestNewSessionStartsWithGreeting(t *testing.T) {
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	session := newSession("models/gemini-1.5-flash", now)

	if session.ID() == "" {
		t.Fatal("ID() is empty")
	}
	if session.Model() != "models/gemini-1.5-flash" {
		t.Fatalf("Model() = %q", session.Model())
	}
	turns := session.Turns()
	if len(turns) != 1 || turns[0].Role != RoleAssistant || turns[0].Text != Greeting || turns[0].HasSQL() {
		t.Fatalf("turns = %#v", turns)
	}
	if session.State() != StateIdle {
		t.Fatalf("State() = %q", session.State())
	}
}

func TestSessionTurnsReturnsCopy(t *testing.T) {
	session := newSession("m", time.Now())
	turns := session.Turns()
	turns[0].Text = "changed"
	if session.Turns()[0].Text != Greeting {
		t.Fatal("Turns() exposed internal slice")
	}
}

func TestSessionBeginIsExclusive(t *testing.T) {
	session := newSession("m", time.Now())
	if err := session.begin(); err != nil {
		t.Fatalf("begin() error = %v", err)
	}
	if err := session.begin(); !errors.Is(err, ErrSessionBusy) {
		t.Fatalf("second begin() error = %v, want ErrSessionBusy", err)
	}
	session.end()
	if err := session.begin(); err != nil {
		t.Fatalf("begin() after end() error = %v", err)
	}
}

func TestRegistryGet(t *testing.T) {
	registry := NewRegistry()
	session := newSession("m", time.Now())
	registry.Add(session)

	got, err := registry.Get(session.ID())
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != session {
		t.Fatal("Get() returned a different session")
	}
	if _, err := registry.Get("missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("Get(missing) error = %v, want ErrSessionNotFound", err)
	}
	if registry.Len() != 1 {
		t.Fatalf("Len() = %d", registry.Len())
	}
}

func TestRegistryExpiresIdleSessions(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	registry := NewRegistryWithConfig(RegistryConfig{IdleTTL: 10 * time.Minute, Now: func() time.Time { return now }})
	stale := newSession("m", now)
	busy := newSession("m", now)
	registry.Add(stale)
	registry.Add(busy)
	if err := busy.begin(); err != nil {
		t.Fatalf("begin() error = %v", err)
	}

	now = now.Add(9 * time.Minute)
	if _, err := registry.Get(stale.ID()); err != nil {
		t.Fatalf("Get() within ttl error = %v", err)
	}

	now = now.Add(11 * time.Minute)
	if _, err := registry.Get(stale.ID()); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("Get(expired) error = %v, want ErrSessionNotFound", err)
	}
	if _, err := registry.Get(busy.ID()); err != nil {
		t.Fatalf("Get(busy) error = %v", err)
	}
	if registry.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", registry.Len())
	}
}

func TestRegistryEvictsLeastRecentlyUsedAtCapacity(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	registry := NewRegistryWithConfig(RegistryConfig{MaxSessions: 2, Now: func() time.Time { return now }})
	first := newSession("m", now)
	registry.Add(first)
	now = now.Add(time.Second)
	second := newSession("m", now)
	registry.Add(second)

	now = now.Add(time.Second)
	if _, err := registry.Get(first.ID()); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	now = now.Add(time.Second)
	third := newSession("m", now)
	registry.Add(third)

	if registry.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", registry.Len())
	}
	if _, err := registry.Get(second.ID()); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("Get(second) error = %v, want ErrSessionNotFound", err)
	}
	for _, session := range []*Session{first, third} {
		if _, err := registry.Get(session.ID()); err != nil {
			t.Fatalf("Get(%s) error = %v", session.ID(), err)
		}
	}
}
