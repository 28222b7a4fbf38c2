package chat

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

var ErrSessionBusy = errors.New("session is processing another submission")

type State string

const (
	StateIdle       State = "idle"
	StateProcessing State = "processing"
)

// Session is one conversation. Its turn history only grows, and at most
// one submission is in flight at a time.
type Session struct {
	id        string
	model     string
	createdAt time.Time

	busy  atomic.Bool
	mu    sync.RWMutex
	turns []Turn
}

func newSession(model string, now time.Time) *Session {
	return &Session{
		id:        uuid.NewString(),
		model:     model,
		createdAt: now,
		turns:     []Turn{{Role: RoleAssistant, Text: Greeting, CreatedAt: now}},
	}
}

func (s *Session) ID() string { return s.id }

// Model is the generation model fixed for the session's lifetime. It is
// empty when no model could be selected at startup.
func (s *Session) Model() string { return s.model }

func (s *Session) CreatedAt() time.Time { return s.createdAt }

func (s *Session) State() State {
	if s.busy.Load() {
		return StateProcessing
	}
	return StateIdle
}

// Turns returns a copy of the history in display order.
func (s *Session) Turns() []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

func (s *Session) append(turn Turn) {
	s.mu.Lock()
	s.turns = append(s.turns, turn)
	s.mu.Unlock()
}

func (s *Session) begin() error {
	if !s.busy.CompareAndSwap(false, true) {
		return ErrSessionBusy
	}
	return nil
}

func (s *Session) end() {
	s.busy.Store(false)
}
