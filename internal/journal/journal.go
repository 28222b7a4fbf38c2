package journal

import (
	"context"
	"time"
)

// Entry records the outcome of one submission. The journal is an audit
// trail; conversations are never restored from it.
type Entry struct {
	ID        string        `json:"id"`
	SessionID string        `json:"session_id"`
	Question  string        `json:"question"`
	Model     string        `json:"model"`
	SQL       string        `json:"sql,omitempty"`
	Outcome   string        `json:"outcome"`
	ErrorText string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration_ns"`
	CreatedAt time.Time     `json:"created_at"`
}

type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

type Reader interface {
	ListRecent(ctx context.Context, limit int) ([]Entry, error)
}

type Store interface {
	Recorder
	Reader
}

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// ClampLimit maps a requested page size into [1, MaxListLimit].
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

// Nop discards entries. It is used when no journal database is configured.
type Nop struct{}

func (Nop) Record(context.Context, Entry) error { return nil }

func (Nop) ListRecent(context.Context, int) ([]Entry, error) { return []Entry{}, nil }
