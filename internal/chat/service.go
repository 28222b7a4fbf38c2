package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/smartfinance/smartfinance/internal/answer"
	"github.com/smartfinance/smartfinance/internal/dataset"
	"github.com/smartfinance/smartfinance/internal/journal"
	"github.com/smartfinance/smartfinance/internal/observability"
)

var ErrEmptyInput = errors.New("input is empty")

type Translator interface {
	Translate(ctx context.Context, model, question string) (string, error)
}

type Answerer interface {
	Answer(ctx context.Context, model, question, candidate string) answer.Reply
}

type ServiceDeps struct {
	// Model is the identifier chosen at startup; empty means no model.
	Model      string
	Dataset    dataset.Accessor
	Translator Translator
	Answerer   Answerer
	Journal    journal.Recorder
	Logger     *slog.Logger
	Now        func() time.Time
}

// Service runs submissions for any number of sessions. It holds no
// per-session state of its own.
type Service struct {
	model      string
	dataset    dataset.Accessor
	translator Translator
	answerer   Answerer
	journal    journal.Recorder
	logger     *slog.Logger
	now        func() time.Time
}

func NewService(deps ServiceDeps) (*Service, error) {
	if deps.Dataset == nil {
		return nil, fmt.Errorf("dataset accessor is required")
	}
	if deps.Translator == nil {
		return nil, fmt.Errorf("translator is required")
	}
	if deps.Answerer == nil {
		return nil, fmt.Errorf("answerer is required")
	}
	if deps.Journal == nil {
		deps.Journal = journal.Nop{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if deps.Now == nil {
		deps.Now = func() time.Time { return time.Now().UTC() }
	}
	return &Service{
		model:      strings.TrimSpace(deps.Model),
		dataset:    deps.Dataset,
		translator: deps.Translator,
		answerer:   deps.Answerer,
		journal:    deps.Journal,
		logger:     deps.Logger,
		now:        deps.Now,
	}, nil
}

func (s *Service) Model() string {
	return s.model
}

// NewSession starts a conversation seeded with the greeting.
func (s *Service) NewSession() *Session {
	return newSession(s.model, s.now())
}

// Submit appends the user's turn and the assistant's reply to session and
// returns the reply. Processing failures are reported in the reply text;
// an error is returned only when nothing was appended.
func (s *Service) Submit(ctx context.Context, session *Session, input string) (Turn, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return Turn{}, ErrEmptyInput
	}
	if err := session.begin(); err != nil {
		return Turn{}, err
	}
	defer session.end()

	start := s.now()
	session.append(Turn{Role: RoleUser, Text: input, CreatedAt: start})

	ctx = observability.ContextWithSessionID(ctx, session.ID())
	reply := s.process(ctx, session.Model(), input)

	reply.Text = strings.TrimSpace(reply.Text)
	turn := Turn{Role: RoleAssistant, Text: reply.Text, CreatedAt: s.now()}
	if reply.HasSQL {
		turn.SQL = reply.SQL
	}
	session.append(turn)

	elapsed := turn.CreatedAt.Sub(start)
	s.record(ctx, session, input, reply, elapsed)
	return turn, nil
}

func (s *Service) process(ctx context.Context, model, input string) answer.Reply {
	if model == "" {
		return answer.Reply{Text: MessageNoModel, Outcome: answer.OutcomeRejected}
	}
	if err := s.dataset.Available(); err != nil {
		return answer.Reply{Text: MessageNoDataset, Outcome: answer.OutcomeRejected, Err: err}
	}

	candidate, err := s.translator.Translate(ctx, model, input)
	if err != nil {
		return answer.TechnicalError(err)
	}
	return s.answerer.Answer(ctx, model, input, candidate)
}

func (s *Service) record(ctx context.Context, session *Session, input string, reply answer.Reply, elapsed time.Duration) {
	observability.ObserveSubmission(string(reply.Outcome))

	entry := journal.Entry{
		SessionID: session.ID(),
		Question:  input,
		Model:     session.Model(),
		SQL:       reply.SQL,
		Outcome:   string(reply.Outcome),
		Duration:  elapsed,
	}
	if reply.Err != nil {
		entry.ErrorText = reply.Err.Error()
	}

	attrs := append(observability.RequestAttrs(ctx),
		"outcome", entry.Outcome,
		"model", entry.Model,
		"duration_ms", elapsed.Milliseconds(),
	)
	if reply.Err != nil {
		s.logger.WarnContext(ctx, "submission failed", append(attrs, "error", reply.Err.Error())...)
	} else {
		s.logger.InfoContext(ctx, "submission processed", attrs...)
	}

	if err := s.journal.Record(ctx, entry); err != nil {
		s.logger.ErrorContext(ctx, "journal record failed", append(observability.RequestAttrs(ctx), "error", err.Error())...)
	}
}
