package answer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/smartfinance/smartfinance/internal/dataset"
	"github.com/smartfinance/smartfinance/internal/generation"
	"github.com/smartfinance/smartfinance/internal/nl2sql"
	"github.com/smartfinance/smartfinance/internal/observability"
)

// ErrEmptyExplanation reports a summary completion with no text.
var ErrEmptyExplanation = errors.New("empty explanation from model")

const (
	MessageRefusal = "No pude generar una consulta SQL válida. Solo puedo dar información de Trade Alliance Corporation y se encuentren la base de datos"
	MessageNoData  = "La consulta es válida pero no hay datos (verifica filtros)."
)

type Outcome string

const (
	OutcomeAnswered Outcome = "answered"
	OutcomeEmpty    Outcome = "empty"
	OutcomeRefused  Outcome = "refused"
	OutcomeFailed   Outcome = "failed"
	// OutcomeRejected marks submissions refused before translation.
	OutcomeRejected Outcome = "rejected"
)

// Reply is the user-facing text of one answered question plus the
// executed SQL when there is one to show.
type Reply struct {
	Text    string
	SQL     string
	HasSQL  bool
	Outcome Outcome
	Err     error
}

// TechnicalError builds the reply shown for any unexpected failure.
// It never carries SQL.
func TechnicalError(err error) Reply {
	return Reply{
		Text:    fmt.Sprintf("Error técnico: %s", err),
		Outcome: OutcomeFailed,
		Err:     err,
	}
}

type Answerer struct {
	accessor dataset.Accessor
	client   generation.Client
	prompts  *nl2sql.Prompts
}

func New(accessor dataset.Accessor, client generation.Client, prompts *nl2sql.Prompts) (*Answerer, error) {
	if accessor == nil {
		return nil, fmt.Errorf("dataset accessor is required")
	}
	if client == nil {
		return nil, fmt.Errorf("generation client is required")
	}
	if prompts == nil {
		return nil, fmt.Errorf("prompts are required")
	}
	return &Answerer{accessor: accessor, client: client, prompts: prompts}, nil
}

// Answer checks the candidate's shape, runs it and asks model to summarize
// the rows. It never returns an error; failures become the reply text.
func (a *Answerer) Answer(ctx context.Context, model, question, candidate string) Reply {
	candidate = strings.TrimSpace(candidate)
	if !strings.HasPrefix(strings.ToUpper(candidate), "SELECT") {
		return Reply{Text: MessageRefusal, Outcome: OutcomeRefused}
	}

	result, err := a.accessor.Query(ctx, candidate)
	if err != nil {
		return TechnicalError(err)
	}
	if result.Empty() {
		return Reply{Text: MessageNoData, SQL: candidate, HasSQL: true, Outcome: OutcomeEmpty}
	}

	prompt, err := a.prompts.Explain(question, dataset.Render(result))
	if err != nil {
		return TechnicalError(err)
	}
	start := time.Now()
	explanation, err := a.client.Generate(ctx, model, prompt)
	observability.ObserveGeneration(observability.StageExplain, time.Since(start), err)
	if err != nil {
		return TechnicalError(err)
	}
	if strings.TrimSpace(explanation) == "" {
		return TechnicalError(ErrEmptyExplanation)
	}
	return Reply{Text: explanation, SQL: candidate, HasSQL: true, Outcome: OutcomeAnswered}
}
