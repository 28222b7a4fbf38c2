package nl2sql

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/smartfinance/smartfinance/internal/generation"
	"github.com/smartfinance/smartfinance/internal/observability"
)

// Translator turns a Spanish business question into a candidate SQL
// query. The candidate is not validated here.
type Translator struct {
	client  generation.Client
	prompts *Prompts
}

func NewTranslator(client generation.Client, prompts *Prompts) (*Translator, error) {
	if client == nil {
		return nil, fmt.Errorf("generation client is required")
	}
	if prompts == nil {
		return nil, fmt.Errorf("prompts are required")
	}
	return &Translator{client: client, prompts: prompts}, nil
}

func (t *Translator) Translate(ctx context.Context, model, question string) (string, error) {
	prompt, err := t.prompts.SQL(question)
	if err != nil {
		return "", err
	}

	start := time.Now()
	completion, err := t.client.Generate(ctx, model, prompt)
	observability.ObserveGeneration(observability.StageTranslate, time.Since(start), err)
	if err != nil {
		return "", err
	}
	return StripCodeFences(completion), nil
}

// StripCodeFences removes every ```sql and ``` marker and trims the rest.
func StripCodeFences(value string) string {
	value = strings.ReplaceAll(value, "```sql", "")
	value = strings.ReplaceAll(value, "```", "")
	return strings.TrimSpace(value)
}
