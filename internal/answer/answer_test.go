package answer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/smartfinance/smartfinance/internal/dataset"
	"github.com/smartfinance/smartfinance/internal/generation"
	"github.com/smartfinance/smartfinance/internal/nl2sql"
)

func TestAnswerRefusesNonSelect(t *testing.T) {
	for _, candidate := range []string{
		"Lo siento, no tengo esa información.",
		"DELETE FROM CFO_SAP_PYL",
		"",
		"WITH t AS (SELECT 1) SELECT * FROM t",
	} {
		accessor := &fakeAccessor{}
		client := &fakeClient{}
		reply := newTestAnswerer(t, accessor, client).Answer(context.Background(), "m", "q", candidate)

		if reply.Text != MessageRefusal {
			t.Fatalf("Answer(%q).Text = %q", candidate, reply.Text)
		}
		if reply.HasSQL || reply.SQL != "" {
			t.Fatalf("Answer(%q) should not carry SQL: %#v", candidate, reply)
		}
		if reply.Outcome != OutcomeRefused {
			t.Fatalf("Outcome = %q", reply.Outcome)
		}
		if accessor.calls != 0 || len(client.prompts) != 0 {
			t.Fatalf("refused candidate reached accessor=%d generator=%d", accessor.calls, len(client.prompts))
		}
	}
}

func TestAnswerShapeCheckIsCaseInsensitive(t *testing.T) {
	accessor := &fakeAccessor{result: dataset.Result{Columns: []string{"c"}}}
	reply := newTestAnswerer(t, accessor, &fakeClient{}).Answer(context.Background(), "m", "q", "  select 1 ")
	if reply.Outcome != OutcomeEmpty {
		t.Fatalf("Outcome = %q, want empty", reply.Outcome)
	}
	if accessor.lastSQL != "select 1" {
		t.Fatalf("executed SQL = %q", accessor.lastSQL)
	}
}

func TestAnswerEmptyResultCarriesSQL(t *testing.T) {
	sqlText := "SELECT SUM(IMPORTE) FROM CFO_SAP_PYL WHERE ANIO = 1999"
	client := &fakeClient{}
	accessor := &fakeAccessor{result: dataset.Result{Columns: []string{"SUM(IMPORTE)"}}}

	reply := newTestAnswerer(t, accessor, client).Answer(context.Background(), "m", "q", sqlText)
	if reply.Text != MessageNoData {
		t.Fatalf("Text = %q", reply.Text)
	}
	if !reply.HasSQL || reply.SQL != sqlText {
		t.Fatalf("SQL = %q HasSQL = %v", reply.SQL, reply.HasSQL)
	}
	if len(client.prompts) != 0 {
		t.Fatal("empty result should not be summarized")
	}
}

func TestAnswerExplainsRowsWithSameModel(t *testing.T) {
	sqlText := "SELECT SUM(IMPORTE) AS VENTAS FROM CFO_SAP_PYL WHERE UPPER(DICCIONARIO_COUNTRY) = 'ARGENTINA' AND MES_ID = 202405"
	client := &fakeClient{completion: "Las ventas de Argentina en mayo 2024 fueron USD 1.500.000."}
	accessor := &fakeAccessor{result: dataset.Result{Columns: []string{"VENTAS"}, Rows: [][]any{{1500000.0}}}}

	reply := newTestAnswerer(t, accessor, client).Answer(context.Background(), "models/gemini-1.5-flash", "Ventas de Argentina en Mayo 2024", sqlText)
	if reply.Outcome != OutcomeAnswered {
		t.Fatalf("Outcome = %q, err = %v", reply.Outcome, reply.Err)
	}
	if reply.Text != client.completion {
		t.Fatalf("Text = %q", reply.Text)
	}
	if reply.SQL != sqlText || !reply.HasSQL {
		t.Fatalf("SQL = %q", reply.SQL)
	}
	if len(client.models) != 1 || client.models[0] != "models/gemini-1.5-flash" {
		t.Fatalf("models = %#v", client.models)
	}
	prompt := client.prompts[0]
	if !strings.Contains(prompt, "máximo 3 líneas") || !strings.Contains(prompt, "Pregunta: Ventas de Argentina en Mayo 2024") {
		t.Fatalf("explain prompt = %q", prompt)
	}
	if !strings.Contains(prompt, "VENTAS") || !strings.Contains(prompt, "1500000") {
		t.Fatalf("explain prompt does not embed data: %q", prompt)
	}
}

func TestAnswerEmbedsDriverError(t *testing.T) {
	client := &fakeClient{}
	accessor := &fakeAccessor{err: errors.New("no such column: FOO")}

	reply := newTestAnswerer(t, accessor, client).Answer(context.Background(), "m", "q", "SELECT FOO FROM CFO_SAP_PYL")
	if reply.Text != "Error técnico: no such column: FOO" {
		t.Fatalf("Text = %q", reply.Text)
	}
	if reply.HasSQL || reply.SQL != "" {
		t.Fatalf("technical error should not carry SQL: %#v", reply)
	}
	if reply.Outcome != OutcomeFailed {
		t.Fatalf("Outcome = %q", reply.Outcome)
	}
	if len(client.prompts) != 0 {
		t.Fatal("failed query should not be summarized")
	}
}

func TestAnswerSummaryFailureDropsSQL(t *testing.T) {
	client := &fakeClient{err: errors.New("deadline exceeded")}
	accessor := &fakeAccessor{result: dataset.Result{Columns: []string{"c"}, Rows: [][]any{{int64(1)}}}}

	reply := newTestAnswerer(t, accessor, client).Answer(context.Background(), "m", "q", "SELECT 1")
	if reply.Text != "Error técnico: deadline exceeded" {
		t.Fatalf("Text = %q", reply.Text)
	}
	if reply.HasSQL {
		t.Fatal("summary failure should not carry SQL")
	}
}

func TestAnswerEmptySummaryIsTechnicalError(t *testing.T) {
	for _, completion := range []string{"", " \n\t"} {
		client := &fakeClient{completion: completion}
		accessor := &fakeAccessor{result: dataset.Result{Columns: []string{"c"}, Rows: [][]any{{int64(1)}}}}

		reply := newTestAnswerer(t, accessor, client).Answer(context.Background(), "m", "q", "SELECT 1")
		if reply.Outcome != OutcomeFailed || !errors.Is(reply.Err, ErrEmptyExplanation) {
			t.Fatalf("completion %q: reply = %#v", completion, reply)
		}
		if reply.HasSQL || reply.Text == "" {
			t.Fatalf("completion %q: reply = %#v", completion, reply)
		}
	}
}

func newTestAnswerer(t *testing.T, accessor dataset.Accessor, client generation.Client) *Answerer {
	t.Helper()
	prompts, err := nl2sql.LoadPrompts("")
	if err != nil {
		t.Fatalf("LoadPrompts() error = %v", err)
	}
	answerer, err := New(accessor, client, prompts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return answerer
}

type fakeAccessor struct {
	result  dataset.Result
	err     error
	calls   int
	lastSQL string
}

func (f *fakeAccessor) Available() error { return nil }

func (f *fakeAccessor) Query(_ context.Context, sqlText string) (dataset.Result, error) {
	f.calls++
	f.lastSQL = sqlText
	return f.result, f.err
}

type fakeClient struct {
	completion string
	err        error
	models     []string
	prompts    []string
}

func (f *fakeClient) ListModels(context.Context) ([]generation.Model, error) { return nil, nil }

func (f *fakeClient) Generate(_ context.Context, model, prompt string) (string, error) {
	f.models = append(f.models, model)
	f.prompts = append(f.prompts, prompt)
	return f.completion, f.err
}
