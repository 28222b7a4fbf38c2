package generation

import (
	"context"
	"errors"
	"testing"
)

func TestPreferredModelPrefersFlash(t *testing.T) {
	got, err := PreferredModel([]Model{
		{Name: "models/gemini-1.0-pro", Methods: []string{MethodGenerateContent}},
		{Name: "models/gemini-1.5-flash", Methods: []string{MethodGenerateContent}},
	})
	if err != nil {
		t.Fatalf("PreferredModel() error = %v", err)
	}
	if got != "models/gemini-1.5-flash" {
		t.Fatalf("PreferredModel() = %q", got)
	}
}

func TestPreferredModelFallsBackToProThenFirst(t *testing.T) {
	got, err := PreferredModel([]Model{
		{Name: "models/text-bison", Methods: []string{MethodGenerateContent}},
		{Name: "models/gemini-pro", Methods: []string{MethodGenerateContent}},
	})
	if err != nil {
		t.Fatalf("PreferredModel() error = %v", err)
	}
	if got != "models/gemini-pro" {
		t.Fatalf("PreferredModel() = %q", got)
	}

	got, err = PreferredModel([]Model{
		{Name: "models/text-bison", Methods: []string{MethodGenerateContent}},
		{Name: "models/chat-bison", Methods: []string{MethodGenerateContent}},
	})
	if err != nil {
		t.Fatalf("PreferredModel() error = %v", err)
	}
	if got != "models/text-bison" {
		t.Fatalf("PreferredModel() = %q", got)
	}
}

func TestPreferredModelIgnoresModelsWithoutGenerateContent(t *testing.T) {
	got, err := PreferredModel([]Model{
		{Name: "models/embedding-flash", Methods: []string{"embedContent"}},
		{Name: "models/gemini-pro", Methods: []string{MethodGenerateContent}},
	})
	if err != nil {
		t.Fatalf("PreferredModel() error = %v", err)
	}
	if got != "models/gemini-pro" {
		t.Fatalf("PreferredModel() = %q", got)
	}
}

func TestSelectModelWithoutUsableModels(t *testing.T) {
	client := &listClient{models: []Model{{Name: "models/embedding-001", Methods: []string{"embedContent"}}}}
	_, err := SelectModel(context.Background(), client)
	if !errors.Is(err, ErrNoModels) {
		t.Fatalf("SelectModel() error = %v, want ErrNoModels", err)
	}

	_, err = SelectModel(context.Background(), &listClient{})
	if !errors.Is(err, ErrNoModels) {
		t.Fatalf("SelectModel(empty) error = %v, want ErrNoModels", err)
	}
}

func TestSelectModelPropagatesListingError(t *testing.T) {
	listErr := errors.New("permission denied")
	_, err := SelectModel(context.Background(), &listClient{err: listErr})
	if !errors.Is(err, listErr) {
		t.Fatalf("SelectModel() error = %v, want %v", err, listErr)
	}
}

type listClient struct {
	models []Model
	err    error
}

func (c *listClient) ListModels(context.Context) ([]Model, error) {
	return c.models, c.err
}

func (c *listClient) Generate(context.Context, string, string) (string, error) {
	return "", errors.New("unexpected generate")
}
