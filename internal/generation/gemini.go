package generation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

const (
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"
	geminiAPIVersion     = "v1beta"
	geminiListPageSize   = 100
)

// Gemini talks to the Google Generative Language API through the genai SDK.
type Gemini struct {
	client      *genai.Client
	temperature float32
}

func NewGemini(cfg Config) (*Gemini, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("generation api key is required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultGeminiBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: timeout},
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    baseURL + "/",
			APIVersion: geminiAPIVersion,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Gemini{client: client, temperature: float32(cfg.Temperature)}, nil
}

// ListModels walks every page of the model listing.
func (g *Gemini) ListModels(ctx context.Context) ([]Model, error) {
	page, err := g.client.Models.List(ctx, &genai.ListModelsConfig{PageSize: geminiListPageSize})
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	var models []Model
	for {
		for _, item := range page.Items {
			if item == nil {
				continue
			}
			models = append(models, Model{Name: item.Name, Methods: item.SupportedActions})
		}
		page, err = page.Next(ctx)
		if errors.Is(err, genai.ErrPageDone) {
			return models, nil
		}
		if err != nil {
			return nil, fmt.Errorf("list models: %w", err)
		}
	}
}

func (g *Gemini) Generate(ctx context.Context, model, prompt string) (string, error) {
	model = strings.TrimSpace(model)
	if model == "" {
		return "", fmt.Errorf("model is required")
	}

	resp, err := g.client.Models.GenerateContent(ctx, model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature: genai.Ptr(g.temperature),
	})
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("prompt blocked: %s", resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("empty generation candidates")
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("empty generation text (finish reason %s)", resp.Candidates[0].FinishReason)
	}
	return text, nil
}
