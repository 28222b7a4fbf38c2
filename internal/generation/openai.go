package generation

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// OpenAI talks to any OpenAI-compatible chat completions server.
type OpenAI struct {
	rest restClient
}

func NewOpenAI(cfg Config) (*OpenAI, error) {
	rest, err := newRESTClient(cfg, func(req *http.Request, apiKey string) {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	})
	if err != nil {
		return nil, err
	}
	return &OpenAI{rest: rest}, nil
}

// ListModels reports every served model as a generateContent model since
// the OpenAI listing carries no capability data.
func (o *OpenAI) ListModels(ctx context.Context) ([]Model, error) {
	var parsed struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := o.rest.do(ctx, http.MethodGet, "/v1/models", nil, &parsed); err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	models := make([]Model, 0, len(parsed.Data))
	for _, item := range parsed.Data {
		models = append(models, Model{Name: item.ID, Methods: []string{MethodGenerateContent}})
	}
	return models, nil
}

func (o *OpenAI) Generate(ctx context.Context, model, prompt string) (string, error) {
	model = strings.TrimSpace(model)
	if model == "" {
		return "", fmt.Errorf("model is required")
	}
	payload := map[string]any{
		"model": model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"temperature": o.rest.temperature,
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content *string `json:"content"`
			} `json:"message"`
			FinishReason string `json:"finish_reason"`
		} `json:"choices"`
	}
	if err := o.rest.do(ctx, http.MethodPost, "/v1/chat/completions", payload, &parsed); err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("empty chat completion choices")
	}
	choice := parsed.Choices[0]
	if choice.Message.Content == nil || strings.TrimSpace(*choice.Message.Content) == "" {
		return "", fmt.Errorf("empty chat completion content (finish reason %q)", choice.FinishReason)
	}
	return *choice.Message.Content, nil
}
