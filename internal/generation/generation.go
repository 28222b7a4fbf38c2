package generation

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	MethodGenerateContent = "generateContent"
)

var ErrNoModels = errors.New("no model supports generateContent")

// Client is a stateless text generation backend. Every Generate call sends
// one fresh prompt without conversation history.
type Client interface {
	ListModels(ctx context.Context) ([]Model, error)
	Generate(ctx context.Context, model, prompt string) (string, error)
}

type Model struct {
	Name    string
	Methods []string
}

func (m Model) Supports(method string) bool {
	return slices.Contains(m.Methods, method)
}

type Config struct {
	Provider    string
	BaseURL     string
	APIKey      string
	Temperature float64
	Timeout     time.Duration
}

func New(cfg Config) (Client, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderGemini:
		return NewGemini(cfg)
	case ProviderOpenAI:
		return NewOpenAI(cfg)
	default:
		return nil, fmt.Errorf("unsupported generation provider %q", cfg.Provider)
	}
}
