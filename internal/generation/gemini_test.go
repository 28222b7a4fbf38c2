package generation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGeminiListModelsFollowsPages(t *testing.T) {
	var tokens []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1beta/models" {
			t.Fatalf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("x-goog-api-key"); got != "g-key" {
			t.Fatalf("api key header = %q", got)
		}
		token := r.URL.Query().Get("pageToken")
		tokens = append(tokens, token)
		w.Header().Set("Content-Type", "application/json")
		if token == "" {
			_, _ = w.Write([]byte(`{"models":[{"name":"models/embedding-001","supportedGenerationMethods":["embedContent"]}],"nextPageToken":"p2"}`))
			return
		}
		_, _ = w.Write([]byte(`{"models":[{"name":"models/gemini-1.5-flash","supportedGenerationMethods":["generateContent","countTokens"]}]}`))
	}))
	defer server.Close()

	client, err := NewGemini(Config{BaseURL: server.URL + "/", APIKey: "g-key"})
	if err != nil {
		t.Fatalf("NewGemini() error = %v", err)
	}
	models, err := client.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels() error = %v", err)
	}
	if len(models) != 2 {
		t.Fatalf("models = %#v", models)
	}
	if models[0].Supports(MethodGenerateContent) {
		t.Fatal("embedding model should not support generateContent")
	}
	if !models[1].Supports(MethodGenerateContent) || models[1].Name != "models/gemini-1.5-flash" {
		t.Fatalf("models[1] = %#v", models[1])
	}
	if len(tokens) != 2 || tokens[1] != "p2" {
		t.Fatalf("page tokens = %#v", tokens)
	}
}

func TestGeminiGenerateSendsSinglePromptAndJoinsParts(t *testing.T) {
	var payload struct {
		Contents []struct {
			Role  string `json:"role"`
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"contents"`
		GenerationConfig struct {
			Temperature float64 `json:"temperature"`
		} `json:"generationConfig"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("method = %s", r.Method)
		}
		if r.URL.Path != "/v1beta/models/gemini-1.5-flash:generateContent" {
			t.Fatalf("path = %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"SELECT "},{"text":"1"}]},"finishReason":"STOP"}]}`))
	}))
	defer server.Close()

	client, err := NewGemini(Config{BaseURL: server.URL, APIKey: "g-key", Temperature: 0.2})
	if err != nil {
		t.Fatalf("NewGemini() error = %v", err)
	}
	text, err := client.Generate(context.Background(), "gemini-1.5-flash", "Pregunta: ventas")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if text != "SELECT 1" {
		t.Fatalf("Generate() = %q", text)
	}
	if len(payload.Contents) != 1 || payload.Contents[0].Role != "user" || payload.Contents[0].Parts[0].Text != "Pregunta: ventas" {
		t.Fatalf("payload contents = %#v", payload.Contents)
	}
	if payload.GenerationConfig.Temperature != 0.2 {
		t.Fatalf("temperature = %f", payload.GenerationConfig.Temperature)
	}
}

func TestGeminiGenerateKeepsQualifiedModelName(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1beta/models/gemini-pro:generateContent" {
			t.Fatalf("path = %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`))
	}))
	defer server.Close()

	client, err := NewGemini(Config{BaseURL: server.URL, APIKey: "g-key"})
	if err != nil {
		t.Fatalf("NewGemini() error = %v", err)
	}
	if _, err := client.Generate(context.Background(), "models/gemini-pro", "hola"); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
}

func TestGeminiGenerateReportsBlockedPrompt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"promptFeedback":{"blockReason":"SAFETY"}}`))
	}))
	defer server.Close()

	client, err := NewGemini(Config{BaseURL: server.URL, APIKey: "g-key"})
	if err != nil {
		t.Fatalf("NewGemini() error = %v", err)
	}
	_, err = client.Generate(context.Background(), "models/gemini-1.5-flash", "x")
	if err == nil || !strings.Contains(err.Error(), "SAFETY") {
		t.Fatalf("Generate() error = %v", err)
	}
}

func TestGeminiSurfacesAPIErrorMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"API key not valid. Please pass a valid API key.","status":"INVALID_ARGUMENT"}}`))
	}))
	defer server.Close()

	client, err := NewGemini(Config{BaseURL: server.URL, APIKey: "bad"})
	if err != nil {
		t.Fatalf("NewGemini() error = %v", err)
	}
	_, err = client.ListModels(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "400") || !strings.Contains(err.Error(), "API key not valid") {
		t.Fatalf("ListModels() error = %v", err)
	}
}

func TestGeminiGenerateRejectsEmptyText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"  "}]},"finishReason":"MAX_TOKENS"}]}`))
	}))
	defer server.Close()

	client, err := NewGemini(Config{BaseURL: server.URL, APIKey: "g-key"})
	if err != nil {
		t.Fatalf("NewGemini() error = %v", err)
	}
	_, err = client.Generate(context.Background(), "gemini-1.5-flash", "x")
	if err == nil || !strings.Contains(err.Error(), "MAX_TOKENS") {
		t.Fatalf("Generate() error = %v", err)
	}
}

func TestNewGeminiRequiresAPIKey(t *testing.T) {
	if _, err := NewGemini(Config{BaseURL: "https://example.com"}); err == nil {
		t.Fatal("expected api key error")
	}
	if _, err := NewGemini(Config{APIKey: "k"}); err != nil {
		t.Fatalf("NewGemini() without base URL error = %v", err)
	}
}

func TestNewSelectsProvider(t *testing.T) {
	client, err := New(Config{Provider: "OpenAI", BaseURL: "https://api.openai.com", APIKey: "k"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, ok := client.(*OpenAI); !ok {
		t.Fatalf("New() = %T, want *OpenAI", client)
	}
	client, err = New(Config{BaseURL: "https://generativelanguage.googleapis.com", APIKey: "k"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, ok := client.(*Gemini); !ok {
		t.Fatalf("New() = %T, want *Gemini", client)
	}
	if _, err := New(Config{Provider: "palm", BaseURL: "x", APIKey: "k"}); err == nil {
		t.Fatal("expected unsupported provider error")
	}
}
