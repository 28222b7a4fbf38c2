package smartfinancectl

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

type Options struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
	Stdout     io.Writer
	Stderr     io.Writer
}

type session struct {
	ID string `json:"id"`
}

type turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
	SQL  string `json:"sql,omitempty"`
}

type messageResponse struct {
	SessionID string `json:"session_id"`
	Turn      turn   `json:"turn"`
}

func Run(ctx context.Context, args []string, defaults Options) int {
	stdout := defaults.Stdout
	if stdout == nil {
		stdout = io.Discard
	}
	stderr := defaults.Stderr
	if stderr == nil {
		stderr = io.Discard
	}

	fs := flag.NewFlagSet("smartfinancectl", flag.ContinueOnError)
	fs.SetOutput(stderr)

	baseURL := fs.String("base-url", firstNonEmpty(defaults.BaseURL, "http://localhost:8080"), "Smart Finance API base URL")
	apiKey := fs.String("api-key", defaults.APIKey, "API key for authenticated requests")
	timeout := fs.Duration("timeout", durationOr(defaults.Timeout, 90*time.Second), "HTTP timeout (e.g. 90s)")
	limit := fs.Int("limit", 0, "journal page size (journal command only)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		writeUsage(stderr)
		return 2
	}

	c := &client{
		http:    defaults.HTTPClient,
		baseURL: strings.TrimRight(*baseURL, "/"),
		apiKey:  strings.TrimSpace(*apiKey),
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: *timeout}
	}

	command := strings.TrimSpace(fs.Arg(0))
	switch command {
	case "health":
		return c.printJSON(ctx, stdout, stderr, "/v1/health")
	case "ready":
		return c.printJSON(ctx, stdout, stderr, "/v1/ready")
	case "status":
		return c.printJSON(ctx, stdout, stderr, "/v1/status")
	case "journal":
		path := "/v1/journal"
		if *limit > 0 {
			path += "?" + url.Values{"limit": []string{strconv.Itoa(*limit)}}.Encode()
		}
		return c.printJSON(ctx, stdout, stderr, path)
	case "ask":
		question := strings.TrimSpace(strings.Join(fs.Args()[1:], " "))
		if question == "" {
			_, _ = fmt.Fprintln(stderr, "ask requires a question")
			writeUsage(stderr)
			return 2
		}
		return c.ask(ctx, stdout, stderr, question)
	default:
		_, _ = fmt.Fprintf(stderr, "unknown command %q\n\n", command)
		writeUsage(stderr)
		return 2
	}
}

type client struct {
	http    *http.Client
	baseURL string
	apiKey  string
}

func (c *client) printJSON(ctx context.Context, stdout, stderr io.Writer, path string) int {
	code, responseBody, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "request failed: %v\n", err)
		return 1
	}
	if code >= 400 {
		_, _ = fmt.Fprintf(stderr, "http %d: %s\n", code, strings.TrimSpace(string(responseBody)))
		return 1
	}
	if pretty, ok := prettyJSON(responseBody); ok {
		_, _ = fmt.Fprintln(stdout, pretty)
		return 0
	}
	if len(responseBody) > 0 {
		_, _ = fmt.Fprintln(stdout, string(responseBody))
	}
	return 0
}

// ask opens a fresh session and submits a single question to it.
func (c *client) ask(ctx context.Context, stdout, stderr io.Writer, question string) int {
	code, body, err := c.do(ctx, http.MethodPost, "/v1/sessions", nil)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "request failed: %v\n", err)
		return 1
	}
	if code >= 400 {
		_, _ = fmt.Fprintf(stderr, "http %d: %s\n", code, strings.TrimSpace(string(body)))
		return 1
	}
	var created session
	if err := json.Unmarshal(body, &created); err != nil || created.ID == "" {
		_, _ = fmt.Fprintf(stderr, "unexpected session response: %s\n", strings.TrimSpace(string(body)))
		return 1
	}

	payload, err := json.Marshal(map[string]string{"text": question})
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "encode message: %v\n", err)
		return 1
	}
	code, body, err = c.do(ctx, http.MethodPost, "/v1/sessions/"+url.PathEscape(created.ID)+"/messages", payload)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "request failed: %v\n", err)
		return 1
	}
	if code >= 400 {
		_, _ = fmt.Fprintf(stderr, "http %d: %s\n", code, strings.TrimSpace(string(body)))
		return 1
	}
	var reply messageResponse
	if err := json.Unmarshal(body, &reply); err != nil {
		_, _ = fmt.Fprintf(stderr, "unexpected message response: %s\n", strings.TrimSpace(string(body)))
		return 1
	}

	_, _ = fmt.Fprintln(stdout, reply.Turn.Text)
	if strings.TrimSpace(reply.Turn.SQL) != "" {
		_, _ = fmt.Fprintln(stdout)
		_, _ = fmt.Fprintln(stdout, "🔎 SQL:")
		_, _ = fmt.Fprintln(stdout, reply.Turn.SQL)
	}
	return 0
}

func (c *client) do(ctx context.Context, method, path string, payload []byte) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, responseBody, nil
}

func prettyJSON(raw []byte) (string, bool) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return "", false
	}
	var anyValue any
	if err := json.Unmarshal(raw, &anyValue); err != nil {
		return "", false
	}
	formatted, err := json.MarshalIndent(anyValue, "", "  ")
	if err != nil {
		return "", false
	}
	return string(formatted), true
}

func writeUsage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "usage: smartfinancectl [flags] <command>")
	_, _ = fmt.Fprintln(w, "")
	_, _ = fmt.Fprintln(w, "commands:")
	_, _ = fmt.Fprintln(w, "  health           GET /v1/health")
	_, _ = fmt.Fprintln(w, "  ready            GET /v1/ready")
	_, _ = fmt.Fprintln(w, "  status           GET /v1/status")
	_, _ = fmt.Fprintln(w, "  journal          GET /v1/journal")
	_, _ = fmt.Fprintln(w, "  ask <question>   POST /v1/sessions, then POST /v1/sessions/{id}/messages")
}

func firstNonEmpty(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return strings.TrimSpace(a)
	}
	return b
}

func durationOr(v, fallback time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return fallback
}
