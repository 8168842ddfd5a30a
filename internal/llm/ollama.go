package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const defaultOllamaBaseURL = "http://localhost:11434"

// ollamaContextWindow raises Ollama's 2048-token default context, which is too
// small for prompts that embed stored notes.
const ollamaContextWindow = 32768

// ollamaClient targets a local Ollama server through its native HTTP API.
type ollamaClient struct {
	baseURL string
	model   string
	client  *http.Client
}

func newOllama(cfg Config) *ollamaClient {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}
	return &ollamaClient{
		baseURL: baseURL,
		model:   strings.TrimSpace(cfg.Model),
		client:  cfg.HTTPClient,
	}
}

func (c *ollamaClient) Name() string { return string(ProviderOllama) }

func (c *ollamaClient) CountTokens(text string) int { return estimateTokens(text) }

type ollamaGenerateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	System  string         `json:"system,omitempty"`
	Stream  bool           `json:"stream"`
	Format  string         `json:"format,omitempty"`
	Options map[string]any `json:"options,omitempty"`
}

type ollamaGenerateResponse struct {
	Response  string `json:"response"`
	EvalCount int    `json:"eval_count"`
}

type ollamaChatRequest struct {
	Model    string              `json:"model"`
	Messages []ollamaChatMessage `json:"messages"`
	Stream   bool                `json:"stream"`
	Format   string              `json:"format,omitempty"`
	Options  map[string]any      `json:"options,omitempty"`
}

type ollamaChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	EvalCount int `json:"eval_count"`
}

func (c *ollamaClient) GenerateText(ctx context.Context, req TextRequest) (string, error) {
	model := resolveModel(c.model, req.Options)
	ctx, span := startSpan(ctx, c.Name(), "generate", model)

	var parsed ollamaGenerateResponse
	err := postJSON(ctx, c.client, c.baseURL+"/api/generate", "", ollamaGenerateRequest{
		Model:   model,
		Prompt:  req.Prompt,
		System:  req.System,
		Stream:  false,
		Options: c.requestOptions(req.Options),
	}, &parsed)
	if err != nil {
		endSpan(span, 0, err)
		return "", fmt.Errorf("provider %s: %w", c.Name(), err)
	}
	endSpan(span, parsed.EvalCount, nil)
	return parsed.Response, nil
}

func (c *ollamaClient) GenerateChat(ctx context.Context, req ChatRequest) (string, error) {
	if len(req.Messages) == 0 {
		return "", fmt.Errorf("at least one message is required")
	}
	return c.chat(ctx, req.Messages, req.Options, "")
}

func (c *ollamaClient) GenerateStructured(ctx context.Context, req StructuredRequest) (json.RawMessage, error) {
	prompt := req.Prompt + "\n\n" + schemaInstruction(req.Schema)
	// format "json" constrains decoding to valid JSON; shape is still checked
	// locally against the schema.
	text, err := c.chat(ctx, chatFromText(req.System, prompt), req.Options, "json")
	if err != nil {
		return nil, err
	}
	return extractStructured(text, req.Schema)
}

func (c *ollamaClient) chat(ctx context.Context, msgs []Message, opts Options, format string) (string, error) {
	model := resolveModel(c.model, opts)
	ctx, span := startSpan(ctx, c.Name(), "chat", model)

	body := ollamaChatRequest{
		Model:    model,
		Messages: make([]ollamaChatMessage, len(msgs)),
		Stream:   false,
		Format:   format,
		Options:  c.requestOptions(opts),
	}
	for i, m := range msgs {
		body.Messages[i] = ollamaChatMessage{Role: string(m.Role), Content: m.Content}
	}

	var parsed ollamaChatResponse
	if err := postJSON(ctx, c.client, c.baseURL+"/api/chat", "", body, &parsed); err != nil {
		endSpan(span, 0, err)
		return "", fmt.Errorf("provider %s: %w", c.Name(), err)
	}
	endSpan(span, parsed.EvalCount, nil)
	return parsed.Message.Content, nil
}

func (c *ollamaClient) requestOptions(opts Options) map[string]any {
	options := map[string]any{"num_ctx": ollamaContextWindow}
	if opts.Temperature > 0 {
		options["temperature"] = opts.Temperature
	}
	if opts.MaxTokens > 0 {
		options["num_predict"] = opts.MaxTokens
	}
	return options
}
