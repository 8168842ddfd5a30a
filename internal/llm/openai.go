package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// openAIClient targets the OpenAI chat-completions API. A configurable base
// URL lets it serve any OpenAI-compatible endpoint.
type openAIClient struct {
	name    string
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

func newOpenAI(cfg Config) *openAIClient {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	return &openAIClient{
		name:    string(ProviderOpenAI),
		baseURL: baseURL,
		apiKey:  strings.TrimSpace(cfg.APIKey),
		model:   strings.TrimSpace(cfg.Model),
		client:  cfg.HTTPClient,
	}
}

func (c *openAIClient) Name() string { return c.name }

func (c *openAIClient) CountTokens(text string) int { return estimateTokens(text) }

type openAIChatRequest struct {
	Model          string              `json:"model"`
	Messages       []openAIChatMessage `json:"messages"`
	Temperature    *float64            `json:"temperature,omitempty"`
	MaxTokens      int                 `json:"max_tokens,omitempty"`
	ResponseFormat *openAIFormat       `json:"response_format,omitempty"`
}

type openAIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIFormat struct {
	Type string `json:"type"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

func (c *openAIClient) GenerateText(ctx context.Context, req TextRequest) (string, error) {
	return c.complete(ctx, chatFromText(req.System, req.Prompt), req.Options, nil)
}

func (c *openAIClient) GenerateChat(ctx context.Context, req ChatRequest) (string, error) {
	if len(req.Messages) == 0 {
		return "", fmt.Errorf("at least one message is required")
	}
	return c.complete(ctx, req.Messages, req.Options, nil)
}

func (c *openAIClient) GenerateStructured(ctx context.Context, req StructuredRequest) (json.RawMessage, error) {
	prompt := req.Prompt + "\n\n" + schemaInstruction(req.Schema)
	// json_object mode forces syntactically valid JSON; schema conformance is
	// still checked locally because the API does not enforce field shapes.
	text, err := c.complete(ctx, chatFromText(req.System, prompt), req.Options, &openAIFormat{Type: "json_object"})
	if err != nil {
		return nil, err
	}
	return extractStructured(text, req.Schema)
}

func (c *openAIClient) complete(ctx context.Context, msgs []Message, opts Options, format *openAIFormat) (string, error) {
	model := resolveModel(c.model, opts)
	ctx, span := startSpan(ctx, c.name, "chat_completion", model)

	body := openAIChatRequest{
		Model:          model,
		Messages:       make([]openAIChatMessage, len(msgs)),
		MaxTokens:      opts.MaxTokens,
		ResponseFormat: format,
	}
	for i, m := range msgs {
		body.Messages[i] = openAIChatMessage{Role: string(m.Role), Content: m.Content}
	}
	if opts.Temperature > 0 {
		temperature := opts.Temperature
		body.Temperature = &temperature
	}

	var parsed openAIChatResponse
	if err := postJSON(ctx, c.client, c.baseURL+"/chat/completions", c.apiKey, body, &parsed); err != nil {
		endSpan(span, 0, err)
		return "", fmt.Errorf("provider %s: %w", c.name, err)
	}
	if len(parsed.Choices) == 0 {
		err := fmt.Errorf("provider %s: response has no choices", c.name)
		endSpan(span, 0, err)
		return "", err
	}
	endSpan(span, parsed.Usage.CompletionTokens, nil)
	return parsed.Choices[0].Message.Content, nil
}

// postJSON issues one JSON POST and decodes the response. Error bodies are
// capped so provider failures cannot balloon log lines.
func postJSON(ctx context.Context, client *http.Client, url string, apiKey string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	res, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		errBody, readErr := io.ReadAll(io.LimitReader(res.Body, 4096))
		if readErr != nil {
			return fmt.Errorf("read error body: %w", readErr)
		}
		return fmt.Errorf("request status %d: %s", res.StatusCode, strings.TrimSpace(string(errBody)))
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
