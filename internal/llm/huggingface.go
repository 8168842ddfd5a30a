package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const defaultHuggingFaceBaseURL = "https://api-inference.huggingface.co"

// huggingFaceClient targets the HuggingFace hosted inference API.
//
// The API is a single text-generation endpoint per model with no chat or JSON
// mode, so chat requests are flattened into one transcript prompt and
// structured output relies entirely on fence extraction.
type huggingFaceClient struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

func newHuggingFace(cfg Config) *huggingFaceClient {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultHuggingFaceBaseURL
	}
	return &huggingFaceClient{
		baseURL: baseURL,
		apiKey:  strings.TrimSpace(cfg.APIKey),
		model:   strings.TrimSpace(cfg.Model),
		client:  cfg.HTTPClient,
	}
}

func (c *huggingFaceClient) Name() string { return string(ProviderHuggingFace) }

func (c *huggingFaceClient) CountTokens(text string) int { return estimateTokens(text) }

type huggingFaceRequest struct {
	Inputs     string                `json:"inputs"`
	Parameters huggingFaceParameters `json:"parameters"`
}

type huggingFaceParameters struct {
	Temperature    float64 `json:"temperature,omitempty"`
	MaxNewTokens   int     `json:"max_new_tokens,omitempty"`
	ReturnFullText bool    `json:"return_full_text"`
	DoSample       bool    `json:"do_sample,omitempty"`
}

type huggingFaceResponse []struct {
	GeneratedText string `json:"generated_text"`
}

func (c *huggingFaceClient) GenerateText(ctx context.Context, req TextRequest) (string, error) {
	prompt := req.Prompt
	if strings.TrimSpace(req.System) != "" {
		prompt = req.System + "\n\n" + prompt
	}
	return c.generate(ctx, prompt, req.Options)
}

func (c *huggingFaceClient) GenerateChat(ctx context.Context, req ChatRequest) (string, error) {
	if len(req.Messages) == 0 {
		return "", fmt.Errorf("at least one message is required")
	}
	return c.generate(ctx, flattenTranscript(req.Messages), req.Options)
}

func (c *huggingFaceClient) GenerateStructured(ctx context.Context, req StructuredRequest) (json.RawMessage, error) {
	prompt := req.Prompt + "\n\n" + schemaInstruction(req.Schema)
	if strings.TrimSpace(req.System) != "" {
		prompt = req.System + "\n\n" + prompt
	}
	text, err := c.generate(ctx, prompt, req.Options)
	if err != nil {
		return nil, err
	}
	return extractStructured(text, req.Schema)
}

func (c *huggingFaceClient) generate(ctx context.Context, prompt string, opts Options) (string, error) {
	model := resolveModel(c.model, opts)
	ctx, span := startSpan(ctx, c.Name(), "text_generation", model)

	body := huggingFaceRequest{
		Inputs: prompt,
		Parameters: huggingFaceParameters{
			Temperature:    opts.Temperature,
			MaxNewTokens:   opts.MaxTokens,
			ReturnFullText: false,
			DoSample:       opts.Temperature > 0,
		},
	}

	var parsed huggingFaceResponse
	if err := postJSON(ctx, c.client, c.baseURL+"/models/"+model, c.apiKey, body, &parsed); err != nil {
		endSpan(span, 0, err)
		return "", fmt.Errorf("provider %s: %w", c.Name(), err)
	}
	if len(parsed) == 0 {
		err := fmt.Errorf("provider %s: response has no generations", c.Name())
		endSpan(span, 0, err)
		return "", err
	}
	text := parsed[0].GeneratedText
	endSpan(span, estimateTokens(text), nil)
	return text, nil
}

// flattenTranscript renders chat messages as a plain transcript for backends
// without a chat endpoint. The trailing "assistant:" cue prompts the model to
// continue the conversation.
func flattenTranscript(msgs []Message) string {
	var b strings.Builder
	for _, m := range msgs {
		b.WriteString(string(m.Role))
		b.WriteString(": ")
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	b.WriteString("assistant:")
	return b.String()
}
