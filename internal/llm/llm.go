// Package llm provides one client contract across multiple LLM providers.
//
// Every backend satisfies the same four-operation Client interface: free-text
// generation, multi-turn chat, structured JSON output, and token counting.
// Providers differ only in request shape and response parsing; callers never
// branch on the backend. The facade performs no retries and no backoff; a
// failed request is returned as an error for the caller to decide on.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Role identifies the author of a chat message.
type Role string

const (
	// RoleSystem carries instructions that frame the conversation.
	RoleSystem Role = "system"
	// RoleUser carries end-user input.
	RoleUser Role = "user"
	// RoleAssistant carries prior model output.
	RoleAssistant Role = "assistant"
)

// Message is one turn in a chat conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Options tunes a single generation request.
type Options struct {
	// Model overrides the client's configured model for this request.
	Model string
	// Temperature controls sampling randomness. Zero means provider default.
	Temperature float64
	// MaxTokens caps the completion length. Zero means provider default.
	MaxTokens int
}

// TextRequest asks for a free-text completion of one prompt.
type TextRequest struct {
	Prompt  string
	System  string
	Options Options
}

// ChatRequest asks for the next assistant turn in a conversation.
type ChatRequest struct {
	Messages []Message
	Options  Options
}

// StructuredRequest asks for a JSON object response.
//
// Schema, when set, is a JSON-schema document the response must satisfy.
// Providers with a native JSON mode use it; others rely on fence extraction
// from free text. Either way the result is validated before being returned.
type StructuredRequest struct {
	Prompt  string
	System  string
	Schema  map[string]any
	Options Options
}

// Client is the uniform contract over all provider backends.
type Client interface {
	// Name identifies the backend (for example "openai" or "ollama").
	Name() string
	// GenerateText returns a free-text completion for one prompt.
	GenerateText(ctx context.Context, req TextRequest) (string, error)
	// GenerateChat returns the next assistant message for a conversation.
	GenerateChat(ctx context.Context, req ChatRequest) (string, error)
	// GenerateStructured returns a validated JSON object response.
	GenerateStructured(ctx context.Context, req StructuredRequest) (json.RawMessage, error)
	// CountTokens estimates the token count of text.
	CountTokens(text string) int
}

// ProviderKind selects a provider backend.
type ProviderKind string

const (
	// ProviderOpenAI targets the OpenAI chat-completions API or any
	// OpenAI-compatible endpoint.
	ProviderOpenAI ProviderKind = "openai"
	// ProviderOllama targets a local Ollama server.
	ProviderOllama ProviderKind = "ollama"
	// ProviderLMStudio targets a local LM Studio server.
	ProviderLMStudio ProviderKind = "lmstudio"
	// ProviderHuggingFace targets the HuggingFace hosted inference API.
	ProviderHuggingFace ProviderKind = "huggingface"
)

// Config selects and configures a provider backend.
type Config struct {
	Provider ProviderKind `env:"STUDYHALL_LLM_PROVIDER" envDefault:"openai"`
	BaseURL  string       `env:"STUDYHALL_LLM_BASE_URL"`
	APIKey   string       `env:"STUDYHALL_LLM_API_KEY"`
	Model    string       `env:"STUDYHALL_LLM_MODEL"`

	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

const defaultRequestTimeout = 120 * time.Second

// New builds a Client for the configured provider.
func New(cfg Config) (Client, error) {
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("model is required")
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: defaultRequestTimeout}
	}

	provider := ProviderKind(strings.ToLower(strings.TrimSpace(string(cfg.Provider))))
	switch provider {
	case ProviderOpenAI:
		return newOpenAI(cfg), nil
	case ProviderOllama:
		return newOllama(cfg), nil
	case ProviderLMStudio:
		return newLMStudio(cfg), nil
	case ProviderHuggingFace:
		return newHuggingFace(cfg), nil
	default:
		return nil, fmt.Errorf("provider %q is not supported", cfg.Provider)
	}
}

func resolveModel(configured string, opts Options) string {
	if strings.TrimSpace(opts.Model) != "" {
		return strings.TrimSpace(opts.Model)
	}
	return strings.TrimSpace(configured)
}

// chatFromText converts a prompt-plus-system request into chat messages for
// backends whose only generation surface is a chat endpoint.
func chatFromText(system string, prompt string) []Message {
	var msgs []Message
	if strings.TrimSpace(system) != "" {
		msgs = append(msgs, Message{Role: RoleSystem, Content: system})
	}
	msgs = append(msgs, Message{Role: RoleUser, Content: prompt})
	return msgs
}
