package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// The contract tests run every backend against a fake provider server and
// assert the same Client behavior for all four.

type fakeProvider struct {
	server *httptest.Server
	// lastRequest captures the decoded body of the most recent request.
	lastRequest map[string]any
	lastPath    string
	lastAuth    string
}

func newFakeProvider(t *testing.T, respond func(path string, body map[string]any) (int, any)) *fakeProvider {
	t.Helper()
	fake := &fakeProvider{}
	fake.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode provider request: %v", err)
		}
		fake.lastRequest = body
		fake.lastPath = r.URL.Path
		fake.lastAuth = r.Header.Get("Authorization")

		status, payload := respond(r.URL.Path, body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			t.Errorf("encode provider response: %v", err)
		}
	}))
	t.Cleanup(fake.server.Close)
	return fake
}

func openAIStyleResponse(content string) map[string]any {
	return map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
		"usage": map[string]any{"completion_tokens": 7},
	}
}

func newTestClient(t *testing.T, provider ProviderKind, baseURL string, apiKey string) Client {
	t.Helper()
	client, err := New(Config{
		Provider:   provider,
		BaseURL:    baseURL,
		APIKey:     apiKey,
		Model:      "test-model",
		HTTPClient: &http.Client{},
	})
	if err != nil {
		t.Fatalf("new %s client: %v", provider, err)
	}
	return client
}

func TestNewRejectsMissingModel(t *testing.T) {
	if _, err := New(Config{Provider: ProviderOpenAI}); err == nil {
		t.Fatal("expected error for missing model")
	}
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	if _, err := New(Config{Provider: "gpt4all", Model: "m"}); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestClientContractGenerateText(t *testing.T) {
	fakes := map[ProviderKind]*fakeProvider{
		ProviderOpenAI: newFakeProvider(t, func(string, map[string]any) (int, any) {
			return http.StatusOK, openAIStyleResponse("openai says hi")
		}),
		ProviderLMStudio: newFakeProvider(t, func(string, map[string]any) (int, any) {
			return http.StatusOK, openAIStyleResponse("openai says hi")
		}),
		ProviderOllama: newFakeProvider(t, func(string, map[string]any) (int, any) {
			return http.StatusOK, map[string]any{"response": "openai says hi", "eval_count": 4}
		}),
		ProviderHuggingFace: newFakeProvider(t, func(string, map[string]any) (int, any) {
			return http.StatusOK, []map[string]any{{"generated_text": "openai says hi"}}
		}),
	}

	for provider, fake := range fakes {
		t.Run(string(provider), func(t *testing.T) {
			client := newTestClient(t, provider, fake.server.URL, "test-key")
			text, err := client.GenerateText(context.Background(), TextRequest{
				Prompt: "Say hi.",
				System: "You are terse.",
			})
			if err != nil {
				t.Fatalf("generate text: %v", err)
			}
			if text != "openai says hi" {
				t.Fatalf("text = %q", text)
			}
			if client.Name() != string(provider) {
				t.Fatalf("name = %q, want %q", client.Name(), provider)
			}
		})
	}
}

func TestClientContractGenerateChat(t *testing.T) {
	fakes := map[ProviderKind]*fakeProvider{
		ProviderOpenAI: newFakeProvider(t, func(string, map[string]any) (int, any) {
			return http.StatusOK, openAIStyleResponse("next turn")
		}),
		ProviderOllama: newFakeProvider(t, func(string, map[string]any) (int, any) {
			return http.StatusOK, map[string]any{"message": map[string]any{"content": "next turn"}}
		}),
		ProviderHuggingFace: newFakeProvider(t, func(string, map[string]any) (int, any) {
			return http.StatusOK, []map[string]any{{"generated_text": "next turn"}}
		}),
	}

	msgs := []Message{
		{Role: RoleSystem, Content: "You simulate a debate."},
		{Role: RoleUser, Content: "Open the discussion."},
	}
	for provider, fake := range fakes {
		t.Run(string(provider), func(t *testing.T) {
			client := newTestClient(t, provider, fake.server.URL, "")
			reply, err := client.GenerateChat(context.Background(), ChatRequest{Messages: msgs})
			if err != nil {
				t.Fatalf("generate chat: %v", err)
			}
			if reply != "next turn" {
				t.Fatalf("reply = %q", reply)
			}
		})
	}
}

func TestClientContractGenerateChatRequiresMessages(t *testing.T) {
	for _, provider := range []ProviderKind{ProviderOpenAI, ProviderOllama, ProviderHuggingFace} {
		client := newTestClient(t, provider, "http://127.0.0.1:0", "")
		if _, err := client.GenerateChat(context.Background(), ChatRequest{}); err == nil {
			t.Fatalf("%s: expected error for empty message list", provider)
		}
	}
}

func TestClientContractGenerateStructured(t *testing.T) {
	fenced := "```json\n{\"topic\": \"entropy\", \"count\": 3}\n```"
	fakes := map[ProviderKind]*fakeProvider{
		ProviderOpenAI: newFakeProvider(t, func(string, map[string]any) (int, any) {
			return http.StatusOK, openAIStyleResponse(`{"topic": "entropy", "count": 3}`)
		}),
		ProviderOllama: newFakeProvider(t, func(string, map[string]any) (int, any) {
			return http.StatusOK, map[string]any{"message": map[string]any{"content": `{"topic": "entropy", "count": 3}`}}
		}),
		ProviderHuggingFace: newFakeProvider(t, func(string, map[string]any) (int, any) {
			return http.StatusOK, []map[string]any{{"generated_text": fenced}}
		}),
	}

	schema := map[string]any{
		"type":     "object",
		"required": []any{"topic", "count"},
		"properties": map[string]any{
			"topic": map[string]any{"type": "string"},
			"count": map[string]any{"type": "integer"},
		},
	}
	for provider, fake := range fakes {
		t.Run(string(provider), func(t *testing.T) {
			client := newTestClient(t, provider, fake.server.URL, "")
			doc, err := client.GenerateStructured(context.Background(), StructuredRequest{
				Prompt: "Summarize as JSON.",
				Schema: schema,
			})
			if err != nil {
				t.Fatalf("generate structured: %v", err)
			}
			var parsed struct {
				Topic string `json:"topic"`
				Count int    `json:"count"`
			}
			if err := json.Unmarshal(doc, &parsed); err != nil {
				t.Fatalf("unmarshal structured doc: %v", err)
			}
			if parsed.Topic != "entropy" || parsed.Count != 3 {
				t.Fatalf("parsed = %+v", parsed)
			}
		})
	}
}

func TestGenerateStructuredRejectsSchemaMismatch(t *testing.T) {
	fake := newFakeProvider(t, func(string, map[string]any) (int, any) {
		return http.StatusOK, openAIStyleResponse(`{"topic": 42}`)
	})
	client := newTestClient(t, ProviderOpenAI, fake.server.URL, "")
	_, err := client.GenerateStructured(context.Background(), StructuredRequest{
		Prompt: "Summarize as JSON.",
		Schema: map[string]any{
			"type":     "object",
			"required": []any{"topic"},
			"properties": map[string]any{
				"topic": map[string]any{"type": "string"},
			},
		},
	})
	if err == nil {
		t.Fatal("expected schema mismatch error")
	}
}

func TestClientContractCountTokens(t *testing.T) {
	for _, provider := range []ProviderKind{ProviderOpenAI, ProviderOllama, ProviderLMStudio, ProviderHuggingFace} {
		client := newTestClient(t, provider, "http://127.0.0.1:0", "")
		if got := client.CountTokens("abcdefgh"); got != 2 {
			t.Fatalf("%s: count tokens = %d, want 2", provider, got)
		}
		if got := client.CountTokens(""); got != 0 {
			t.Fatalf("%s: count tokens empty = %d, want 0", provider, got)
		}
	}
}

func TestOpenAIClientSendsAuthAndJSONMode(t *testing.T) {
	fake := newFakeProvider(t, func(string, map[string]any) (int, any) {
		return http.StatusOK, openAIStyleResponse(`{}`)
	})
	client := newTestClient(t, ProviderOpenAI, fake.server.URL, "secret-key")
	if _, err := client.GenerateStructured(context.Background(), StructuredRequest{Prompt: "p"}); err != nil {
		t.Fatalf("generate structured: %v", err)
	}
	if fake.lastAuth != "Bearer secret-key" {
		t.Fatalf("auth header = %q", fake.lastAuth)
	}
	if fake.lastPath != "/chat/completions" {
		t.Fatalf("path = %q", fake.lastPath)
	}
	format, ok := fake.lastRequest["response_format"].(map[string]any)
	if !ok || format["type"] != "json_object" {
		t.Fatalf("response_format = %v, want json_object", fake.lastRequest["response_format"])
	}
}

func TestOllamaClientUsesNativeEndpointsAndJSONFormat(t *testing.T) {
	fake := newFakeProvider(t, func(path string, _ map[string]any) (int, any) {
		if path == "/api/generate" {
			return http.StatusOK, map[string]any{"response": "ok"}
		}
		return http.StatusOK, map[string]any{"message": map[string]any{"content": `{}`}}
	})
	client := newTestClient(t, ProviderOllama, fake.server.URL, "")

	if _, err := client.GenerateText(context.Background(), TextRequest{Prompt: "p"}); err != nil {
		t.Fatalf("generate text: %v", err)
	}
	if fake.lastPath != "/api/generate" {
		t.Fatalf("text path = %q", fake.lastPath)
	}
	if stream, ok := fake.lastRequest["stream"].(bool); !ok || stream {
		t.Fatalf("stream = %v, want false", fake.lastRequest["stream"])
	}

	if _, err := client.GenerateStructured(context.Background(), StructuredRequest{Prompt: "p"}); err != nil {
		t.Fatalf("generate structured: %v", err)
	}
	if fake.lastPath != "/api/chat" {
		t.Fatalf("structured path = %q", fake.lastPath)
	}
	if fake.lastRequest["format"] != "json" {
		t.Fatalf("format = %v, want json", fake.lastRequest["format"])
	}
	options, ok := fake.lastRequest["options"].(map[string]any)
	if !ok || options["num_ctx"] != float64(32768) {
		t.Fatalf("options = %v, want num_ctx 32768", fake.lastRequest["options"])
	}
}

func TestHuggingFaceClientTargetsModelPath(t *testing.T) {
	fake := newFakeProvider(t, func(string, map[string]any) (int, any) {
		return http.StatusOK, []map[string]any{{"generated_text": "ok"}}
	})
	client := newTestClient(t, ProviderHuggingFace, fake.server.URL, "hf-key")
	if _, err := client.GenerateText(context.Background(), TextRequest{Prompt: "p"}); err != nil {
		t.Fatalf("generate text: %v", err)
	}
	if fake.lastPath != "/models/test-model" {
		t.Fatalf("path = %q", fake.lastPath)
	}
	if fake.lastAuth != "Bearer hf-key" {
		t.Fatalf("auth header = %q", fake.lastAuth)
	}
}

func TestProviderErrorSurfacesStatusAndBody(t *testing.T) {
	fake := newFakeProvider(t, func(string, map[string]any) (int, any) {
		return http.StatusTooManyRequests, map[string]any{"error": "rate limited"}
	})
	client := newTestClient(t, ProviderOpenAI, fake.server.URL, "")
	_, err := client.GenerateText(context.Background(), TextRequest{Prompt: "p"})
	if err == nil {
		t.Fatal("expected error for non-2xx status")
	}
}
