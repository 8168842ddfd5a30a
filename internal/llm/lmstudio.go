package llm

import "strings"

const defaultLMStudioBaseURL = "http://localhost:1234/v1"

// newLMStudio builds a client for a local LM Studio server.
//
// LM Studio speaks the OpenAI wire format, so the client is the OpenAI
// implementation with local defaults: loopback base URL and no API key.
func newLMStudio(cfg Config) *openAIClient {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = defaultLMStudioBaseURL
	}
	client := newOpenAI(cfg)
	client.name = string(ProviderLMStudio)
	return client
}
