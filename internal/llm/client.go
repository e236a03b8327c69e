// Package llm provides LLM client interfaces and implementations.
package llm

import (
	"context"
	"fmt"
)

// StreamCallback is called for each token during streaming.
type StreamCallback func(token string, index int) error

// CompletionRequest represents a completion request.
type CompletionRequest struct {
	Model       string
	Messages    []ChatMessage
	MaxTokens   int
	Temperature float64
}

// ChatMessage represents a chat message for LLM.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionResponse represents a completion response.
type CompletionResponse struct {
	Content    string
	Model      string
	Provider   string
	TokensIn   int
	TokensOut  int
	StopReason string
	LatencyMs  int64
}

// Client is the interface for LLM providers. Implementations must be safe
// for concurrent use.
type Client interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// CompleteStream sends a streaming completion request.
	CompleteStream(ctx context.Context, req *CompletionRequest, callback StreamCallback) (*CompletionResponse, error)

	// Name returns the provider name.
	Name() string

	// Models returns available models.
	Models() []string
}

// Provider is the type of LLM provider.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderCompat    Provider = "compat"
	ProviderArk       Provider = "ark"
)

// ProviderConfig carries the credentials and endpoint for one provider.
type ProviderConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Region  string
}

// NewClient creates a new LLM client based on provider.
func NewClient(ctx context.Context, provider Provider, cfg ProviderConfig) (Client, error) {
	switch provider {
	case ProviderOpenAI:
		return NewOpenAIClient(cfg.APIKey, cfg.BaseURL)
	case ProviderAnthropic:
		return NewAnthropicClient(cfg.APIKey)
	case ProviderCompat:
		return NewLangChainClient(cfg.BaseURL, cfg.APIKey, cfg.Model)
	case ProviderArk:
		return NewArkClient(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown provider %q", provider)
	}
}

func defaultMaxTokens(n int) int {
	if n <= 0 {
		return 4096
	}
	return n
}
