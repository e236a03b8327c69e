package llm

import (
	"context"
	"errors"
	"time"

	"github.com/tmc/langchaingo/llms"
	lcopenai "github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
)

// LangChainClient talks to any OpenAI-compatible endpoint (Ollama, vLLM,
// LocalAI) through langchaingo.
type LangChainClient struct {
	llm   llms.Model
	model string
}

// NewLangChainClient creates a client for an OpenAI-compatible server.
// Local servers usually ignore the token, so a placeholder is sent when empty.
func NewLangChainClient(baseURL, token, model string) (*LangChainClient, error) {
	if baseURL == "" {
		return nil, errors.New("OpenAI-compatible base URL is required")
	}
	if token == "" {
		token = "unused"
	}

	llm, err := lcopenai.New(
		lcopenai.WithToken(token),
		lcopenai.WithBaseURL(baseURL),
		lcopenai.WithModel(model),
	)
	if err != nil {
		return nil, err
	}

	return &LangChainClient{llm: llm, model: model}, nil
}

// Name returns the provider name.
func (c *LangChainClient) Name() string {
	return string(ProviderCompat)
}

// Models returns the single model the endpoint was configured with.
func (c *LangChainClient) Models() []string {
	if c.model == "" {
		return nil
	}
	return []string{c.model}
}

// Complete sends a completion request.
func (c *LangChainClient) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	return c.generate(ctx, req, nil)
}

// CompleteStream sends a streaming completion request.
func (c *LangChainClient) CompleteStream(ctx context.Context, req *CompletionRequest, callback StreamCallback) (*CompletionResponse, error) {
	index := 0
	return c.generate(ctx, req, func(_ context.Context, chunk []byte) error {
		if len(chunk) == 0 {
			return nil
		}
		err := callback(string(chunk), index)
		index++
		return err
	})
}

func (c *LangChainClient) generate(ctx context.Context, req *CompletionRequest, stream func(context.Context, []byte) error) (*CompletionResponse, error) {
	start := time.Now()

	model := req.Model
	if model == "" {
		model = c.model
	}

	opts := []llms.CallOption{
		llms.WithModel(model),
		llms.WithMaxTokens(defaultMaxTokens(req.MaxTokens)),
	}
	if req.Temperature > 0 {
		opts = append(opts, llms.WithTemperature(req.Temperature))
	}
	if stream != nil {
		opts = append(opts, llms.WithStreamingFunc(stream))
	}

	resp, err := c.llm.GenerateContent(ctx, toLangChainMessages(req.Messages), opts...)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("empty response from OpenAI-compatible endpoint")
	}

	choice := resp.Choices[0]
	return &CompletionResponse{
		Content:    choice.Content,
		Model:      model,
		Provider:   c.Name(),
		TokensIn:   generationInt(choice.GenerationInfo, "PromptTokens"),
		TokensOut:  generationInt(choice.GenerationInfo, "CompletionTokens"),
		StopReason: choice.StopReason,
		LatencyMs:  time.Since(start).Milliseconds(),
	}, nil
}

func toLangChainMessages(messages []ChatMessage) []llms.MessageContent {
	out := make([]llms.MessageContent, len(messages))
	for i, msg := range messages {
		role := schema.ChatMessageTypeHuman
		if msg.Role == "assistant" {
			role = schema.ChatMessageTypeAI
		}
		out[i] = llms.TextParts(role, msg.Content)
	}
	return out
}

func generationInt(info map[string]any, key string) int {
	if v, ok := info[key].(int); ok {
		return v
	}
	return 0
}
