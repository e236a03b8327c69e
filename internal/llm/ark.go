package llm

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// ArkClient serves Volcengine Ark models through the eino chat model component.
type ArkClient struct {
	chatModel *ark.ChatModel
	model     string
}

// NewArkClient creates a new Ark client.
func NewArkClient(ctx context.Context, cfg ProviderConfig) (*ArkClient, error) {
	if cfg.APIKey == "" || cfg.Model == "" {
		return nil, errors.New("Ark API key and model are required")
	}

	chatModel, err := ark.NewChatModel(ctx, &ark.ChatModelConfig{
		BaseURL: cfg.BaseURL,
		Region:  cfg.Region,
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
	})
	if err != nil {
		return nil, err
	}

	return &ArkClient{chatModel: chatModel, model: cfg.Model}, nil
}

// Name returns the provider name.
func (c *ArkClient) Name() string {
	return string(ProviderArk)
}

// Models returns the configured endpoint model.
func (c *ArkClient) Models() []string {
	return []string{c.model}
}

// Complete sends a completion request.
func (c *ArkClient) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	start := time.Now()
	model := c.modelFor(req)

	msg, err := c.chatModel.Generate(ctx, toSchemaMessages(req.Messages), c.options(req, model)...)
	if err != nil {
		return nil, err
	}

	resp := &CompletionResponse{
		Content:   msg.Content,
		Model:     model,
		Provider:  c.Name(),
		LatencyMs: time.Since(start).Milliseconds(),
	}
	applyResponseMeta(resp, msg.ResponseMeta)
	return resp, nil
}

// CompleteStream sends a streaming completion request.
func (c *ArkClient) CompleteStream(ctx context.Context, req *CompletionRequest, callback StreamCallback) (*CompletionResponse, error) {
	start := time.Now()
	model := c.modelFor(req)

	stream, err := c.chatModel.Stream(ctx, toSchemaMessages(req.Messages), c.options(req, model)...)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	resp := &CompletionResponse{Model: model, Provider: c.Name()}
	var content strings.Builder
	index := 0

	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if chunk == nil {
			continue
		}

		applyResponseMeta(resp, chunk.ResponseMeta)
		if chunk.Content == "" {
			continue
		}
		content.WriteString(chunk.Content)
		if err := callback(chunk.Content, index); err != nil {
			return nil, err
		}
		index++
	}

	resp.Content = content.String()
	resp.LatencyMs = time.Since(start).Milliseconds()
	return resp, nil
}

func (c *ArkClient) modelFor(req *CompletionRequest) string {
	if req.Model != "" {
		return req.Model
	}
	return c.model
}

func (c *ArkClient) options(req *CompletionRequest, model string) []einomodel.Option {
	opts := []einomodel.Option{
		einomodel.WithModel(model),
		einomodel.WithMaxTokens(defaultMaxTokens(req.MaxTokens)),
	}
	if req.Temperature > 0 {
		opts = append(opts, einomodel.WithTemperature(float32(req.Temperature)))
	}
	return opts
}

func toSchemaMessages(messages []ChatMessage) []*schema.Message {
	out := make([]*schema.Message, len(messages))
	for i, msg := range messages {
		role := schema.User
		if msg.Role == "assistant" {
			role = schema.Assistant
		}
		out[i] = &schema.Message{Role: role, Content: msg.Content}
	}
	return out
}

func applyResponseMeta(resp *CompletionResponse, meta *schema.ResponseMeta) {
	if meta == nil {
		return
	}
	if meta.FinishReason != "" {
		resp.StopReason = meta.FinishReason
	}
	if meta.Usage != nil {
		resp.TokensIn = meta.Usage.PromptTokens
		resp.TokensOut = meta.Usage.CompletionTokens
	}
}
