// Package service implements the chat, comparison and media operations
// behind the HTTP handlers.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/capitalize-ai/chat-assistant/internal/llm"
	"github.com/capitalize-ai/chat-assistant/internal/model"
	"github.com/capitalize-ai/chat-assistant/pkg/logger"
)

// Chatter is the chat capability the service delegates generation to.
type Chatter interface {
	Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error)
	CompleteStream(ctx context.Context, req *llm.CompletionRequest, callback llm.StreamCallback) (*llm.CompletionResponse, error)
}

// EventPublisher receives operational events. Publishing is best effort.
type EventPublisher interface {
	PublishEvent(ctx context.Context, event *model.Event) (uint64, error)
}

// ChatService handles chat and model comparison.
type ChatService struct {
	chatter       Chatter
	events        EventPublisher
	compareModels []string
	logger        *logger.Logger
}

// NewChatService creates a new chat service. events may be nil.
func NewChatService(chatter Chatter, events EventPublisher, compareModels []string, log *logger.Logger) *ChatService {
	if log == nil {
		log = logger.NewNop()
	}
	return &ChatService{
		chatter:       chatter,
		events:        events,
		compareModels: append([]string(nil), compareModels...),
		logger:        log,
	}
}

// CompareModels returns the identifiers used by Compare.
func (s *ChatService) CompareModels() []string {
	return append([]string(nil), s.compareModels...)
}

// Chat runs the conversation against the requested model and returns the reply text.
func (s *ChatService) Chat(ctx context.Context, conv *model.Conversation) (string, error) {
	modelName := conv.Model()

	resp, err := s.chatter.Complete(ctx, toCompletionRequest(conv, modelName))
	if err != nil {
		s.publish(ctx, model.EventTypeChatFailed, err.Error(), map[string]any{"model": modelName})
		return "", UpstreamError("chat", err)
	}

	s.publish(ctx, model.EventTypeChatCompleted, "", completionMetadata(modelName, resp))
	return resp.Content, nil
}

// ChatStream is Chat with tokens delivered through onToken as they arrive.
func (s *ChatService) ChatStream(ctx context.Context, conv *model.Conversation, onToken llm.StreamCallback) (*llm.CompletionResponse, error) {
	modelName := conv.Model()

	resp, err := s.chatter.CompleteStream(ctx, toCompletionRequest(conv, modelName), onToken)
	if err != nil {
		s.publish(ctx, model.EventTypeChatFailed, err.Error(), map[string]any{"model": modelName, "stream": true})
		return nil, UpstreamError("chat stream", err)
	}

	meta := completionMetadata(modelName, resp)
	meta["stream"] = true
	s.publish(ctx, model.EventTypeChatCompleted, "", meta)
	return resp, nil
}

// Compare runs the conversation against every compare model concurrently.
// The first failure cancels the remaining calls and no partial result is returned.
func (s *ChatService) Compare(ctx context.Context, conv *model.Conversation) (map[string]string, error) {
	g, gctx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	results := make(map[string]string, len(s.compareModels))

	for _, name := range s.compareModels {
		name := name
		g.Go(func() error {
			resp, err := s.chatter.Complete(gctx, toCompletionRequest(conv, name))
			if err != nil {
				return UpstreamError("compare "+name, err)
			}
			mu.Lock()
			results[name] = resp.Content
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		s.logger.Warn("model comparison failed", zap.Strings("models", s.compareModels), zap.Error(err))
		return nil, err
	}

	s.publish(ctx, model.EventTypeCompareCompleted, "", map[string]any{"models": s.compareModels})
	return results, nil
}

func toCompletionRequest(conv *model.Conversation, modelName string) *llm.CompletionRequest {
	messages := make([]llm.ChatMessage, len(conv.Messages))
	for i, msg := range conv.Messages {
		messages[i] = llm.ChatMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		}
	}
	return &llm.CompletionRequest{
		Model:    modelName,
		Messages: messages,
	}
}

func completionMetadata(modelName string, resp *llm.CompletionResponse) map[string]any {
	return map[string]any{
		"model":      modelName,
		"provider":   resp.Provider,
		"tokens_in":  resp.TokensIn,
		"tokens_out": resp.TokensOut,
		"latency_ms": resp.LatencyMs,
	}
}

// publish sends an event without failing the caller. The request context may
// already be cancelled, so a detached context bounds the publish.
func (s *ChatService) publish(ctx context.Context, eventType model.EventType, reason string, meta map[string]any) {
	publishEvent(ctx, s.events, s.logger, eventType, reason, meta)
}

func publishEvent(ctx context.Context, events EventPublisher, log *logger.Logger, eventType model.EventType, reason string, meta map[string]any) {
	if events == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	event := &model.Event{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Type:      eventType,
		Reason:    reason,
		Metadata:  meta,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := events.PublishEvent(ctx, event); err != nil {
		log.Warn("failed to publish event", zap.String("type", string(eventType)), zap.Error(err))
	}
}
