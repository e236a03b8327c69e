package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/chat-assistant/internal/llm"
	"github.com/capitalize-ai/chat-assistant/internal/model"
)

type fakeChatter struct {
	mu       sync.Mutex
	requests []*llm.CompletionRequest
	failOn   map[string]error
}

func (f *fakeChatter) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if err, ok := f.failOn[req.Model]; ok {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &llm.CompletionResponse{Content: "reply from " + req.Model, Model: req.Model, Provider: "fake"}, nil
}

func (f *fakeChatter) CompleteStream(ctx context.Context, req *llm.CompletionRequest, callback llm.StreamCallback) (*llm.CompletionResponse, error) {
	resp, err := f.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	for i, tok := range []string{"reply", " from ", req.Model} {
		if err := callback(tok, i); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*model.Event
	err    error
}

func (p *recordingPublisher) PublishEvent(_ context.Context, event *model.Event) (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return uint64(len(p.events)), p.err
}

func (p *recordingPublisher) types() []model.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.EventType, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

func TestChat(t *testing.T) {
	tests := []struct {
		name      string
		conv      model.Conversation
		wantModel string
	}{
		{
			name:      "defaults model name",
			conv:      model.Conversation{Messages: []model.Message{{Role: model.RoleUser, Content: "hi"}}},
			wantModel: "default",
		},
		{
			name:      "explicit model",
			conv:      model.Conversation{ModelName: "gpt-4o", Messages: []model.Message{{Role: model.RoleUser, Content: "hi"}}},
			wantModel: "gpt-4o",
		},
		{
			name:      "empty conversation",
			conv:      model.Conversation{},
			wantModel: "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chatter := &fakeChatter{}
			svc := NewChatService(chatter, nil, nil, nil)

			reply, err := svc.Chat(context.Background(), &tt.conv)
			require.NoError(t, err)
			assert.Equal(t, "reply from "+tt.wantModel, reply)

			require.Len(t, chatter.requests, 1)
			assert.Equal(t, tt.wantModel, chatter.requests[0].Model)
			assert.Len(t, chatter.requests[0].Messages, len(tt.conv.Messages))
		})
	}
}

func TestChatPreservesMessageOrder(t *testing.T) {
	chatter := &fakeChatter{}
	svc := NewChatService(chatter, nil, nil, nil)

	conv := &model.Conversation{Messages: []model.Message{
		{Role: model.RoleUser, Content: "one"},
		{Role: model.RoleAssistant, Content: "two"},
		{Role: model.RoleUser, Content: "three"},
	}}
	_, err := svc.Chat(context.Background(), conv)
	require.NoError(t, err)

	got := chatter.requests[0].Messages
	require.Len(t, got, 3)
	assert.Equal(t, llm.ChatMessage{Role: "user", Content: "one"}, got[0])
	assert.Equal(t, llm.ChatMessage{Role: "assistant", Content: "two"}, got[1])
	assert.Equal(t, llm.ChatMessage{Role: "user", Content: "three"}, got[2])
}

func TestChatUpstreamFailure(t *testing.T) {
	cause := errors.New("provider down")
	chatter := &fakeChatter{failOn: map[string]error{"default": cause}}
	events := &recordingPublisher{}
	svc := NewChatService(chatter, events, nil, nil)

	_, err := svc.Chat(context.Background(), &model.Conversation{})
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, KindUpstream, KindOf(err))
	assert.Equal(t, []model.EventType{model.EventTypeChatFailed}, events.types())
}

func TestChatPublishFailureIsIgnored(t *testing.T) {
	events := &recordingPublisher{err: errors.New("nats down")}
	svc := NewChatService(&fakeChatter{}, events, nil, nil)

	reply, err := svc.Chat(context.Background(), &model.Conversation{})
	require.NoError(t, err)
	assert.Equal(t, "reply from default", reply)
	assert.Equal(t, []model.EventType{model.EventTypeChatCompleted}, events.types())
}

func TestChatStream(t *testing.T) {
	svc := NewChatService(&fakeChatter{}, nil, nil, nil)

	var tokens []string
	resp, err := svc.ChatStream(context.Background(), &model.Conversation{ModelName: "m"}, func(token string, index int) error {
		tokens = append(tokens, token)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"reply", " from ", "m"}, tokens)
	assert.Equal(t, "reply from m", resp.Content)
}

func TestChatStreamCallbackError(t *testing.T) {
	svc := NewChatService(&fakeChatter{}, nil, nil, nil)
	stop := errors.New("client gone")

	_, err := svc.ChatStream(context.Background(), &model.Conversation{}, func(string, int) error {
		return stop
	})
	assert.ErrorIs(t, err, stop)
}

func TestCompare(t *testing.T) {
	chatter := &fakeChatter{}
	events := &recordingPublisher{}
	svc := NewChatService(chatter, events, []string{"modelA", "modelB"}, nil)

	conv := &model.Conversation{
		ModelName: "ignored",
		Messages:  []model.Message{{Role: model.RoleUser, Content: "hi"}},
	}
	got, err := svc.Compare(context.Background(), conv)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"modelA": "reply from modelA",
		"modelB": "reply from modelB",
	}, got)
	assert.Len(t, chatter.requests, 2)
	assert.Equal(t, []model.EventType{model.EventTypeCompareCompleted}, events.types())
}

func TestCompareFailsWhole(t *testing.T) {
	cause := errors.New("modelB unavailable")
	chatter := &fakeChatter{failOn: map[string]error{"modelB": cause}}
	svc := NewChatService(chatter, nil, []string{"modelA", "modelB"}, nil)

	got, err := svc.Compare(context.Background(), &model.Conversation{})
	require.Error(t, err)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, KindUpstream, KindOf(err))
	assert.Contains(t, err.Error(), "modelB")
}

// blockingChatter fails one model and holds every other call until its
// context is done.
type blockingChatter struct {
	failModel string
	failErr   error
	started   chan struct{}
	blockedOn chan error
}

func (b *blockingChatter) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if req.Model == b.failModel {
		<-b.started
		return nil, b.failErr
	}
	close(b.started)
	<-ctx.Done()
	b.blockedOn <- ctx.Err()
	return nil, ctx.Err()
}

func (b *blockingChatter) CompleteStream(ctx context.Context, req *llm.CompletionRequest, _ llm.StreamCallback) (*llm.CompletionResponse, error) {
	return b.Complete(ctx, req)
}

func TestCompareFailureCancelsSiblings(t *testing.T) {
	chatter := &blockingChatter{
		failModel: "modelB",
		failErr:   errors.New("modelB unavailable"),
		started:   make(chan struct{}),
		blockedOn: make(chan error, 1),
	}
	svc := NewChatService(chatter, nil, []string{"modelA", "modelB"}, nil)

	type result struct {
		out map[string]string
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := svc.Compare(context.Background(), &model.Conversation{
			Messages: []model.Message{{Role: model.RoleUser, Content: "hi"}},
		})
		done <- result{out, err}
	}()

	select {
	case res := <-done:
		require.Error(t, res.err)
		assert.Nil(t, res.out)
		assert.Equal(t, KindUpstream, KindOf(res.err))
		assert.ErrorIs(t, res.err, chatter.failErr)
	case <-time.After(5 * time.Second):
		t.Fatal("compare did not return after a model failed")
	}

	select {
	case err := <-chatter.blockedOn:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("blocked model call was not cancelled")
	}
}

func TestCompareModelsIsCopy(t *testing.T) {
	models := []string{"modelA", "modelB"}
	svc := NewChatService(&fakeChatter{}, nil, models, nil)

	models[0] = "changed"
	got := svc.CompareModels()
	got[1] = "changed"
	assert.Equal(t, []string{"modelA", "modelB"}, svc.CompareModels())
}
