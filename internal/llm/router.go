package llm

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/capitalize-ai/chat-assistant/pkg/logger"
	"github.com/capitalize-ai/chat-assistant/pkg/metrics"
	"github.com/capitalize-ai/chat-assistant/pkg/tracing"
)

// DefaultModel selects the default provider with its own default model.
const DefaultModel = "default"

// Router resolves model identifiers to providers and bounds each call with
// a timeout. It is itself safe for concurrent use once constructed.
type Router struct {
	clients     map[string]Client
	order       []string
	defaultName string
	aliases     map[string]string
	timeout     time.Duration
	maxTokens   int
	logger      *logger.Logger
	tracer      trace.Tracer
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithDefaultProvider picks the provider used for "default" and unknown models.
func WithDefaultProvider(name string) RouterOption {
	return func(r *Router) { r.defaultName = name }
}

// WithAliases maps identifiers like "modelA" to "provider:model" or a model name.
func WithAliases(aliases map[string]string) RouterOption {
	return func(r *Router) {
		for k, v := range aliases {
			r.aliases[k] = v
		}
	}
}

// WithTimeout bounds every provider call. Zero disables the bound.
func WithTimeout(d time.Duration) RouterOption {
	return func(r *Router) { r.timeout = d }
}

// WithMaxTokens sets the max tokens for requests that do not specify one.
func WithMaxTokens(n int) RouterOption {
	return func(r *Router) { r.maxTokens = n }
}

// WithLogger sets the router logger.
func WithLogger(log *logger.Logger) RouterOption {
	return func(r *Router) { r.logger = log }
}

// NewRouter creates a router over the given clients. Registration order
// breaks ties; the first client is the default unless overridden.
func NewRouter(clients []Client, opts ...RouterOption) *Router {
	r := &Router{
		clients: make(map[string]Client),
		aliases: make(map[string]string),
		logger:  logger.NewNop(),
		tracer:  tracing.Tracer("github.com/capitalize-ai/chat-assistant/internal/llm"),
	}
	for _, c := range clients {
		if c == nil {
			continue
		}
		if _, dup := r.clients[c.Name()]; dup {
			continue
		}
		r.clients[c.Name()] = c
		r.order = append(r.order, c.Name())
	}
	for _, opt := range opts {
		opt(r)
	}
	if _, ok := r.clients[r.defaultName]; !ok {
		r.defaultName = ""
		if len(r.order) > 0 {
			r.defaultName = r.order[0]
		}
	}
	return r
}

// Ready reports whether at least one provider is configured.
func (r *Router) Ready() bool {
	return len(r.order) > 0
}

// DefaultProvider returns the name of the default provider.
func (r *Router) DefaultProvider() string {
	return r.defaultName
}

// Providers returns each provider with its known models.
func (r *Router) Providers() map[string][]string {
	out := make(map[string][]string, len(r.order))
	for _, name := range r.order {
		out[name] = r.clients[name].Models()
	}
	return out
}

// Aliases returns a copy of the alias table.
func (r *Router) Aliases() map[string]string {
	out := make(map[string]string, len(r.aliases))
	for k, v := range r.aliases {
		out[k] = v
	}
	return out
}

// Resolve maps a model identifier to a client and the model name that client
// should receive. An empty returned model means the provider default.
func (r *Router) Resolve(modelName string) (Client, string, error) {
	if !r.Ready() {
		return nil, "", ErrNoProvider
	}

	modelName = strings.TrimSpace(modelName)
	if modelName == "" || modelName == DefaultModel {
		return r.clients[r.defaultName], "", nil
	}
	if target, ok := r.aliases[modelName]; ok {
		modelName = target
	}

	if provider, model, ok := strings.Cut(modelName, ":"); ok {
		if c, found := r.clients[provider]; found {
			return c, model, nil
		}
	}
	if c := r.owner(modelName); c != nil {
		return c, modelName, nil
	}
	return r.clients[r.defaultName], modelName, nil
}

// owner finds the provider listing model, preferring the default provider.
func (r *Router) owner(model string) Client {
	var found Client
	for _, name := range r.order {
		c := r.clients[name]
		for _, m := range c.Models() {
			if m != model {
				continue
			}
			if name == r.defaultName {
				return c
			}
			if found == nil {
				found = c
			}
		}
	}
	return found
}

// Complete resolves req.Model and forwards the request.
func (r *Router) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	return r.call(ctx, req, func(ctx context.Context, c Client, req *CompletionRequest) (*CompletionResponse, error) {
		return c.Complete(ctx, req)
	})
}

// CompleteStream resolves req.Model and streams the response.
func (r *Router) CompleteStream(ctx context.Context, req *CompletionRequest, callback StreamCallback) (*CompletionResponse, error) {
	return r.call(ctx, req, func(ctx context.Context, c Client, req *CompletionRequest) (*CompletionResponse, error) {
		return c.CompleteStream(ctx, req, callback)
	})
}

type callFunc func(ctx context.Context, c Client, req *CompletionRequest) (*CompletionResponse, error)

func (r *Router) call(ctx context.Context, req *CompletionRequest, fn callFunc) (*CompletionResponse, error) {
	client, model, err := r.Resolve(req.Model)
	if err != nil {
		return nil, err
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	resolved := *req
	resolved.Model = model
	if resolved.MaxTokens == 0 {
		resolved.MaxTokens = r.maxTokens
	}

	provider := client.Name()
	label := r.modelLabel(client, model)

	ctx, span := r.tracer.Start(ctx, "llm.complete", trace.WithAttributes(
		attribute.String("llm.provider", provider),
		attribute.String("llm.model", label),
		attribute.Int("llm.messages", len(req.Messages)),
	))
	defer span.End()

	start := time.Now()
	resp, err := fn(ctx, client, &resolved)
	duration := time.Since(start)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.RecordLLMRequest(provider, label, "error", duration.Seconds(), 0, 0)
		r.logger.Warn("llm call failed",
			zap.String("provider", provider),
			zap.String("model", label),
			zap.Duration("duration", duration),
			zap.Bool("retryable", IsRetryable(err)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%s: %w", provider, err)
	}

	resp.Provider = provider
	span.SetAttributes(
		attribute.Int("llm.tokens_in", resp.TokensIn),
		attribute.Int("llm.tokens_out", resp.TokensOut),
	)
	metrics.RecordLLMRequest(provider, label, "success", duration.Seconds(), resp.TokensIn, resp.TokensOut)
	r.logger.Debug("llm call completed",
		zap.String("provider", provider),
		zap.String("model", resp.Model),
		zap.Duration("duration", duration),
		zap.Int("tokens_in", resp.TokensIn),
		zap.Int("tokens_out", resp.TokensOut),
	)

	return resp, nil
}

// modelLabel keeps metric cardinality bounded: only known model names are
// used as label values.
func (r *Router) modelLabel(c Client, model string) string {
	if model == "" {
		return DefaultModel
	}
	for _, m := range c.Models() {
		if m == model {
			return model
		}
	}
	return "other"
}

// ProviderNames returns registered provider names in sorted order.
func (r *Router) ProviderNames() []string {
	names := append([]string(nil), r.order...)
	sort.Strings(names)
	return names
}
