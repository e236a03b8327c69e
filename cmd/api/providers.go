package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/capitalize-ai/chat-assistant/internal/config"
	"github.com/capitalize-ai/chat-assistant/internal/llm"
	"github.com/capitalize-ai/chat-assistant/pkg/logger"
)

type providerEntry struct {
	provider llm.Provider
	cfg      llm.ProviderConfig
}

// providerConfigs lists the providers that have credentials configured, in
// default-preference order.
func providerConfigs(cfg *config.Config) []providerEntry {
	var out []providerEntry

	if cfg.AnthropicAPIKey != "" {
		out = append(out, providerEntry{llm.ProviderAnthropic, llm.ProviderConfig{APIKey: cfg.AnthropicAPIKey}})
	}
	if cfg.OpenAIAPIKey != "" {
		out = append(out, providerEntry{llm.ProviderOpenAI, llm.ProviderConfig{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
		}})
	}
	if cfg.OpenAICompatBaseURL != "" {
		out = append(out, providerEntry{llm.ProviderCompat, llm.ProviderConfig{
			APIKey:  cfg.OpenAICompatAPIKey,
			BaseURL: cfg.OpenAICompatBaseURL,
			Model:   cfg.OpenAICompatModel,
		}})
	}
	if cfg.ArkAPIKey != "" && cfg.ArkModel != "" {
		out = append(out, providerEntry{llm.ProviderArk, llm.ProviderConfig{
			APIKey:  cfg.ArkAPIKey,
			BaseURL: cfg.ArkBaseURL,
			Model:   cfg.ArkModel,
			Region:  cfg.ArkRegion,
		}})
	}
	return out
}

// buildRouter creates every configured provider and the model router over them.
// A provider that fails to initialize is skipped with a warning.
func buildRouter(ctx context.Context, cfg *config.Config, log *logger.Logger) *llm.Router {
	var clients []llm.Client
	for _, p := range providerConfigs(cfg) {
		client, err := llm.NewClient(ctx, p.provider, p.cfg)
		if err != nil {
			log.Warn("failed to create LLM client, provider disabled",
				zap.String("provider", string(p.provider)),
				zap.Error(err),
			)
			continue
		}
		clients = append(clients, client)
	}

	router := llm.NewRouter(clients,
		llm.WithDefaultProvider(cfg.DefaultLLM),
		llm.WithAliases(cfg.ModelAliases),
		llm.WithTimeout(cfg.LLMTimeout),
		llm.WithMaxTokens(cfg.LLMMaxTokens),
		llm.WithLogger(log),
	)

	if !router.Ready() {
		log.Warn("no LLM provider configured, chat endpoints will fail")
	} else {
		log.Info("LLM providers initialized",
			zap.Strings("providers", router.ProviderNames()),
			zap.String("default", router.DefaultProvider()),
		)
	}
	return router
}
