package main

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/chat-assistant/internal/config"
	"github.com/capitalize-ai/chat-assistant/internal/llm"
	"github.com/capitalize-ai/chat-assistant/pkg/logger"
)

func TestProviderConfigs(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Config
		want []llm.Provider
	}{
		{"none", config.Config{}, nil},
		{
			name: "anthropic preferred over openai",
			cfg:  config.Config{OpenAIAPIKey: "sk-x", AnthropicAPIKey: "ak-x"},
			want: []llm.Provider{llm.ProviderAnthropic, llm.ProviderOpenAI},
		},
		{
			name: "compat needs base url",
			cfg:  config.Config{OpenAICompatAPIKey: "x"},
			want: nil,
		},
		{
			name: "compat",
			cfg:  config.Config{OpenAICompatBaseURL: "http://localhost:11434/v1"},
			want: []llm.Provider{llm.ProviderCompat},
		},
		{
			name: "ark needs model",
			cfg:  config.Config{ArkAPIKey: "k"},
			want: nil,
		},
		{
			name: "ark",
			cfg:  config.Config{ArkAPIKey: "k", ArkModel: "ep-1"},
			want: []llm.Provider{llm.ProviderArk},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []llm.Provider
			for _, p := range providerConfigs(&tt.cfg) {
				got = append(got, p.provider)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildRouter(t *testing.T) {
	cfg := &config.Config{
		OpenAIAPIKey:    "sk-test",
		AnthropicAPIKey: "ak-test",
		DefaultLLM:      "openai",
		ModelAliases:    map[string]string{"modelA": "anthropic:claude-3-5-haiku-latest"},
		LLMTimeout:      time.Second,
	}

	router := buildRouter(context.Background(), cfg, logger.NewNop())

	require.True(t, router.Ready())
	assert.Equal(t, "openai", router.DefaultProvider())
	assert.Equal(t, []string{"anthropic", "openai"}, router.ProviderNames())

	client, model, err := router.Resolve("modelA")
	require.NoError(t, err)
	assert.Equal(t, "anthropic", client.Name())
	assert.Equal(t, "claude-3-5-haiku-latest", model)
}

func TestBuildRouterWithoutProviders(t *testing.T) {
	router := buildRouter(context.Background(), &config.Config{}, logger.NewNop())
	assert.False(t, router.Ready())
}

func TestRunServerShutsDownOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	srv := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}

	done := make(chan error, 1)
	go func() { done <- runServer(ctx, srv) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestRunServerReportsListenError(t *testing.T) {
	srv := &http.Server{Addr: "256.0.0.1:bad"}

	err := runServer(context.Background(), srv)
	assert.Error(t, err)
}
