package perception

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kirby/internal/config"
)

func validConfig(p Provider) ModelConfig {
	return ModelConfig{
		Provider:    p,
		Model:       config.DefaultModelFor(string(p)),
		APIKey:      "test-key",
		Temperature: 0.25,
		TopP:        0.96,
		MaxTokens:   1024,
		Timeout:     5 * time.Second,
	}
}

func TestModelConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ModelConfig)
		wantMsg string
	}{
		{"no provider", func(c *ModelConfig) { c.Provider = "" }, "AI_CLIENT"},
		{"unknown provider", func(c *ModelConfig) { c.Provider = "unknown_client" }, "unknown_client"},
		{"no model", func(c *ModelConfig) { c.Model = " " }, "model"},
		{"no key", func(c *ModelConfig) { c.APIKey = "" }, "OPENAI_API_KEY"},
		{"temperature", func(c *ModelConfig) { c.Temperature = 2.5 }, "temperature"},
		{"top_p", func(c *ModelConfig) { c.TopP = -0.1 }, "top_p"},
		{"max tokens", func(c *ModelConfig) { c.MaxTokens = 0 }, "max_tokens"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(ProviderOpenAI)
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}

	assert.NoError(t, validConfig(ProviderOpenAI).Validate())
	assert.NoError(t, validConfig(ProviderGemini).Validate())
}

func TestModelConfigFrom(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.LLM.Provider = " Gemini "
	cfg.LLM.APIKey = "k"

	mc := ModelConfigFrom(cfg)
	assert.Equal(t, ProviderGemini, mc.Provider)
	assert.Equal(t, "gemini-2.5-flash", mc.Model)
	assert.Equal(t, 120*time.Second, mc.Timeout)
	assert.Equal(t, 4096, mc.MaxTokens)
	assert.NoError(t, mc.Validate())
}

func TestNewClientFromConfig_Providers(t *testing.T) {
	ctx := context.Background()

	client, err := NewClientFromConfig(ctx, validConfig(ProviderOpenAI))
	require.NoError(t, err)
	if _, ok := client.(*OpenAIClient); !ok {
		t.Errorf("Expected *OpenAIClient, got %T", client)
	}

	client, err = NewClientFromConfig(ctx, validConfig(ProviderGemini))
	require.NoError(t, err)
	if _, ok := client.(*GeminiClient); !ok {
		t.Errorf("Expected *GeminiClient, got %T", client)
	}

	bad := validConfig(ProviderOpenAI)
	bad.Provider = "claude"
	client, err = NewClientFromConfig(ctx, bad)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Nil(t, client)
}

func TestOpenAIClientCompleteWithSystem(t *testing.T) {
	var got struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
		MaxCompletionTokens int `json:"max_completion_tokens"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"Hello, world!"},"finish_reason":"stop"}]}`)
	}))
	defer srv.Close()

	cfg := validConfig(ProviderOpenAI)
	cfg.BaseURL = srv.URL + "/v1"
	client, err := NewOpenAIClient(cfg)
	require.NoError(t, err)

	out, err := client.CompleteWithSystem(context.Background(), "be brief", "Say hi")
	require.NoError(t, err)
	assert.Equal(t, "Hello, world!", out)

	assert.Equal(t, "gpt-4o", got.Model)
	assert.Equal(t, 1024, got.MaxCompletionTokens)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "be brief", got.Messages[0].Content)
	assert.Equal(t, "user", got.Messages[1].Role)
}

func TestOpenAIClientNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"c1","object":"chat.completion","choices":[]}`)
	}))
	defer srv.Close()

	cfg := validConfig(ProviderOpenAI)
	cfg.BaseURL = srv.URL + "/v1"
	client, err := NewOpenAIClient(cfg)
	require.NoError(t, err)

	out, err := client.Complete(context.Background(), "Say hi")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestOpenAIClientError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"error":{"message":"API Error","type":"server_error"}}`)
	}))
	defer srv.Close()

	cfg := validConfig(ProviderOpenAI)
	cfg.BaseURL = srv.URL + "/v1"
	client, err := NewOpenAIClient(cfg)
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), "Say hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openai request failed")
}

func TestGeminiClientComplete(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"hi from gemini"}]}}]}`)
	}))
	defer srv.Close()

	cfg := validConfig(ProviderGemini)
	cfg.BaseURL = srv.URL + "/"
	client, err := NewGeminiClient(context.Background(), cfg)
	require.NoError(t, err)

	out, err := client.CompleteWithSystem(context.Background(), "be brief", "Say hi")
	require.NoError(t, err)
	assert.Equal(t, "hi from gemini", out)
	assert.True(t, strings.HasSuffix(path, "gemini-2.5-flash:generateContent"), "path %s", path)
}

func TestFormatRequest(t *testing.T) {
	got := FormatRequest(Request{
		Prompts: []string{"Refactor this", "Keep tests green"},
		Files:   []string{"📁 Shared files:", "File: a.go\n```\npackage a\n```"},
		Pages:   []string{"", "🔗 https://example.com\nExample Domain"},
		Final:   "  go  ",
	})
	want := "Refactor this\nKeep tests green\n\n" +
		"📁 Shared files:\n\n" +
		"File: a.go\n```\npackage a\n```\n\n" +
		"🔗 https://example.com\nExample Domain\n\n" +
		"go"
	assert.Equal(t, want, got)

	assert.Equal(t, "", FormatRequest(Request{}))
}
