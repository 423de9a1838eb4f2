package perception

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"kirby/internal/logging"
)

// OpenAIClient implements LLMClient for the OpenAI chat completions API.
type OpenAIClient struct {
	client *openai.Client
	cfg    ModelConfig
}

// NewOpenAIClient validates cfg and creates the client.
func NewOpenAIClient(cfg ModelConfig) (*OpenAIClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	return &OpenAIClient{client: openai.NewClientWithConfig(oc), cfg: cfg}, nil
}

// Complete sends a prompt and returns the completion.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.CompleteWithSystem(ctx, "", prompt)
}

// CompleteWithSystem sends a prompt with a system message.
func (c *OpenAIClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	ctx, cancel := withDefaultTimeout(ctx, c.cfg)
	defer cancel()

	timer := logging.StartTimer(logging.CategoryAPI, "openai.CreateChatCompletion")
	defer timer.StopWithThreshold(slowRequestThreshold)
	logging.APIDebug("[OpenAI] model=%s system_len=%d user_len=%d", c.cfg.Model, len(systemPrompt), len(userPrompt))

	var messages []openai.ChatCompletionMessage
	if systemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: systemPrompt})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: userPrompt})

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:               c.cfg.Model,
		Messages:            messages,
		Temperature:         float32(c.cfg.Temperature),
		TopP:                float32(c.cfg.TopP),
		MaxCompletionTokens: c.cfg.MaxTokens,
	})
	if err != nil {
		logging.APIError("[OpenAI] request failed: %v", err)
		return "", fmt.Errorf("openai request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	logging.API("[OpenAI] Response received from %s", c.cfg.Model)
	return resp.Choices[0].Message.Content, nil
}
