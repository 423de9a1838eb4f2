package perception

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"kirby/internal/logging"
)

// GeminiClient implements LLMClient for Google Gemini via the genai SDK.
type GeminiClient struct {
	client *genai.Client
	cfg    ModelConfig
}

// NewGeminiClient validates cfg and creates the client.
func NewGeminiClient(ctx context.Context, cfg ModelConfig) (*GeminiClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GeminiClient{client: client, cfg: cfg}, nil
}

// Complete sends a prompt and returns the completion.
func (c *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.CompleteWithSystem(ctx, "", prompt)
}

// CompleteWithSystem sends a prompt with a system instruction.
func (c *GeminiClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	ctx, cancel := withDefaultTimeout(ctx, c.cfg)
	defer cancel()

	timer := logging.StartTimer(logging.CategoryAPI, "gemini.GenerateContent")
	defer timer.StopWithThreshold(slowRequestThreshold)
	logging.APIDebug("[Gemini] model=%s system_len=%d user_len=%d", c.cfg.Model, len(systemPrompt), len(userPrompt))

	temperature := float32(c.cfg.Temperature)
	topP := float32(c.cfg.TopP)
	gc := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		TopP:            &topP,
		MaxOutputTokens: int32(c.cfg.MaxTokens),
	}
	if systemPrompt != "" {
		gc.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.cfg.Model,
		[]*genai.Content{genai.NewContentFromText(userPrompt, genai.RoleUser)}, gc)
	if err != nil {
		logging.APIError("[Gemini] request failed: %v", err)
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	logging.API("[Gemini] Response received from %s", c.cfg.Model)
	return resp.Text(), nil
}
