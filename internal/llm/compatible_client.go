package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sashabaranov/go-openai"

	"github.com/rohankatakam/repograde/internal/errors"
)

// CompatibleClient talks to any server speaking the OpenAI chat completions
// protocol (vLLM, Ollama, LM Studio, gateways).
type CompatibleClient struct {
	client *openai.Client
	model  string
	opts   GenerationOptions
	logger *slog.Logger
}

// NewCompatibleClient creates a client for the server at baseURL, which must
// include the API prefix (for example http://localhost:11434/v1). apiKey may
// be empty for servers without auth.
func NewCompatibleClient(baseURL, apiKey, model string, opts GenerationOptions, logger *slog.Logger) (*CompatibleClient, error) {
	if baseURL == "" {
		return nil, errors.ConfigErrorf("custom llm base url is required")
	}
	if model == "" {
		return nil, errors.ConfigErrorf("custom llm model is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	clientConfig := openai.DefaultConfig(apiKey)
	clientConfig.BaseURL = baseURL

	logger = logger.With("provider", "custom", "model", model, "base_url", baseURL)
	logger.Info("openai-compatible client initialized")

	return &CompatibleClient{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
		opts:   opts,
		logger: logger,
	}, nil
}

// Name returns the model identifier
func (c *CompatibleClient) Name() string {
	return c.model
}

// Generate sends the prompt as a single user message
func (c *CompatibleClient) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Temperature: float32(c.opts.Temperature),
		MaxTokens:   c.opts.maxTokens(),
	})
	if err != nil {
		return "", errors.ModelUnavailable(fmt.Errorf("custom llm completion failed: %w", err))
	}
	if len(resp.Choices) == 0 {
		return "", errors.ModelUnavailable(fmt.Errorf("custom llm returned no choices"))
	}

	response := resp.Choices[0].Message.Content
	c.logger.Debug("custom llm completion",
		"prompt_length", len(prompt),
		"response_length", len(response),
		"tokens_used", resp.Usage.TotalTokens,
	)

	return response, nil
}
