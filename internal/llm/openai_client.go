package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/rohankatakam/repograde/internal/errors"
)

// DefaultOpenAIModel is used when no model name is configured
const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAIClient calls the Chat Completions API through the official SDK
type OpenAIClient struct {
	client openai.Client
	model  openai.ChatModel
	opts   GenerationOptions
	logger *slog.Logger
}

// NewOpenAIClient creates an OpenAI client. baseURL is optional.
func NewOpenAIClient(apiKey, model, baseURL string, opts GenerationOptions, logger *slog.Logger) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, errors.ConfigErrorf("openai api key is required")
	}
	if model == "" {
		model = DefaultOpenAIModel
	}
	if logger == nil {
		logger = slog.Default()
	}

	// The SDK retries 429/5xx twice by default; one attempt per analysis
	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(baseURL))
	}

	logger = logger.With("provider", "openai", "model", model)
	logger.Info("openai client initialized")

	return &OpenAIClient{
		client: openai.NewClient(reqOpts...),
		model:  openai.ChatModel(model),
		opts:   opts,
		logger: logger,
	}, nil
}

// Name returns the model identifier
func (c *OpenAIClient) Name() string {
	return string(c.model)
}

// Generate sends the prompt as a single user message
func (c *OpenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model:               c.model,
		Temperature:         openai.Float(c.opts.Temperature),
		MaxCompletionTokens: openai.Int(int64(c.opts.maxTokens())),
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", errors.ModelUnavailable(fmt.Errorf("openai completion failed: %w", err))
	}
	if len(completion.Choices) == 0 {
		return "", errors.ModelUnavailable(fmt.Errorf("openai returned no choices"))
	}

	response := completion.Choices[0].Message.Content
	c.logger.Debug("openai completion",
		"prompt_length", len(prompt),
		"response_length", len(response),
		"tokens_used", completion.Usage.TotalTokens,
	)

	return response, nil
}
