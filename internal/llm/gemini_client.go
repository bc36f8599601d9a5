package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"github.com/rohankatakam/repograde/internal/errors"
)

// DefaultGeminiModel is used when no model name is configured
const DefaultGeminiModel = "gemini-2.0-flash"

// GeminiClient wraps Google's Generative AI SDK
type GeminiClient struct {
	client *genai.Client
	model  string
	opts   GenerationOptions
	logger *slog.Logger
}

// NewGeminiClient creates a Gemini API client. baseURL overrides are only
// needed for tests and private proxies; see newGeminiClient.
func NewGeminiClient(ctx context.Context, apiKey, model string, opts GenerationOptions, logger *slog.Logger) (*GeminiClient, error) {
	return newGeminiClient(ctx, apiKey, model, "", opts, logger)
}

func newGeminiClient(ctx context.Context, apiKey, model, baseURL string, opts GenerationOptions, logger *slog.Logger) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, errors.ConfigErrorf("gemini api key is required")
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	if logger == nil {
		logger = slog.Default()
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, errors.ConfigErrorf("failed to create gemini client: %v", err)
	}

	logger = logger.With("provider", "gemini", "model", model)
	logger.Info("gemini client initialized")

	return &GeminiClient{
		client: client,
		model:  model,
		opts:   opts,
		logger: logger,
	}, nil
}

// Name returns the model identifier
func (c *GeminiClient) Name() string {
	return c.model
}

// Generate sends the prompt in JSON mode and returns the first candidate's text
func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	genConfig := &genai.GenerateContentConfig{
		Temperature:      ptrFloat32(c.opts.Temperature),
		MaxOutputTokens:  int32(c.opts.maxTokens()),
		ResponseMIMEType: "application/json",
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), genConfig)
	if err != nil {
		return "", errors.ModelUnavailable(fmt.Errorf("gemini completion failed: %w", err))
	}

	if len(resp.Candidates) == 0 {
		return "", errors.ModelUnavailable(fmt.Errorf("gemini returned no candidates"))
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", errors.ModelUnavailable(fmt.Errorf("gemini returned no content parts (finish reason %s)", candidate.FinishReason))
	}

	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil {
			text.WriteString(part.Text)
		}
	}

	c.logger.Debug("gemini completion",
		"prompt_length", len(prompt),
		"response_length", text.Len(),
	)

	return text.String(), nil
}

func ptrFloat32(f float64) *float32 {
	f32 := float32(f)
	return &f32
}
