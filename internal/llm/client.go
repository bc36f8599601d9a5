package llm

import (
	"context"
	"log/slog"

	"github.com/rohankatakam/repograde/internal/config"
	"github.com/rohankatakam/repograde/internal/errors"
)

// Model is a generative model that turns one prompt into one raw completion.
// Implementations never retry; any failure to obtain a completion is reported
// as errors.KindModelUnavailable.
type Model interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Name() string
}

// New creates the model client selected by cfg.Provider. An empty provider
// means Gemini.
func New(ctx context.Context, cfg config.ModelConfig, logger *slog.Logger) (Model, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "llm")

	provider := cfg.Provider
	if provider == "" {
		provider = config.ProviderGemini
	}

	opts := GenerationOptions{Temperature: cfg.Temperature, MaxTokens: cfg.MaxTokens}

	switch provider {
	case config.ProviderGemini:
		if cfg.GeminiKey == "" {
			return nil, errors.ConfigErrorf("gemini provider selected but no GEMINI_API_KEY configured (run 'repograde configure')")
		}
		return NewGeminiClient(ctx, cfg.GeminiKey, cfg.GeminiModel, opts, logger)
	case config.ProviderOpenAI:
		if cfg.OpenAIKey == "" {
			return nil, errors.ConfigErrorf("openai provider selected but no OPENAI_API_KEY configured (run 'repograde configure')")
		}
		return NewOpenAIClient(cfg.OpenAIKey, cfg.OpenAIModel, "", opts, logger)
	case config.ProviderCustom:
		if cfg.CustomURL == "" || cfg.CustomModel == "" {
			return nil, errors.ConfigErrorf("custom provider requires CUSTOM_LLM_URL and CUSTOM_LLM_MODEL")
		}
		return NewCompatibleClient(cfg.CustomURL, cfg.CustomKey, cfg.CustomModel, opts, logger)
	default:
		return nil, errors.ConfigErrorf("unknown llm provider %q (want gemini, openai or custom)", provider)
	}
}

// GenerationOptions are the sampling knobs shared by every provider
type GenerationOptions struct {
	Temperature float64
	MaxTokens   int
}

func (o GenerationOptions) maxTokens() int {
	if o.MaxTokens <= 0 {
		return 2000
	}
	return o.MaxTokens
}
