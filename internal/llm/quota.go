package llm

import (
	"context"
	stderrors "errors"
	"log/slog"

	"github.com/rohankatakam/repograde/internal/errors"
)

// QuotaChecker consumes budget for one model call
type QuotaChecker interface {
	CheckAndIncrement(ctx context.Context, estimatedTokens int64) error
}

// QuotaGuard is a Model that checks a shared quota before delegating
type QuotaGuard struct {
	model   Model
	limiter QuotaChecker
	logger  *slog.Logger
}

// Guard wraps model so every Generate call first draws from limiter. A nil
// limiter returns model unchanged.
func Guard(model Model, limiter QuotaChecker, logger *slog.Logger) Model {
	if limiter == nil {
		return model
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &QuotaGuard{
		model:   model,
		limiter: limiter,
		logger:  logger.With("component", "quota", "model", model.Name()),
	}
}

// Name returns the wrapped model's name
func (g *QuotaGuard) Name() string {
	return g.model.Name()
}

// Generate fails with ModelUnavailable when the quota is spent. If the quota
// store itself is unreachable the call goes through.
func (g *QuotaGuard) Generate(ctx context.Context, prompt string) (string, error) {
	err := g.limiter.CheckAndIncrement(ctx, estimateTokens(prompt))

	var quotaErr *QuotaExceededError
	switch {
	case err == nil:
	case stderrors.As(err, &quotaErr):
		g.logger.Warn("model quota exhausted", "window", quotaErr.Window, "current", quotaErr.Current, "limit", quotaErr.Limit)
		return "", errors.ModelUnavailable(err)
	case ctx.Err() != nil:
		return "", errors.ModelUnavailable(ctx.Err())
	default:
		g.logger.Warn("quota check failed, continuing without it", "error", err)
	}

	return g.model.Generate(ctx, prompt)
}

// estimateTokens uses the usual four characters per token, plus the reply
func estimateTokens(prompt string) int64 {
	return int64(len(prompt)/4) + 500
}
