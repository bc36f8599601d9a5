package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter enforces provider quotas with counters shared through Redis, so
// every process serving analyses draws from the same budget.
type RateLimiter struct {
	redis    redis.UniversalClient
	prefix   string
	rpmLimit int64 // Requests Per Minute
	tpmLimit int64 // Tokens Per Minute
	rpdLimit int64 // Requests Per Day
	now      func() time.Time
}

// Gemini Tier 1 limits for gemini-2.0-flash
const (
	DefaultRPM = 1000
	DefaultTPM = 1_000_000
	DefaultRPD = 10_000
)

// QuotaExceededError reports which window ran out
type QuotaExceededError struct {
	Window  string // RPM, TPM or RPD
	Current int64
	Limit   int64
	ResetIn time.Duration
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("%s quota exhausted (%d/%d), resets in %s", e.Window, e.Current, e.Limit, e.ResetIn.Round(time.Second))
}

// NewRateLimiter connects to Redis at redisAddr. Limits <= 0 use the defaults.
func NewRateLimiter(ctx context.Context, redisAddr string, rpm, rpd int64) (*RateLimiter, error) {
	client := redis.NewClient(&redis.Options{
		Addr: redisAddr,
		DB:   0,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", redisAddr, err)
	}

	return newRateLimiter(client, "repograde", rpm, rpd), nil
}

func newRateLimiter(client redis.UniversalClient, prefix string, rpm, rpd int64) *RateLimiter {
	if rpm <= 0 {
		rpm = DefaultRPM
	}
	if rpd <= 0 {
		rpd = DefaultRPD
	}
	return &RateLimiter{
		redis:    client,
		prefix:   prefix,
		rpmLimit: rpm,
		tpmLimit: DefaultTPM,
		rpdLimit: rpd,
		now:      time.Now,
	}
}

// Increments all three counters and reports the first window at or over its
// limit. Minute keys live 70s, day keys 24h.
var quotaScript = redis.NewScript(`
	local rpm_key = KEYS[1]
	local tpm_key = KEYS[2]
	local rpd_key = KEYS[3]
	local rpm_limit = tonumber(ARGV[1])
	local tpm_limit = tonumber(ARGV[2])
	local rpd_limit = tonumber(ARGV[3])
	local tokens = tonumber(ARGV[4])

	local rpm = redis.call('INCR', rpm_key)
	local tpm = redis.call('INCRBY', tpm_key, tokens)
	local rpd = redis.call('INCR', rpd_key)

	if rpm == 1 then redis.call('EXPIRE', rpm_key, 70) end
	if tpm == tokens then redis.call('EXPIRE', tpm_key, 70) end
	if rpd == 1 then redis.call('EXPIRE', rpd_key, 86400) end

	if rpm > rpm_limit then
		return {-1, 'RPM', rpm, rpm_limit}
	end
	if tpm > tpm_limit then
		return {-2, 'TPM', tpm, tpm_limit}
	end
	if rpd > rpd_limit then
		return {-3, 'RPD', rpd, rpd_limit}
	end

	return {0, 'OK', rpm, tpm, rpd}
`)

func (r *RateLimiter) keys(now time.Time) []string {
	return []string{
		fmt.Sprintf("%s:rpm:%s", r.prefix, now.Format("2006-01-02T15:04")),
		fmt.Sprintf("%s:tpm:%s", r.prefix, now.Format("2006-01-02T15:04")),
		fmt.Sprintf("%s:rpd:%s", r.prefix, now.Format("2006-01-02")),
	}
}

// CheckAndIncrement consumes one request and estimatedTokens from the
// budget. It never waits: an exhausted window returns *QuotaExceededError.
func (r *RateLimiter) CheckAndIncrement(ctx context.Context, estimatedTokens int64) error {
	now := r.now()

	result, err := quotaScript.Run(ctx, r.redis, r.keys(now),
		r.rpmLimit, r.tpmLimit, r.rpdLimit, estimatedTokens).Slice()
	if err != nil {
		return fmt.Errorf("rate limiter Redis operation failed: %w", err)
	}
	if len(result) < 2 {
		return fmt.Errorf("invalid rate limiter response format")
	}

	code, _ := result[0].(int64)
	if code >= 0 {
		return nil
	}
	if len(result) < 4 {
		return fmt.Errorf("invalid rate limiter response format")
	}

	window, _ := result[1].(string)
	current, _ := result[2].(int64)
	limit, _ := result[3].(int64)

	var resetIn time.Duration
	if window == "RPD" {
		tomorrow := now.Add(24 * time.Hour)
		midnight := time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), 0, 0, 0, 0, tomorrow.Location())
		resetIn = midnight.Sub(now)
	} else {
		resetIn = time.Duration(60-now.Second()) * time.Second
	}

	return &QuotaExceededError{Window: window, Current: current, Limit: limit, ResetIn: resetIn}
}

// GetCurrentUsage returns (rpm, tpm, rpd) for the current windows
func (r *RateLimiter) GetCurrentUsage(ctx context.Context) (int64, int64, int64, error) {
	keys := r.keys(r.now())

	pipe := r.redis.Pipeline()
	rpmCmd := pipe.Get(ctx, keys[0])
	tpmCmd := pipe.Get(ctx, keys[1])
	rpdCmd := pipe.Get(ctx, keys[2])

	_, err := pipe.Exec(ctx)
	if err != nil && err != redis.Nil {
		return 0, 0, 0, fmt.Errorf("failed to get usage stats: %w", err)
	}

	rpm, _ := rpmCmd.Int64()
	tpm, _ := tpmCmd.Int64()
	rpd, _ := rpdCmd.Int64()

	return rpm, tpm, rpd, nil
}

// Close closes the Redis connection
func (r *RateLimiter) Close() error {
	if r.redis != nil {
		return r.redis.Close()
	}
	return nil
}
