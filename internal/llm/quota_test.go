package llm

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/repograde/internal/errors"
)

type fakeModel struct {
	calls int
	out   string
}

func (m *fakeModel) Generate(ctx context.Context, prompt string) (string, error) {
	m.calls++
	return m.out, nil
}

func (m *fakeModel) Name() string { return "fake" }

type fakeQuota struct {
	err    error
	tokens []int64
}

func (q *fakeQuota) CheckAndIncrement(ctx context.Context, estimatedTokens int64) error {
	q.tokens = append(q.tokens, estimatedTokens)
	return q.err
}

func TestGuard_NilLimiter(t *testing.T) {
	model := &fakeModel{}
	assert.Same(t, model, Guard(model, nil, quiet))
}

func TestGuard_Allows(t *testing.T) {
	model := &fakeModel{out: "{}"}
	quota := &fakeQuota{}
	guarded := Guard(model, quota, quiet)

	out, err := guarded.Generate(context.Background(), "12345678")
	require.NoError(t, err)
	assert.Equal(t, "{}", out)
	assert.Equal(t, 1, model.calls)
	assert.Equal(t, []int64{502}, quota.tokens)
	assert.Equal(t, "fake", guarded.Name())
}

func TestGuard_Exhausted(t *testing.T) {
	model := &fakeModel{}
	quota := &fakeQuota{err: &QuotaExceededError{Window: "RPM", Current: 11, Limit: 10, ResetIn: 30 * time.Second}}

	_, err := Guard(model, quota, quiet).Generate(context.Background(), "p")
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindModelUnavailable))
	assert.Contains(t, err.Error(), "RPM quota exhausted")
	assert.Zero(t, model.calls, "model must not be called once quota is spent")
}

func TestGuard_StoreDown(t *testing.T) {
	model := &fakeModel{out: "{}"}
	quota := &fakeQuota{err: stderrors.New("dial tcp: connection refused")}

	out, err := Guard(model, quota, quiet).Generate(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "{}", out)
	assert.Equal(t, 1, model.calls)
}

func TestGuard_Canceled(t *testing.T) {
	model := &fakeModel{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	quota := &fakeQuota{err: context.Canceled}

	_, err := Guard(model, quota, quiet).Generate(ctx, "p")
	assert.True(t, errors.IsKind(err, errors.KindModelUnavailable))
	assert.Zero(t, model.calls)
}
