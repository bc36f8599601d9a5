package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/repograde/internal/config"
	"github.com/rohankatakam/repograde/internal/errors"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

const reportJSON = `{"score":72,"rating":"Solid","summary":"s","roadmap":[]}`

func chatCompletionHandler(t *testing.T, content string, seen *map[string]any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"), "path %s", r.URL.Path)
		if seen != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"id":"cmpl-1","object":"chat.completion","created":1,"model":"m",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":%q}}],
			"usage":{"prompt_tokens":10,"completion_tokens":5,"total_tokens":15}}`, content)
	}
}

func TestNew_ProviderSelection(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		cfg      config.ModelConfig
		wantType any
		wantKind errors.Kind
		wantErr  bool
	}{
		{"gemini default", config.ModelConfig{GeminiKey: "g"}, &GeminiClient{}, 0, false},
		{"gemini missing key", config.ModelConfig{Provider: config.ProviderGemini}, nil, errors.KindConfig, true},
		{"openai", config.ModelConfig{Provider: config.ProviderOpenAI, OpenAIKey: "o"}, &OpenAIClient{}, 0, false},
		{"openai missing key", config.ModelConfig{Provider: config.ProviderOpenAI}, nil, errors.KindConfig, true},
		{"custom", config.ModelConfig{Provider: config.ProviderCustom, CustomURL: "http://localhost:11434/v1", CustomModel: "llama3"}, &CompatibleClient{}, 0, false},
		{"custom missing model", config.ModelConfig{Provider: config.ProviderCustom, CustomURL: "http://localhost:11434/v1"}, nil, errors.KindConfig, true},
		{"unknown", config.ModelConfig{Provider: "claude-on-a-toaster"}, nil, errors.KindConfig, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model, err := New(ctx, tt.cfg, quiet)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsKind(err, tt.wantKind), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.wantType, model)
		})
	}
}

func TestCompatibleClient_Generate(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(chatCompletionHandler(t, reportJSON, &body))
	defer srv.Close()

	c, err := NewCompatibleClient(srv.URL+"/v1", "", "llama3", GenerationOptions{Temperature: 0.2, MaxTokens: 512}, quiet)
	require.NoError(t, err)
	assert.Equal(t, "llama3", c.Name())

	out, err := c.Generate(context.Background(), "grade this repo")
	require.NoError(t, err)
	assert.Equal(t, reportJSON, out)

	assert.Equal(t, "llama3", body["model"])
	assert.EqualValues(t, 512, body["max_tokens"])
	messages, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 1)
	assert.Equal(t, "grade this repo", messages[0].(map[string]any)["content"])
}

func TestOpenAIClient_Generate(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(chatCompletionHandler(t, reportJSON, &body))
	defer srv.Close()

	c, err := NewOpenAIClient("sk-test", "", srv.URL+"/", GenerationOptions{}, quiet)
	require.NoError(t, err)
	assert.Equal(t, DefaultOpenAIModel, c.Name())

	out, err := c.Generate(context.Background(), "grade this repo")
	require.NoError(t, err)
	assert.Equal(t, reportJSON, out)
	assert.Equal(t, DefaultOpenAIModel, body["model"])
}

func TestGeminiClient_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "gemini-2.0-flash:generateContent")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":%q}]},"finishReason":"STOP"}]}`, reportJSON)
	}))
	defer srv.Close()

	c, err := newGeminiClient(context.Background(), "g-key", "", srv.URL, GenerationOptions{}, quiet)
	require.NoError(t, err)

	out, err := c.Generate(context.Background(), "grade this repo")
	require.NoError(t, err)
	assert.Equal(t, reportJSON, out)
}

func TestGeminiClient_NoCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"candidates":[]}`)
	}))
	defer srv.Close()

	c, err := newGeminiClient(context.Background(), "g-key", "", srv.URL, GenerationOptions{}, quiet)
	require.NoError(t, err)

	_, err = c.Generate(context.Background(), "grade this repo")
	assert.True(t, errors.IsKind(err, errors.KindModelUnavailable), "got %v", err)
}

func TestGenerate_TransportFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"invalid api key","type":"invalid_request_error","code":"invalid_api_key"}}`)
	}))
	defer srv.Close()

	compatible, err := NewCompatibleClient(srv.URL+"/v1", "bad", "m", GenerationOptions{}, quiet)
	require.NoError(t, err)
	official, err := NewOpenAIClient("bad", "m", srv.URL+"/", GenerationOptions{}, quiet)
	require.NoError(t, err)

	for _, model := range []Model{compatible, official} {
		_, err := model.Generate(context.Background(), "p")
		assert.True(t, errors.IsKind(err, errors.KindModelUnavailable), "%T: got %v", model, err)
	}
}

func TestCompatibleClient_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"x","object":"chat.completion","choices":[]}`)
	}))
	defer srv.Close()

	c, err := NewCompatibleClient(srv.URL+"/v1", "", "m", GenerationOptions{}, quiet)
	require.NoError(t, err)

	_, err = c.Generate(context.Background(), "p")
	assert.True(t, errors.IsKind(err, errors.KindModelUnavailable))
}
