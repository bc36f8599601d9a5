package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/repograde/internal/config"
	"github.com/rohankatakam/repograde/internal/errors"
	"github.com/rohankatakam/repograde/internal/logging"
	"github.com/rohankatakam/repograde/internal/models"
)

type fakeService struct {
	report   models.Report
	details  models.RepositoryDetails
	err      error
	panicMsg string
	gotOwner string
	gotRepo  string
	gotURL   string
}

func (f *fakeService) Analyze(ctx context.Context, owner, repo string) (models.Report, error) {
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	f.gotOwner, f.gotRepo = owner, repo
	if f.err != nil {
		return models.Report{}, f.err
	}
	if err := (models.RepositoryID{Owner: owner, Name: repo}).Validate(); err != nil {
		return models.Report{}, err
	}
	return f.report, nil
}

func (f *fakeService) Resolve(ctx context.Context, remoteURL string) (models.RepositoryDetails, error) {
	f.gotURL = remoteURL
	if f.err != nil {
		return models.RepositoryDetails{}, f.err
	}
	return f.details, nil
}

func newTestServer(svc Service) *Server {
	return New(config.ServerConfig{Addr: ":0", AllowOrigin: "https://app.example.com"}, svc, logging.Discard())
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), "body: %s", rec.Body.String())
	return resp
}

func TestAnalyzeEndpoint(t *testing.T) {
	svc := &fakeService{report: models.Report{
		Score:   81,
		Rating:  "Well maintained",
		Summary: "Good.",
		Roadmap: []models.RoadmapItem{{Title: "a", Explanation: "b"}, {Title: "c", Explanation: "d"}, {Title: "e", Explanation: "f"}},
	}}
	s := newTestServer(svc)

	rec := do(t, s, http.MethodPost, "/api/analyze", `{"owner":"octo","repo":"hello"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "octo", svc.gotOwner)
	assert.Equal(t, "hello", svc.gotRepo)

	var report models.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, svc.report, report)
}

func TestDetailsEndpoint(t *testing.T) {
	svc := &fakeService{details: models.RepositoryDetails{Name: "hello", FullName: "octo/hello", Stars: 9}}
	s := newTestServer(svc)

	rec := do(t, s, http.MethodPost, "/api/details", `{"url":"https://github.com/octo/hello"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://github.com/octo/hello", svc.gotURL)

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "octo/hello", got["fullName"])
	assert.EqualValues(t, 9, got["stars"])

	rec = do(t, s, http.MethodPost, "/api/details", `{"url":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantKind   string
	}{
		{"not found", errors.RemoteNotFound("repository octo/hello", nil), 404, "remote_not_found"},
		{"unauthorized", errors.RemoteUnauthorized(nil), 401, "remote_unauthorized"},
		{"remote api", errors.RemoteAPIError(500, "Internal Server Error", nil), 502, "remote_api_error"},
		{"model unavailable", errors.ModelUnavailable(context.DeadlineExceeded), 503, "model_unavailable"},
		{"malformed output", errors.MalformedOutputf("score must be an integer"), 502, "malformed_model_output"},
		{"config", errors.ConfigErrorf("no key"), 500, "configuration_error"},
		{"plain error", context.Canceled, 500, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(&fakeService{err: tt.err})
			rec := do(t, s, http.MethodPost, "/api/analyze", `{"owner":"octo","repo":"hello"}`)

			assert.Equal(t, tt.wantStatus, rec.Code)
			resp := decodeError(t, rec)
			assert.Equal(t, tt.wantKind, resp.Kind)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestMalformedOutputMessageReachesClient(t *testing.T) {
	s := newTestServer(&fakeService{err: errors.MalformedOutputf("roadmap must have exactly 3 items, got 2")})
	rec := do(t, s, http.MethodPost, "/api/analyze", `{"owner":"octo","repo":"hello"}`)

	resp := decodeError(t, rec)
	assert.Contains(t, resp.Error, "roadmap must have exactly 3 items")
}

func TestBadRequests(t *testing.T) {
	s := newTestServer(&fakeService{})

	rec := do(t, s, http.MethodPost, "/api/analyze", `{"owner":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request", decodeError(t, rec).Kind)

	rec = do(t, s, http.MethodPost, "/api/analyze", `{"owner":"","repo":"hello"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/analyze", `{"owner":"octo","repo":"`+strings.Repeat("x", maxBodyBytes)+`"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	s := newTestServer(&fakeService{})

	for _, path := range []string{"/api/analyze", "/api/details"} {
		rec := do(t, s, http.MethodGet, path, "")
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, path)
		assert.Equal(t, http.MethodPost, rec.Header().Get("Allow"))
	}

	rec := do(t, s, http.MethodPost, "/healthz", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestServer(&fakeService{}), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestMiddleware(t *testing.T) {
	s := newTestServer(&fakeService{})

	t.Run("request id generated", func(t *testing.T) {
		rec := do(t, s, http.MethodGet, "/healthz", "")
		assert.Len(t, rec.Header().Get("X-Request-ID"), 36)
	})

	t.Run("request id propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.Header.Set("X-Request-ID", "abc-123")
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, req)
		assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
	})

	t.Run("cors preflight", func(t *testing.T) {
		rec := do(t, s, http.MethodOptions, "/api/analyze", "")
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("panic recovered", func(t *testing.T) {
		ps := newTestServer(&fakeService{panicMsg: "boom"})
		rec := do(t, ps, http.MethodPost, "/api/analyze", `{"owner":"octo","repo":"hello"}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		resp := decodeError(t, rec)
		assert.Equal(t, "internal_error", resp.Kind)
		assert.NotContains(t, resp.Error, "boom")
	})
}

func TestStartShutdown(t *testing.T) {
	s := New(config.ServerConfig{Addr: "127.0.0.1:0"}, &fakeService{}, logging.Discard())

	done := make(chan error, 1)
	go func() { done <- s.Start() }()

	require.NoError(t, s.Shutdown(context.Background()))
	assert.NoError(t, <-done)
}
