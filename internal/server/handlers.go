package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rohankatakam/repograde/internal/errors"
)

// maxBodyBytes caps request bodies; both endpoints take a few short strings
const maxBodyBytes = 64 << 10

// DetailsRequest is the body of POST /api/details
type DetailsRequest struct {
	URL string `json:"url"`
}

// AnalyzeRequest is the body of POST /api/analyze
type AnalyzeRequest struct {
	Owner string `json:"owner"`
	Repo  string `json:"repo"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		MethodNotAllowed(w, http.MethodGet)
		return
	}
	WriteJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

func (s *Server) handleDetails(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowed(w, http.MethodPost)
		return
	}

	var req DetailsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		WriteError(w, errors.ValidationErrorf("url is required"))
		return
	}

	details, err := s.service.Resolve(r.Context(), req.URL)
	if err != nil {
		s.logFailure(r, err)
		WriteError(w, err)
		return
	}

	WriteJSON(w, details, http.StatusOK)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowed(w, http.MethodPost)
		return
	}

	var req AnalyzeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	report, err := s.service.Analyze(r.Context(), req.Owner, req.Repo)
	if err != nil {
		s.logFailure(r, err)
		WriteError(w, err)
		return
	}

	WriteJSON(w, report, http.StatusOK)
}

// decodeBody reads a JSON object into dst, writing a 400 on failure
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		WriteError(w, errors.ValidationErrorf("invalid JSON body: %v", err))
		return false
	}
	return true
}

func (s *Server) logFailure(r *http.Request, err error) {
	entry := s.logger.WithError(err).WithField("requestID", GetRequestID(r.Context()))
	if errors.KindOf(err) == errors.KindInternal || errors.KindOf(err) == errors.KindConfig {
		entry.Error("Request failed")
		return
	}
	entry.Warn("Request failed")
}
