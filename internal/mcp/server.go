package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/repograde/internal/errors"
	"github.com/rohankatakam/repograde/internal/models"
)

// Tool names
const (
	ToolAnalyze = "analyze_repository"
	ToolResolve = "resolve_repository"
)

// Service is the analysis core exposed as tools. *analyzer.Analyzer
// satisfies it.
type Service interface {
	Analyze(ctx context.Context, owner, repo string) (models.Report, error)
	Resolve(ctx context.Context, remoteURL string) (models.RepositoryDetails, error)
}

// AnalyzeInput is the argument of analyze_repository
type AnalyzeInput struct {
	Owner string `json:"owner" jsonschema:"repository owner, a user or organization login"`
	Repo  string `json:"repo" jsonschema:"repository name"`
}

// ResolveInput is the argument of resolve_repository
type ResolveInput struct {
	URL string `json:"url" jsonschema:"repository URL such as https://github.com/owner/repo"`
}

// Handler serves the tools over MCP
type Handler struct {
	service Service
	logger  logrus.FieldLogger
}

// NewHandler creates a handler for service
func NewHandler(service Service, logger logrus.FieldLogger) *Handler {
	return &Handler{
		service: service,
		logger:  logger.WithField("component", "mcp"),
	}
}

// NewServer builds an MCP server with both tools registered
func NewServer(h *Handler, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "repograde", Version: version}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolAnalyze,
		Description: "Grade a GitHub repository from its file tree, README and recent commits. Returns a 0-100 score, a rating, a summary and a three step improvement roadmap as JSON.",
	}, h.Analyze)

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolResolve,
		Description: "Look up a GitHub repository by URL. Returns its name, description, stars and forks as JSON.",
	}, h.Resolve)

	return server
}

// Serve runs the MCP server on stdio until ctx is done or the client leaves
func Serve(ctx context.Context, h *Handler, version string) error {
	h.logger.Info("MCP server started on stdio")
	return NewServer(h, version).Run(ctx, &mcp.StdioTransport{})
}

// Analyze handles analyze_repository
func (h *Handler) Analyze(ctx context.Context, req *mcp.CallToolRequest, in AnalyzeInput) (*mcp.CallToolResult, any, error) {
	report, err := h.service.Analyze(ctx, in.Owner, in.Repo)
	if err != nil {
		h.logger.WithError(err).WithField("repo", in.Owner+"/"+in.Repo).Warn("Tool call failed")
		return toolError(err), nil, nil
	}
	return jsonResult(report)
}

// Resolve handles resolve_repository
func (h *Handler) Resolve(ctx context.Context, req *mcp.CallToolRequest, in ResolveInput) (*mcp.CallToolResult, any, error) {
	details, err := h.service.Resolve(ctx, in.URL)
	if err != nil {
		h.logger.WithError(err).WithField("url", in.URL).Warn("Tool call failed")
		return toolError(err), nil, nil
	}
	return jsonResult(details)
}

func jsonResult(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("encode tool result: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil, nil
}

// toolError reports failures in the result so the calling agent can read
// the kind and decide what to do
func toolError(err error) *mcp.CallToolResult {
	kind := errors.KindOf(err)
	msg := "internal error"
	if e, ok := errors.As(err); ok && kind != errors.KindInternal {
		msg = e.Message
	}
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("%s: %s", kind, msg)}},
	}
}
