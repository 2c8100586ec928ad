// Package mcp exposes the diagnostic pipeline and case queries as MCP
// tools over stdio.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/medpilot/medpilot/internal/workflow"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes diagnostic tools.
type Server struct {
	deps    workflow.Deps
	cfg     workflow.Config
	queries *workflow.Queries
	mcp     *server.MCPServer
}

// NewServer creates an MCP server over the given pipeline dependencies.
func NewServer(deps workflow.Deps, cfg workflow.Config, queries *workflow.Queries) *Server {
	s := &Server{deps: deps, cfg: cfg, queries: queries}

	s.mcp = server.NewMCPServer(
		"medpilot",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers.
func (s *Server) registerTools() {
	s.mcp.AddTool(diagnoseTool, s.handleDiagnose)
	s.mcp.AddTool(findSimilarCasesTool, s.handleFindSimilarCases)
	s.mcp.AddTool(findComorbiditiesTool, s.handleFindComorbidities)
	s.mcp.AddTool(caseStatisticsTool, s.handleCaseStatistics)
}

// Serve starts the MCP server on stdio. Stdout carries MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
