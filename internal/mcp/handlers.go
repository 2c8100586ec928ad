package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/medpilot/medpilot/internal/cases"
	"github.com/medpilot/medpilot/internal/workflow"
)

// handleDiagnose runs one pipeline request.
func (s *Server) handleDiagnose(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := request.RequireString("patient_input")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: patient_input"), nil
	}
	role := cases.ParseRole(request.GetString("role", "patient"))

	state, err := workflow.New(s.deps, s.cfg).Run(ctx, workflow.Request{
		PatientInput: input,
		UserRole:     role,
	})
	if err != nil {
		var perr *workflow.PipelineError
		if errors.As(err, &perr) {
			return mcp.NewToolResultError(fmt.Sprintf("pipeline failed at stage %s: %v", perr.Stage, perr.Err)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("pipeline failed: %v", err)), nil
	}

	return jsonResult(state)
}

// handleFindSimilarCases looks up stored cases by symptom overlap.
func (s *Server) handleFindSimilarCases(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := request.RequireString("symptoms")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: symptoms"), nil
	}

	var symptoms []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			symptoms = append(symptoms, s)
		}
	}

	role := cases.ParseRole(request.GetString("role", "patient"))
	limit := request.GetInt("limit", 5)

	similar, err := s.queries.FindSimilarCases(ctx, symptoms, role, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("similar case lookup failed: %v", err)), nil
	}
	if len(similar) == 0 {
		return mcp.NewToolResultText("No similar cases found."), nil
	}

	return jsonResult(similar)
}

// handleFindComorbidities lists co-occurring conditions.
func (s *Server) handleFindComorbidities(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	diagnosis, err := request.RequireString("diagnosis")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: diagnosis"), nil
	}
	role := cases.ParseRole(request.GetString("role", "patient"))

	comorbidities, err := s.queries.FindComorbidities(ctx, diagnosis, role)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("comorbidity lookup failed: %v", err)), nil
	}
	if len(comorbidities) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No recorded comorbidities for %q.", diagnosis)), nil
	}

	return jsonResult(comorbidities)
}

// handleCaseStatistics returns aggregate counts; doctor only.
func (s *Server) handleCaseStatistics(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	roleStr, err := request.RequireString("role")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: role"), nil
	}

	stats, err := s.queries.CaseStatistics(ctx, cases.ParseRole(roleStr))
	if err != nil {
		if errors.Is(err, workflow.ErrUnauthorized) {
			return mcp.NewToolResultError("Unauthorized access"), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("statistics lookup failed: %v", err)), nil
	}

	return jsonResult(stats)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
