package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/medpilot/medpilot/internal/cases"
	"github.com/medpilot/medpilot/internal/workflow"
)

type diagnoseResponse struct {
	Status  string              `json:"status"`
	Result  *workflow.CaseState `json:"result,omitempty"`
	Stage   string              `json:"stage,omitempty"`
	Message string              `json:"message,omitempty"`
}

func (s *Server) handleDiagnose(w http.ResponseWriter, r *http.Request) {
	var req workflow.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	state, err := workflow.New(s.deps, s.cfg).Run(r.Context(), req)
	if err != nil {
		var perr *workflow.PipelineError
		if errors.As(err, &perr) {
			writeJSON(w, http.StatusBadGateway, diagnoseResponse{
				Status:  "error",
				Stage:   string(perr.Stage),
				Message: perr.Err.Error(),
			})
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, diagnoseResponse{Status: "success", Result: state})
}

func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	symptoms := splitParam(r.URL.Query().Get("symptoms"))
	role := cases.ParseRole(r.URL.Query().Get("role"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	similar, err := s.queries.FindSimilarCases(r.Context(), symptoms, role, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, similar)
}

func (s *Server) handleComorbidities(w http.ResponseWriter, r *http.Request) {
	diagnosis := r.URL.Query().Get("diagnosis")
	if diagnosis == "" {
		writeError(w, http.StatusBadRequest, "diagnosis parameter is required")
		return
	}
	role := cases.ParseRole(r.URL.Query().Get("role"))

	comorbidities, err := s.queries.FindComorbidities(r.Context(), diagnosis, role)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, comorbidities)
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	role := cases.ParseRole(r.URL.Query().Get("role"))

	stats, err := s.queries.CaseStatistics(r.Context(), role)
	if err != nil {
		if errors.Is(err, workflow.ErrUnauthorized) {
			writeError(w, http.StatusForbidden, "Unauthorized access")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body struct {
		Role  string `json:"role"`
		Valid bool   `json:"valid"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := s.queries.ValidateCase(r.Context(), id, cases.ParseRole(body.Role), body.Valid)
	switch {
	case errors.Is(err, workflow.ErrUnauthorized):
		writeError(w, http.StatusForbidden, "Unauthorized access")
	case err != nil:
		writeError(w, http.StatusNotFound, err.Error())
	default:
		writeJSON(w, http.StatusOK, map[string]any{"id": id, "validated": body.Valid})
	}
}

func splitParam(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
