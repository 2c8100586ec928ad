package server

import (
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/medpilot/medpilot/internal/progress"
	"github.com/medpilot/medpilot/internal/workflow"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// stageEvent is one progress frame sent while a pipeline run advances.
type stageEvent struct {
	Type  string `json:"type"`
	Stage string `json:"stage,omitempty"`
	Label string `json:"label,omitempty"`
	Index int    `json:"index,omitempty"`
	Total int    `json:"total,omitempty"`
}

// wsReporter forwards stage progress to the websocket client.
type wsReporter struct {
	conn *websocket.Conn
}

func (r *wsReporter) StageStarted(stage workflow.Stage, index, total int) {
	err := r.conn.WriteJSON(stageEvent{
		Type:  "stage",
		Stage: string(stage),
		Label: progress.Label(stage),
		Index: index,
		Total: total,
	})
	if err != nil {
		log.Printf("websocket stage event dropped: %v", err)
	}
}

// handleDiagnoseWS reads one diagnostic request, streams stage events
// while the pipeline runs, and finishes with a result or error frame.
func (s *Server) handleDiagnoseWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	var req workflow.Request
	if err := conn.ReadJSON(&req); err != nil {
		_ = conn.WriteJSON(diagnoseResponse{Status: "error", Message: "invalid request"})
		return
	}

	deps := s.deps
	deps.Reporter = &wsReporter{conn: conn}

	state, err := workflow.New(deps, s.cfg).Run(r.Context(), req)
	if err != nil {
		resp := diagnoseResponse{Status: "error", Message: err.Error()}
		var perr *workflow.PipelineError
		if errors.As(err, &perr) {
			resp.Stage = string(perr.Stage)
			resp.Message = perr.Err.Error()
		}
		_ = conn.WriteJSON(resp)
		return
	}

	_ = conn.WriteJSON(diagnoseResponse{Status: "success", Result: state})
}
