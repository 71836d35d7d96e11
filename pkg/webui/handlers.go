package webui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/alantheprice/querysynth/pkg/docs"
	"github.com/alantheprice/querysynth/pkg/synth"
)

// handleIndex serves the single-page UI.
func (ws *WebServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	data, err := staticFiles.ReadFile("static/index.html")
	if err != nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Write(data)
}

// handleSynthesize runs a synthesis loop and streams one NDJSON line per
// iteration. The run is cancelled when the client disconnects or the run is
// cancelled through the registry.
func (ws *WebServer) handleSynthesize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req synth.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ws.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if strings.TrimSpace(req.TaskDescription) == "" {
		ws.writeError(w, http.StatusBadRequest, "taskDescription is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		ws.writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	runID := ws.runs.add(req.TaskDescription, cancel)

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Run-Id", runID)
	w.WriteHeader(http.StatusOK)
	// Push headers out so the caller sees the run id before the first record.
	flusher.Flush()

	encoder := json.NewEncoder(w)
	iterations := 0
	sink := func(record synth.Iteration) error {
		if err := encoder.Encode(record); err != nil {
			return err
		}
		flusher.Flush()
		iterations = record.Iteration
		ws.runs.setIterations(runID, iterations)
		return nil
	}

	loop := ws.newLoop(runID)
	err := loop.Run(ctx, req, sink)

	status := RunStatusCompleted
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
		status = RunStatusCancelled
	default:
		status = RunStatusFailed
	}
	ws.runs.finish(runID, status)

	trailer := map[string]interface{}{
		"done":       true,
		"runId":      runID,
		"status":     status,
		"iterations": iterations,
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		trailer["error"] = err.Error()
	}
	if encodeErr := encoder.Encode(trailer); encodeErr == nil {
		flusher.Flush()
	}

	if err != nil {
		log.Printf("Synthesis run %s ended: %v", runID, err)
	}
}

// newLoop wires a fresh synthesis loop for one run.
func (ws *WebServer) newLoop(runID string) *synth.Loop {
	selector := docs.NewSelector(ws.selection, ws.store)
	generator := synth.NewCandidateGenerator(ws.client, selector)
	reasoner := synth.NewReasoningGenerator(ws.client, selector)
	return synth.NewLoop(generator, reasoner, ws.cfg.MaxIterations,
		synth.WithEvents(ws.eventBus, runID))
}

// handleExamples generates labeled example documents for an expression.
func (ws *WebServer) handleExamples(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Expression   string `json:"expression"`
		SampleOutput string `json:"sampleOutput"`
		Description  string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ws.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	result, err := ws.examples.Generate(r.Context(), req.Expression, req.SampleOutput, req.Description)
	if err != nil {
		ws.writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// handleRuns lists known runs, newest first.
func (ws *WebServer) handleRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"runs": ws.runs.list(),
	})
}

// handleRunAction dispatches /api/runs/{id}/cancel.
func (ws *WebServer) handleRunAction(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/runs/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[1] != "cancel" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	runID := parts[0]
	if !ws.runs.cancelRun(runID) {
		ws.writeError(w, http.StatusNotFound, fmt.Sprintf("no running synthesis with id %s", runID))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"runId":     runID,
		"cancelled": true,
	})
}

func (ws *WebServer) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
