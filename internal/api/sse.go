package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"atlas/pkg/errors"
)

// AnalyzeRequest is the copilot analysis request body
type AnalyzeRequest struct {
	UserID string `json:"user_id"`
	Intent string `json:"intent"`
}

// Analyze streams copilot analysis progress as Server-Sent Events.
// The connection stays open until a terminal event (complete or error)
// or until the client disconnects.
func (h *Handlers) Analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, errors.Wrap(errors.ErrInvalidInput, "invalid request body"))
		return
	}
	if strings.TrimSpace(req.Intent) == "" {
		h.writeError(w, errors.Wrap(errors.ErrInvalidInput, "intent is required"))
		return
	}
	if req.UserID == "" {
		req.UserID = "anonymous"
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.writeError(w, errors.Wrap(errors.ErrInternal, "streaming unsupported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	events := h.orchestrator.Analyze(r.Context(), req.UserID, req.Intent)
	for event := range events {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			h.log.Warnw("Failed to encode stream event", "type", event.Type, "error", err)
			continue
		}

		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, payload)
		flusher.Flush()
	}
}
