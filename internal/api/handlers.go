package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"atlas/internal/agents"
	"atlas/internal/domain/order"
	"atlas/internal/domain/trace"
	"atlas/internal/services/execution"
	"atlas/internal/services/portfolio"
	"atlas/internal/workers"
	"atlas/pkg/errors"
	"atlas/pkg/logger"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// Handlers exposes the trading API over HTTP
type Handlers struct {
	accountID    string
	portfolio    *portfolio.Service
	execution    *execution.Service
	orders       order.Repository
	traces       trace.Repository
	pilot        *agents.Pilot
	orchestrator *agents.Orchestrator
	competition  *agents.Competition
	scheduler    *workers.Scheduler
	log          *logger.Logger
}

// NewHandlers creates the API handler set
func NewHandlers(
	accountID string,
	portfolioSvc *portfolio.Service,
	executionSvc *execution.Service,
	orders order.Repository,
	traces trace.Repository,
	pilot *agents.Pilot,
	orchestrator *agents.Orchestrator,
	competition *agents.Competition,
	scheduler *workers.Scheduler,
) *Handlers {
	return &Handlers{
		accountID:    accountID,
		portfolio:    portfolioSvc,
		execution:    executionSvc,
		orders:       orders,
		traces:       traces,
		pilot:        pilot,
		orchestrator: orchestrator,
		competition:  competition,
		scheduler:    scheduler,
		log:          logger.Get().With("component", "api"),
	}
}

// GetPortfolio returns the current account state with live prices
func (h *Handlers) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	state, err := h.portfolio.LoadState(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, state)
}

// GetEquityHistory returns equity snapshots for a time range
func (h *Handlers) GetEquityHistory(w http.ResponseWriter, r *http.Request) {
	to := time.Now()
	from := to.AddDate(0, 0, -30)

	if v := r.URL.Query().Get("from"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			h.writeError(w, errors.Wrap(errors.ErrInvalidInput, "invalid from timestamp"))
			return
		}
		from = parsed
	}
	if v := r.URL.Query().Get("to"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			h.writeError(w, errors.Wrap(errors.ErrInvalidInput, "invalid to timestamp"))
			return
		}
		to = parsed
	}

	snapshots, err := h.portfolio.EquityHistory(r.Context(), from, to)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"snapshots": snapshots})
}

// ListOrders returns recent orders, optionally filtered by status
func (h *Handlers) ListOrders(w http.ResponseWriter, r *http.Request) {
	limit := h.limitParam(r)

	var (
		orders []*order.Order
		err    error
	)
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := order.Status(raw)
		if !status.Valid() {
			h.writeError(w, errors.Wrapf(errors.ErrInvalidInput, "unknown status %q", raw))
			return
		}
		orders, err = h.orders.GetByStatus(r.Context(), h.accountID, status, limit)
	} else {
		orders, err = h.orders.GetRecent(r.Context(), h.accountID, limit)
	}
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"orders": orders})
}

// ApproveOrder fills a proposed order at the current market price
func (h *Handlers) ApproveOrder(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.writeError(w, errors.Wrap(errors.ErrInvalidInput, "invalid order id"))
		return
	}

	filled, err := h.execution.Approve(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, filled)
}

// RejectOrder declines a proposed order
func (h *Handlers) RejectOrder(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.writeError(w, errors.Wrap(errors.ErrInvalidInput, "invalid order id"))
		return
	}

	var body struct {
		Reason string `json:"reason"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}
	if body.Reason == "" {
		body.Reason = "rejected by user"
	}

	rejected, err := h.execution.Reject(r.Context(), id, body.Reason)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, rejected)
}

// ListRuns returns recent agent runs, newest first
func (h *Handlers) ListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.traces.GetRuns(r.Context(), h.limitParam(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"runs": runs})
}

// ListToolCalls returns the tool call log for one run
func (h *Handlers) ListToolCalls(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("id")
	if runID == "" {
		h.writeError(w, errors.Wrap(errors.ErrInvalidInput, "missing run id"))
		return
	}

	calls, err := h.traces.GetToolCalls(r.Context(), runID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"run_id": runID, "tool_calls": calls})
}

// TriggerPilot starts an autonomous trading cycle in the background
func (h *Handlers) TriggerPilot(w http.ResponseWriter, r *http.Request) {
	if h.pilot.Running() {
		h.writeError(w, errors.ErrPilotRunning)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		run, err := h.pilot.Run(ctx)
		if err != nil {
			h.log.Errorw("Manually triggered pilot run failed", "error", err)
			return
		}
		h.log.Infow("Manually triggered pilot run finished", "run_id", run.RunID, "status", run.Status)
	}()

	h.writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

// PilotStatus reports whether a pilot cycle is in progress
func (h *Handlers) PilotStatus(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]bool{"running": h.pilot.Running()})
}

// GetLeaderboard ranks the competition field by return
func (h *Handlers) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	if h.competition == nil {
		h.writeError(w, errors.Wrap(errors.ErrNotFound, "competition is not enabled"))
		return
	}

	entries, err := h.competition.Leaderboard(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"leaderboard": entries})
}

// ListCompetitors returns the configured competition field
func (h *Handlers) ListCompetitors(w http.ResponseWriter, r *http.Request) {
	if h.competition == nil {
		h.writeError(w, errors.Wrap(errors.ErrNotFound, "competition is not enabled"))
		return
	}

	type competitorInfo struct {
		Name      string `json:"name"`
		Model     string `json:"model"`
		AccountID string `json:"account_id"`
	}
	competitors := h.competition.Competitors()
	out := make([]competitorInfo, 0, len(competitors))
	for _, c := range competitors {
		out = append(out, competitorInfo{Name: c.Name, Model: c.Model, AccountID: c.AccountID})
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"competitors": out,
		"running":     h.competition.Running(),
	})
}

// TriggerCompetition starts a competition cycle in the background
func (h *Handlers) TriggerCompetition(w http.ResponseWriter, r *http.Request) {
	if h.competition == nil {
		h.writeError(w, errors.Wrap(errors.ErrNotFound, "competition is not enabled"))
		return
	}
	if h.competition.Running() {
		h.writeError(w, errors.ErrCompetitionRunning)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()

		results, err := h.competition.Run(ctx)
		if err != nil {
			h.log.Errorw("Manually triggered competition cycle failed", "error", err)
			return
		}
		h.log.Infow("Manually triggered competition cycle finished", "competitors", len(results))
	}()

	h.writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

// ListWorkers reports registered background workers
func (h *Handlers) ListWorkers(w http.ResponseWriter, r *http.Request) {
	type workerInfo struct {
		Name     string `json:"name"`
		Interval string `json:"interval"`
		Enabled  bool   `json:"enabled"`
	}

	registered := h.scheduler.Workers()
	infos := make([]workerInfo, 0, len(registered))
	for _, worker := range registered {
		infos = append(infos, workerInfo{
			Name:     worker.Name(),
			Interval: worker.Interval().String(),
			Enabled:  worker.Enabled(),
		})
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"running": h.scheduler.IsRunning(),
		"workers": infos,
	})
}

func (h *Handlers) limitParam(r *http.Request) int {
	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 && parsed <= maxListLimit {
			limit = parsed
		}
	}
	return limit
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Warnw("Failed to encode response", "error", err)
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, errors.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, errors.ErrNotFound),
		errors.Is(err, errors.ErrOrderNotFound),
		errors.Is(err, errors.ErrAccountNotFound),
		errors.Is(err, errors.ErrNoPosition):
		status = http.StatusNotFound
	case errors.Is(err, errors.ErrOrderNotActionable),
		errors.Is(err, errors.ErrAlreadyExists),
		errors.Is(err, errors.ErrPilotRunning),
		errors.Is(err, errors.ErrCompetitionRunning):
		status = http.StatusConflict
	case errors.Is(err, errors.ErrInsufficientFunds),
		errors.Is(err, errors.ErrInsufficientShares),
		errors.Is(err, errors.ErrTradeRejected):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, errors.ErrExternal),
		errors.Is(err, errors.ErrUnavailable):
		status = http.StatusBadGateway
	case errors.Is(err, errors.ErrTimeout):
		status = http.StatusGatewayTimeout
	}

	if status >= http.StatusInternalServerError {
		h.log.Errorw("Request failed", "error", err, "status", status)
	}

	h.writeJSON(w, status, map[string]string{"error": err.Error()})
}
