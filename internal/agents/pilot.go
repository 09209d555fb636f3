package agents

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"atlas/internal/adapters/ai"
	"atlas/internal/domain/account"
	"atlas/internal/domain/order"
	"atlas/internal/domain/trace"
	"atlas/internal/events"
	"atlas/internal/metrics"
	"atlas/internal/services/execution"
	"atlas/internal/services/portfolio"
	"atlas/pkg/errors"
	"atlas/pkg/logger"
)

// PilotUserID marks traces produced by the autonomous loop
const PilotUserID = "AUTONOMOUS_PILOT"

// Trader submits trades for immediate execution
type Trader interface {
	SubmitTrade(ctx context.Context, req execution.ProposeRequest) (*order.Order, error)
}

// Snapshotter records the post-cycle equity curve point
type Snapshotter interface {
	SaveSnapshot(ctx context.Context, state *portfolio.State) (*account.EquitySnapshot, error)
}

// RunNotifier delivers the post-run digest to a chat channel
type RunNotifier interface {
	NotifyPilotRun(ctx context.Context, runID string, decisions int, trades int, equity float64) error
}

// PilotConfig carries everything a pilot run needs to assemble its
// pipeline. Agents and hub are built fresh per run so no state leaks
// between runs.
type PilotConfig struct {
	Chat      ai.ChatProvider
	Model     string
	Tools     ToolExecutor
	Loader    StateLoader
	Trader    Trader
	Snapshots Snapshotter
	Traces    trace.Repository
	Events    *events.Publisher
	Notify    RunNotifier
	Watchlist []string
	AccountID string

	// UserID overrides the trace owner, the competition tags runs per
	// competitor this way. Empty means the shared autonomous pilot.
	UserID string
}

// Pilot is the autonomous loop: run the coordinator over the watchlist,
// execute the tradeable decisions, reflect, persist the trace. At most
// one run is in flight per process.
type Pilot struct {
	cfg     PilotConfig
	running atomic.Bool
	log     *logger.Logger
}

// NewPilot creates the autonomous pilot
func NewPilot(cfg PilotConfig) *Pilot {
	return &Pilot{
		cfg: cfg,
		log: logger.Get().With("component", "pilot"),
	}
}

// Running reports whether a run is currently in flight
func (p *Pilot) Running() bool {
	return p.running.Load()
}

// Run executes one full autonomous cycle and returns the finished trace.
// The trace is persisted exactly once on every exit path, including
// failures partway through.
func (p *Pilot) Run(ctx context.Context) (*trace.Run, error) {
	if !p.running.CompareAndSwap(false, true) {
		return nil, errors.ErrPilotRunning
	}
	defer p.running.Store(false)

	runID := uuid.NewString()
	tracer := NewTracer(runID, p.cfg.Traces)
	started := time.Now().UTC()

	userID := p.cfg.UserID
	if userID == "" {
		userID = PilotUserID
	}

	run := &trace.Run{
		RunID:     runID,
		UserID:    userID,
		Mode:      "autonomous",
		Status:    trace.RunStatusRunning,
		Input:     mustJSON(map[string]interface{}{"watchlist": p.cfg.Watchlist}),
		StartedAt: started,
	}

	defer func() {
		run.EndedAt = time.Now().UTC()
		run.DurationMs = run.EndedAt.Sub(started).Milliseconds()
		run.ToolsCalled = marshalToolCalls(tracer.ToolCalls())
		metrics.RecordPilotRun(run.Status.String())
		if err := p.saveRun(run); err != nil {
			p.log.Errorf("Failed to persist run trace %s: %v", runID, err)
		}
	}()

	p.log.Infow("Pilot run starting", "run_id", runID, "watchlist", p.cfg.Watchlist)

	hub := NewHub()
	analyst := NewMarketAnalyst(hub, p.cfg.Chat, p.cfg.Model, p.cfg.Tools, tracer)
	risk := NewRiskManager(hub, p.cfg.Chat, p.cfg.Model)
	pm := NewPortfolioManager(hub, p.cfg.Loader)
	exec := NewExecutionAgent(hub, p.cfg.Chat, p.cfg.Model)
	coordinator := NewCoordinator(hub, analyst, risk, pm, exec, p.cfg.Watchlist)

	decisions, before, err := coordinator.RunCycle(ctx)
	if err != nil {
		run.Status = trace.RunStatusFailed
		run.Error = err.Error()
		return run, err
	}
	run.Reasoning = mustJSON(hub.AllSharedContext())

	p.act(ctx, runID, decisions)

	after, err := p.cfg.Loader.LoadState(ctx)
	if err != nil {
		// Reflection degrades to a no-change comparison rather than
		// failing a cycle whose trades already settled
		p.log.Warnf("Post-cycle state load failed: %v", err)
		after = before
	} else if p.cfg.Snapshots != nil {
		if _, err := p.cfg.Snapshots.SaveSnapshot(ctx, after); err != nil {
			p.log.Warnf("Equity snapshot failed: %v", err)
		}
	}

	reflection := Reflect(before, after, decisions)
	run.Decisions = mustJSON(decisions)
	run.Reflection = mustJSON(reflection)
	run.Status = trace.RunStatusCompleted

	p.cfg.Events.PublishPilotRun(ctx, events.PilotRunEvent{
		RunID:     runID,
		Status:    run.Status.String(),
		Decisions: len(decisions),
		Trades:    reflection.TradesExecuted,
		Equity:    reflection.EquityAfter,
	})

	if p.cfg.Notify != nil {
		if err := p.cfg.Notify.NotifyPilotRun(ctx, runID, len(decisions), reflection.TradesExecuted, reflection.EquityAfter); err != nil {
			p.log.Warnf("Pilot run notification failed: %v", err)
		}
	}

	p.log.Infow("Pilot run complete",
		"run_id", runID,
		"decisions", len(decisions),
		"trades", reflection.TradesExecuted,
		"equity_delta", reflection.EquityDelta,
	)
	return run, nil
}

// act submits every tradeable decision. A failed trade is recorded on
// its decision and never blocks the rest of the batch.
func (p *Pilot) act(ctx context.Context, runID string, decisions []Decision) {
	for i := range decisions {
		d := &decisions[i]
		if !d.Tradeable() {
			continue
		}

		o, err := p.cfg.Trader.SubmitTrade(ctx, execution.ProposeRequest{
			AccountID:  p.cfg.AccountID,
			Symbol:     d.Symbol,
			Side:       order.Side(d.Action),
			Quantity:   *d.Quantity,
			Confidence: d.Confidence,
			Reasoning:  d.Reasoning,
			RunID:      runID,
			Autonomous: true,
		})
		if err != nil {
			p.log.Warnw("Trade failed", "symbol", d.Symbol, "action", d.Action, "error", err)
			d.TradeError = err.Error()
			continue
		}

		fillPrice, _ := o.FillPrice.Float64()
		d.TradeResult = map[string]interface{}{
			"order_id":   o.ID.String(),
			"status":     o.Status.String(),
			"fill_price": fillPrice,
			"quantity":   o.Quantity,
		}
	}
}

func (p *Pilot) saveRun(run *trace.Run) error {
	if p.cfg.Traces == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return p.cfg.Traces.SaveRun(ctx, run)
}

func marshalToolCalls(calls []*trace.ToolCall) string {
	data, err := json.Marshal(calls)
	if err != nil {
		return "[]"
	}
	return string(data)
}
