package agents

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atlas/internal/domain/order"
	"atlas/internal/domain/trace"
	"atlas/internal/services/execution"
	"atlas/internal/services/portfolio"
)

type memTraceRepo struct {
	runs  []*trace.Run
	calls []*trace.ToolCall
}

func (m *memTraceRepo) SaveRun(ctx context.Context, run *trace.Run) error {
	m.runs = append(m.runs, run)
	return nil
}

func (m *memTraceRepo) RecordToolCall(ctx context.Context, call *trace.ToolCall) error {
	m.calls = append(m.calls, call)
	return nil
}

func (m *memTraceRepo) GetRuns(ctx context.Context, limit int) ([]*trace.Run, error) {
	return m.runs, nil
}

func (m *memTraceRepo) GetToolCalls(ctx context.Context, runID string) ([]*trace.ToolCall, error) {
	return m.calls, nil
}

type fakeTrader struct {
	requests []execution.ProposeRequest
	err      error
}

func (f *fakeTrader) SubmitTrade(ctx context.Context, req execution.ProposeRequest) (*order.Order, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &order.Order{
		ID:        uuid.New(),
		AccountID: req.AccountID,
		Symbol:    req.Symbol,
		Side:      req.Side,
		Status:    order.StatusFilled,
		Quantity:  req.Quantity,
		FillPrice: decimal.NewFromInt(100),
	}, nil
}

// switchLoader returns a different state after trades have gone through
type switchLoader struct {
	before *portfolio.State
	after  *portfolio.State
	loads  int
}

func (s *switchLoader) LoadState(ctx context.Context) (*portfolio.State, error) {
	s.loads++
	if s.loads > 1 {
		return s.after, nil
	}
	return s.before, nil
}

func bullishPilot(trader Trader, loader StateLoader, traces trace.Repository) *Pilot {
	chat := &scriptedChat{replies: map[string]string{
		"Market Analyst Agent": "Clear bullish momentum. Confidence: 0.8",
		"Risk Manager Agent":   "Risk: LOW. Position size: $2000. Stop loss: $95. Take profit: $110. APPROVED",
		"Execution Agent":      "BUY with conviction. Confidence: 0.8",
	}}
	return NewPilot(PilotConfig{
		Chat:      chat,
		Model:     "test-model",
		Tools:     healthyMarketTools(100),
		Loader:    loader,
		Trader:    trader,
		Traces:    traces,
		Watchlist: []string{"NVDA"},
		AccountID: "pilot",
	})
}

func TestPilotRunExecutesBuyAndPersistsTrace(t *testing.T) {
	after := flatState(100000)
	after.TotalEquity = 100500
	after.Positions = []portfolio.PositionState{{Symbol: "NVDA", Quantity: 20}}

	trader := &fakeTrader{}
	traces := &memTraceRepo{}
	pilot := bullishPilot(trader, &switchLoader{before: flatState(100000), after: after}, traces)

	run, err := pilot.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, trace.RunStatusCompleted, run.Status)
	assert.Equal(t, PilotUserID, run.UserID)
	assert.Equal(t, "autonomous", run.Mode)
	assert.NotEmpty(t, run.RunID)
	assert.False(t, run.EndedAt.IsZero())

	// One BUY of 20 shares was submitted with the run's id
	require.Len(t, trader.requests, 1)
	assert.Equal(t, order.SideBuy, trader.requests[0].Side)
	assert.Equal(t, int64(20), trader.requests[0].Quantity)
	assert.True(t, trader.requests[0].Autonomous)
	assert.Equal(t, run.RunID, trader.requests[0].RunID)

	// Trace persisted exactly once
	require.Len(t, traces.runs, 1)
	assert.Equal(t, run.RunID, traces.runs[0].RunID)

	var decisions []Decision
	require.NoError(t, json.Unmarshal([]byte(run.Decisions), &decisions))
	require.Len(t, decisions, 1)
	assert.NotNil(t, decisions[0].TradeResult)

	var reflection Reflection
	require.NoError(t, json.Unmarshal([]byte(run.Reflection), &reflection))
	assert.Equal(t, 1, reflection.TradesExecuted)
	assert.Equal(t, []string{"NVDA"}, reflection.SymbolsEntered)
	assert.InDelta(t, 500.0, reflection.EquityDelta, 1e-9)

	// Analyst tool calls reached the trace store
	assert.NotEmpty(t, traces.calls)
}

func TestPilotTradeFailureIsRecordedNotFatal(t *testing.T) {
	trader := &fakeTrader{err: assert.AnError}
	traces := &memTraceRepo{}
	pilot := bullishPilot(trader, &switchLoader{before: flatState(100000), after: flatState(100000)}, traces)

	run, err := pilot.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, trace.RunStatusCompleted, run.Status)

	var decisions []Decision
	require.NoError(t, json.Unmarshal([]byte(run.Decisions), &decisions))
	require.Len(t, decisions, 1)
	assert.NotEmpty(t, decisions[0].TradeError)
	assert.Nil(t, decisions[0].TradeResult)
}

func TestPilotFatalErrorStillPersistsTrace(t *testing.T) {
	trader := &fakeTrader{}
	traces := &memTraceRepo{}
	pilot := bullishPilot(trader, &fakeLoader{err: assert.AnError}, traces)

	run, err := pilot.Run(context.Background())
	require.Error(t, err)

	assert.Equal(t, trace.RunStatusFailed, run.Status)
	assert.NotEmpty(t, run.Error)
	require.Len(t, traces.runs, 1)
	assert.Equal(t, trace.RunStatusFailed, traces.runs[0].Status)
	assert.Empty(t, trader.requests)
}

type digestRecorder struct {
	runID     string
	decisions int
	trades    int
	equity    float64
	calls     int
}

func (d *digestRecorder) NotifyPilotRun(_ context.Context, runID string, decisions int, trades int, equity float64) error {
	d.runID = runID
	d.decisions = decisions
	d.trades = trades
	d.equity = equity
	d.calls++
	return nil
}

func TestPilotRunSendsDigest(t *testing.T) {
	after := flatState(100000)
	after.TotalEquity = 100500
	after.Positions = []portfolio.PositionState{{Symbol: "NVDA", Quantity: 20}}

	digest := &digestRecorder{}
	pilot := bullishPilot(&fakeTrader{}, &switchLoader{before: flatState(100000), after: after}, &memTraceRepo{})
	pilot.cfg.Notify = digest

	run, err := pilot.Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, 1, digest.calls)
	assert.Equal(t, run.RunID, digest.runID)
	assert.Equal(t, 1, digest.decisions)
	assert.Equal(t, 1, digest.trades)
	assert.InDelta(t, 100500.0, digest.equity, 1e-9)
}

func TestPilotRejectsConcurrentRuns(t *testing.T) {
	pilot := bullishPilot(&fakeTrader{}, &fakeLoader{state: flatState(100000)}, &memTraceRepo{})
	pilot.running.Store(true)

	_, err := pilot.Run(context.Background())
	assert.Error(t, err)
	assert.True(t, pilot.Running())
}
