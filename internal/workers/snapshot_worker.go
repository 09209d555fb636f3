package workers

import (
	"context"
	"time"

	"atlas/internal/events"
	"atlas/internal/services/portfolio"
	"atlas/pkg/errors"
)

// SnapshotWorker periodically records portfolio equity so the
// performance history survives restarts and feeds the equity chart.
type SnapshotWorker struct {
	*BaseWorker
	portfolio *portfolio.Service
	events    *events.Publisher
}

// NewSnapshotWorker creates an equity snapshot worker
func NewSnapshotWorker(svc *portfolio.Service, publisher *events.Publisher, interval time.Duration, enabled bool) *SnapshotWorker {
	return &SnapshotWorker{
		BaseWorker: NewBaseWorker("equity_snapshot", interval, enabled),
		portfolio:  svc,
		events:     publisher,
	}
}

// Run captures one equity snapshot
func (w *SnapshotWorker) Run(ctx context.Context) error {
	start := time.Now()

	state, err := w.portfolio.LoadState(ctx)
	if err != nil {
		w.RecordError(err, time.Since(start))
		return errors.Wrap(err, "load portfolio state")
	}

	snapshot, err := w.portfolio.SaveSnapshot(ctx, state)
	if err != nil {
		w.RecordError(err, time.Since(start))
		return errors.Wrap(err, "save equity snapshot")
	}

	w.events.PublishEquitySnapshot(ctx, events.EquitySnapshotEvent{
		AccountID: state.AccountID,
		Equity:    state.TotalEquity,
		Cash:      state.Cash,
		Positions: len(state.Positions),
		Timestamp: snapshot.TakenAt,
	})

	w.Log().Debugw("Equity snapshot saved",
		"equity", state.TotalEquity,
		"cash", state.Cash,
		"positions", len(state.Positions),
	)
	w.RecordRun(time.Since(start))
	return nil
}
