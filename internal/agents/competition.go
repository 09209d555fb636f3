package agents

import (
	"context"
	"sort"
	"sync/atomic"

	"atlas/pkg/errors"
	"atlas/pkg/logger"
)

// Competitor is one model in the trading competition. Each competitor
// owns a full pilot bound to its own paper account, so the models trade
// the same watchlist independently.
type Competitor struct {
	Name      string
	Model     string
	AccountID string
	Pilot     *Pilot
	Loader    StateLoader
}

// CompetitorResult summarizes one competitor's cycle
type CompetitorResult struct {
	Name   string `json:"name"`
	Model  string `json:"model"`
	RunID  string `json:"run_id,omitempty"`
	Status string `json:"status,omitempty"`
	Error  string `json:"error,omitempty"`
}

// LeaderboardEntry ranks a competitor by return over starting cash
type LeaderboardEntry struct {
	Rank      int     `json:"rank"`
	Name      string  `json:"name"`
	Model     string  `json:"model"`
	Equity    float64 `json:"equity"`
	Cash      float64 `json:"cash"`
	ReturnPct float64 `json:"return_pct"`
	Positions int     `json:"positions"`
}

// Competition runs several models against each other on the same
// watchlist. Cycles are sequential per competitor, one model call in
// flight at a time, same as the single pilot.
type Competition struct {
	competitors []Competitor
	running     atomic.Bool
	log         *logger.Logger
}

// NewCompetition creates a competition over the given competitors
func NewCompetition(competitors []Competitor) *Competition {
	return &Competition{
		competitors: competitors,
		log:         logger.Get().With("component", "competition"),
	}
}

// Competitors returns a snapshot of the field
func (c *Competition) Competitors() []Competitor {
	out := make([]Competitor, len(c.competitors))
	copy(out, c.competitors)
	return out
}

// Running reports whether a competition cycle is in flight
func (c *Competition) Running() bool {
	return c.running.Load()
}

// Run executes one full trading cycle for every competitor in turn.
// A failed competitor is recorded on its result and never blocks the
// rest of the field.
func (c *Competition) Run(ctx context.Context) ([]CompetitorResult, error) {
	if !c.running.CompareAndSwap(false, true) {
		return nil, errors.ErrCompetitionRunning
	}
	defer c.running.Store(false)

	c.log.Infow("Competition cycle starting", "competitors", len(c.competitors))

	results := make([]CompetitorResult, 0, len(c.competitors))
	for _, comp := range c.competitors {
		result := CompetitorResult{Name: comp.Name, Model: comp.Model}

		run, err := comp.Pilot.Run(ctx)
		if err != nil {
			c.log.Warnw("Competitor cycle failed", "competitor", comp.Name, "error", err)
			result.Error = err.Error()
			if run != nil {
				result.RunID = run.RunID
				result.Status = run.Status.String()
			}
		} else {
			result.RunID = run.RunID
			result.Status = run.Status.String()
		}
		results = append(results, result)
	}

	c.log.Infow("Competition cycle complete", "competitors", len(results))
	return results, nil
}

// Leaderboard loads every competitor's account and ranks the field by
// return percentage, best first.
func (c *Competition) Leaderboard(ctx context.Context) ([]LeaderboardEntry, error) {
	entries := make([]LeaderboardEntry, 0, len(c.competitors))
	for _, comp := range c.competitors {
		state, err := comp.Loader.LoadState(ctx)
		if err != nil {
			return nil, errors.Wrapf(err, "load state for %s", comp.Name)
		}
		entries = append(entries, LeaderboardEntry{
			Name:      comp.Name,
			Model:     comp.Model,
			Equity:    state.TotalEquity,
			Cash:      state.Cash,
			ReturnPct: state.ReturnPct,
			Positions: len(state.Positions),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].ReturnPct > entries[j].ReturnPct
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}
