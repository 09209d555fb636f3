package agents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atlas/internal/domain/trace"
	"atlas/internal/services/portfolio"
	"atlas/pkg/errors"
)

func rankedState(returnPct float64) *portfolio.State {
	s := flatState(30000)
	s.TotalEquity = 30000 * (1 + returnPct/100)
	s.ReturnPct = returnPct
	return s
}

func TestCompetitionRunIsolatesFailures(t *testing.T) {
	traces := &memTraceRepo{}

	good := bullishPilot(&fakeTrader{}, &switchLoader{before: flatState(30000), after: flatState(30000)}, traces)
	good.cfg.UserID = "COMPETITION:alpha"

	bad := bullishPilot(&fakeTrader{}, &fakeLoader{err: errors.ErrUnavailable}, traces)
	bad.cfg.UserID = "COMPETITION:beta"

	competition := NewCompetition([]Competitor{
		{Name: "alpha", Model: "alpha", Pilot: good},
		{Name: "beta", Model: "beta", Pilot: bad},
	})

	results, err := competition.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Empty(t, results[0].Error)
	assert.NotEmpty(t, results[0].RunID)
	assert.Equal(t, trace.RunStatusCompleted.String(), results[0].Status)

	// Failure of one competitor never blocks the rest of the field
	assert.NotEmpty(t, results[1].Error)
	assert.Equal(t, trace.RunStatusFailed.String(), results[1].Status)
	assert.False(t, competition.Running())

	// Runs are tagged per competitor so traces stay attributable
	require.Len(t, traces.runs, 2)
	owners := []string{traces.runs[0].UserID, traces.runs[1].UserID}
	assert.Contains(t, owners, "COMPETITION:alpha")
	assert.Contains(t, owners, "COMPETITION:beta")
}

func TestCompetitionRejectsConcurrentRun(t *testing.T) {
	competition := NewCompetition(nil)
	competition.running.Store(true)

	_, err := competition.Run(context.Background())
	assert.ErrorIs(t, err, errors.ErrCompetitionRunning)
}

func TestCompetitionLeaderboardRanksByReturn(t *testing.T) {
	competition := NewCompetition([]Competitor{
		{Name: "alpha", Model: "alpha", Loader: &fakeLoader{state: rankedState(5)}},
		{Name: "beta", Model: "beta", Loader: &fakeLoader{state: rankedState(-2)}},
		{Name: "gamma", Model: "gamma", Loader: &fakeLoader{state: rankedState(12)}},
	})

	entries, err := competition.Leaderboard(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, []string{"gamma", "alpha", "beta"}, []string{entries[0].Name, entries[1].Name, entries[2].Name})
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, 2, entries[1].Rank)
	assert.Equal(t, 3, entries[2].Rank)
	assert.Equal(t, 12.0, entries[0].ReturnPct)
}

func TestCompetitionLeaderboardFailsOnUnloadableAccount(t *testing.T) {
	competition := NewCompetition([]Competitor{
		{Name: "alpha", Model: "alpha", Loader: &fakeLoader{err: errors.ErrAccountNotFound}},
	})

	_, err := competition.Leaderboard(context.Background())
	assert.ErrorIs(t, err, errors.ErrAccountNotFound)
}
