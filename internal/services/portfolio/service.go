package portfolio

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"atlas/internal/adapters/config"
	"atlas/internal/domain/account"
	"atlas/internal/marketdata"
	"atlas/internal/metrics"
	"atlas/pkg/errors"
	"atlas/pkg/logger"
)

// QuoteGetter is the slice of the market data service the portfolio needs
type QuoteGetter interface {
	GetQuote(ctx context.Context, symbol string) (*marketdata.Quote, error)
}

// PositionState is a single holding enriched with live pricing
type PositionState struct {
	Symbol        string  `json:"symbol"`
	Quantity      int64   `json:"quantity"`
	AvgEntryPrice float64 `json:"avg_entry_price"`
	CurrentPrice  float64 `json:"current_price"`
	MarketValue   float64 `json:"market_value"`
	UnrealizedPnL float64 `json:"unrealized_pnl"`
}

// State is the portfolio snapshot the agents reason over
type State struct {
	AccountID       string          `json:"account_id"`
	Cash            float64         `json:"cash"`
	StartingCash    float64         `json:"starting_cash"`
	Positions       []PositionState `json:"positions"`
	PositionsValue  float64         `json:"positions_value"`
	TotalEquity     float64         `json:"total_equity"`
	ReturnPct       float64         `json:"return_pct"`
	MaxPositions    int             `json:"max_positions"`
	MaxPositionSize float64         `json:"max_position_size"`
}

// Position returns the holding for a symbol, or nil
func (s *State) Position(symbol string) *PositionState {
	for i := range s.Positions {
		if s.Positions[i].Symbol == symbol {
			return &s.Positions[i]
		}
	}
	return nil
}

// Service assembles live portfolio state from the account store and quotes
type Service struct {
	accounts  account.Repository
	positions account.PositionRepository
	snapshots account.SnapshotRepository
	quotes    QuoteGetter
	cfg       config.TradingConfig
	log       *logger.Logger
}

// NewService creates a new portfolio service
func NewService(
	accounts account.Repository,
	positions account.PositionRepository,
	snapshots account.SnapshotRepository,
	quotes QuoteGetter,
	cfg config.TradingConfig,
) *Service {
	return &Service{
		accounts:  accounts,
		positions: positions,
		snapshots: snapshots,
		quotes:    quotes,
		cfg:       cfg,
		log:       logger.Get().With("component", "portfolio"),
	}
}

// EnsureAccount returns the trading account, creating it with starting cash
// on first use
func (s *Service) EnsureAccount(ctx context.Context) (*account.Account, error) {
	acc, err := s.accounts.GetByID(ctx, s.cfg.AccountID)
	if err == nil {
		return acc, nil
	}
	if !errors.Is(err, errors.ErrAccountNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	acc = &account.Account{
		ID:              s.cfg.AccountID,
		Cash:            decimal.NewFromFloat(s.cfg.StartingCash),
		StartingCash:    decimal.NewFromFloat(s.cfg.StartingCash),
		MaxPositions:    s.cfg.MaxPositions,
		MaxPositionSize: decimal.NewFromFloat(s.cfg.MaxPositionSize),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.accounts.Create(ctx, acc); err != nil {
		return nil, errors.Wrap(err, "failed to create account")
	}

	s.log.Infof("Created paper account %s with starting cash %s", acc.ID, acc.StartingCash)
	return acc, nil
}

// LoadState builds the full portfolio snapshot with live quotes.
// Quote failures for individual positions fall back to cost basis so a
// single bad symbol cannot sink the state load.
func (s *Service) LoadState(ctx context.Context) (*State, error) {
	acc, err := s.EnsureAccount(ctx)
	if err != nil {
		return nil, err
	}

	positions, err := s.positions.GetOpen(ctx, acc.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load positions")
	}

	state := &State{
		AccountID:       acc.ID,
		Cash:            acc.Cash.InexactFloat64(),
		StartingCash:    acc.StartingCash.InexactFloat64(),
		MaxPositions:    acc.MaxPositions,
		MaxPositionSize: acc.MaxPositionSize.InexactFloat64(),
		Positions:       make([]PositionState, 0, len(positions)),
	}

	for _, pos := range positions {
		avg := pos.AvgPrice.InexactFloat64()
		price := avg

		if q, err := s.quotes.GetQuote(ctx, pos.Symbol); err == nil && q.Price > 0 {
			price = q.Price
		} else if err != nil {
			s.log.Warnf("Quote failed for %s, valuing at cost: %v", pos.Symbol, err)
		}

		mv := price * float64(pos.Quantity)
		state.Positions = append(state.Positions, PositionState{
			Symbol:        pos.Symbol,
			Quantity:      pos.Quantity,
			AvgEntryPrice: avg,
			CurrentPrice:  price,
			MarketValue:   mv,
			UnrealizedPnL: (price - avg) * float64(pos.Quantity),
		})
		state.PositionsValue += mv
	}

	state.TotalEquity = state.Cash + state.PositionsValue
	if state.StartingCash > 0 {
		state.ReturnPct = (state.TotalEquity - state.StartingCash) / state.StartingCash * 100
	}

	return state, nil
}

// SaveSnapshot persists an equity snapshot of the current state
func (s *Service) SaveSnapshot(ctx context.Context, state *State) (*account.EquitySnapshot, error) {
	snap := &account.EquitySnapshot{
		ID:        uuid.New(),
		AccountID: state.AccountID,
		Equity:    decimal.NewFromFloat(state.TotalEquity),
		Cash:      decimal.NewFromFloat(state.Cash),
		Positions: len(state.Positions),
		TakenAt:   time.Now().UTC(),
	}

	if err := s.snapshots.Create(ctx, snap); err != nil {
		return nil, errors.Wrap(err, "failed to save equity snapshot")
	}

	metrics.SetPortfolioGauges(state.AccountID, state.TotalEquity, len(state.Positions))
	return snap, nil
}

// EquityHistory returns snapshots for the given window
func (s *Service) EquityHistory(ctx context.Context, from, to time.Time) ([]*account.EquitySnapshot, error) {
	return s.snapshots.GetRange(ctx, s.cfg.AccountID, from, to)
}
