package execution

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atlas/internal/domain/account"
	"atlas/internal/domain/order"
	"atlas/internal/marketdata"
	"atlas/pkg/errors"
	"atlas/pkg/logger"
)

type stubQuotes struct {
	price float64
	err   error
}

func (s *stubQuotes) GetQuote(ctx context.Context, symbol string) (*marketdata.Quote, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &marketdata.Quote{Symbol: symbol, Price: s.price}, nil
}

func TestProposeValidation(t *testing.T) {
	logger.Init("error", "test")
	svc := &Service{quotes: &stubQuotes{price: 100}, log: logger.Get()}

	cases := []struct {
		name string
		req  ProposeRequest
	}{
		{"missing account", ProposeRequest{Symbol: "NVDA", Side: order.SideBuy, Quantity: 1}},
		{"missing symbol", ProposeRequest{AccountID: "pilot", Side: order.SideBuy, Quantity: 1}},
		{"invalid side", ProposeRequest{AccountID: "pilot", Symbol: "NVDA", Side: "SHORT", Quantity: 1}},
		{"zero quantity", ProposeRequest{AccountID: "pilot", Symbol: "NVDA", Side: order.SideBuy, Quantity: 0}},
		{"negative quantity", ProposeRequest{AccountID: "pilot", Symbol: "NVDA", Side: order.SideSell, Quantity: -5}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Propose(context.Background(), tc.req)
			assert.ErrorIs(t, err, errors.ErrInvalidInput)
		})
	}
}

func TestProposeQuoteFailure(t *testing.T) {
	logger.Init("error", "test")
	svc := &Service{
		quotes: &stubQuotes{err: errors.ErrExternal},
		log:    logger.Get(),
	}

	_, err := svc.Propose(context.Background(), ProposeRequest{
		AccountID: "pilot",
		Symbol:    "NVDA",
		Side:      order.SideBuy,
		Quantity:  10,
	})
	assert.ErrorIs(t, err, errors.ErrExternal)
}

type memAccounts struct {
	acc *account.Account
}

func (m *memAccounts) Create(_ context.Context, acc *account.Account) error { m.acc = acc; return nil }

func (m *memAccounts) GetByID(_ context.Context, id string) (*account.Account, error) {
	if m.acc == nil || m.acc.ID != id {
		return nil, errors.ErrAccountNotFound
	}
	return m.acc, nil
}

func (m *memAccounts) Update(_ context.Context, acc *account.Account) error { m.acc = acc; return nil }

type memPositions struct {
	bySymbol map[string]*account.Position
	deleted  []uuid.UUID
}

func (m *memPositions) Create(_ context.Context, pos *account.Position) error {
	if m.bySymbol == nil {
		m.bySymbol = make(map[string]*account.Position)
	}
	m.bySymbol[pos.Symbol] = pos
	return nil
}

func (m *memPositions) GetByID(_ context.Context, _ uuid.UUID) (*account.Position, error) {
	return nil, errors.ErrNoPosition
}

func (m *memPositions) GetBySymbol(_ context.Context, _ string, symbol string) (*account.Position, error) {
	if pos, ok := m.bySymbol[symbol]; ok {
		return pos, nil
	}
	return nil, errors.Wrapf(errors.ErrNoPosition, "no position in %s", symbol)
}

func (m *memPositions) GetOpen(_ context.Context, _ string) ([]*account.Position, error) {
	var out []*account.Position
	for _, pos := range m.bySymbol {
		out = append(out, pos)
	}
	return out, nil
}

func (m *memPositions) Update(_ context.Context, pos *account.Position) error {
	m.bySymbol[pos.Symbol] = pos
	return nil
}

func (m *memPositions) Delete(_ context.Context, id uuid.UUID) error {
	m.deleted = append(m.deleted, id)
	for symbol, pos := range m.bySymbol {
		if pos.ID == id {
			delete(m.bySymbol, symbol)
		}
	}
	return nil
}

type memOrders struct {
	byID map[uuid.UUID]*order.Order
}

func (m *memOrders) Create(_ context.Context, o *order.Order) error {
	if m.byID == nil {
		m.byID = make(map[uuid.UUID]*order.Order)
	}
	m.byID[o.ID] = o
	return nil
}

func (m *memOrders) GetByID(_ context.Context, id uuid.UUID) (*order.Order, error) {
	if o, ok := m.byID[id]; ok {
		return o, nil
	}
	return nil, errors.ErrNotFound
}

func (m *memOrders) GetByStatus(_ context.Context, _ string, _ order.Status, _ int) ([]*order.Order, error) {
	return nil, nil
}

func (m *memOrders) GetRecent(_ context.Context, _ string, _ int) ([]*order.Order, error) {
	return nil, nil
}

func (m *memOrders) GetByRunID(_ context.Context, _ string) ([]*order.Order, error) {
	return nil, nil
}

func (m *memOrders) Update(_ context.Context, o *order.Order) error {
	m.byID[o.ID] = o
	return nil
}

func testService(quotes QuoteGetter, orders order.Repository) *Service {
	logger.Init("error", "test")
	return &Service{quotes: quotes, orders: orders, log: logger.Get()}
}

func paperAccount(cash int64) *memAccounts {
	return &memAccounts{acc: &account.Account{
		ID:   "pilot",
		Cash: decimal.NewFromInt(cash),
	}}
}

func buyOrder(quantity int64) *order.Order {
	return &order.Order{
		ID:        uuid.New(),
		AccountID: "pilot",
		Symbol:    "NVDA",
		Side:      order.SideBuy,
		Status:    order.StatusProposed,
		Quantity:  quantity,
	}
}

func TestApplyBuyOpensPosition(t *testing.T) {
	svc := testService(&stubQuotes{price: 100}, nil)
	accounts := paperAccount(10000)
	positions := &memPositions{}

	err := svc.applyBuy(context.Background(), accounts, positions, accounts.acc, buyOrder(20), decimal.NewFromInt(100))
	require.NoError(t, err)

	pos := positions.bySymbol["NVDA"]
	require.NotNil(t, pos)
	assert.Equal(t, int64(20), pos.Quantity)
	assert.True(t, pos.AvgPrice.Equal(decimal.NewFromInt(100)))
	assert.True(t, accounts.acc.Cash.Equal(decimal.NewFromInt(8000)))
}

func TestApplyBuyBlendsAverageEntry(t *testing.T) {
	svc := testService(&stubQuotes{price: 110}, nil)
	accounts := paperAccount(10000)
	positions := &memPositions{bySymbol: map[string]*account.Position{
		"NVDA": {ID: uuid.New(), AccountID: "pilot", Symbol: "NVDA", Quantity: 10, AvgPrice: decimal.NewFromInt(90)},
	}}

	err := svc.applyBuy(context.Background(), accounts, positions, accounts.acc, buyOrder(10), decimal.NewFromInt(110))
	require.NoError(t, err)

	// 10 @ $90 plus 10 @ $110 blends to 20 @ $100
	pos := positions.bySymbol["NVDA"]
	assert.Equal(t, int64(20), pos.Quantity)
	assert.True(t, pos.AvgPrice.Equal(decimal.NewFromInt(100)), "avg entry %s", pos.AvgPrice)
	assert.True(t, accounts.acc.Cash.Equal(decimal.NewFromInt(8900)))
}

func TestApplyBuyInsufficientFunds(t *testing.T) {
	svc := testService(&stubQuotes{price: 100}, nil)
	accounts := paperAccount(500)
	positions := &memPositions{}

	err := svc.applyBuy(context.Background(), accounts, positions, accounts.acc, buyOrder(20), decimal.NewFromInt(100))
	assert.ErrorIs(t, err, errors.ErrInsufficientFunds)
	assert.Empty(t, positions.bySymbol)
	assert.True(t, accounts.acc.Cash.Equal(decimal.NewFromInt(500)))
}

func TestApplySellFullExitDeletesPosition(t *testing.T) {
	svc := testService(&stubQuotes{price: 120}, nil)
	accounts := paperAccount(1000)
	posID := uuid.New()
	positions := &memPositions{bySymbol: map[string]*account.Position{
		"NVDA": {ID: posID, AccountID: "pilot", Symbol: "NVDA", Quantity: 15, AvgPrice: decimal.NewFromInt(100)},
	}}

	o := buyOrder(15)
	o.Side = order.SideSell
	err := svc.applySell(context.Background(), accounts, positions, accounts.acc, o, decimal.NewFromInt(120))
	require.NoError(t, err)

	assert.Equal(t, []uuid.UUID{posID}, positions.deleted)
	assert.Empty(t, positions.bySymbol)
	assert.True(t, accounts.acc.Cash.Equal(decimal.NewFromInt(2800)))
}

func TestApplySellPartialDecrements(t *testing.T) {
	svc := testService(&stubQuotes{price: 120}, nil)
	accounts := paperAccount(1000)
	positions := &memPositions{bySymbol: map[string]*account.Position{
		"NVDA": {ID: uuid.New(), AccountID: "pilot", Symbol: "NVDA", Quantity: 15, AvgPrice: decimal.NewFromInt(100)},
	}}

	o := buyOrder(5)
	o.Side = order.SideSell
	err := svc.applySell(context.Background(), accounts, positions, accounts.acc, o, decimal.NewFromInt(120))
	require.NoError(t, err)

	pos := positions.bySymbol["NVDA"]
	require.NotNil(t, pos)
	assert.Equal(t, int64(10), pos.Quantity)
	assert.True(t, pos.AvgPrice.Equal(decimal.NewFromInt(100)), "partial sell must not touch avg entry")
	assert.Empty(t, positions.deleted)
	assert.True(t, accounts.acc.Cash.Equal(decimal.NewFromInt(1600)))
}

func TestApplySellRejectsOversizedAndMissing(t *testing.T) {
	svc := testService(&stubQuotes{price: 120}, nil)
	accounts := paperAccount(1000)
	positions := &memPositions{bySymbol: map[string]*account.Position{
		"NVDA": {ID: uuid.New(), AccountID: "pilot", Symbol: "NVDA", Quantity: 5, AvgPrice: decimal.NewFromInt(100)},
	}}

	over := buyOrder(10)
	over.Side = order.SideSell
	err := svc.applySell(context.Background(), accounts, positions, accounts.acc, over, decimal.NewFromInt(120))
	assert.ErrorIs(t, err, errors.ErrInsufficientShares)

	missing := buyOrder(1)
	missing.Side = order.SideSell
	missing.Symbol = "TSLA"
	err = svc.applySell(context.Background(), accounts, positions, accounts.acc, missing, decimal.NewFromInt(120))
	assert.ErrorIs(t, err, errors.ErrNoPosition)
	assert.True(t, accounts.acc.Cash.Equal(decimal.NewFromInt(1000)))
}

func TestApproveMarksOrderFailedOnFillError(t *testing.T) {
	o := buyOrder(10)
	orders := &memOrders{}
	require.NoError(t, orders.Create(context.Background(), o))

	svc := testService(&stubQuotes{err: errors.ErrExternal}, orders)

	_, err := svc.Approve(context.Background(), o.ID)
	assert.ErrorIs(t, err, errors.ErrExternal)

	stored := orders.byID[o.ID]
	assert.Equal(t, order.StatusFailed, stored.Status)
	assert.NotEmpty(t, stored.FailReason)
	require.NotNil(t, stored.DecidedAt)
}

func TestApproveRequiresActionableOrder(t *testing.T) {
	o := buyOrder(10)
	o.Status = order.StatusFilled
	orders := &memOrders{}
	require.NoError(t, orders.Create(context.Background(), o))

	svc := testService(&stubQuotes{price: 100}, orders)

	_, err := svc.Approve(context.Background(), o.ID)
	assert.ErrorIs(t, err, errors.ErrOrderNotActionable)
}
