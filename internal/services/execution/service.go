package execution

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"atlas/internal/domain/account"
	"atlas/internal/domain/order"
	"atlas/internal/events"
	"atlas/internal/marketdata"
	"atlas/internal/metrics"
	"atlas/internal/repository/postgres"
	"atlas/pkg/errors"
	"atlas/pkg/logger"
)

// QuoteGetter provides live prices for fills
type QuoteGetter interface {
	GetQuote(ctx context.Context, symbol string) (*marketdata.Quote, error)
}

// Notifier receives order lifecycle notifications. Failures are logged
// and never affect the order.
type Notifier interface {
	NotifyOrderProposed(ctx context.Context, symbol string, side string, quantity int, price float64, confidence float64) error
	NotifyOrderFilled(ctx context.Context, symbol string, side string, quantity int, price float64) error
}

// ProposeRequest describes a trade to be proposed for approval
type ProposeRequest struct {
	AccountID  string
	Symbol     string
	Side       order.Side
	Quantity   int64
	StopLoss   decimal.Decimal
	TakeProfit decimal.Decimal
	Confidence float64
	Reasoning  string
	RunID      string
	Autonomous bool
}

// Service is the paper execution engine. Fills settle against the live
// quote inside a single database transaction.
type Service struct {
	db       *sqlx.DB
	orders   order.Repository
	quotes   QuoteGetter
	events   *events.Publisher
	notifier Notifier
	log      *logger.Logger
}

// NewService creates a new execution service. notifier may be nil.
func NewService(db *sqlx.DB, quotes QuoteGetter, publisher *events.Publisher, notifier Notifier) *Service {
	return &Service{
		db:       db,
		orders:   postgres.NewOrderRepository(db),
		quotes:   quotes,
		events:   publisher,
		notifier: notifier,
		log:      logger.Get().With("component", "execution"),
	}
}

// Propose creates a PROPOSED order priced at the current quote. The order
// waits for Approve or Reject before any cash or position changes.
func (s *Service) Propose(ctx context.Context, req ProposeRequest) (*order.Order, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	quote, err := s.quotes.GetQuote(ctx, req.Symbol)
	if err != nil {
		return nil, errors.Wrapf(err, "quote %s", req.Symbol)
	}

	now := time.Now().UTC()
	o := &order.Order{
		ID:         uuid.New(),
		AccountID:  req.AccountID,
		Symbol:     strings.ToUpper(req.Symbol),
		Side:       req.Side,
		Status:     order.StatusProposed,
		Quantity:   req.Quantity,
		Price:      decimal.NewFromFloat(quote.Price),
		StopLoss:   req.StopLoss,
		TakeProfit: req.TakeProfit,
		Confidence: req.Confidence,
		Reasoning:  req.Reasoning,
		RunID:      req.RunID,
		Autonomous: req.Autonomous,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	metrics.RecordOrder(o.Side.String(), o.Status.String())
	s.log.Infow("Order proposed",
		"order_id", o.ID,
		"symbol", o.Symbol,
		"side", o.Side,
		"quantity", o.Quantity,
	)

	s.events.PublishOrder(ctx, o)
	if s.notifier != nil {
		price, _ := o.Price.Float64()
		if err := s.notifier.NotifyOrderProposed(ctx, o.Symbol, o.Side.String(), int(o.Quantity), price, o.Confidence); err != nil {
			s.log.Warnf("Proposal notification failed: %v", err)
		}
	}

	return o, nil
}

// Approve fills a proposed order at the current market price. Cash and
// position updates commit atomically with the status change. Validation
// failures mark the order FAILED and return the underlying error.
func (s *Service) Approve(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !o.Status.Actionable() {
		return nil, errors.Wrapf(errors.ErrOrderNotActionable, "order %s is %s", o.ID, o.Status)
	}

	if err := s.fill(ctx, o); err != nil {
		s.markFailed(ctx, o, err)
		return nil, err
	}

	metrics.RecordOrder(o.Side.String(), o.Status.String())
	s.log.Infow("Order filled",
		"order_id", o.ID,
		"symbol", o.Symbol,
		"side", o.Side,
		"quantity", o.Quantity,
		"fill_price", o.FillPrice,
	)

	s.events.PublishOrder(ctx, o)
	if s.notifier != nil {
		price, _ := o.FillPrice.Float64()
		if err := s.notifier.NotifyOrderFilled(ctx, o.Symbol, o.Side.String(), int(o.Quantity), price); err != nil {
			s.log.Warnf("Fill notification failed: %v", err)
		}
	}

	return o, nil
}

// Reject marks a proposed order as rejected without touching the account
func (s *Service) Reject(ctx context.Context, id uuid.UUID, reason string) (*order.Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !o.Status.Actionable() {
		return nil, errors.Wrapf(errors.ErrOrderNotActionable, "order %s is %s", o.ID, o.Status)
	}

	now := time.Now().UTC()
	o.Status = order.StatusRejected
	o.FailReason = reason
	o.DecidedAt = &now
	o.UpdatedAt = now

	if err := s.orders.Update(ctx, o); err != nil {
		return nil, errors.Wrap(err, "update order")
	}

	s.log.Infow("Order rejected", "order_id", o.ID, "reason", reason)
	s.events.PublishOrder(ctx, o)

	return o, nil
}

// SubmitTrade proposes and immediately fills an order in one call. The
// autonomous pilot uses this path, so fills carry the run id and skip the
// manual approval step.
func (s *Service) SubmitTrade(ctx context.Context, req ProposeRequest) (*order.Order, error) {
	o, err := s.Propose(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.Approve(ctx, o.ID)
}

func (s *Service) validateRequest(req ProposeRequest) error {
	if req.AccountID == "" {
		return errors.Wrap(errors.ErrInvalidInput, "account id is required")
	}
	if strings.TrimSpace(req.Symbol) == "" {
		return errors.Wrap(errors.ErrInvalidInput, "symbol is required")
	}
	if !req.Side.Valid() {
		return errors.Wrapf(errors.ErrInvalidInput, "invalid side %q", req.Side)
	}
	if req.Quantity <= 0 {
		return errors.Wrapf(errors.ErrInvalidInput, "quantity must be positive, got %d", req.Quantity)
	}
	return nil
}

// fill settles the order against the account inside one transaction
func (s *Service) fill(ctx context.Context, o *order.Order) error {
	quote, err := s.quotes.GetQuote(ctx, o.Symbol)
	if err != nil {
		return errors.Wrapf(err, "quote %s", o.Symbol)
	}
	price := decimal.NewFromFloat(quote.Price)
	if !price.IsPositive() {
		return errors.Wrapf(errors.ErrExternal, "no valid price for %s", o.Symbol)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback()

	accounts := postgres.NewAccountRepository(tx)
	positions := postgres.NewPositionRepository(tx)
	orders := postgres.NewOrderRepository(tx)

	acc, err := accounts.GetByID(ctx, o.AccountID)
	if err != nil {
		return err
	}

	switch o.Side {
	case order.SideBuy:
		err = s.applyBuy(ctx, accounts, positions, acc, o, price)
	case order.SideSell:
		err = s.applySell(ctx, accounts, positions, acc, o, price)
	default:
		err = errors.Wrapf(errors.ErrInvalidInput, "invalid side %q", o.Side)
	}
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	o.Status = order.StatusFilled
	o.FillPrice = price
	o.DecidedAt = &now
	o.FilledAt = &now
	o.UpdatedAt = now

	if err := orders.Update(ctx, o); err != nil {
		return errors.Wrap(err, "update order")
	}

	return tx.Commit()
}

func (s *Service) applyBuy(
	ctx context.Context,
	accounts account.Repository,
	positions account.PositionRepository,
	acc *account.Account,
	o *order.Order,
	price decimal.Decimal,
) error {
	cost := price.Mul(decimal.NewFromInt(o.Quantity))
	if cost.GreaterThan(acc.Cash) {
		return errors.Wrapf(errors.ErrInsufficientFunds,
			"need %s, have %s", cost.StringFixed(2), acc.Cash.StringFixed(2))
	}

	now := time.Now().UTC()
	pos, err := positions.GetBySymbol(ctx, acc.ID, o.Symbol)
	switch {
	case err == nil:
		// Average in: blend the entry price across old and new shares
		oldCost := pos.AvgPrice.Mul(decimal.NewFromInt(pos.Quantity))
		newQty := pos.Quantity + o.Quantity
		pos.AvgPrice = oldCost.Add(cost).Div(decimal.NewFromInt(newQty))
		pos.Quantity = newQty
		pos.UpdatedAt = now
		if err := positions.Update(ctx, pos); err != nil {
			return errors.Wrap(err, "update position")
		}
	case errors.Is(err, errors.ErrNoPosition):
		pos = &account.Position{
			ID:        uuid.New(),
			AccountID: acc.ID,
			Symbol:    o.Symbol,
			Quantity:  o.Quantity,
			AvgPrice:  price,
			OpenedAt:  now,
			UpdatedAt: now,
		}
		if err := positions.Create(ctx, pos); err != nil {
			return errors.Wrap(err, "create position")
		}
	default:
		return err
	}

	acc.Cash = acc.Cash.Sub(cost)
	acc.UpdatedAt = now
	if err := accounts.Update(ctx, acc); err != nil {
		return errors.Wrap(err, "update account")
	}

	return nil
}

func (s *Service) applySell(
	ctx context.Context,
	accounts account.Repository,
	positions account.PositionRepository,
	acc *account.Account,
	o *order.Order,
	price decimal.Decimal,
) error {
	pos, err := positions.GetBySymbol(ctx, acc.ID, o.Symbol)
	if err != nil {
		return err
	}
	if pos.Quantity < o.Quantity {
		return errors.Wrapf(errors.ErrInsufficientShares,
			"have %d, selling %d", pos.Quantity, o.Quantity)
	}

	now := time.Now().UTC()
	proceeds := price.Mul(decimal.NewFromInt(o.Quantity))

	if pos.Quantity == o.Quantity {
		if err := positions.Delete(ctx, pos.ID); err != nil {
			return errors.Wrap(err, "delete position")
		}
	} else {
		pos.Quantity -= o.Quantity
		pos.UpdatedAt = now
		if err := positions.Update(ctx, pos); err != nil {
			return errors.Wrap(err, "update position")
		}
	}

	acc.Cash = acc.Cash.Add(proceeds)
	acc.UpdatedAt = now
	if err := accounts.Update(ctx, acc); err != nil {
		return errors.Wrap(err, "update account")
	}

	return nil
}

func (s *Service) markFailed(ctx context.Context, o *order.Order, cause error) {
	now := time.Now().UTC()
	o.Status = order.StatusFailed
	o.FailReason = cause.Error()
	o.DecidedAt = &now
	o.UpdatedAt = now

	if err := s.orders.Update(ctx, o); err != nil {
		s.log.Errorf("Failed to mark order %s failed: %v", o.ID, err)
		return
	}
	s.events.PublishOrder(ctx, o)
}
