package marketdata

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/piquette/finance-go/quote"
	"golang.org/x/time/rate"

	"atlas/internal/adapters/config"
	"atlas/internal/adapters/redis"
	"atlas/internal/metrics"
	"atlas/pkg/errors"
	"atlas/pkg/logger"
)

// Quote is a real-time market snapshot for a symbol
type Quote struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	PrevClose float64   `json:"prev_close"`
	Volume    int64     `json:"volume"`
	ChangePct float64   `json:"change_pct"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Bar is a single daily OHLCV candle
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// Service fetches quotes and history from Yahoo Finance with a Redis cache
// in front. Outbound requests are rate limited to avoid throttling.
type Service struct {
	cache      *redis.Client
	limiter    *rate.Limiter
	quoteTTL   time.Duration
	historyTTL time.Duration
	log        *logger.Logger
}

// NewService creates a new market data service
func NewService(cfg config.MarketDataConfig, cache *redis.Client) *Service {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}

	return &Service{
		cache:      cache,
		limiter:    rate.NewLimiter(rate.Limit(rps), rps),
		quoteTTL:   cfg.QuoteCacheTTL,
		historyTTL: cfg.HistoryCacheTTL,
		log:        logger.Get().With("component", "market_data"),
	}
}

// GetQuote returns the current quote for a symbol
func (s *Service) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	symbol = normalizeSymbol(symbol)
	if symbol == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "empty symbol")
	}

	cacheKey := "quote:" + symbol
	if s.cache != nil {
		var cached Quote
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			metrics.QuoteCacheHits.WithLabelValues("hit").Inc()
			return &cached, nil
		}
	}
	metrics.QuoteCacheHits.WithLabelValues("miss").Inc()

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q, err := quote.Get(symbol)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrExternal, "failed to get quote for %s: %v", symbol, err)
	}
	if q == nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "no quote data for %s", symbol)
	}

	result := &Quote{
		Symbol:    symbol,
		Price:     q.RegularMarketPrice,
		Open:      q.RegularMarketOpen,
		High:      q.RegularMarketDayHigh,
		Low:       q.RegularMarketDayLow,
		PrevClose: q.RegularMarketPreviousClose,
		Volume:    int64(q.RegularMarketVolume),
		ChangePct: q.RegularMarketChangePercent,
		FetchedAt: time.Now().UTC(),
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, result, s.quoteTTL); err != nil {
			s.log.Warnf("Failed to cache quote for %s: %v", symbol, err)
		}
	}

	return result, nil
}

// GetHistory returns daily candles for the last `days` calendar days
func (s *Service) GetHistory(ctx context.Context, symbol string, days int) ([]Bar, error) {
	symbol = normalizeSymbol(symbol)
	if symbol == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "empty symbol")
	}
	if days <= 0 {
		days = 90
	}

	cacheKey := fmt.Sprintf("history:%s:%d", symbol, days)
	if s.cache != nil {
		var cached []Bar
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return cached, nil
		}
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	end := time.Now()
	start := end.AddDate(0, 0, -days)

	params := &chart.Params{
		Symbol:   symbol,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: datetime.OneDay,
	}

	iter := chart.Get(params)

	bars := make([]Bar, 0, days)
	for iter.Next() {
		b := iter.Bar()
		open, _ := b.Open.Float64()
		high, _ := b.High.Float64()
		low, _ := b.Low.Float64()
		closePx, _ := b.Close.Float64()

		bars = append(bars, Bar{
			Date:   time.Unix(int64(b.Timestamp), 0).UTC(),
			Open:   open,
			High:   high,
			Low:    low,
			Close:  closePx,
			Volume: int64(b.Volume),
		})
	}
	if err := iter.Err(); err != nil {
		return nil, errors.Wrapf(errors.ErrExternal, "failed to get history for %s: %v", symbol, err)
	}
	if len(bars) == 0 {
		return nil, errors.Wrapf(errors.ErrNotFound, "no history for %s", symbol)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, bars, s.historyTTL); err != nil {
			s.log.Warnf("Failed to cache history for %s: %v", symbol, err)
		}
	}

	return bars, nil
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
