package marketdata

import "fmt"

// Sentiment is a coarse news sentiment summary for a symbol
type Sentiment struct {
	Symbol  string `json:"symbol"`
	Label   string `json:"label"`
	Summary string `json:"summary"`
}

// GetSentiment returns news sentiment for a symbol.
// No news feed is wired yet, so this reports a neutral baseline that the
// analyst prompt treats as "no signal".
func (s *Service) GetSentiment(symbol string) *Sentiment {
	symbol = normalizeSymbol(symbol)
	return &Sentiment{
		Symbol:  symbol,
		Label:   TrendNeutral,
		Summary: fmt.Sprintf("No significant news sentiment detected for %s.", symbol),
	}
}
