package yahoo

import (
	"fmt"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/piquette/finance-go/quote"

	"stock_alerter/internal/market"
	"stock_alerter/internal/models"
)

// Provider implements market.PriceFeed on Yahoo Finance.
type Provider struct{}

var _ market.PriceFeed = (*Provider)(nil)

func NewProvider() *Provider { return &Provider{} }

// LatestTwoCloses returns the two most recent daily closes. A quote
// without a regular market price is a data-quality signal (delisted or
// bad symbol) and maps to ErrUnavailable, as does thin history.
func (p *Provider) LatestTwoCloses(ticker string) (*models.PriceSnapshot, error) {
	q, err := quote.Get(ticker)
	if err != nil {
		return nil, fmt.Errorf("yahoo quote for %s: %w", ticker, err)
	}
	if q == nil || q.RegularMarketPrice == 0 {
		return nil, fmt.Errorf("%s has no regular market price: %w", ticker, market.ErrUnavailable)
	}

	end := time.Now().UTC()
	start := end.AddDate(0, 0, -14)
	iter := chart.Get(&chart.Params{
		Symbol:   ticker,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: datetime.OneDay,
	})

	var bars []finance.ChartBar
	for iter.Next() {
		bars = append(bars, *iter.Bar())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("yahoo chart for %s: %w", ticker, err)
	}
	if len(bars) < 2 {
		return nil, fmt.Errorf("%s has %d sessions of history: %w", ticker, len(bars), market.ErrUnavailable)
	}

	last := bars[len(bars)-1]
	prev := bars[len(bars)-2]
	return &models.PriceSnapshot{
		PreviousClose: prev.Close,
		LastClose:     last.Close,
		LastCloseDate: time.Unix(int64(last.Timestamp), 0).UTC(),
	}, nil
}
