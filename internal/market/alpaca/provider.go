package alpaca

import (
	"fmt"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/shopspring/decimal"

	"stock_alerter/internal/market"
	"stock_alerter/internal/models"
)

// Provider implements market.PriceFeed on the Alpaca market data API.
type Provider struct {
	mdClient *marketdata.Client
}

var _ market.PriceFeed = (*Provider)(nil)

// NewProvider returns an Alpaca-backed feed. The client reads the
// APCA_* keys from the environment.
func NewProvider() *Provider {
	return &Provider{
		mdClient: marketdata.NewClient(marketdata.ClientOpts{}),
	}
}

// LatestTwoCloses fetches recent daily bars and returns the last two
// closes. Two weeks of lookback rides out long holiday stretches.
func (p *Provider) LatestTwoCloses(ticker string) (*models.PriceSnapshot, error) {
	bars, err := p.mdClient.GetBars(ticker, marketdata.GetBarsRequest{
		TimeFrame: marketdata.OneDay,
		Start:     time.Now().UTC().AddDate(0, 0, -14),
	})
	if err != nil {
		return nil, fmt.Errorf("alpaca bars for %s: %w", ticker, err)
	}
	if len(bars) < 2 {
		return nil, fmt.Errorf("%s has %d sessions of history: %w", ticker, len(bars), market.ErrUnavailable)
	}

	last := bars[len(bars)-1]
	prev := bars[len(bars)-2]
	return &models.PriceSnapshot{
		PreviousClose: decimal.NewFromFloat(prev.Close),
		LastClose:     decimal.NewFromFloat(last.Close),
		LastCloseDate: last.Timestamp.UTC(),
	}, nil
}
