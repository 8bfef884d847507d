package market

import (
	"errors"

	"stock_alerter/internal/models"
)

// ErrUnavailable marks a ticker the feed has no usable data for:
// delisted or invalid symbols, fewer than two sessions of history, or a
// missing current price. Callers treat it as a clean per-ticker skip.
var ErrUnavailable = errors.New("market data unavailable")

// PriceFeed supplies the last two trading-day closes for a ticker.
// Implementations wrap ErrUnavailable for the cases above; any other
// error is a transport failure.
type PriceFeed interface {
	LatestTwoCloses(ticker string) (*models.PriceSnapshot, error)
}
