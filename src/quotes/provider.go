package quotes

import (
	"context"
	"errors"

	"pipwatch/src/models"
)

// ErrUnavailable is the sentinel for any upstream failure: network errors,
// unknown symbols, empty payloads. Callers treat it as "skip this pair for
// this cycle"; the next poll is the retry.
var ErrUnavailable = errors.New("quote provider unavailable")

// Provider fetches the recent price history for one currency pair.
// lookback is the number of samples the caller needs for its indicator
// windows; implementations may return more but never reorder.
type Provider interface {
	FetchSeries(ctx context.Context, symbol string, lookback int) (models.PriceSeries, error)
}
