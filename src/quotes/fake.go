package quotes

import (
	"context"
	"time"

	"pipwatch/src/models"
)

// FakeProvider serves canned series per symbol. It backs deterministic
// tests and the offline demo mode; symbols without an entry come back
// unavailable, the same way a dead upstream would.
type FakeProvider struct {
	Series map[string][]float64
}

// FetchSeries returns the canned series for the symbol, one point per day
// ending today, or ErrUnavailable when the symbol has no entry.
func (f *FakeProvider) FetchSeries(_ context.Context, symbol string, lookback int) (models.PriceSeries, error) {
	closes, ok := f.Series[symbol]
	if !ok {
		return models.PriceSeries{}, ErrUnavailable
	}
	if lookback > 0 && len(closes) > lookback {
		closes = closes[len(closes)-lookback:]
	}

	now := time.Now()
	points := make([]models.PricePoint, len(closes))
	for i, c := range closes {
		points[i] = models.PricePoint{
			Time:  now.Add(-time.Duration(len(closes)-1-i) * 24 * time.Hour),
			Price: c,
		}
	}
	return models.PriceSeries{Pair: symbol, Points: points}, nil
}
