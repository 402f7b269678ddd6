package scoring

import "math"

// Standard lot per base currency. JPY-based lots are an order of
// magnitude larger by market convention.
var baseLots = map[string]float64{
	"EUR": 100000,
	"GBP": 80000,
	"USD": 100000,
	"JPY": 10000000,
	"CHF": 100000,
	"AUD": 100000,
	"NZD": 100000,
	"CAD": 100000,
}

// Per-currency size adjustment reflecting typical liquidity and swing
// behaviour of the base currency.
var currencyAdjust = map[string]float64{
	"EUR": 1.0,
	"GBP": 0.95,
	"USD": 1.0,
	"JPY": 1.2,
	"CHF": 0.9,
	"AUD": 0.85,
	"NZD": 0.85,
	"CAD": 0.9,
}

const defaultBaseLot = 100000

// volatilityAdjust shrinks the lot in rough markets and lets calm
// markets size up.
func volatilityAdjust(vol float64) float64 {
	switch {
	case vol > 0.015:
		return 0.7
	case vol > 0.008:
		return 0.85
	case vol < 0.004:
		return 1.2
	default:
		return 1.0
	}
}

// positionSize returns the suggested lot for the pair at the given
// volatility, plus the ratio of that lot to the unadjusted base lot.
func positionSize(pair string, vol float64) (size, ratio float64) {
	cur := baseCurrency(pair)
	base, ok := baseLots[cur]
	if !ok {
		base = defaultBaseLot
	}
	adj, ok := currencyAdjust[cur]
	if !ok {
		adj = 1.0
	}
	ratio = volatilityAdjust(vol) * adj
	return base * ratio, ratio
}

func baseCurrency(pair string) string {
	if len(pair) < 3 {
		return pair
	}
	return pair[:3]
}

// expectedReturn estimates the quote-currency expectation of the trade
// from the risk/reward ratio and the amount at risk. Undefined ratios
// propagate as NaN.
func expectedReturn(riskReward, stopDistance, size float64) float64 {
	if math.IsNaN(riskReward) {
		return math.NaN()
	}
	riskAmount := stopDistance * size
	return (riskReward*0.45 - 0.55) * riskAmount
}
