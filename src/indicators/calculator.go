package indicators

import (
	"math"

	"pipwatch/src/models"

	"github.com/markcheno/go-talib"
)

// Config holds the lookback windows used for indicator calculations
type Config struct {
	ShortWindow   int     // SMA/EMA short window
	LongWindow    int     // SMA long window
	RSIWindow     int     // Wilder RSI window
	Annualization float64 // trading periods per year for volatility scaling
}

// DefaultConfig matches the windows the dashboard was designed around
func DefaultConfig() Config {
	return Config{
		ShortWindow:   20,
		LongWindow:    50,
		RSIWindow:     14,
		Annualization: 252,
	}
}

// Calculator computes technical indicators from a price series.
// It is stateless; every call derives the snapshot from its input alone.
type Calculator struct {
	cfg Config
}

// NewCalculator creates a new indicator calculator
func NewCalculator(cfg Config) *Calculator {
	if cfg.ShortWindow <= 0 {
		cfg.ShortWindow = 20
	}
	if cfg.LongWindow <= 0 {
		cfg.LongWindow = 50
	}
	if cfg.RSIWindow <= 0 {
		cfg.RSIWindow = 14
	}
	if cfg.Annualization <= 0 {
		cfg.Annualization = 252
	}
	return &Calculator{cfg: cfg}
}

// Snapshot calculates all indicators for the series. Fields that cannot be
// computed from the available history come back as NaN so that insufficient
// data stays visible downstream instead of reading as a zero signal.
func (c *Calculator) Snapshot(series models.PriceSeries) models.IndicatorSnapshot {
	closes := series.Closes()

	snap := models.IndicatorSnapshot{
		SMAShort:     lastOf(talib.Sma, closes, c.cfg.ShortWindow),
		SMALong:      lastOf(talib.Sma, closes, c.cfg.LongWindow),
		EMAShort:     lastOf(talib.Ema, closes, c.cfg.ShortWindow),
		RSI:          math.NaN(),
		Volatility:   c.volatility(closes),
		Support:      lastOf(talib.Min, closes, c.cfg.ShortWindow),
		Resistance:   lastOf(talib.Max, closes, c.cfg.ShortWindow),
		DayChangePct: math.NaN(),
	}

	// RSI needs window+1 closes to produce the first defined value. A
	// window with zero movement has no gain/loss ratio at all; keep that
	// NaN rather than letting it read as deeply oversold.
	if len(closes) >= c.cfg.RSIWindow+1 && hasMovement(closes[len(closes)-c.cfg.RSIWindow-1:]) {
		rsi := talib.Rsi(closes, c.cfg.RSIWindow)
		snap.RSI = rsi[len(rsi)-1]
	}

	if len(closes) >= 2 {
		prev := closes[len(closes)-2]
		if prev != 0 {
			snap.DayChangePct = (closes[len(closes)-1]/prev - 1) * 100
		}
	}

	return snap
}

// volatility is the stddev of percentage returns over the short window,
// scaled to an annualized figure
func (c *Calculator) volatility(closes []float64) float64 {
	window := c.cfg.ShortWindow
	if len(closes) < window+1 {
		return math.NaN()
	}

	returns := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			return math.NaN()
		}
		returns = append(returns, closes[i]/closes[i-1]-1)
	}

	dev := talib.StdDev(returns, window, 1.0)
	return dev[len(dev)-1] * math.Sqrt(c.cfg.Annualization)
}

// Trend compares the short and long moving averages. Neutral is returned
// only when either average is undefined or the two are exactly equal.
func Trend(snap models.IndicatorSnapshot) models.TrendDirection {
	if math.IsNaN(snap.SMAShort) || math.IsNaN(snap.SMALong) {
		return models.TrendNeutral
	}
	switch {
	case snap.SMAShort > snap.SMALong:
		return models.TrendBullish
	case snap.SMAShort < snap.SMALong:
		return models.TrendBearish
	default:
		return models.TrendNeutral
	}
}

// hasMovement reports whether any close differs from the one before it
func hasMovement(closes []float64) bool {
	for i := 1; i < len(closes); i++ {
		if closes[i] != closes[i-1] {
			return true
		}
	}
	return false
}

// lastOf runs a single-input talib function over the closes and returns the
// final value, or NaN when the series is shorter than the window
func lastOf(fn func([]float64, int) []float64, closes []float64, window int) float64 {
	if len(closes) < window {
		return math.NaN()
	}
	out := fn(closes, window)
	return out[len(out)-1]
}
