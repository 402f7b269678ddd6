package models

import (
	"math"
	"time"
)

// PricePoint is a single observed quote for a currency pair
type PricePoint struct {
	Time  time.Time
	Price float64
}

// PriceSeries is an ordered price history for one pair, most-recent last.
// It is replaced wholesale on every poll; nothing mutates it in place.
type PriceSeries struct {
	Pair   string
	Points []PricePoint
}

// Len returns the number of points in the series
func (s PriceSeries) Len() int {
	return len(s.Points)
}

// Closes extracts the raw price values in series order
func (s PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s.Points))
	for i, p := range s.Points {
		closes[i] = p.Price
	}
	return closes
}

// LastPrice returns the most recent price, or NaN for an empty series
func (s PriceSeries) LastPrice() float64 {
	if len(s.Points) == 0 {
		return math.NaN()
	}
	return s.Points[len(s.Points)-1].Price
}

// IndicatorSnapshot holds the indicator values derived from one PriceSeries.
// NaN marks an indicator that could not be computed from the available
// history; it is never silently replaced with a default.
type IndicatorSnapshot struct {
	SMAShort     float64 // short-window simple moving average
	SMALong      float64 // long-window simple moving average
	EMAShort     float64 // short-window exponential moving average
	RSI          float64 // Wilder RSI, [0,100]
	Volatility   float64 // annualized stddev of percentage returns
	Support      float64 // lowest close over the lookback window
	Resistance   float64 // highest close over the lookback window
	DayChangePct float64 // last close vs previous close, percent
}

// Complete reports whether every field the scorer requires is defined
func (s IndicatorSnapshot) Complete() bool {
	return !math.IsNaN(s.SMAShort) &&
		!math.IsNaN(s.SMALong) &&
		!math.IsNaN(s.RSI) &&
		!math.IsNaN(s.Volatility)
}

// TrendDirection represents the market trend direction
type TrendDirection int

const (
	TrendNeutral TrendDirection = iota
	TrendBullish
	TrendBearish
)

// String returns the label rendered in the dashboard table
func (t TrendDirection) String() string {
	switch t {
	case TrendBullish:
		return "Bullish"
	case TrendBearish:
		return "Bearish"
	default:
		return "Neutral"
	}
}

// RSICondition classifies the RSI value against the configured thresholds
type RSICondition int

const (
	RSINeutral RSICondition = iota
	RSIOversold
	RSIOverbought
)

func (c RSICondition) String() string {
	switch c {
	case RSIOversold:
		return "Oversold"
	case RSIOverbought:
		return "Overbought"
	default:
		return "Neutral"
	}
}

// VolatilityLevel classifies volatility into coarse bands
type VolatilityLevel int

const (
	VolatilityLow VolatilityLevel = iota
	VolatilityMedium
	VolatilityHigh
)

func (v VolatilityLevel) String() string {
	switch v {
	case VolatilityMedium:
		return "Medium"
	case VolatilityHigh:
		return "High"
	default:
		return "Low"
	}
}

// Opportunity is the scored view of one pair for one poll cycle.
// It is recomputed from scratch every cycle and never persisted.
type Opportunity struct {
	Pair           string
	Time           time.Time
	CurrentPrice   float64
	Score          float64 // [0,100]
	Confidence     float64 // [0,100], how tradeable the setup is
	Trend          TrendDirection
	RSI            RSICondition
	Volatility     VolatilityLevel
	Entry          float64
	TakeProfit     float64
	StopLoss       float64
	RiskReward     float64 // NaN when the stop distance is zero
	PositionSize   float64 // suggested lot in base currency units
	ExpectedReturn float64 // quote-currency expectation; NaN with the ratio
	Snapshot       IndicatorSnapshot
}

// PassesConfidence reports whether the opportunity clears the minimum
// confidence filter.
func (o Opportunity) PassesConfidence(min float64) bool {
	return o.Confidence >= min
}

// PassesRiskReward reports whether the opportunity clears the minimum
// risk/reward filter. An undefined ratio never passes.
func (o Opportunity) PassesRiskReward(min float64) bool {
	return !math.IsNaN(o.RiskReward) && o.RiskReward >= min
}
