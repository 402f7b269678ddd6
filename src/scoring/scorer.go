package scoring

import (
	"errors"
	"math"
	"time"

	"pipwatch/src/indicators"
	"pipwatch/src/models"
)

// ErrInsufficientHistory is returned when the snapshot is missing an
// indicator the scorer requires. The pair is excluded from ranking and
// rendered as "insufficient data" instead of being given a fake score.
var ErrInsufficientHistory = errors.New("insufficient history for scoring")

// Thresholds are the tunable trading thresholds read on every scoring pass
type Thresholds struct {
	MinRiskReward float64 `yaml:"min_risk_reward"`
	MinConfidence float64 `yaml:"min_confidence"`
	MaxVolatility float64 `yaml:"max_volatility"`
	RSIOversold   float64 `yaml:"rsi_oversold"`
	RSIOverbought float64 `yaml:"rsi_overbought"`
}

// DefaultThresholds returns the stock dashboard thresholds
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinRiskReward: 1.5,
		MinConfidence: 60,
		MaxVolatility: 0.02,
		RSIOversold:   30,
		RSIOverbought: 70,
	}
}

// Score point budgets. The exact weights are policy, not contract; the
// contract is monotonicity (stronger trend, more extreme RSI, and lower
// volatility never lower the score).
const (
	trendPoints      = 30.0
	rsiPoints        = 25.0
	riskRewardPoints = 25.0
	volatilityPoints = 20.0
)

// Score combines an indicator snapshot and the current price into a scored
// opportunity for the pair. Every derived value is a pure function of the
// inputs.
func Score(pair string, snap models.IndicatorSnapshot, price float64, th Thresholds) (models.Opportunity, error) {
	if !snap.Complete() || math.IsNaN(price) {
		return models.Opportunity{}, ErrInsufficientHistory
	}

	trend := indicators.Trend(snap)
	rsiCond := classifyRSI(snap.RSI, th)
	volLevel := classifyVolatility(snap.Volatility, th)

	entry, takeProfit, stopLoss, riskReward := positionLevels(price, snap.Volatility, trend, th)
	size, sizeRatio := positionSize(pair, snap.Volatility)

	score := 0.0
	if trend != models.TrendNeutral {
		score += trendPoints
	}
	score += rsiExtremity(snap.RSI, th) * rsiPoints
	if !math.IsNaN(riskReward) {
		score += math.Min(riskReward*10, riskRewardPoints)
	}
	score += volatilityBonus(snap.Volatility, th)

	score = math.Min(math.Max(score, 0), 100)

	return models.Opportunity{
		Pair:           pair,
		Time:           time.Now(),
		CurrentPrice:   price,
		Score:          score,
		Confidence:     confidence(riskReward, snap.Volatility, sizeRatio, th),
		Trend:          trend,
		RSI:            rsiCond,
		Volatility:     volLevel,
		Entry:          entry,
		TakeProfit:     takeProfit,
		StopLoss:       stopLoss,
		RiskReward:     riskReward,
		PositionSize:   size,
		ExpectedReturn: expectedReturn(riskReward, math.Abs(entry-stopLoss), size),
		Snapshot:       snap,
	}, nil
}

// Confidence point budgets. Confidence gauges how tradeable the setup is,
// separate from the opportunity score: ratio quality, market calm and
// sizing headroom on top of a flat base.
const (
	confidenceBase   = 25.0
	ratioConfidence  = 30.0
	calmConfidence   = 30.0
	sizingConfidence = 15.0
)

// confidence maps the setup into [0,100]. An undefined ratio contributes
// nothing rather than poisoning the figure.
func confidence(riskReward, vol, sizeRatio float64, th Thresholds) float64 {
	conf := confidenceBase
	if !math.IsNaN(riskReward) {
		conf += math.Min(riskReward*20, ratioConfidence)
	}
	if th.MaxVolatility > 0 && vol < th.MaxVolatility {
		conf += (1 - math.Max(vol, 0)/th.MaxVolatility) * calmConfidence
	}
	conf += math.Min(sizeRatio, 1) * sizingConfidence
	return math.Min(conf, 100)
}

// rsiExtremity maps RSI distance from 50 into [0,1]. It grows linearly as
// RSI approaches either configured threshold and saturates beyond it.
func rsiExtremity(rsi float64, th Thresholds) float64 {
	var band float64
	if rsi < 50 {
		band = 50 - th.RSIOversold
	} else {
		band = th.RSIOverbought - 50
	}
	if band <= 0 {
		return 1
	}
	return math.Min(math.Abs(rsi-50)/band, 1)
}

// volatilityBonus rewards calm markets. It decays linearly from the full
// budget at zero volatility to nothing at or above MaxVolatility.
func volatilityBonus(vol float64, th Thresholds) float64 {
	if th.MaxVolatility <= 0 || vol >= th.MaxVolatility {
		return 0
	}
	if vol < 0 {
		vol = 0
	}
	return (1 - vol/th.MaxVolatility) * volatilityPoints
}

// Stop and profit distance multipliers per volatility band. Calm markets
// get tight stops and wide targets; volatile markets the reverse.
func bandMultipliers(vol float64, th Thresholds) (stopMult, profitMult float64) {
	switch classifyVolatility(vol, th) {
	case models.VolatilityLow:
		return 1.2, 2.8
	case models.VolatilityMedium:
		return 1.5, 2.3
	default:
		return 2.0, 1.8
	}
}

// positionLevels derives entry, take-profit and stop-loss from the current
// price and a volatility-scaled offset. A zero stop distance yields a NaN
// risk/reward ratio rather than Inf; the filter excludes it downstream.
func positionLevels(price, vol float64, trend models.TrendDirection, th Thresholds) (entry, tp, sl, rr float64) {
	entry = price

	atr := vol * price
	stopMult, profitMult := bandMultipliers(vol, th)
	stopDistance := math.Abs(atr) * stopMult
	profitDistance := stopDistance * profitMult

	side := 1.0
	if trend == models.TrendBearish {
		side = -1.0
	}
	tp = entry + side*profitDistance
	sl = entry - side*stopDistance

	if stopDistance == 0 {
		return entry, tp, sl, math.NaN()
	}
	return entry, tp, sl, profitDistance / stopDistance
}

func classifyRSI(rsi float64, th Thresholds) models.RSICondition {
	switch {
	case rsi < th.RSIOversold:
		return models.RSIOversold
	case rsi > th.RSIOverbought:
		return models.RSIOverbought
	default:
		return models.RSINeutral
	}
}

func classifyVolatility(vol float64, th Thresholds) models.VolatilityLevel {
	max := th.MaxVolatility
	if max <= 0 {
		max = 0.02
	}
	switch {
	case vol < max/4:
		return models.VolatilityLow
	case vol < max/2:
		return models.VolatilityMedium
	default:
		return models.VolatilityHigh
	}
}
