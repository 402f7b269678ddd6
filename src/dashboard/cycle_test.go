package dashboard

import (
	"context"
	"io"
	"math"
	"testing"

	"pipwatch/src/indicators"
	"pipwatch/src/models"
	"pipwatch/src/quotes"
	"pipwatch/src/scoring"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func risingCloses(n int, start, step float64) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = start + float64(i)*step
	}
	return closes
}

func testPipeline(provider quotes.Provider) *Pipeline {
	calc := indicators.NewCalculator(indicators.DefaultConfig())
	return NewPipeline(provider, calc, nil, 90, quietLogger())
}

func TestRunCycle_MixedOutcomes(t *testing.T) {
	provider := &quotes.FakeProvider{Series: map[string][]float64{
		"EURUSD": risingCloses(80, 1.0, 0.001),
		"GBPUSD": risingCloses(80, 1.25, 0.0008),
		// USDJPY intentionally missing: provider reports it unavailable
	}}

	pairs := []string{"EURUSD", "USDJPY", "GBPUSD"}
	rows := testPipeline(provider).RunCycle(context.Background(), pairs, scoring.DefaultThresholds())

	require.Len(t, rows, 3)

	// Rows follow the configured pair order, not completion order
	assert.Equal(t, "EURUSD", rows[0].Pair)
	assert.Equal(t, "USDJPY", rows[1].Pair)
	assert.Equal(t, "GBPUSD", rows[2].Pair)

	assert.Equal(t, RowOK, rows[0].State)
	assert.Equal(t, RowUnavailable, rows[1].State)
	assert.Equal(t, RowOK, rows[2].State)

	// The unavailable pair never reaches the footer
	top := TopOpportunities(rows, scoring.Thresholds{}, 3)
	for _, opp := range top {
		assert.NotEqual(t, "USDJPY", opp.Pair)
	}
}

func TestRunCycle_InsufficientHistory(t *testing.T) {
	provider := &quotes.FakeProvider{Series: map[string][]float64{
		"EURUSD": risingCloses(10, 1.0, 0.001), // far below the long window
	}}

	rows := testPipeline(provider).RunCycle(context.Background(), []string{"EURUSD"}, scoring.DefaultThresholds())

	require.Len(t, rows, 1)
	assert.Equal(t, RowInsufficient, rows[0].State)
}

func TestRunCycle_FlatSeriesIsInsufficientNotCrash(t *testing.T) {
	closes := make([]float64, 80)
	for i := range closes {
		closes[i] = 1.1000
	}
	provider := &quotes.FakeProvider{Series: map[string][]float64{"EURUSD": closes}}

	rows := testPipeline(provider).RunCycle(context.Background(), []string{"EURUSD"}, scoring.DefaultThresholds())

	// Flat history leaves RSI undefined, which propagates instead of
	// defaulting and producing a misleading score
	require.Len(t, rows, 1)
	assert.Equal(t, RowInsufficient, rows[0].State)
}

func TestRunCycle_RisingSeriesIsBullish(t *testing.T) {
	provider := &quotes.FakeProvider{Series: map[string][]float64{
		"EURUSD": risingCloses(80, 1.0, 0.001),
	}}

	rows := testPipeline(provider).RunCycle(context.Background(), []string{"EURUSD"}, scoring.DefaultThresholds())

	require.Len(t, rows, 1)
	require.Equal(t, RowOK, rows[0].State)
	opp := rows[0].Opportunity

	assert.Equal(t, models.TrendBullish, opp.Trend)
	assert.Greater(t, opp.Snapshot.SMAShort, opp.Snapshot.SMALong)
	assert.Greater(t, opp.Snapshot.RSI, 95.0)
	assert.Equal(t, "EURUSD", opp.Pair)
}

func TestTopOpportunities_SortAndFilter(t *testing.T) {
	rows := []Row{
		{Pair: "A", State: RowOK, Opportunity: models.Opportunity{Pair: "A", Score: 40, RiskReward: 2.0}},
		{Pair: "B", State: RowOK, Opportunity: models.Opportunity{Pair: "B", Score: 90, RiskReward: 2.0}},
		{Pair: "C", State: RowOK, Opportunity: models.Opportunity{Pair: "C", Score: 70, RiskReward: 1.0}},
		{Pair: "D", State: RowOK, Opportunity: models.Opportunity{Pair: "D", Score: 95, RiskReward: math.NaN()}},
		{Pair: "E", State: RowUnavailable},
		{Pair: "F", State: RowOK, Opportunity: models.Opportunity{Pair: "F", Score: 60, RiskReward: 3.0}},
	}

	top := TopOpportunities(rows, scoring.Thresholds{MinRiskReward: 1.5}, 3)

	// C fails the risk/reward filter, D has an undefined ratio, E never
	// produced data; the rest rank by score descending
	require.Len(t, top, 3)
	assert.Equal(t, "B", top[0].Pair)
	assert.Equal(t, "F", top[1].Pair)
	assert.Equal(t, "A", top[2].Pair)
}

func TestTopOpportunities_TruncatesToN(t *testing.T) {
	rows := []Row{
		{Pair: "A", State: RowOK, Opportunity: models.Opportunity{Pair: "A", Score: 10, RiskReward: 2}},
		{Pair: "B", State: RowOK, Opportunity: models.Opportunity{Pair: "B", Score: 20, RiskReward: 2}},
		{Pair: "C", State: RowOK, Opportunity: models.Opportunity{Pair: "C", Score: 30, RiskReward: 2}},
		{Pair: "D", State: RowOK, Opportunity: models.Opportunity{Pair: "D", Score: 40, RiskReward: 2}},
	}

	top := TopOpportunities(rows, scoring.Thresholds{}, 3)

	require.Len(t, top, 3)
	assert.Equal(t, "D", top[0].Pair)
}

func TestTopOpportunities_ConfidenceGate(t *testing.T) {
	rows := []Row{
		{Pair: "A", State: RowOK, Opportunity: models.Opportunity{Pair: "A", Score: 90, RiskReward: 2, Confidence: 80}},
		{Pair: "B", State: RowOK, Opportunity: models.Opportunity{Pair: "B", Score: 95, RiskReward: 2, Confidence: 40}},
	}

	top := TopOpportunities(rows, scoring.Thresholds{MinConfidence: 60}, 3)

	// B outranks A on score but falls below the confidence floor
	require.Len(t, top, 1)
	assert.Equal(t, "A", top[0].Pair)
}

func TestRunCycle_ScoredRowCarriesSizing(t *testing.T) {
	provider := &quotes.FakeProvider{Series: map[string][]float64{
		"EURUSD": risingCloses(80, 1.0, 0.001),
	}}

	rows := testPipeline(provider).RunCycle(context.Background(), []string{"EURUSD"}, scoring.DefaultThresholds())

	require.Len(t, rows, 1)
	require.Equal(t, RowOK, rows[0].State)
	opp := rows[0].Opportunity

	assert.Greater(t, opp.PositionSize, 0.0)
	assert.GreaterOrEqual(t, opp.Confidence, 0.0)
	assert.LessOrEqual(t, opp.Confidence, 100.0)
}
