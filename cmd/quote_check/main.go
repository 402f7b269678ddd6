package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"pipwatch/src/indicators"
	"pipwatch/src/quotes"
	"pipwatch/src/scoring"

	"github.com/sirupsen/logrus"
)

// Manual check: fetch one pair from Yahoo, print the indicator snapshot
// and score. Useful for verifying connectivity without starting the TUI.
func main() {
	pair := flag.String("pair", "EURUSD", "currency pair to fetch")
	lookback := flag.Int("lookback", 90, "number of daily samples")
	flag.Parse()

	logger := logrus.New()
	provider := quotes.NewYahooProvider(quotes.YahooOptions{}, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	series, err := provider.FetchSeries(ctx, *pair, *lookback)
	if err != nil {
		log.Fatalf("fetch %s failed: %v", *pair, err)
	}
	fmt.Printf("%s: %d samples, last %.4f at %s\n",
		series.Pair, series.Len(), series.LastPrice(),
		series.Points[series.Len()-1].Time.Format(time.RFC3339))

	calc := indicators.NewCalculator(indicators.DefaultConfig())
	snap := calc.Snapshot(series)
	fmt.Printf("SMA20: %.4f  SMA50: %.4f  EMA20: %.4f\n", snap.SMAShort, snap.SMALong, snap.EMAShort)
	fmt.Printf("RSI14: %.1f  Volatility: %.4f  Support: %.4f  Resistance: %.4f\n",
		snap.RSI, snap.Volatility, snap.Support, snap.Resistance)

	opp, err := scoring.Score(*pair, snap, series.LastPrice(), scoring.DefaultThresholds())
	if err != nil {
		log.Fatalf("score: %v", err)
	}
	fmt.Printf("Trend: %s  RSI: %s  Volatility: %s\n", opp.Trend, opp.RSI, opp.Volatility)
	fmt.Printf("Score: %.0f  Confidence: %.0f  Entry: %.4f  T/P: %.4f  S/L: %.4f  R/R: %.1f\n",
		opp.Score, opp.Confidence, opp.Entry, opp.TakeProfit, opp.StopLoss, opp.RiskReward)
	fmt.Printf("Position: %.0f  Expected: %.2f\n", opp.PositionSize, opp.ExpectedReturn)
}
