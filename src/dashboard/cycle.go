package dashboard

import (
	"context"
	"errors"
	"sort"
	"sync"

	"pipwatch/src/indicators"
	"pipwatch/src/models"
	"pipwatch/src/quotes"
	"pipwatch/src/scoring"

	"github.com/sirupsen/logrus"
)

// RowState classifies a table row for one pair in one cycle
type RowState int

const (
	// RowOK means the pair fetched and scored normally
	RowOK RowState = iota
	// RowUnavailable means the provider could not produce a series
	RowUnavailable
	// RowInsufficient means the series was too short to score
	RowInsufficient
)

// Row is the per-pair outcome of one poll cycle
type Row struct {
	Pair        string
	State       RowState
	Opportunity models.Opportunity
}

// Pipeline runs the fetch → indicators → score pass for every configured
// pair. It is headless so the compute path can be tested without a
// terminal attached.
type Pipeline struct {
	provider quotes.Provider
	calc     *indicators.Calculator
	stream   *quotes.Stream // optional fresher-price overlay
	lookback int
	logger   *logrus.Logger
}

// NewPipeline creates the compute pipeline. stream may be nil.
func NewPipeline(provider quotes.Provider, calc *indicators.Calculator, stream *quotes.Stream, lookback int, logger *logrus.Logger) *Pipeline {
	if logger == nil {
		logger = logrus.New()
	}
	return &Pipeline{
		provider: provider,
		calc:     calc,
		stream:   stream,
		lookback: lookback,
		logger:   logger,
	}
}

// RunCycle fetches every pair concurrently and joins the results before
// returning. Rows always come back in configured pair order, never fetch
// completion order, so the rendered table is deterministic.
func (p *Pipeline) RunCycle(ctx context.Context, pairs []string, th scoring.Thresholds) []Row {
	rows := make([]Row, len(pairs))

	var wg sync.WaitGroup
	for i, pair := range pairs {
		wg.Add(1)
		go func(i int, pair string) {
			defer wg.Done()
			rows[i] = p.evaluate(ctx, pair, th)
		}(i, pair)
	}
	wg.Wait()

	return rows
}

// evaluate runs one pair through the whole pipeline
func (p *Pipeline) evaluate(ctx context.Context, pair string, th scoring.Thresholds) Row {
	series, err := p.provider.FetchSeries(ctx, pair, p.lookback)
	if err != nil {
		p.logger.WithField("pair", pair).WithError(err).Debug("pair unavailable this cycle")
		return Row{Pair: pair, State: RowUnavailable}
	}

	price := series.LastPrice()
	if p.stream != nil && series.Len() > 0 {
		streamed, at, ok := p.stream.LastPrice(pair)
		if ok && at.After(series.Points[series.Len()-1].Time) {
			price = streamed
		}
	}

	snap := p.calc.Snapshot(series)
	opp, err := scoring.Score(pair, snap, price, th)
	if err != nil {
		if !errors.Is(err, scoring.ErrInsufficientHistory) {
			p.logger.WithField("pair", pair).WithError(err).Warn("scoring failed")
		}
		return Row{Pair: pair, State: RowInsufficient}
	}

	return Row{Pair: pair, State: RowOK, Opportunity: opp}
}

// TopOpportunities picks the best-scoring valid rows, filtered by the
// minimum risk/reward ratio and the minimum confidence. Rows with an
// undefined ratio never qualify.
func TopOpportunities(rows []Row, th scoring.Thresholds, n int) []models.Opportunity {
	opps := make([]models.Opportunity, 0, len(rows))
	for _, row := range rows {
		if row.State != RowOK {
			continue
		}
		if !row.Opportunity.PassesRiskReward(th.MinRiskReward) {
			continue
		}
		if !row.Opportunity.PassesConfidence(th.MinConfidence) {
			continue
		}
		opps = append(opps, row.Opportunity)
	}

	sort.SliceStable(opps, func(i, j int) bool {
		return opps[i].Score > opps[j].Score
	})

	if len(opps) > n {
		opps = opps[:n]
	}
	return opps
}
