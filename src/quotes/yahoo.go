package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"pipwatch/src/models"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const defaultChartBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// YahooProvider fetches forex quotes from the Yahoo Finance chart API.
type YahooProvider struct {
	client  *http.Client
	limiter *rate.Limiter
	logger  *logrus.Logger
	baseURL string
}

// YahooOptions configures the Yahoo provider
type YahooOptions struct {
	Timeout        time.Duration // per-request timeout, default 10s
	ProxyURL       string        // optional HTTP proxy
	RequestsPerSec float64       // outbound rate limit, default 4
	BaseURL        string        // override for tests
}

// NewYahooProvider creates a provider with a bounded-timeout HTTP client
// and a polite outbound rate limit.
func NewYahooProvider(opts YahooOptions, logger *logrus.Logger) *YahooProvider {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.RequestsPerSec <= 0 {
		opts.RequestsPerSec = 4
	}
	if opts.BaseURL == "" {
		opts.BaseURL = defaultChartBaseURL
	}
	if logger == nil {
		logger = logrus.New()
	}

	transport := &http.Transport{}
	if opts.ProxyURL != "" {
		if u, err := url.Parse(opts.ProxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}

	return &YahooProvider{
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSec), 1),
		logger:  logger,
		baseURL: opts.BaseURL,
	}
}

// YahooSymbol converts a pair like "EURUSD" or "EUR/USD" into the Yahoo
// forex ticker form "EURUSD=X".
func YahooSymbol(pair string) string {
	if strings.HasSuffix(pair, "=X") {
		return pair
	}
	return strings.ReplaceAll(pair, "/", "") + "=X"
}

// yahooChart is the response structure from the Yahoo Finance chart API
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []interface{} `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

// FetchSeries pulls the recent close series for the pair. Any upstream
// failure is mapped to ErrUnavailable; there is no retry, the next poll
// cycle self-heals transient faults.
func (p *YahooProvider) FetchSeries(ctx context.Context, symbol string, lookback int) (models.PriceSeries, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return models.PriceSeries{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	rng := rangeFor(lookback)
	u := fmt.Sprintf("%s/%s?interval=1d&range=%s",
		p.baseURL, url.PathEscape(YahooSymbol(symbol)), rng)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return models.PriceSeries{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.WithField("pair", symbol).WithError(err).Warn("yahoo fetch failed")
		return models.PriceSeries{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.PriceSeries{}, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		p.logger.WithFields(logrus.Fields{
			"pair":   symbol,
			"status": resp.StatusCode,
		}).Warn("yahoo returned non-200")
		return models.PriceSeries{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return models.PriceSeries{}, fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}
	if chart.Chart.Error != nil {
		return models.PriceSeries{}, fmt.Errorf("%w: api error: %s", ErrUnavailable, chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 {
		return models.PriceSeries{}, fmt.Errorf("%w: no data for %s", ErrUnavailable, symbol)
	}

	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return models.PriceSeries{}, fmt.Errorf("%w: no quote block for %s", ErrUnavailable, symbol)
	}
	quote := result.Indicators.Quote[0]

	points := make([]models.PricePoint, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) {
			break
		}
		c, ok := toFloat(quote.Close[i])
		if !ok || c == 0 {
			continue // null bars (market holidays etc.)
		}
		points = append(points, models.PricePoint{
			Time:  time.Unix(ts, 0),
			Price: c,
		})
	}
	if len(points) == 0 {
		return models.PriceSeries{}, fmt.Errorf("%w: only null bars for %s", ErrUnavailable, symbol)
	}

	sort.Slice(points, func(i, j int) bool { return points[i].Time.Before(points[j].Time) })
	if len(points) > lookback && lookback > 0 {
		points = points[len(points)-lookback:]
	}

	return models.PriceSeries{Pair: symbol, Points: points}, nil
}

// rangeFor picks the smallest Yahoo range parameter covering the lookback
func rangeFor(lookback int) string {
	switch {
	case lookback <= 0 || lookback <= 30:
		return "1mo"
	case lookback <= 90:
		return "3mo"
	case lookback <= 180:
		return "6mo"
	case lookback <= 365:
		return "1y"
	default:
		return "2y"
	}
}
