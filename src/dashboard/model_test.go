package dashboard

import (
	"context"
	"strings"
	"testing"
	"time"

	"pipwatch/src/quotes"
	"pipwatch/src/scoring"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testModel(provider quotes.Provider) Model {
	return NewModel(testPipeline(provider), Options{
		Pairs:      []string{"EURUSD", "USDJPY", "GBPUSD"},
		Interval:   time.Minute,
		Thresholds: scoring.DefaultThresholds(),
		TopN:       3,
	})
}

func cycleRows(t *testing.T, provider quotes.Provider, pairs []string) []Row {
	t.Helper()
	return testPipeline(provider).RunCycle(context.Background(), pairs, scoring.DefaultThresholds())
}

func TestFreshness(t *testing.T) {
	m := testModel(&quotes.FakeProvider{})

	// No cycle has ever succeeded
	assert.Equal(t, FreshnessOffline, m.Freshness())

	base := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	m.lastSuccess = base
	m.now = func() time.Time { return base.Add(30 * time.Second) }
	assert.Equal(t, FreshnessLive, m.Freshness())

	m.now = func() time.Time { return base.Add(5 * time.Minute) }
	assert.Equal(t, FreshnessDelayed, m.Freshness())
}

func TestUpdate_CycleMsgRecordsSuccess(t *testing.T) {
	provider := &quotes.FakeProvider{Series: map[string][]float64{
		"EURUSD": risingCloses(80, 1.0, 0.001),
	}}
	m := testModel(provider)

	rows := cycleRows(t, provider, []string{"EURUSD", "USDJPY"})
	at := time.Now()
	updated, cmd := m.Update(cycleMsg{rows: rows, at: at})
	m = updated.(Model)

	assert.Equal(t, at, m.lastSuccess, "a cycle with one OK row counts as a successful fetch")
	assert.NotNil(t, cmd, "a rendered cycle must schedule the next tick")
}

func TestUpdate_AllUnavailableDoesNotRefreshSuccess(t *testing.T) {
	m := testModel(&quotes.FakeProvider{})

	rows := cycleRows(t, &quotes.FakeProvider{}, []string{"EURUSD"})
	updated, _ := m.Update(cycleMsg{rows: rows, at: time.Now()})
	m = updated.(Model)

	assert.True(t, m.lastSuccess.IsZero())
	assert.Equal(t, FreshnessOffline, m.Freshness())
}

func TestUpdate_FailedCycleKeepsPreviousRows(t *testing.T) {
	provider := &quotes.FakeProvider{Series: map[string][]float64{
		"EURUSD": risingCloses(80, 1.0, 0.001),
	}}
	m := testModel(provider)

	base := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	good := cycleRows(t, provider, []string{"EURUSD"})
	updated, _ := m.Update(cycleMsg{rows: good, at: base})
	m = updated.(Model)
	require.Equal(t, RowOK, m.rows[0].State)

	// Next cycle the provider produces nothing at all
	dead := cycleRows(t, &quotes.FakeProvider{}, []string{"EURUSD"})
	updated, _ = m.Update(cycleMsg{rows: dead, at: base.Add(time.Minute)})
	m = updated.(Model)

	// The last good table stays on screen while freshness degrades
	require.Equal(t, RowOK, m.rows[0].State, "a total outage must not wipe the last good rows")
	assert.Equal(t, base, m.lastSuccess)

	m.now = func() time.Time { return base.Add(5 * time.Minute) }
	assert.Equal(t, FreshnessDelayed, m.Freshness())
	view := m.View()
	assert.Contains(t, view, "Delayed")
	assert.Contains(t, view, "EURUSD")
	assert.NotContains(t, view, "unavailable")
}

func TestUpdate_QuitKeys(t *testing.T) {
	m := testModel(&quotes.FakeProvider{})

	for _, key := range []string{"q", "ctrl+c"} {
		var msg tea.KeyMsg
		if key == "q" {
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}}
		} else {
			msg = tea.KeyMsg{Type: tea.KeyCtrlC}
		}
		_, cmd := m.Update(msg)
		require.NotNil(t, cmd, "key %q should quit", key)
	}
}

func TestUpdate_ThresholdsMsg(t *testing.T) {
	m := testModel(&quotes.FakeProvider{})

	th := scoring.DefaultThresholds()
	th.MinRiskReward = 3.0
	updated, _ := m.Update(SetThresholds(th))
	m = updated.(Model)

	assert.Equal(t, 3.0, m.opts.Thresholds.MinRiskReward)
}

func TestView_MixedRows(t *testing.T) {
	provider := &quotes.FakeProvider{Series: map[string][]float64{
		"EURUSD": risingCloses(80, 1.0, 0.001),
		"GBPUSD": risingCloses(80, 1.25, 0.0008),
	}}
	m := testModel(provider)

	rows := cycleRows(t, provider, []string{"EURUSD", "USDJPY", "GBPUSD"})
	updated, _ := m.Update(cycleMsg{rows: rows, at: time.Now()})
	m = updated.(Model)

	view := m.View()

	assert.Contains(t, view, "EURUSD")
	assert.Contains(t, view, "GBPUSD")
	assert.Contains(t, view, "unavailable", "the dead pair renders as a marker row")
	assert.Contains(t, view, "Top Trading Opportunities")
	assert.NotContains(t, strings.Split(view, "Top Trading Opportunities")[1], "USDJPY",
		"the footer never includes an unavailable pair")
}

func TestView_PositionSizing(t *testing.T) {
	provider := &quotes.FakeProvider{Series: map[string][]float64{
		"EURUSD": risingCloses(80, 1.0, 0.001),
	}}
	m := testModel(provider)

	rows := cycleRows(t, provider, []string{"EURUSD"})
	updated, _ := m.Update(cycleMsg{rows: rows, at: time.Now()})
	m = updated.(Model)

	view := m.View()
	assert.Contains(t, view, "Position")
	// A calm EUR pair sizes up from the 100k standard lot
	assert.Contains(t, view, "120,000")
	assert.Contains(t, view, "Buy 120,000 EURUSD", "the footer spells out the suggested lot")
}

func TestView_InsufficientRow(t *testing.T) {
	provider := &quotes.FakeProvider{Series: map[string][]float64{
		"EURUSD": risingCloses(10, 1.0, 0.001),
	}}
	m := testModel(provider)

	rows := cycleRows(t, provider, []string{"EURUSD"})
	updated, _ := m.Update(cycleMsg{rows: rows, at: time.Now()})
	m = updated.(Model)

	assert.Contains(t, m.View(), "insufficient data")
}

func TestView_CompactOnNarrowTerminal(t *testing.T) {
	provider := &quotes.FakeProvider{Series: map[string][]float64{
		"EURUSD": risingCloses(80, 1.0, 0.001),
	}}
	m := testModel(provider)

	rows := cycleRows(t, provider, []string{"EURUSD"})
	updated, _ := m.Update(cycleMsg{rows: rows, at: time.Now()})
	m = updated.(Model)

	updated, _ = m.Update(tea.WindowSizeMsg{Width: 60, Height: 24})
	m = updated.(Model)

	view := m.View()
	assert.Contains(t, view, "EURUSD")
	assert.NotContains(t, view, "T/P", "narrow terminals drop the position columns instead of wrapping")
}

func TestView_OfflineBeforeFirstCycle(t *testing.T) {
	m := testModel(&quotes.FakeProvider{})

	view := m.View()
	assert.Contains(t, view, "Offline")
	assert.Contains(t, view, "No trading opportunities available")
}
