package dashboard

import (
	"context"
	"time"

	"pipwatch/src/notify"
	"pipwatch/src/scoring"

	tea "github.com/charmbracelet/bubbletea"
)

// Freshness classifies how recent the rendered data is
type Freshness int

const (
	// FreshnessOffline means no pair has ever produced data
	FreshnessOffline Freshness = iota
	// FreshnessLive means the last successful fetch is within one interval
	FreshnessLive
	// FreshnessDelayed means a prior cycle's data is being reused
	FreshnessDelayed
)

func (f Freshness) String() string {
	switch f {
	case FreshnessLive:
		return "Live"
	case FreshnessDelayed:
		return "Delayed"
	default:
		return "Offline"
	}
}

type phase int

const (
	phaseIdle phase = iota
	phasePolling
	phaseRendered
)

// freshnessGrace absorbs the fetch duration itself so a cycle that takes a
// couple of seconds does not flap Live → Delayed.
const freshnessGrace = 2 * time.Second

type tickMsg time.Time

type cycleMsg struct {
	rows []Row
	at   time.Time
}

type thresholdsMsg scoring.Thresholds

// SetThresholds builds the message that updates the trading thresholds at
// runtime. Send it through the running program:
//
//	program.Send(dashboard.SetThresholds(th))
//
// Updates are serialized through the event loop, so a scoring pass never
// observes a half-applied config.
func SetThresholds(th scoring.Thresholds) tea.Msg {
	return thresholdsMsg(th)
}

// Options configures the dashboard model
type Options struct {
	Pairs      []string
	Interval   time.Duration
	Thresholds scoring.Thresholds
	TopN       int
	Notifier   *notify.TelegramNotifier
	AlertScore float64
}

// Model is the bubbletea model driving the dashboard. The compute pipeline
// stays outside it; the model only schedules cycles and renders rows.
type Model struct {
	pipeline *Pipeline
	opts     Options

	phase       phase
	rows        []Row
	lastCycle   time.Time
	lastSuccess time.Time
	width       int

	now func() time.Time
}

// NewModel creates the dashboard model
func NewModel(pipeline *Pipeline, opts Options) Model {
	if opts.TopN <= 0 {
		opts.TopN = 3
	}
	return Model{
		pipeline: pipeline,
		opts:     opts,
		phase:    phaseIdle,
		now:      time.Now,
	}
}

// Init kicks off the first poll immediately
func (m Model) Init() tea.Cmd {
	return m.poll()
}

// poll returns the command that runs one full cycle off the event loop
func (m Model) poll() tea.Cmd {
	pairs := m.opts.Pairs
	th := m.opts.Thresholds
	pipeline := m.pipeline
	return func() tea.Msg {
		rows := pipeline.RunCycle(context.Background(), pairs, th)
		return cycleMsg{rows: rows, at: time.Now()}
	}
}

// Update handles the dashboard state machine:
// idle → polling → rendered → (tick) → polling.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case tickMsg:
		m.phase = phasePolling
		return m, m.poll()

	case cycleMsg:
		m.phase = phaseRendered
		m.lastCycle = msg.at
		ok := false
		for _, row := range msg.rows {
			if row.State == RowOK {
				ok = true
				break
			}
		}
		if ok {
			m.lastSuccess = msg.at
		}
		// A cycle that produced nothing keeps the previous table on
		// screen; the header degrades to Delayed instead of the last
		// good rows being wiped.
		if ok || len(m.rows) == 0 {
			m.rows = msg.rows
		}
		return m, tea.Batch(m.scheduleTick(), m.alertCmd(msg.rows))

	case thresholdsMsg:
		m.opts.Thresholds = scoring.Thresholds(msg)
	}

	return m, nil
}

func (m Model) scheduleTick() tea.Cmd {
	return tea.Tick(m.opts.Interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// alertCmd pushes Telegram alerts for any opportunity at or above the
// alert score. The notifier applies its own per-pair cooldown.
func (m Model) alertCmd(rows []Row) tea.Cmd {
	notifier := m.opts.Notifier
	if notifier == nil || !notifier.Enabled() {
		return nil
	}
	threshold := m.opts.AlertScore
	top := TopOpportunities(rows, m.opts.Thresholds, m.opts.TopN)
	logger := m.pipeline.logger
	return func() tea.Msg {
		for _, opp := range top {
			if opp.Score < threshold {
				continue
			}
			if err := notifier.AlertOpportunity(opp); err != nil {
				logger.WithField("pair", opp.Pair).WithError(err).Warn("telegram alert failed")
			}
		}
		return nil
	}
}

// Freshness classifies the rendered data: Live while the last successful
// fetch fits within one interval, Delayed when older rows are reused,
// Offline when no pair has ever produced data.
func (m Model) Freshness() Freshness {
	if m.lastSuccess.IsZero() {
		return FreshnessOffline
	}
	if m.now().Sub(m.lastSuccess) <= m.opts.Interval+freshnessGrace {
		return FreshnessLive
	}
	return FreshnessDelayed
}
