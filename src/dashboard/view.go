package dashboard

import (
	"fmt"
	"math"
	"strings"

	"pipwatch/src/models"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13"))
	panelStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	headRowStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	liveStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	delayedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	offlineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	goodStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	badStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// compactWidth is the terminal width below which the table drops the
// position columns rather than wrapping into garbage
const compactWidth = 100

// View renders the header, market table and top-opportunities footer
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderTable())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("q / ctrl+c to quit"))
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderHeader() string {
	freshness := m.Freshness()
	var status string
	switch freshness {
	case FreshnessLive:
		status = liveStyle.Render("Live")
	case FreshnessDelayed:
		status = delayedStyle.Render(fmt.Sprintf("Delayed (%ds)", int(m.now().Sub(m.lastSuccess).Seconds())))
	default:
		status = offlineStyle.Render("Offline")
	}

	when := "never"
	if !m.lastCycle.IsZero() {
		when = m.lastCycle.Format("2006-01-02 15:04:05")
	}
	if m.phase == phasePolling || m.phase == phaseIdle {
		status += dimStyle.Render(" refreshing…")
	}

	line := fmt.Sprintf("%s  Last update: %s | Status: %s",
		titleStyle.Render("Currency Market Overview"), when, status)

	return panelStyle.Render(line + "\n" + m.marketStats())
}

// marketStats summarizes the current cycle the way the footer of a trading
// desk screen would: counts by opportunity strength plus the average score
func (m Model) marketStats() string {
	var ok, strong, moderate int
	var total float64
	for _, row := range m.rows {
		if row.State != RowOK {
			continue
		}
		ok++
		total += row.Opportunity.Score
		switch {
		case row.Opportunity.Score >= 70:
			strong++
		case row.Opportunity.Score >= 50:
			moderate++
		}
	}
	if ok == 0 {
		return dimStyle.Render("No market data available")
	}
	return fmt.Sprintf("Pairs: %d | Strong: %s | Moderate: %s | Avg score: %.1f",
		ok,
		goodStyle.Render(fmt.Sprintf("%d", strong)),
		warnStyle.Render(fmt.Sprintf("%d", moderate)),
		total/float64(ok))
}

func (m Model) renderTable() string {
	compact := m.width > 0 && m.width < compactWidth

	var b strings.Builder
	if compact {
		b.WriteString(headRowStyle.Render(fmt.Sprintf("%-8s %10s %-8s %6s %6s", "Pair", "Rate", "Trend", "RSI", "Score")))
	} else {
		b.WriteString(headRowStyle.Render(fmt.Sprintf("%-8s %10s %8s %-8s %6s %7s %10s %10s %10s %5s %10s %6s",
			"Pair", "Rate", "24h %", "Trend", "RSI", "Vol", "Entry", "T/P", "S/L", "R/R", "Position", "Score")))
	}
	b.WriteString("\n")

	for _, row := range m.rows {
		b.WriteString(m.renderRow(row, compact))
		b.WriteString("\n")
	}
	if len(m.rows) == 0 {
		b.WriteString(dimStyle.Render("waiting for first cycle…"))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderRow(row Row, compact bool) string {
	switch row.State {
	case RowUnavailable:
		return fmt.Sprintf("%-8s %s", row.Pair, badStyle.Render("unavailable"))
	case RowInsufficient:
		return fmt.Sprintf("%-8s %s", row.Pair, dimStyle.Render("insufficient data"))
	}

	opp := row.Opportunity
	scoreStr := styleScore(opp.Score).Render(fmt.Sprintf("%6.0f", opp.Score))

	if compact {
		return fmt.Sprintf("%-8s %10.4f %-8s %6s %s",
			opp.Pair, opp.CurrentPrice, opp.Trend, num(opp.Snapshot.RSI, 1), scoreStr)
	}

	changeStr := fmt.Sprintf("%8s", num(opp.Snapshot.DayChangePct, 2))
	if !math.IsNaN(opp.Snapshot.DayChangePct) {
		if opp.Snapshot.DayChangePct >= 0 {
			changeStr = goodStyle.Render(fmt.Sprintf("%+8.2f", opp.Snapshot.DayChangePct))
		} else {
			changeStr = badStyle.Render(fmt.Sprintf("%+8.2f", opp.Snapshot.DayChangePct))
		}
	}

	return fmt.Sprintf("%-8s %10.4f %s %-8s %6s %7s %10.4f %10.4f %10.4f %5s %10s %s",
		opp.Pair,
		opp.CurrentPrice,
		changeStr,
		opp.Trend,
		num(opp.Snapshot.RSI, 1),
		num(opp.Snapshot.Volatility, 3),
		opp.Entry,
		opp.TakeProfit,
		opp.StopLoss,
		num(opp.RiskReward, 1),
		lot(opp.PositionSize),
		scoreStr,
	)
}

func (m Model) renderFooter() string {
	top := TopOpportunities(m.rows, m.opts.Thresholds, m.opts.TopN)
	if len(top) == 0 {
		return panelStyle.Render(dimStyle.Render("No trading opportunities available"))
	}

	lines := make([]string, 0, len(top)+1)
	lines = append(lines, titleStyle.Render("Top Trading Opportunities"))
	for i, opp := range top {
		action := "Buy"
		if opp.Trend == models.TrendBearish {
			action = "Sell"
		}
		lines = append(lines, fmt.Sprintf("%d. %s %s %s @ %.4f → %.4f (Score: %.0f, R/R: %.1f)",
			i+1, action, lot(opp.PositionSize), opp.Pair, opp.CurrentPrice, opp.TakeProfit, opp.Score, opp.RiskReward))
	}
	return panelStyle.Render(strings.Join(lines, "\n"))
}

// num formats a float to the given precision, rendering NaN as a dash so
// undefined indicators are visible instead of reading as zero
func num(v float64, prec int) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%.*f", prec, v)
}

// lot formats a position size with thousands separators, NaN as a dash
func lot(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	s := fmt.Sprintf("%.0f", v)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

func styleScore(score float64) lipgloss.Style {
	switch {
	case score >= 70:
		return goodStyle
	case score >= 50:
		return warnStyle
	default:
		return badStyle
	}
}
