package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/newthinker/quantsafe/internal/core"
	"github.com/shopspring/decimal"
)

var (
	cardStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3B82F6")).
			Padding(1, 2).
			Width(64)

	tickerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#E5E7EB"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280")).
			Width(12)

	reasoningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#9CA3AF")).
			Italic(true).
			Width(58)

	signalColors = map[core.MarketSignal]lipgloss.Color{
		core.SignalBuy:     lipgloss.Color("#10B981"),
		core.SignalSell:    lipgloss.Color("#EF4444"),
		core.SignalHold:    lipgloss.Color("#F59E0B"),
		core.SignalNeutral: lipgloss.Color("#6B7280"),
	}

	riskColors = map[core.RiskLevel]lipgloss.Color{
		core.RiskLow:    lipgloss.Color("#10B981"),
		core.RiskMedium: lipgloss.Color("#F59E0B"),
		core.RiskHigh:   lipgloss.Color("#EF4444"),
	}
)

// renderCard formats one signal with the market it was computed on.
func renderCard(m core.MarketState, s core.SignalResponse) string {
	signalStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(signalColors[s.Signal]).
		Padding(0, 1)

	header := lipgloss.JoinHorizontal(lipgloss.Center,
		tickerStyle.Render(fmt.Sprintf("%s  $%s", m.Ticker, decimal.NewFromFloat(m.CurrentPrice).StringFixed(2))),
		"  ",
		signalStyle.Render(string(s.Signal)),
	)

	rows := []string{
		header,
		"",
		row("Confidence", fmt.Sprintf("%s%%  %s", decimal.NewFromFloat(s.Confidence).StringFixed(0), meter(s.Confidence))),
		row("Target", s.TargetPrice),
		row("Risk", lipgloss.NewStyle().Foreground(riskColors[s.RiskLevel]).Render(string(s.RiskLevel))),
		row("Time", s.Timestamp.Format("2006-01-02 15:04:05")),
		"",
		reasoningStyle.Render(s.Reasoning),
	}
	return cardStyle.Render(strings.Join(rows, "\n"))
}

func row(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), value)
}

// meter draws confidence as a 20-cell bar.
func meter(confidence float64) string {
	filled := int(decimal.NewFromFloat(confidence).Div(decimal.NewFromInt(5)).Round(0).IntPart())
	filled = max(0, min(20, filled))
	return strings.Repeat("█", filled) + strings.Repeat("░", 20-filled)
}
