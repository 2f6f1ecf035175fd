package core

import (
	"strings"
	"time"
)

// MarketSignal is the trading call produced by an analysis.
type MarketSignal string

const (
	SignalBuy     MarketSignal = "BUY"
	SignalSell    MarketSignal = "SELL"
	SignalHold    MarketSignal = "HOLD"
	SignalNeutral MarketSignal = "NEUTRAL"
)

// IsValid reports whether s is one of the four known signals.
func (s MarketSignal) IsValid() bool {
	switch s {
	case SignalBuy, SignalSell, SignalHold, SignalNeutral:
		return true
	}
	return false
}

// RiskLevel grades the risk attached to a signal.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// IsValid reports whether r is a known risk level.
func (r RiskLevel) IsValid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	}
	return false
}

// SignalResponse is a validated analysis result. Values are never mutated
// after creation; callers receive copies.
type SignalResponse struct {
	Signal      MarketSignal `json:"signal"`
	Confidence  float64      `json:"confidence"` // 0-100
	Reasoning   string       `json:"reasoning"`
	TargetPrice string       `json:"targetPrice"`
	RiskLevel   RiskLevel    `json:"riskLevel"`
	Timestamp   time.Time    `json:"timestamp"`
}

// IsValid checks the enum and range invariants.
func (r SignalResponse) IsValid() bool {
	return r.Signal.IsValid() &&
		r.RiskLevel.IsValid() &&
		r.Confidence >= 0 && r.Confidence <= 100 &&
		strings.TrimSpace(r.Reasoning) != ""
}

// MarketState is the mocked market snapshot shown next to the chart.
type MarketState struct {
	Ticker       string  `json:"ticker"`
	CurrentPrice float64 `json:"currentPrice"`
	Change24h    float64 `json:"change24h"` // percent
	Volume       string  `json:"volume"`
}

// PriceDataPoint is one point of the static chart series.
type PriceDataPoint struct {
	Time  string  `json:"time"`
	Price float64 `json:"price"`
}
