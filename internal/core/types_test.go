package core

import (
	"testing"
	"time"
)

func TestMarketSignal_IsValid(t *testing.T) {
	tests := []struct {
		signal MarketSignal
		want   bool
	}{
		{SignalBuy, true},
		{SignalSell, true},
		{SignalHold, true},
		{SignalNeutral, true},
		{"STRONG_BUY", false},
		{"buy", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.signal), func(t *testing.T) {
			if got := tt.signal.IsValid(); got != tt.want {
				t.Errorf("IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRiskLevel_IsValid(t *testing.T) {
	for _, r := range []RiskLevel{RiskLow, RiskMedium, RiskHigh} {
		if !r.IsValid() {
			t.Errorf("expected %s to be valid", r)
		}
	}
	if RiskLevel("EXTREME").IsValid() {
		t.Error("expected EXTREME to be invalid")
	}
}

func TestSignalResponse_IsValid(t *testing.T) {
	base := SignalResponse{
		Signal:      SignalBuy,
		Confidence:  87,
		Reasoning:   "momentum",
		TargetPrice: "$65,000",
		RiskLevel:   RiskHigh,
		Timestamp:   time.Now(),
	}

	tests := []struct {
		name string
		mod  func(*SignalResponse)
		want bool
	}{
		{"valid", func(*SignalResponse) {}, true},
		{"confidence lower bound", func(r *SignalResponse) { r.Confidence = 0 }, true},
		{"confidence upper bound", func(r *SignalResponse) { r.Confidence = 100 }, true},
		{"confidence above range", func(r *SignalResponse) { r.Confidence = 100.5 }, false},
		{"negative confidence", func(r *SignalResponse) { r.Confidence = -1 }, false},
		{"unknown signal", func(r *SignalResponse) { r.Signal = "MOON" }, false},
		{"unknown risk", func(r *SignalResponse) { r.RiskLevel = "NONE" }, false},
		{"empty reasoning", func(r *SignalResponse) { r.Reasoning = "" }, false},
		{"blank reasoning", func(r *SignalResponse) { r.Reasoning = " \t\n" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := base
			tt.mod(&r)
			if got := r.IsValid(); got != tt.want {
				t.Errorf("IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}
