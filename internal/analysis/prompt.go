package analysis

import (
	"fmt"

	"github.com/newthinker/quantsafe/internal/llm"
)

// Instruction returns the user prompt for one analysis.
func Instruction(ticker, marketContext string) string {
	return fmt.Sprintf(
		"Analyze the current market situation for %s. Current context: %s. Provide a precise trading signal.",
		ticker, marketContext)
}

// SignalSchema is the reply contract sent with every request. The signal
// and riskLevel tokens are described, not enumerated; Decode enforces them.
func SignalSchema() *llm.Schema {
	return &llm.Schema{
		Name: "market_signal",
		Type: llm.TypeObject,
		Properties: map[string]*llm.Schema{
			"signal": {
				Type:        llm.TypeString,
				Description: "Trading signal: BUY, SELL, HOLD, or NEUTRAL",
			},
			"confidence": {
				Type:        llm.TypeNumber,
				Description: "Confidence percentage (0-100)",
			},
			"reasoning": {
				Type:        llm.TypeString,
				Description: "Concise reasoning for the signal",
			},
			"targetPrice": {
				Type:        llm.TypeString,
				Description: "Short term target price string (e.g. '$65,000')",
			},
			"riskLevel": {
				Type:        llm.TypeString,
				Description: "Risk assessment: LOW, MEDIUM, or HIGH",
			},
		},
		Required: []string{"signal", "confidence", "reasoning", "targetPrice", "riskLevel"},
		Order:    []string{"signal", "confidence", "reasoning", "targetPrice", "riskLevel"},
	}
}

// Request assembles the chat request for ticker and marketContext.
func Request(ticker, marketContext string, maxTokens int, temperature float64) llm.ChatRequest {
	return llm.ChatRequest{
		Messages: []llm.Message{
			{Role: "user", Content: Instruction(ticker, marketContext)},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
		JSONMode:    true,
		Schema:      SignalSchema(),
	}
}
