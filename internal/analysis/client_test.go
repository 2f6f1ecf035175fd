package analysis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/newthinker/quantsafe/internal/core"
	"github.com/newthinker/quantsafe/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	content string
	err     error
	panics  bool
	got     llm.ChatRequest
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	f.got = req
	if f.panics {
		panic("connection reset by peer")
	}
	if f.err != nil {
		return nil, f.err
	}
	return &llm.ChatResponse{Content: f.content}, nil
}

type outcomeRecorder struct {
	mu       sync.Mutex
	outcomes []string
}

func (r *outcomeRecorder) RecordAnalysis(provider, outcome string, duration float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

func assertFallback(t *testing.T, got core.SignalResponse) {
	t.Helper()
	assert.Equal(t, core.SignalNeutral, got.Signal)
	assert.Equal(t, 0.0, got.Confidence)
	assert.Equal(t, FallbackReasoning, got.Reasoning)
	assert.Equal(t, "N/A", got.TargetPrice)
	assert.Equal(t, core.RiskMedium, got.RiskLevel)
	assert.False(t, got.Timestamp.IsZero())
}

func TestAnalyze_WellFormedReply(t *testing.T) {
	p := &fakeProvider{content: `{"signal":"BUY","confidence":87,"reasoning":"Breakout above resistance.","targetPrice":"$65,000","riskLevel":"HIGH"}`}
	c := New(p)

	before := time.Now()
	got := c.Analyze(context.Background(), "BTC/USD", "BTC Price: $64120.55")
	after := time.Now()

	assert.Equal(t, core.SignalBuy, got.Signal)
	assert.Equal(t, 87.0, got.Confidence)
	assert.Equal(t, "Breakout above resistance.", got.Reasoning)
	assert.Equal(t, "$65,000", got.TargetPrice)
	assert.Equal(t, core.RiskHigh, got.RiskLevel)
	assert.False(t, got.Timestamp.Before(before), "timestamp before call")
	assert.False(t, got.Timestamp.After(after), "timestamp after call")
}

func TestAnalyze_RequestContract(t *testing.T) {
	p := &fakeProvider{content: `{}`}
	c := New(p, WithGeneration(512, 0.2))

	c.Analyze(context.Background(), "BTC/USD", "BTC Price: $64000.00")

	assert.True(t, p.got.JSONMode)
	assert.Equal(t, 512, p.got.MaxTokens)
	assert.Equal(t, 0.2, p.got.Temperature)
	require.Len(t, p.got.Messages, 1)
	assert.Equal(t, "user", p.got.Messages[0].Role)
	assert.Equal(t,
		"Analyze the current market situation for BTC/USD. Current context: BTC Price: $64000.00. Provide a precise trading signal.",
		p.got.Messages[0].Content)

	require.NotNil(t, p.got.Schema)
	assert.ElementsMatch(t,
		[]string{"signal", "confidence", "reasoning", "targetPrice", "riskLevel"},
		p.got.Schema.Required)
	assert.Equal(t, llm.TypeNumber, p.got.Schema.Properties["confidence"].Type)
	assert.Equal(t, llm.TypeString, p.got.Schema.Properties["signal"].Type)
	assert.Empty(t, p.got.Schema.Properties["signal"].Enum, "signal tokens are described, not enforced by the schema")
}

func TestAnalyze_FallbackPaths(t *testing.T) {
	tests := []struct {
		name        string
		provider    *fakeProvider
		wantOutcome string
	}{
		{"empty body", &fakeProvider{content: ""}, OutcomeMalformed},
		{"whitespace body", &fakeProvider{content: "  \n"}, OutcomeMalformed},
		{"not json", &fakeProvider{content: "{not json"}, OutcomeMalformed},
		{"transport error", &fakeProvider{err: errors.New("dial tcp: connection refused")}, OutcomeTransport},
		{"auth error", &fakeProvider{err: errors.New("status 401: API key not valid")}, OutcomeTransport},
		{"provider panic", &fakeProvider{panics: true}, OutcomeTransport},
		{"unknown signal", &fakeProvider{content: `{"signal":"STRONG_BUY","confidence":90,"reasoning":"x","targetPrice":"$1","riskLevel":"LOW"}`}, OutcomeInvalid},
		{"confidence above 100", &fakeProvider{content: `{"signal":"BUY","confidence":101,"reasoning":"x","targetPrice":"$1","riskLevel":"LOW"}`}, OutcomeInvalid},
		{"negative confidence", &fakeProvider{content: `{"signal":"SELL","confidence":-5,"reasoning":"x","targetPrice":"$1","riskLevel":"LOW"}`}, OutcomeInvalid},
		{"unknown risk", &fakeProvider{content: `{"signal":"HOLD","confidence":50,"reasoning":"x","targetPrice":"$1","riskLevel":"EXTREME"}`}, OutcomeInvalid},
		{"missing fields", &fakeProvider{content: `{"signal":"BUY"}`}, OutcomeInvalid},
		{"empty object", &fakeProvider{content: `{}`}, OutcomeInvalid},
		{"confidence as string", &fakeProvider{content: `{"signal":"BUY","confidence":"87","reasoning":"x","targetPrice":"$1","riskLevel":"LOW"}`}, OutcomeInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &outcomeRecorder{}
			c := New(tt.provider, WithRecorder(rec))

			var got core.SignalResponse
			require.NotPanics(t, func() {
				got = c.Analyze(context.Background(), "BTC/USD", "ctx")
			})

			assertFallback(t, got)
			assert.Equal(t, []string{tt.wantOutcome}, rec.outcomes)
		})
	}
}

func TestAnalyze_FallbackUsesClock(t *testing.T) {
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c := New(&fakeProvider{content: ""}, WithClock(func() time.Time { return fixed }))

	got := c.Analyze(context.Background(), "BTC/USD", "ctx")
	assert.Equal(t, Fallback(fixed), got)
}

func TestAnalyze_RecordsSuccess(t *testing.T) {
	rec := &outcomeRecorder{}
	p := &fakeProvider{content: "```json\n{\"signal\":\"HOLD\",\"confidence\":0,\"reasoning\":\"Range-bound.\",\"targetPrice\":\"$64,000\",\"riskLevel\":\"LOW\"}\n```"}
	c := New(p, WithRecorder(rec))

	got := c.Analyze(context.Background(), "BTC/USD", "ctx")
	assert.Equal(t, core.SignalHold, got.Signal)
	assert.Equal(t, 0.0, got.Confidence)
	assert.Equal(t, []string{OutcomeOK}, rec.outcomes)
	assert.Equal(t, "fake", c.Provider())
}
