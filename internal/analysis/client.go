// Package analysis turns a ticker and a market description into a validated
// trading signal by way of an LLM provider.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/newthinker/quantsafe/internal/core"
	"github.com/newthinker/quantsafe/internal/llm"
	"go.uber.org/zap"
)

// Outcome labels reported to the Recorder.
const (
	OutcomeOK        = "ok"
	OutcomeTransport = "transport"
	OutcomeMalformed = "malformed"
	OutcomeInvalid   = "invalid"
)

// Recorder receives one observation per Analyze call.
type Recorder interface {
	RecordAnalysis(provider, outcome string, duration float64)
}

// Client requests signals from an LLM provider. Analyze never fails: every
// error path yields Fallback.
type Client struct {
	llm         llm.Provider
	logger      *zap.Logger
	recorder    Recorder
	now         func() time.Time
	maxTokens   int
	temperature float64
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRecorder sets the outcome recorder.
func WithRecorder(r Recorder) Option {
	return func(c *Client) { c.recorder = r }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// WithGeneration sets the token limit and sampling temperature.
func WithGeneration(maxTokens int, temperature float64) Option {
	return func(c *Client) {
		c.maxTokens = maxTokens
		c.temperature = temperature
	}
}

// New creates a client bound to provider.
func New(provider llm.Provider, opts ...Option) *Client {
	c := &Client{
		llm:       provider,
		logger:    zap.NewNop(),
		now:       time.Now,
		maxTokens: 1024,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Provider returns the name of the underlying LLM provider.
func (c *Client) Provider() string {
	return c.llm.Name()
}

// Analyze asks the provider for a signal on ticker. Transport errors,
// malformed bodies, contract violations and provider panics all return
// Fallback.
func (c *Client) Analyze(ctx context.Context, ticker, marketContext string) (result core.SignalResponse) {
	start := time.Now()
	outcome := OutcomeOK

	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("llm provider panicked",
				zap.String("provider", c.llm.Name()),
				zap.Any("panic", r),
			)
			outcome = OutcomeTransport
			result = Fallback(c.now())
		}
		if c.recorder != nil {
			c.recorder.RecordAnalysis(c.llm.Name(), outcome, time.Since(start).Seconds())
		}
	}()

	resp, err := c.llm.Chat(ctx, Request(ticker, marketContext, c.maxTokens, c.temperature))
	if err != nil {
		outcome = OutcomeTransport
		c.logger.Warn("signal request failed, using fallback",
			zap.String("provider", c.llm.Name()),
			zap.String("ticker", ticker),
			zap.Error(core.WrapError(core.ErrLLMFailed, err)),
		)
		return Fallback(c.now())
	}

	sig, err := Decode(resp.Content, c.now())
	if err != nil {
		outcome = OutcomeInvalid
		if errors.Is(err, core.ErrResponseMalformed) {
			outcome = OutcomeMalformed
		}
		c.logger.Warn("signal reply rejected, using fallback",
			zap.String("provider", c.llm.Name()),
			zap.String("ticker", ticker),
			zap.String("outcome", outcome),
			zap.String("body", truncate(resp.Content, 512)),
			zap.Error(err),
		)
		return Fallback(c.now())
	}

	c.logger.Debug("signal received",
		zap.String("provider", c.llm.Name()),
		zap.String("ticker", ticker),
		zap.String("signal", string(sig.Signal)),
		zap.Float64("confidence", sig.Confidence),
		zap.Int("input_tokens", resp.Usage.InputTokens),
		zap.Int("output_tokens", resp.Usage.OutputTokens),
	)
	return sig
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return fmt.Sprintf("%s...(%d bytes)", s[:n], len(s))
}
