// Package app owns the dashboard state and runs signal request cycles.
package app

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/newthinker/quantsafe/internal/core"
	"github.com/newthinker/quantsafe/internal/lock"
	"github.com/newthinker/quantsafe/internal/market"
	"github.com/newthinker/quantsafe/internal/notifier"
	"github.com/newthinker/quantsafe/internal/storage/history"
	"go.uber.org/zap"
)

const notifyTimeout = 10 * time.Second

// Analyzer produces a signal for a ticker. Implementations must not fail;
// *analysis.Client is the production one.
type Analyzer interface {
	Analyze(ctx context.Context, ticker, marketContext string) core.SignalResponse
}

// Recorder receives pipeline metrics. *metrics.Registry implements it.
type Recorder interface {
	SetBusy(busy bool)
	SetHistorySize(size int)
	RecordSignal(signal, risk string)
	RecordSignalNotified(notifier, status string)
	RecordBusyRejection()
}

// Dependencies holds the collaborators of an App. Analyzer and Feed are
// required; the rest fall back to in-process defaults.
type Dependencies struct {
	Analyzer  Analyzer
	Feed      *market.Feed
	History   *history.MemoryStore
	Guard     lock.Guard
	Notifiers *notifier.Registry
	Metrics   Recorder
	Logger    *zap.Logger
}

// State is a point-in-time view of everything the dashboard renders.
type State struct {
	Market       core.MarketState          `json:"market"`
	Busy         bool                      `json:"busy"`
	Provider     string                    `json:"provider,omitempty"`
	Latest       *core.SignalResponse      `json:"latest"`
	History      []core.SignalResponse     `json:"history"`
	HistoryLimit int                       `json:"historyLimit"`
	Counts       map[core.MarketSignal]int `json:"counts"`
}

// named is implemented by analyzers that can report their LLM provider.
type named interface {
	Provider() string
}

// App is the application state controller.
type App struct {
	analyzer  Analyzer
	feed      *market.Feed
	history   *history.MemoryStore
	guard     lock.Guard
	notifiers *notifier.Registry
	metrics   Recorder
	logger    *zap.Logger

	busy atomic.Bool
}

// New creates a new App instance
func New(deps Dependencies) *App {
	a := &App{
		analyzer:  deps.Analyzer,
		feed:      deps.Feed,
		history:   deps.History,
		guard:     deps.Guard,
		notifiers: deps.Notifiers,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
	}
	if a.history == nil {
		a.history = history.NewMemoryStore(history.DefaultSize)
	}
	if a.guard == nil {
		a.guard = lock.NewLocal()
	}
	if a.notifiers == nil {
		a.notifiers = notifier.NewRegistry()
	}
	if a.metrics == nil {
		a.metrics = nopRecorder{}
	}
	if a.logger == nil {
		a.logger = zap.NewNop()
	}
	return a
}

// RequestSignal runs one cycle: perturb the price, ask the analyzer, and
// record the result. The only errors are core.ErrBusy when another cycle
// holds the in-flight token and core.ErrLockFailed when the guard backend
// is unreachable. Analysis failures surface as the fallback signal.
//
// A cycle runs to completion once issued: cancelling ctx does not abort
// it. Only the provider timeout bounds the analysis.
func (a *App) RequestSignal(ctx context.Context) (core.SignalResponse, error) {
	ctx = context.WithoutCancel(ctx)

	release, err := a.guard.TryAcquire(ctx)
	if err != nil {
		if errors.Is(err, core.ErrBusy) {
			a.metrics.RecordBusyRejection()
			a.logger.Debug("signal request rejected, cycle in flight")
		} else {
			a.logger.Error("in-flight guard failed", zap.Error(err))
		}
		return core.SignalResponse{}, err
	}

	state, resp := a.runCycle(ctx, release)
	a.notify(ctx, state, resp)
	return resp, nil
}

// runCycle does the guarded part of RequestSignal. The busy flag and the
// token are cleared on every exit, panics included.
func (a *App) runCycle(ctx context.Context, release func()) (core.MarketState, core.SignalResponse) {
	a.setBusy(true)
	defer func() {
		a.setBusy(false)
		release()
	}()

	start := time.Now()
	state := a.feed.Perturb()
	resp := a.analyzer.Analyze(ctx, state.Ticker, market.Context(state))

	a.history.Prepend(resp)
	a.metrics.RecordSignal(string(resp.Signal), string(resp.RiskLevel))
	a.metrics.SetHistorySize(a.history.Len())

	a.logger.Info("signal cycle completed",
		zap.String("ticker", state.Ticker),
		zap.Float64("price", state.CurrentPrice),
		zap.String("signal", string(resp.Signal)),
		zap.Float64("confidence", resp.Confidence),
		zap.String("risk", string(resp.RiskLevel)),
		zap.Duration("duration", time.Since(start)),
	)
	return state, resp
}

func (a *App) notify(ctx context.Context, state core.MarketState, resp core.SignalResponse) {
	if a.notifiers.Len() == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()

	event := notifier.NewEvent(state, resp)
	errs := a.notifiers.NotifyAll(ctx, event)
	for _, n := range a.notifiers.GetAll() {
		status := "ok"
		if err, failed := errs[n.Name()]; failed {
			status = "error"
			a.logger.Warn("failed to notify",
				zap.String("notifier", n.Name()),
				zap.String("event_id", event.ID),
				zap.Error(err),
			)
		}
		a.metrics.RecordSignalNotified(n.Name(), status)
	}
}

func (a *App) setBusy(busy bool) {
	a.busy.Store(busy)
	a.metrics.SetBusy(busy)
}

// Busy reports whether a cycle is in flight in this process.
func (a *App) Busy() bool {
	return a.busy.Load()
}

// Market returns the current market snapshot.
func (a *App) Market() core.MarketState {
	return a.feed.Snapshot()
}

// Latest returns the most recent signal, if any.
func (a *App) Latest() (core.SignalResponse, bool) {
	return a.history.Latest()
}

// History returns stored signals, newest first.
func (a *App) History() []core.SignalResponse {
	return a.history.List(0)
}

// Chart returns the static price series.
func (a *App) Chart() []core.PriceDataPoint {
	return a.feed.Series()
}

// State returns a combined snapshot for rendering.
func (a *App) State() State {
	s := State{
		Market:       a.Market(),
		Busy:         a.Busy(),
		History:      a.History(),
		HistoryLimit: a.history.Cap(),
		Counts:       a.history.CountBySignal(),
	}
	if n, ok := a.analyzer.(named); ok {
		s.Provider = n.Provider()
	}
	if latest, ok := a.Latest(); ok {
		s.Latest = &latest
	}
	return s
}

type nopRecorder struct{}

func (nopRecorder) SetBusy(bool)                        {}
func (nopRecorder) SetHistorySize(int)                  {}
func (nopRecorder) RecordSignal(string, string)         {}
func (nopRecorder) RecordSignalNotified(string, string) {}
func (nopRecorder) RecordBusyRejection()                {}
