// Package market holds the mocked market snapshot and chart series.
package market

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/newthinker/quantsafe/internal/core"
	"github.com/shopspring/decimal"
)

// DefaultSeries is the static intraday series drawn on the chart.
var DefaultSeries = []core.PriceDataPoint{
	{Time: "08:00", Price: 62450},
	{Time: "10:00", Price: 63100},
	{Time: "12:00", Price: 62800},
	{Time: "14:00", Price: 63500},
	{Time: "16:00", Price: 64200},
	{Time: "18:00", Price: 63900},
	{Time: "20:00", Price: 64100},
}

// Config seeds a Feed.
type Config struct {
	Ticker       string
	InitialPrice float64
	Change24h    float64
	Volume       string
	MaxMove      float64
	Series       []core.PriceDataPoint
}

// Feed is a mock market. Only Perturb changes the snapshot, and only its
// price.
type Feed struct {
	mu      sync.RWMutex
	state   core.MarketState
	series  []core.PriceDataPoint
	maxMove decimal.Decimal
	rng     *rand.Rand
}

// NewFeed creates a feed. A nil rng uses a randomly seeded source.
func NewFeed(cfg Config, rng *rand.Rand) *Feed {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	series := cfg.Series
	if series == nil {
		series = DefaultSeries
	}
	return &Feed{
		state: core.MarketState{
			Ticker:       cfg.Ticker,
			CurrentPrice: cfg.InitialPrice,
			Change24h:    cfg.Change24h,
			Volume:       cfg.Volume,
		},
		series:  append([]core.PriceDataPoint(nil), series...),
		maxMove: decimal.NewFromFloat(cfg.MaxMove),
		rng:     rng,
	}
}

// Snapshot returns the current market state.
func (f *Feed) Snapshot() core.MarketState {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.state
}

// Series returns a copy of the chart series.
func (f *Feed) Series() []core.PriceDataPoint {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]core.PriceDataPoint(nil), f.series...)
}

// Perturb moves the price by a uniform step in [-MaxMove, +MaxMove],
// rounded to cents, and returns the new snapshot. The price never drops
// below one cent.
func (f *Feed) Perturb() core.MarketState {
	f.mu.Lock()
	defer f.mu.Unlock()

	// (u - 0.5) * 2 * maxMove
	u := decimal.NewFromFloat(f.rng.Float64()).Sub(decimal.NewFromFloat(0.5))
	step := u.Mul(f.maxMove).Mul(decimal.NewFromInt(2))

	price := decimal.NewFromFloat(f.state.CurrentPrice).Add(step).Round(2)
	if floor := decimal.New(1, -2); price.LessThan(floor) {
		price = floor
	}
	f.state.CurrentPrice = price.InexactFloat64()
	return f.state
}

// Context renders the market description handed to the model.
func Context(s core.MarketState) string {
	return fmt.Sprintf("%s Price: $%s, 24h Change: %s%%, Volume: %s. Previous trend: rising.",
		BaseAsset(s.Ticker),
		decimal.NewFromFloat(s.CurrentPrice).StringFixed(2),
		decimal.NewFromFloat(s.Change24h).String(),
		s.Volume,
	)
}

// BaseAsset returns the base currency of a pair such as "BTC/USD".
func BaseAsset(ticker string) string {
	for _, sep := range []string{"/", "-", "_"} {
		if base, _, ok := strings.Cut(ticker, sep); ok && base != "" {
			return base
		}
	}
	return ticker
}
