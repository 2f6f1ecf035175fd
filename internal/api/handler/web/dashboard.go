// internal/api/handler/web/dashboard.go
package web

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/newthinker/quantsafe/internal/core"
	"github.com/newthinker/quantsafe/internal/market"
	"github.com/shopspring/decimal"
)

const (
	chartWidth  = 600.0
	chartHeight = 200.0
	chartPad    = 10.0
)

var funcs = template.FuncMap{
	"lower": strings.ToLower,
}

// MarketView is the ticker card
type MarketView struct {
	Ticker   string
	Base     string
	Price    string
	Change   string
	Positive bool
	Volume   string
}

// SignalView is one rendered signal
type SignalView struct {
	Time        string
	Signal      string
	Confidence  int
	Reasoning   string
	TargetPrice string
	Risk        string
}

// ChartPoint is a labelled vertex of the price line
type ChartPoint struct {
	X, Y  float64
	Label string
	Price string
}

// ChartView holds the SVG geometry of the price series
type ChartView struct {
	Width, Height float64
	Polyline      string
	Points        []ChartPoint
}

// Gauge is one bar of the system integrity panel
type Gauge struct {
	Label   string
	Value   string
	Percent int
	Color   string
}

// CountView is the number of stored signals of one kind
type CountView struct {
	Signal string
	Count  int
}

// systemGauges are fixed display values, not measurements.
var systemGauges = []Gauge{
	{Label: "API Latency", Value: "142ms", Percent: 94, Color: "bg-green-400"},
	{Label: "Model Load", Value: "12.5%", Percent: 12, Color: "bg-blue-400"},
	{Label: "Storage Usage", Value: "0.01 GB", Percent: 5, Color: "bg-slate-600"},
}

// DashboardData holds data for the dashboard template
type DashboardData struct {
	Title        string
	Notice       string
	Busy         bool
	Provider     string
	Market       MarketView
	Latest       *SignalView
	History      []SignalView
	HistoryLimit int
	Counts       []CountView
	Chart        ChartView
	Gauges       []Gauge
}

// Dashboard renders the dashboard page
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	st := h.state.State()

	data := DashboardData{
		Title:        "Dashboard",
		Notice:       noticeText(r.URL.Query().Get("notice")),
		Busy:         st.Busy,
		Provider:     st.Provider,
		Market:       marketView(st.Market),
		HistoryLimit: st.HistoryLimit,
		Counts:       countViews(st.Counts),
		Chart:        chartView(h.state.Chart()),
		Gauges:       systemGauges,
	}
	if st.Latest != nil {
		v := signalView(*st.Latest)
		data.Latest = &v
	}
	for _, s := range st.History {
		data.History = append(data.History, signalView(s))
	}

	h.render(w, "dashboard.html", data)
}

// Trigger runs a signal cycle from the dashboard form and redirects back.
func (h *Handler) Trigger(w http.ResponseWriter, r *http.Request) {
	target := "/"
	if _, err := h.state.RequestSignal(r.Context()); err != nil {
		if errors.Is(err, core.ErrBusy) {
			target = "/?notice=busy"
		} else {
			target = "/?notice=error"
		}
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// countViews lists the signal tallies in a fixed order, skipping zeros.
func countViews(counts map[core.MarketSignal]int) []CountView {
	var out []CountView
	for _, s := range []core.MarketSignal{core.SignalBuy, core.SignalSell, core.SignalHold, core.SignalNeutral} {
		if n := counts[s]; n > 0 {
			out = append(out, CountView{Signal: string(s), Count: n})
		}
	}
	return out
}

func noticeText(code string) string {
	switch code {
	case "busy":
		return "An analysis is already running. Try again in a moment."
	case "error":
		return "The analysis could not be started."
	default:
		return ""
	}
}

func marketView(m core.MarketState) MarketView {
	change := decimal.NewFromFloat(m.Change24h)
	sign := ""
	if change.IsPositive() {
		sign = "+"
	}
	return MarketView{
		Ticker:   m.Ticker,
		Base:     market.BaseAsset(m.Ticker),
		Price:    "$" + decimal.NewFromFloat(m.CurrentPrice).StringFixed(2),
		Change:   sign + change.StringFixed(2) + "%",
		Positive: !change.IsNegative(),
		Volume:   m.Volume,
	}
}

func signalView(s core.SignalResponse) SignalView {
	return SignalView{
		Time:        s.Timestamp.Format("15:04:05"),
		Signal:      string(s.Signal),
		Confidence:  int(decimal.NewFromFloat(s.Confidence).Round(0).IntPart()),
		Reasoning:   s.Reasoning,
		TargetPrice: s.TargetPrice,
		Risk:        string(s.RiskLevel),
	}
}

// chartView scales the series into the SVG box, highest price at the top.
func chartView(series []core.PriceDataPoint) ChartView {
	cv := ChartView{Width: chartWidth, Height: chartHeight}
	if len(series) == 0 {
		return cv
	}

	lo, hi := series[0].Price, series[0].Price
	for _, p := range series {
		lo = min(lo, p.Price)
		hi = max(hi, p.Price)
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}

	step := 0.0
	if len(series) > 1 {
		step = (chartWidth - 2*chartPad) / float64(len(series)-1)
	}

	coords := make([]string, 0, len(series))
	for i, p := range series {
		x := chartPad + step*float64(i)
		y := chartPad + (hi-p.Price)/span*(chartHeight-2*chartPad)
		coords = append(coords, fmt.Sprintf("%.1f,%.1f", x, y))
		cv.Points = append(cv.Points, ChartPoint{
			X:     x,
			Y:     y,
			Label: p.Time,
			Price: decimal.NewFromFloat(p.Price).StringFixed(0),
		})
	}
	cv.Polyline = strings.Join(coords, " ")
	return cv
}
