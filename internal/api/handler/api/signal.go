// internal/api/handler/api/signal.go
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/newthinker/quantsafe/internal/api/response"
	"github.com/newthinker/quantsafe/internal/app"
	"github.com/newthinker/quantsafe/internal/core"
)

// SignalApp defines the interface needed from app.App.
type SignalApp interface {
	RequestSignal(ctx context.Context) (core.SignalResponse, error)
	State() app.State
	History() []core.SignalResponse
	Chart() []core.PriceDataPoint
}

// SignalHandler handles signal and dashboard state API requests.
type SignalHandler struct {
	app SignalApp
}

// NewSignalHandler creates a new signal handler.
func NewSignalHandler(app SignalApp) *SignalHandler {
	return &SignalHandler{app: app}
}

// State returns market, busy flag, latest signal and history.
func (h *SignalHandler) State(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, h.app.State())
}

// Request runs one signal cycle and returns its result. A cycle already in
// flight yields 409.
func (h *SignalHandler) Request(w http.ResponseWriter, r *http.Request) {
	resp, err := h.app.RequestSignal(r.Context())
	if err != nil {
		response.Error(w, response.StatusFor(err), err)
		return
	}
	response.JSON(w, http.StatusOK, resp)
}

// History returns stored signals, newest first. ?limit=N trims the list.
func (h *SignalHandler) History(w http.ResponseWriter, r *http.Request) {
	signals := h.app.History()

	if limit := r.URL.Query().Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			perr := core.WrapError(core.ErrInvalidParam, errors.New("limit must be a non-negative integer"))
			response.Error(w, response.StatusFor(perr), perr)
			return
		}
		if n > 0 && n < len(signals) {
			signals = signals[:n]
		}
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"signals": signals,
		"total":   len(signals),
	})
}

// Chart returns the price series.
func (h *SignalHandler) Chart(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, h.app.Chart())
}
