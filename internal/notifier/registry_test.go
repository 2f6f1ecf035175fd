package notifier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/newthinker/quantsafe/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockNotifier struct {
	name       string
	sendCalled int
	closed     bool
	last       Event
	shouldFail bool
}

func (m *mockNotifier) Name() string { return m.name }

func (m *mockNotifier) Send(ctx context.Context, event Event) error {
	m.sendCalled++
	m.last = event
	if m.shouldFail {
		return errors.New("send failed")
	}
	return nil
}

func (m *mockNotifier) Close() error {
	m.closed = true
	return nil
}

func testEvent() Event {
	return NewEvent(
		core.MarketState{Ticker: "BTC/USD", CurrentPrice: 64120.55},
		core.SignalResponse{Signal: core.SignalBuy, Confidence: 80, Timestamp: time.Unix(1700000000, 0)},
	)
}

func TestNewEvent(t *testing.T) {
	ev := testEvent()

	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, "BTC/USD", ev.Ticker)
	assert.Equal(t, 64120.55, ev.Price)
	assert.Equal(t, core.SignalBuy, ev.Signal.Signal)
	assert.True(t, ev.CreatedAt.Equal(time.Unix(1700000000, 0)))
	assert.NotEqual(t, ev.ID, testEvent().ID)
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()

	mock := &mockNotifier{name: "test"}
	require.NoError(t, r.Register(mock))
	assert.Error(t, r.Register(mock), "duplicate registration should fail")
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_Get(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&mockNotifier{name: "test"}))

	n, err := r.Get("test")
	require.NoError(t, err)
	assert.Equal(t, "test", n.Name())

	_, err = r.Get("nonexistent")
	assert.Error(t, err)
}

func TestRegistry_GetAll_Sorted(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockNotifier{name: "webhook"})
	r.Register(&mockNotifier{name: "kafka"})

	all := r.GetAll()
	require.Len(t, all, 2)
	assert.Equal(t, "kafka", all[0].Name())
	assert.Equal(t, "webhook", all[1].Name())
}

func TestRegistry_NotifyAll(t *testing.T) {
	r := NewRegistry()

	mock1 := &mockNotifier{name: "n1"}
	mock2 := &mockNotifier{name: "n2"}
	r.Register(mock1)
	r.Register(mock2)

	ev := testEvent()
	errs := r.NotifyAll(context.Background(), ev)

	assert.Empty(t, errs)
	assert.Equal(t, 1, mock1.sendCalled)
	assert.Equal(t, 1, mock2.sendCalled)
	assert.Equal(t, ev.ID, mock2.last.ID)
}

func TestRegistry_NotifyAll_WithFailure(t *testing.T) {
	r := NewRegistry()

	mock1 := &mockNotifier{name: "n1"}
	mock2 := &mockNotifier{name: "n2", shouldFail: true}
	r.Register(mock1)
	r.Register(mock2)

	errs := r.NotifyAll(context.Background(), testEvent())

	require.Len(t, errs, 1)
	require.Contains(t, errs, "n2")
	assert.True(t, errors.Is(errs["n2"], core.ErrNotifierFailed))
	assert.Equal(t, 1, mock1.sendCalled, "a failing notifier must not stop the others")
}

func TestRegistry_Close(t *testing.T) {
	r := NewRegistry()
	mock := &mockNotifier{name: "n1"}
	r.Register(mock)

	require.NoError(t, r.Close())
	assert.True(t, mock.closed)
}
