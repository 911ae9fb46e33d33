package executor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/adshao/go-binance/v2/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skew/internal/engine"
	"skew/internal/gateway/venue"
	"skew/internal/pkg/circuit"
)

type fakeVenue struct {
	name venue.ID

	placeCalls  []venue.OrderRequest
	placeErrs   []error // consumed per call; nil entry = success
	cancelCalls [][]string
	cancelErrs  []error
}

func (f *fakeVenue) Name() venue.ID { return f.name }

func (f *fakeVenue) GetPosition(context.Context, string) (venue.RawPosition, error) {
	return venue.RawPosition{}, nil
}

func (f *fakeVenue) GetOpenOrders(context.Context, string) ([]venue.Order, error) {
	return nil, nil
}

func (f *fakeVenue) GetOraclePrice(context.Context, string) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

func (f *fakeVenue) PlaceOrder(_ context.Context, req venue.OrderRequest) (string, error) {
	f.placeCalls = append(f.placeCalls, req)
	if len(f.placeErrs) > 0 {
		err := f.placeErrs[0]
		f.placeErrs = f.placeErrs[1:]
		if err != nil {
			return "", err
		}
	}
	return "sig-place", nil
}

func (f *fakeVenue) CancelOrders(_ context.Context, _ string, ids []string) (string, error) {
	f.cancelCalls = append(f.cancelCalls, ids)
	if len(f.cancelErrs) > 0 {
		err := f.cancelErrs[0]
		f.cancelErrs = f.cancelErrs[1:]
		if err != nil {
			return "", err
		}
	}
	return "sig-cancel", nil
}

func newCoordinator(f *fakeVenue) *Coordinator {
	c := NewCoordinator(
		Config{MaxAttempts: 3, RetryBackoff: time.Millisecond},
		map[venue.ID]venue.Venue{f.name: f},
		map[venue.ID]*circuit.Breaker{},
	)
	c.sleep = func(context.Context, time.Duration) bool { return true }
	return c
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sellResult(resting []venue.Order) *engine.CycleResult {
	return &engine.CycleResult{
		Group: "sol-hedge",
		Views: []engine.PositionView{{
			Symbol:     "SOL/USDT",
			Venue:      venue.IDBinance,
			OpenOrders: resting,
		}},
		Decision: engine.Decision{
			Side:   venue.SideSell,
			Symbol: "SOL/USDT",
			Venue:  venue.IDBinance,
			Price:  dec("150.5"),
			Size:   dec("10"),
		},
	}
}

var transientErr = &common.APIError{Code: -1021, Message: "Timestamp for this request is outside of the recvWindow."}

func TestExecuteCancelBeforePlace(t *testing.T) {
	f := &fakeVenue{name: venue.IDBinance}
	c := newCoordinator(f)

	resting := []venue.Order{{ID: "42", Side: venue.SideSell, Price: dec("151"), Size: dec("1")}}
	outcomes := c.Execute(context.Background(), sellResult(resting))

	require.Len(t, outcomes, 2)
	assert.Equal(t, StageCancel, outcomes[0].Stage)
	assert.Equal(t, StatusSuccess, outcomes[0].Status)
	assert.Equal(t, StagePlace, outcomes[1].Stage)
	assert.Equal(t, StatusSuccess, outcomes[1].Status)
	assert.Equal(t, "sig-place", outcomes[1].Signature)
	require.Len(t, f.cancelCalls, 1)
	assert.Equal(t, []string{"42"}, f.cancelCalls[0])
}

func TestExecuteRetriesTransientWithSameIntent(t *testing.T) {
	f := &fakeVenue{
		name:      venue.IDBinance,
		placeErrs: []error{transientErr, transientErr, nil},
	}
	c := newCoordinator(f)

	outcomes := c.Execute(context.Background(), sellResult(nil))

	require.Len(t, outcomes, 1)
	assert.Equal(t, StatusSuccess, outcomes[0].Status)
	assert.Equal(t, 3, outcomes[0].Attempts)

	// idempotent resubmission: identical payload, including client id
	require.Len(t, f.placeCalls, 3)
	first := f.placeCalls[0]
	for _, call := range f.placeCalls[1:] {
		assert.Equal(t, first.Side, call.Side)
		assert.True(t, first.Price.Equal(call.Price))
		assert.True(t, first.Size.Equal(call.Size))
		assert.Equal(t, first.Symbol, call.Symbol)
		assert.Equal(t, first.ClientID, call.ClientID)
	}
	assert.True(t, first.PostOnly)
}

func TestExecuteTerminalErrorNoRetry(t *testing.T) {
	f := &fakeVenue{
		name:      venue.IDBinance,
		placeErrs: []error{&common.APIError{Code: -2019, Message: "Margin is insufficient."}},
	}
	c := newCoordinator(f)

	outcomes := c.Execute(context.Background(), sellResult(nil))

	require.Len(t, outcomes, 1)
	assert.Equal(t, StatusFailed, outcomes[0].Status)
	assert.Equal(t, 1, outcomes[0].Attempts)
	assert.Len(t, f.placeCalls, 1)
	assert.Contains(t, outcomes[0].Err, "Margin")
}

func TestExecuteTransientExhaustionFails(t *testing.T) {
	f := &fakeVenue{
		name:      venue.IDBinance,
		placeErrs: []error{transientErr, transientErr, transientErr},
	}
	c := newCoordinator(f)

	outcomes := c.Execute(context.Background(), sellResult(nil))

	require.Len(t, outcomes, 1)
	assert.Equal(t, StatusFailed, outcomes[0].Status)
	assert.Equal(t, 3, outcomes[0].Attempts)
	assert.Len(t, f.placeCalls, 3)
}

func TestExecuteNoneWithNothingToCancelSkips(t *testing.T) {
	f := &fakeVenue{name: venue.IDBinance}
	c := newCoordinator(f)

	res := sellResult(nil)
	res.Decision = engine.Decision{Side: venue.SideNone, Symbol: "SOL/USDT", Venue: venue.IDBinance, Reason: "below min trade value"}
	outcomes := c.Execute(context.Background(), res)

	require.Len(t, outcomes, 1)
	assert.Equal(t, StatusSkipped, outcomes[0].Status)
	assert.Empty(t, f.placeCalls)
	assert.Empty(t, f.cancelCalls)
}

func TestExecuteNoneStillCancelsStaleQuotes(t *testing.T) {
	f := &fakeVenue{name: venue.IDBinance}
	c := newCoordinator(f)

	res := sellResult([]venue.Order{{ID: "9"}})
	res.Decision = engine.Decision{Side: venue.SideNone, Symbol: "SOL/USDT", Venue: venue.IDBinance, Reason: "zero size"}
	outcomes := c.Execute(context.Background(), res)

	require.Len(t, outcomes, 2)
	assert.Equal(t, StageCancel, outcomes[0].Stage)
	assert.Equal(t, StatusSuccess, outcomes[0].Status)
	assert.Equal(t, StatusSkipped, outcomes[1].Status)
	assert.Empty(t, f.placeCalls)
}

func TestExecuteCancelFailureBlocksPlace(t *testing.T) {
	f := &fakeVenue{
		name:       venue.IDBinance,
		cancelErrs: []error{errors.New("order does not exist")},
	}
	c := newCoordinator(f)

	outcomes := c.Execute(context.Background(), sellResult([]venue.Order{{ID: "7"}}))

	require.Len(t, outcomes, 1)
	assert.Equal(t, StageCancel, outcomes[0].Stage)
	assert.Equal(t, StatusFailed, outcomes[0].Status)
	assert.Empty(t, f.placeCalls, "must not place on top of unknown resting state")
}

func TestExecuteOpenBreakerSkipsPlace(t *testing.T) {
	f := &fakeVenue{name: venue.IDBinance}
	br := circuit.NewBreaker("binance", 1, time.Hour)
	br.RecordFailure()
	c := NewCoordinator(
		Config{MaxAttempts: 3, RetryBackoff: time.Millisecond},
		map[venue.ID]venue.Venue{f.name: f},
		map[venue.ID]*circuit.Breaker{venue.IDBinance: br},
	)

	outcomes := c.Execute(context.Background(), sellResult(nil))

	require.Len(t, outcomes, 1)
	assert.Equal(t, StatusSkipped, outcomes[0].Status)
	assert.Contains(t, outcomes[0].Err, "circuit open")
	assert.Empty(t, f.placeCalls)
}
