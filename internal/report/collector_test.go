package report

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skew/internal/engine"
	"skew/internal/executor"
	"skew/internal/gateway/venue"
)

func sampleResult() *engine.CycleResult {
	return &engine.CycleResult{
		Group: "sol-hedge",
		Views: []engine.PositionView{
			{
				Symbol:        "SOL/USDT",
				Venue:         venue.IDBinance,
				BaseAmount:    decimal.NewFromInt(100),
				UnrealizedPnl: decimal.NewFromInt(500),
				NotionalValue: decimal.NewFromInt(15000),
			},
			{
				Symbol:        "SOL/USDT",
				Venue:         venue.IDGate,
				BaseAmount:    decimal.NewFromInt(-90),
				UnrealizedPnl: decimal.NewFromInt(-200),
				NotionalValue: decimal.NewFromInt(-13500),
			},
		},
		Eval: engine.Evaluation{
			Spread:   decimal.NewFromInt(1800),
			Baseline: decimal.NewFromInt(1000),
		},
		Decision: engine.Decision{
			Side:     venue.SideSell,
			Symbol:   "SOL/USDT",
			Venue:    venue.IDBinance,
			Price:    decimal.NewFromFloat(149.5),
			Size:     decimal.NewFromInt(5),
			Notional: decimal.NewFromFloat(747.5),
		},
	}
}

func TestMergeBuildsRowsAndSpreadHistory(t *testing.T) {
	c := NewCollector(10)
	c.nowFn = func() time.Time { return time.Unix(1700000000, 0) }

	c.Merge(sampleResult(), []executor.Outcome{
		{Group: "sol-hedge", Venue: venue.IDBinance, Symbol: "SOL/USDT", Stage: executor.StagePlace, Status: executor.StatusSuccess, Signature: "123"},
	})

	rows := c.Rows()
	require.Len(t, rows, 2)

	long := rows[0]
	assert.Equal(t, "binance", long.Venue)
	assert.Equal(t, 500.0, long.Pnl)
	assert.Equal(t, 15000.0, long.Value)
	assert.Equal(t, 15500.0, long.AdjustedValue) // long: value + pnl
	assert.Equal(t, 747.5, long.OrderNotional)
	assert.Equal(t, 149.5, long.Price)
	assert.True(t, long.Placed)
	assert.Equal(t, 1000.0, long.Baseline)

	short := rows[1]
	assert.Equal(t, "gate", short.Venue)
	assert.Equal(t, -13300.0, short.AdjustedValue) // short: value - pnl
	assert.Equal(t, 0.0, short.OrderNotional)
	assert.False(t, short.Placed)

	hist := c.SpreadHistory()
	require.Len(t, hist, 1)
	assert.Equal(t, 1800.0, hist[0].Spread)
	assert.Equal(t, 1000.0, hist[0].Baseline)
	assert.Equal(t, time.Unix(1700000000, 0), hist[0].At)
}

func TestMergeFailedPlaceLeavesRowUnplaced(t *testing.T) {
	c := NewCollector(10)
	c.Merge(sampleResult(), []executor.Outcome{
		{Stage: executor.StagePlace, Status: executor.StatusFailed, Err: "boom"},
	})

	rows := c.Rows()
	require.Len(t, rows, 2)
	assert.False(t, rows[0].Placed)
	// the intended order still shows up on the decision market's row
	assert.Equal(t, 747.5, rows[0].OrderNotional)
}

func TestOutcomeRingIsBounded(t *testing.T) {
	c := NewCollector(3)
	for i := 0; i < 5; i++ {
		c.Merge(sampleResult(), []executor.Outcome{
			{Symbol: "SOL/USDT", Signature: string(rune('a' + i))},
		})
	}
	outcomes := c.Outcomes()
	require.Len(t, outcomes, 3)
	assert.Equal(t, "c", outcomes[0].Signature)
	assert.Equal(t, "e", outcomes[2].Signature)
}

type captureSink struct {
	rows []PositionRow
	txs  []TxRecord
	err  error
}

func (s *captureSink) WriteReport(_ context.Context, rows []PositionRow, txs []TxRecord) error {
	s.rows = rows
	s.txs = txs
	return s.err
}

func TestFlushDrainsRowsKeepsOutcomes(t *testing.T) {
	c := NewCollector(10)
	c.Merge(sampleResult(), []executor.Outcome{
		{Venue: venue.IDBinance, Symbol: "SOL/USDT", Signature: "123"},
	})

	sink := &captureSink{}
	c.Flush(context.Background(), sink)

	require.Len(t, sink.rows, 2)
	require.Len(t, sink.txs, 1)
	assert.Equal(t, "123", sink.txs[0].Signature)

	assert.Empty(t, c.Rows(), "rows are per-pass, flush clears them")
	assert.Len(t, c.Outcomes(), 1, "outcome ring survives flush")
}

func TestFlushPersistsEachOutcomeOnce(t *testing.T) {
	c := NewCollector(10)
	sink := &captureSink{}

	c.Merge(sampleResult(), []executor.Outcome{
		{Venue: venue.IDBinance, Symbol: "SOL/USDT", Signature: "pass1"},
	})
	c.Flush(context.Background(), sink)
	require.Len(t, sink.txs, 1)
	assert.Equal(t, "pass1", sink.txs[0].Signature)

	c.Merge(sampleResult(), []executor.Outcome{
		{Venue: venue.IDBinance, Symbol: "SOL/USDT", Signature: "pass2"},
	})
	c.Flush(context.Background(), sink)
	require.Len(t, sink.txs, 1, "second flush writes only the second pass")
	assert.Equal(t, "pass2", sink.txs[0].Signature)

	// the live ring still holds both for /api/live/outcomes
	assert.Len(t, c.Outcomes(), 2)
}

func TestFlushSinkErrorDoesNotPanic(t *testing.T) {
	c := NewCollector(10)
	c.Merge(sampleResult(), nil)
	assert.NotPanics(t, func() {
		c.Flush(context.Background(), &captureSink{err: assert.AnError}, nil)
	})
}
