// Package report owns the cross-cycle shared state: bounded ring buffers of
// recent order outcomes, the latest position table, and the per-group spread
// history. It is the only mutable state shared between group tasks, so all
// access goes through the collector's mutex and the scheduler merges results
// as a single writer.
package report

import (
	"context"
	"sync"
	"time"

	"skew/internal/engine"
	"skew/internal/executor"
	"skew/internal/logger"
)

const (
	defaultMaxOutcomes = 200
	defaultMaxSpread   = 500
)

// PositionRow is the flat row contract handed to the reporting collaborator.
type PositionRow struct {
	Group         string  `json:"group"`
	Symbol        string  `json:"symbol"`
	Venue         string  `json:"venue"`
	Pnl           float64 `json:"pnl"`
	Value         float64 `json:"value"`
	AdjustedValue float64 `json:"adjusted_value"`
	OrderNotional float64 `json:"order_notional"`
	Price         float64 `json:"price"`
	Baseline      float64 `json:"baseline"`
	Placed        bool    `json:"placed"`
}

// TxRecord is one submission attempt chain for the transaction log range.
type TxRecord struct {
	Venue     string `json:"venue"`
	Symbol    string `json:"symbol"`
	Signature string `json:"signature"`
	Error     string `json:"error"`
}

// SpreadPoint feeds the spread-history chart.
type SpreadPoint struct {
	Group    string    `json:"group"`
	At       time.Time `json:"at"`
	Spread   float64   `json:"spread"`
	Baseline float64   `json:"baseline"`
}

// Sink receives one finished pass. The engine never reads anything back.
type Sink interface {
	WriteReport(ctx context.Context, rows []PositionRow, txs []TxRecord) error
}

type Collector struct {
	mu sync.Mutex

	maxOutcomes int
	maxSpread   int

	outcomes []executor.Outcome // live-API ring, newest last
	pending  []executor.Outcome // current pass, drained on flush
	rows     []PositionRow      // current pass, cleared on flush
	spread   []SpreadPoint      // ring, newest last

	nowFn func() time.Time
}

func NewCollector(maxOutcomes int) *Collector {
	if maxOutcomes <= 0 {
		maxOutcomes = defaultMaxOutcomes
	}
	return &Collector{
		maxOutcomes: maxOutcomes,
		maxSpread:   defaultMaxSpread,
		nowFn:       time.Now,
	}
}

// Merge folds one group's cycle result and its execution outcomes into the
// shared buffers.
func (c *Collector) Merge(res *engine.CycleResult, outcomes []executor.Outcome) {
	if res == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	placedVenue, placedSymbol := "", ""
	orderNotional, orderPrice := 0.0, 0.0
	if !res.Decision.None() {
		placedVenue = res.Decision.Venue.String()
		placedSymbol = res.Decision.Symbol
		orderNotional, _ = res.Decision.Notional.Float64()
		orderPrice, _ = res.Decision.Price.Float64()
	}
	baseline, _ := res.Eval.Baseline.Float64()

	for _, view := range res.Views {
		pnl, _ := view.UnrealizedPnl.Float64()
		value, _ := view.NotionalValue.Float64()
		adjusted := value + pnl
		if value < 0 {
			adjusted = value - pnl
		}
		row := PositionRow{
			Group:         res.Group,
			Symbol:        view.Symbol,
			Venue:         view.Venue.String(),
			Pnl:           pnl,
			Value:         value,
			AdjustedValue: adjusted,
			Baseline:      baseline,
		}
		if view.Venue.String() == placedVenue && view.Symbol == placedSymbol {
			row.OrderNotional = orderNotional
			row.Price = orderPrice
			row.Placed = placedForOutcomes(outcomes)
		}
		c.rows = append(c.rows, row)
	}

	spread, _ := res.Eval.Spread.Float64()
	c.spread = append(c.spread, SpreadPoint{
		Group:    res.Group,
		At:       c.nowFn(),
		Spread:   spread,
		Baseline: baseline,
	})
	if n := len(c.spread) - c.maxSpread; n > 0 {
		c.spread = c.spread[n:]
	}

	c.pending = append(c.pending, outcomes...)
	c.outcomes = append(c.outcomes, outcomes...)
	if n := len(c.outcomes) - c.maxOutcomes; n > 0 {
		c.outcomes = c.outcomes[n:]
	}
}

func placedForOutcomes(outcomes []executor.Outcome) bool {
	for _, o := range outcomes {
		if o.Stage == executor.StagePlace && o.Status == executor.StatusSuccess {
			return true
		}
	}
	return false
}

// Flush hands the pass to the sinks and clears the per-pass buffers. Only
// outcomes merged since the last flush are persisted; the bounded ring keeps
// serving the live API untouched. Sink errors are logged, never propagated:
// reporting must not break trading.
func (c *Collector) Flush(ctx context.Context, sinks ...Sink) {
	c.mu.Lock()
	rows := c.rows
	c.rows = nil
	pending := c.pending
	c.pending = nil
	txs := make([]TxRecord, 0, len(pending))
	for _, o := range pending {
		txs = append(txs, TxRecord{
			Venue:     o.Venue.String(),
			Symbol:    o.Symbol,
			Signature: o.Signature,
			Error:     o.Err,
		})
	}
	c.mu.Unlock()

	for _, sink := range sinks {
		if sink == nil {
			continue
		}
		if err := sink.WriteReport(ctx, rows, txs); err != nil {
			logger.Errorf("report sink failed: %v", err)
		}
	}
}

// Rows returns a copy of the current pass table (HTTP reads).
func (c *Collector) Rows() []PositionRow {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]PositionRow, len(c.rows))
	copy(out, c.rows)
	return out
}

// Outcomes returns a copy of the retained outcome ring, newest last.
func (c *Collector) Outcomes() []executor.Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]executor.Outcome, len(c.outcomes))
	copy(out, c.outcomes)
	return out
}

// SpreadHistory returns a copy of the spread ring, newest last.
func (c *Collector) SpreadHistory() []SpreadPoint {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]SpreadPoint, len(c.spread))
	copy(out, c.spread)
	return out
}
