// Package engine implements the rebalancing decision core: position
// normalization, spread/baseline evaluation, and order sizing. It talks to
// venues only through the venue.Venue interface and has no mutable state of
// its own; every cycle rebuilds its inputs from scratch.
package engine

import (
	"github.com/shopspring/decimal"

	"skew/internal/gateway/venue"
)

// SideClass is the long/short bucket of one position inside a group.
type SideClass string

const (
	ClassLong  SideClass = "LONG"
	ClassShort SideClass = "SHORT"
)

// SideHint pins a market to one side regardless of the live position sign.
// Cross-venue hedge pairs use this so the hedge leg never flips buckets.
type SideHint string

const (
	HintAuto  SideHint = "auto"
	HintLong  SideHint = "long"
	HintShort SideHint = "short"
)

// PositionView 是单个 (venue, symbol) 持仓的周期内只读快照。
type PositionView struct {
	Symbol string
	Venue  venue.ID

	BaseAmount     decimal.Decimal // signed; positive = long
	EntryPrice     decimal.Decimal // unsigned
	BreakEvenPrice decimal.Decimal // entry incl. accrued funding/fees
	OraclePrice    decimal.Decimal
	UnrealizedPnl  decimal.Decimal // signed, quote currency
	NotionalValue  decimal.Decimal // oracle * baseAmount, signed

	OpenOrders []venue.Order
}

// MarketConfig names one (venue, symbol) member of a group.
type MarketConfig struct {
	Symbol  string   `mapstructure:"symbol" yaml:"symbol"`
	Venue   venue.ID `mapstructure:"venue" yaml:"venue"`
	Side    SideHint `mapstructure:"side" yaml:"side"`
	Primary bool     `mapstructure:"primary" yaml:"primary"`
}

// GroupConfig is the static per-group correction target. Loaded once at
// startup, read-only during the run.
type GroupConfig struct {
	Name    string         `mapstructure:"name" yaml:"name"`
	Markets []MarketConfig `mapstructure:"markets" yaml:"markets"`

	PriceSpreadCushion     float64 `mapstructure:"price_spread_cushion" yaml:"price_spread_cushion"`
	BaselineNotional       float64 `mapstructure:"baseline_notional" yaml:"baseline_notional"`
	FundingMultiplier      float64 `mapstructure:"funding_multiplier" yaml:"funding_multiplier"`
	MinTradeValue          float64 `mapstructure:"min_trade_value" yaml:"min_trade_value"`
	MaxTradeAmountPerCycle float64 `mapstructure:"max_trade_amount_per_cycle" yaml:"max_trade_amount_per_cycle"`
	Enabled                bool    `mapstructure:"enabled" yaml:"enabled"`
}

// Primary returns the configured fallback market (explicit primary flag, else
// the first member).
func (g GroupConfig) Primary() MarketConfig {
	for _, m := range g.Markets {
		if m.Primary {
			return m
		}
	}
	if len(g.Markets) > 0 {
		return g.Markets[0]
	}
	return MarketConfig{}
}

// Candidate is one position ranked for correction.
type Candidate struct {
	View          PositionView
	Class         SideClass
	AdjustedValue decimal.Decimal // notional + pnl*(+1 long / -1 short)
	GatePassed    bool            // pnl > 0 && |notional| > minTradeValue
}

// Evaluation is the spread evaluator output for one group and one cycle.
type Evaluation struct {
	Spread     decimal.Decimal
	Baseline   decimal.Decimal
	LongValue  decimal.Decimal
	ShortValue decimal.Decimal
	LongPnl    decimal.Decimal
	ShortPnl   decimal.Decimal
	TotalPnl   decimal.Decimal

	// Candidates are ranked best-first for the needed correction direction.
	Candidates []Candidate
}

// Decision is the single corrective order for one group and one cycle.
// Side == venue.SideNone means no trade.
type Decision struct {
	Side     venue.Side
	Symbol   string
	Venue    venue.ID
	Price    decimal.Decimal
	Size     decimal.Decimal
	Notional decimal.Decimal
	Reason   string // why the decision is NONE (logging only)
}

func (d Decision) None() bool { return d.Side == venue.SideNone }
