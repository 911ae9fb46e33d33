package venue

import (
	"github.com/shopspring/decimal"
)

// ID 枚举支持的交易所。
type ID string

const (
	IDBinance ID = "binance"
	IDGate    ID = "gate"
)

func (id ID) String() string { return string(id) }

type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
	SideNone Side = "NONE"
)

// RawPosition carries one venue position before normalization. Amounts are in
// whichever form the venue reports: decimal-native venues fill BaseAmount,
// integer-contract venues fill NativeSize + SizeScale and leave BaseAmount zero.
type RawPosition struct {
	Symbol string
	Venue  ID

	BaseAmount decimal.Decimal // signed; positive = long
	NativeSize int64           // signed contract count (integer-size venues)
	SizeScale  decimal.Decimal // per-contract multiplier for NativeSize

	// Signed cost bases in quote currency. BreakEvenNotional folds accrued
	// funding/fees into the entry basis.
	EntryNotional     decimal.Decimal
	BreakEvenNotional decimal.Decimal

	Raw map[string]any // venue payload, for logs / report store only
}

// Flat reports whether the venue holds no exposure for this symbol.
func (p RawPosition) Flat() bool {
	return p.NativeSize == 0 && p.BaseAmount.IsZero()
}

// Order is one resting order on a venue.
type Order struct {
	ID       string
	ClientID string
	Symbol   string
	Side     Side
	Price    decimal.Decimal
	Size     decimal.Decimal
}

// OrderRequest describes a limit order submission. The engine only ever emits
// post-only limit orders; the flag exists so adapters can spell that in their
// own dialect (GTX, poc, ...).
type OrderRequest struct {
	Symbol   string
	Side     Side
	Price    decimal.Decimal
	Size     decimal.Decimal
	ClientID string
	PostOnly bool
}
