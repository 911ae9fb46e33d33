package engine

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"skew/internal/gateway/venue"
	"skew/internal/pkg/convert"
)

// BuildView pulls one (venue, symbol) position plus oracle price and resting
// orders, converts native amounts into human units, and derives the priced
// fields. A venue.ErrMarketNotFound passes through wrapped so the caller can
// skip the whole group for this cycle without retrying.
func BuildView(ctx context.Context, v venue.Venue, sym string) (PositionView, error) {
	raw, err := v.GetPosition(ctx, sym)
	if err != nil {
		return PositionView{}, fmt.Errorf("%s %s position: %w", v.Name(), sym, err)
	}
	oracle, err := v.GetOraclePrice(ctx, sym)
	if err != nil {
		return PositionView{}, fmt.Errorf("%s %s oracle price: %w", v.Name(), sym, err)
	}
	orders, err := v.GetOpenOrders(ctx, sym)
	if err != nil {
		return PositionView{}, fmt.Errorf("%s %s open orders: %w", v.Name(), sym, err)
	}

	base := raw.BaseAmount
	if base.IsZero() && raw.NativeSize != 0 {
		base = convert.ScaledInt(raw.NativeSize, raw.SizeScale)
	}

	view := PositionView{
		Symbol:      sym,
		Venue:       v.Name(),
		BaseAmount:  base,
		OraclePrice: oracle,
		OpenOrders:  orders,
	}
	view.EntryPrice = priceFromNotional(raw.EntryNotional, base)
	view.BreakEvenPrice = priceFromNotional(raw.BreakEvenNotional, base)
	if view.BreakEvenPrice.IsZero() {
		view.BreakEvenPrice = view.EntryPrice
	}
	view.UnrealizedPnl = unrealizedPnl(oracle, view.EntryPrice, base)
	view.NotionalValue = oracle.Mul(base)
	return view, nil
}

// priceFromNotional derives an unsigned price from a signed cost basis.
// The |notional/amount| ratio is intentional: short bases carry negative
// notionals and the entry price must come out positive either way.
func priceFromNotional(notional, base decimal.Decimal) decimal.Decimal {
	if base.IsZero() {
		return decimal.Zero
	}
	return notional.Div(base).Abs()
}

// unrealizedPnl keeps the historical two-branch form: the short branch flips
// both the price delta and the amount sign instead of relying on the signed
// product. With an abs()-derived entry price the two branches agree; see
// unrealizedPnlUnconditional and the parity test.
func unrealizedPnl(oracle, entry, base decimal.Decimal) decimal.Decimal {
	if base.IsZero() {
		return decimal.Zero
	}
	if base.Sign() > 0 {
		return oracle.Sub(entry).Mul(base)
	}
	return entry.Sub(oracle).Mul(base.Neg())
}

// unrealizedPnlUnconditional is the algebraic form (oracle-entry)*base.
// Kept only to assert parity with the branched form.
func unrealizedPnlUnconditional(oracle, entry, base decimal.Decimal) decimal.Decimal {
	return oracle.Sub(entry).Mul(base)
}
