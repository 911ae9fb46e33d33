package engine

import (
	"skew/internal/gateway/venue"
)

// SizeOrder turns an evaluated spread into the single corrective order for
// this cycle, or a NONE decision when the correction is too small to bother.
//
// The price crosses away from the oracle in the trader's favor (below for
// BUY, above for SELL) so the order rests post-only instead of taking.
func SizeOrder(eval Evaluation, candidate PositionView, cfg GroupConfig) Decision {
	baseline := decFromFloat(cfg.BaselineNotional)
	cushion := decFromFloat(cfg.PriceSpreadCushion)
	maxAmount := decFromFloat(cfg.MaxTradeAmountPerCycle)
	minValue := decFromFloat(cfg.MinTradeValue)

	side := venue.SideBuy
	if eval.Spread.GreaterThan(baseline) {
		side = venue.SideSell
	}

	none := Decision{
		Side:   venue.SideNone,
		Symbol: candidate.Symbol,
		Venue:  candidate.Venue,
	}
	if candidate.OraclePrice.Sign() <= 0 {
		none.Reason = "no oracle price for candidate"
		return none
	}

	amountNeeded := eval.Spread.Sub(baseline).Abs()
	tradeNotional := decMin(amountNeeded, maxAmount)
	size := tradeNotional.Div(candidate.OraclePrice)

	price := candidate.OraclePrice.Sub(cushion)
	if side == venue.SideSell {
		price = candidate.OraclePrice.Add(cushion)
	}

	if size.IsNegative() {
		none.Reason = "negative size from malformed inputs"
		return none
	}
	if size.IsZero() {
		none.Reason = "zero size"
		return none
	}
	tradeValue := size.Mul(price)
	if tradeValue.LessThan(minValue) {
		none.Reason = "below min trade value"
		return none
	}

	return Decision{
		Side:     side,
		Symbol:   candidate.Symbol,
		Venue:    candidate.Venue,
		Price:    price,
		Size:     size,
		Notional: tradeValue,
	}
}

// NoneDecision is the explicit empty decision for groups that produced no
// candidate at all (e.g. all markets flat and no primary view available).
func NoneDecision(reason string) Decision {
	return Decision{Side: venue.SideNone, Reason: reason}
}
