package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skew/internal/gateway/venue"
)

func evalWithSpread(spread string) Evaluation {
	return Evaluation{Spread: dec(spread)}
}

// capped at max trade amount: oracle=150, amt=3000 capped at 1500 -> size 10,
// price 150+cushion.
func TestSizeOrderCapsAtMaxTradeAmount(t *testing.T) {
	cfg := groupCfg(0, 1)
	cfg.MaxTradeAmountPerCycle = 1500
	cfg.PriceSpreadCushion = 0.5
	candidate := longView("SOL/USDT", venue.IDBinance, "3000", "0")

	d := SizeOrder(evalWithSpread("3000"), candidate, cfg)

	require.Equal(t, venue.SideSell, d.Side)
	assert.True(t, d.Size.Equal(dec("10")), "size=%s", d.Size)
	assert.True(t, d.Price.Equal(dec("150.5")), "price=%s", d.Price)
}

func TestSizeOrderBuyCrossesBelowOracle(t *testing.T) {
	cfg := groupCfg(0, 1)
	cfg.PriceSpreadCushion = 0.25
	candidate := shortView("SOL/USDT", venue.IDGate, "-3000", "0")

	d := SizeOrder(evalWithSpread("-1000"), candidate, cfg)

	require.Equal(t, venue.SideBuy, d.Side)
	assert.True(t, d.Price.Equal(dec("149.75")))
	assert.True(t, d.Notional.Equal(d.Size.Mul(d.Price)))
}

// tradeValue=15 below minTradeValue=20 leaves the book untouched.
func TestSizeOrderBelowFloorIsNone(t *testing.T) {
	cfg := groupCfg(0, 1)
	cfg.MinTradeValue = 20
	candidate := longView("SOL/USDT", venue.IDBinance, "100", "0")

	d := SizeOrder(evalWithSpread("15"), candidate, cfg)

	assert.True(t, d.None())
	assert.Equal(t, "below min trade value", d.Reason)
}

func TestSizeOrderNoOracleIsNone(t *testing.T) {
	cfg := groupCfg(0, 1)
	candidate := PositionView{Symbol: "SOL/USDT", Venue: venue.IDBinance}

	d := SizeOrder(evalWithSpread("5000"), candidate, cfg)
	assert.True(t, d.None())
}

func TestSizeOrderEqualSpreadBaselineBuys(t *testing.T) {
	cfg := groupCfg(1000, 1)
	cfg.MinTradeValue = 0
	candidate := longView("SOL/USDT", venue.IDBinance, "1000", "0")

	d := SizeOrder(evalWithSpread("1000"), candidate, cfg)
	// spread == baseline sizes to zero: no trade even without a floor
	assert.True(t, d.None())
	assert.Equal(t, "zero size", d.Reason)
}

// Increasing spread with baseline fixed never flips SELL back to BUY.
func TestSizeOrderMonotonicDirection(t *testing.T) {
	cfg := groupCfg(500, 1)
	cfg.MinTradeValue = 0
	candidate := longView("SOL/USDT", venue.IDBinance, "1000", "0")

	sawSell := false
	for _, spread := range []string{"-2000", "0", "499", "501", "1500", "90000"} {
		d := SizeOrder(evalWithSpread(spread), candidate, cfg)
		if d.Side == venue.SideSell {
			sawSell = true
		}
		if sawSell {
			assert.NotEqual(t, venue.SideBuy, d.Side, "spread=%s flipped back to BUY", spread)
		}
	}
	assert.True(t, sawSell)
}
