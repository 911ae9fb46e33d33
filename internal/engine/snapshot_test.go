package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skew/internal/gateway/venue"
)

type stubVenue struct {
	name    venue.ID
	pos     venue.RawPosition
	posErr  error
	oracle  decimal.Decimal
	orders  []venue.Order

	placed    []venue.OrderRequest
	placeErr  error
	placeSigs []string
	cancels   [][]string
	cancelErr error
}

func (s *stubVenue) Name() venue.ID { return s.name }

func (s *stubVenue) GetPosition(ctx context.Context, symbol string) (venue.RawPosition, error) {
	if s.posErr != nil {
		return venue.RawPosition{}, s.posErr
	}
	return s.pos, nil
}

func (s *stubVenue) GetOpenOrders(ctx context.Context, symbol string) ([]venue.Order, error) {
	return s.orders, nil
}

func (s *stubVenue) GetOraclePrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	return s.oracle, nil
}

func (s *stubVenue) PlaceOrder(ctx context.Context, req venue.OrderRequest) (string, error) {
	s.placed = append(s.placed, req)
	if s.placeErr != nil {
		return "", s.placeErr
	}
	if len(s.placeSigs) > 0 {
		sig := s.placeSigs[0]
		s.placeSigs = s.placeSigs[1:]
		return sig, nil
	}
	return "sig", nil
}

func (s *stubVenue) CancelOrders(ctx context.Context, symbol string, ids []string) (string, error) {
	s.cancels = append(s.cancels, ids)
	if s.cancelErr != nil {
		return "", s.cancelErr
	}
	return "cancel-sig", nil
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestBuildViewLong(t *testing.T) {
	v := &stubVenue{
		name:   venue.IDBinance,
		oracle: dec("150"),
		pos: venue.RawPosition{
			Symbol:            "SOL/USDT",
			BaseAmount:        dec("10"),
			EntryNotional:     dec("1400"),  // entry 140
			BreakEvenNotional: dec("1390"),  // funding earned lowers break-even
		},
		orders: []venue.Order{{ID: "1", Side: venue.SideSell, Price: dec("155"), Size: dec("2")}},
	}

	view, err := BuildView(context.Background(), v, "SOL/USDT")
	require.NoError(t, err)

	assert.True(t, view.EntryPrice.Equal(dec("140")), "entry=%s", view.EntryPrice)
	assert.True(t, view.BreakEvenPrice.Equal(dec("139")), "breakeven=%s", view.BreakEvenPrice)
	assert.True(t, view.UnrealizedPnl.Equal(dec("100")), "pnl=%s", view.UnrealizedPnl)
	assert.True(t, view.NotionalValue.Equal(dec("1500")))
	assert.Len(t, view.OpenOrders, 1)
}

func TestBuildViewShortFromNativeContracts(t *testing.T) {
	// 40 contracts short at 0.1 SOL each = -4 SOL.
	v := &stubVenue{
		name:   venue.IDGate,
		oracle: dec("150"),
		pos: venue.RawPosition{
			Symbol:        "SOL/USDT",
			NativeSize:    -40,
			SizeScale:     dec("0.1"),
			EntryNotional: dec("-640"), // entry 160 short
		},
	}

	view, err := BuildView(context.Background(), v, "SOL/USDT")
	require.NoError(t, err)

	assert.True(t, view.BaseAmount.Equal(dec("-4")))
	assert.True(t, view.EntryPrice.Equal(dec("160")))
	// break-even falls back to entry when the venue supplies no basis
	assert.True(t, view.BreakEvenPrice.Equal(dec("160")))
	// short in profit: entered 160, now 150 -> +40
	assert.True(t, view.UnrealizedPnl.Equal(dec("40")), "pnl=%s", view.UnrealizedPnl)
	assert.True(t, view.NotionalValue.Equal(dec("-600")))
}

func TestBuildViewMarketNotFoundPassesThrough(t *testing.T) {
	v := &stubVenue{name: venue.IDBinance, posErr: venue.ErrMarketNotFound}
	_, err := BuildView(context.Background(), v, "NOPE/USDT")
	require.Error(t, err)
	assert.True(t, errors.Is(err, venue.ErrMarketNotFound))
}

// The short branch of the pnl formula must agree with the plain
// (oracle-entry)*base product for both signs, given abs()-derived entries.
func TestUnrealizedPnlBranchParity(t *testing.T) {
	cases := []struct {
		name   string
		oracle string
		entry  string
		base   string
	}{
		{"long in profit", "150", "140", "10"},
		{"long in loss", "130", "140", "10"},
		{"short in profit", "150", "160", "-4"},
		{"short in loss", "170", "160", "-4"},
		{"flat", "150", "0", "0"},
		{"fractional short", "99.95", "101.3", "-0.37"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			branched := unrealizedPnl(dec(tc.oracle), dec(tc.entry), dec(tc.base))
			plain := unrealizedPnlUnconditional(dec(tc.oracle), dec(tc.entry), dec(tc.base))
			assert.True(t, branched.Equal(plain), "branched=%s plain=%s", branched, plain)
		})
	}
}

func TestPriceFromNotionalAbs(t *testing.T) {
	assert.True(t, priceFromNotional(dec("-640"), dec("-4")).Equal(dec("160")))
	assert.True(t, priceFromNotional(dec("1400"), dec("10")).Equal(dec("140")))
	assert.True(t, priceFromNotional(dec("10"), decimal.Zero).IsZero())
}
