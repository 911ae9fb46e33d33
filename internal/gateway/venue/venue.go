// Package venue defines a common abstraction for perp execution venues.
// The engine depends only on this interface; one concrete adapter exists
// per exchange backend.
package venue

import (
	"context"

	"github.com/shopspring/decimal"
)

type Venue interface {
	Name() ID

	// GetPosition returns the caller's open (or flat) position for symbol.
	// Returns ErrMarketNotFound when the symbol is not configured on the venue.
	GetPosition(ctx context.Context, symbol string) (RawPosition, error)

	GetOpenOrders(ctx context.Context, symbol string) ([]Order, error)

	GetOraclePrice(ctx context.Context, symbol string) (decimal.Decimal, error)

	// PlaceOrder submits a limit order and returns the venue signature/id.
	PlaceOrder(ctx context.Context, req OrderRequest) (string, error)

	// CancelOrders cancels the given resting orders for symbol. An empty id
	// list means cancel everything resting on that symbol.
	CancelOrders(ctx context.Context, symbol string, ids []string) (string, error)
}
