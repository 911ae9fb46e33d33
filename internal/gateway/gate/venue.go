// Package gate adapts Gate.io USDT-settled perpetuals to the venue interface.
// Gate sizes positions in integer contracts; the per-contract quanto
// multiplier converts between contracts and base units, so order sizes are
// rounded down to a whole contract count before submission.
package gate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/antihax/optional"
	gateapi "github.com/gateio/gateapi-go/v7"
	"github.com/shopspring/decimal"

	"skew/internal/gateway/venue"
	"skew/internal/pkg/convert"
	symbolpkg "skew/internal/pkg/symbol"
)

type Venue struct {
	cfg  Config
	rest *gateapi.APIClient

	multMu sync.Mutex
	mults  map[string]decimal.Decimal // contract -> quanto multiplier
}

func New(cfg Config) (*Venue, error) {
	final := cfg.withDefaults()

	conf := gateapi.NewConfiguration()
	conf.BasePath = final.RESTBaseURL
	httpClient := &http.Client{Timeout: final.HTTPTimeout}
	if final.ProxyEnabled && final.RESTProxyURL != "" {
		proxyURL, err := url.Parse(final.RESTProxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid gate REST proxy url: %w", err)
		}
		baseTransport, ok := http.DefaultTransport.(*http.Transport)
		if !ok || baseTransport == nil {
			return nil, fmt.Errorf("http DefaultTransport is not *http.Transport")
		}
		transport := baseTransport.Clone()
		transport.Proxy = http.ProxyURL(proxyURL)
		httpClient.Transport = transport
	}
	conf.HTTPClient = httpClient

	return &Venue{
		cfg:   final,
		rest:  gateapi.NewAPIClient(conf),
		mults: make(map[string]decimal.Decimal),
	}, nil
}

var _ venue.Venue = (*Venue)(nil)

func (v *Venue) Name() venue.ID { return venue.IDGate }

func (v *Venue) authCtx(ctx context.Context) context.Context {
	return context.WithValue(ctx, gateapi.ContextGateAPIV4, gateapi.GateAPIV4{
		Key:    v.cfg.APIKey,
		Secret: v.cfg.APISecret,
	})
}

func (v *Venue) GetPosition(ctx context.Context, symbol string) (venue.RawPosition, error) {
	contract := symbolpkg.Gate.ToExchange(symbol)
	pos := venue.RawPosition{Symbol: symbol, Venue: venue.IDGate}

	raw, _, err := v.rest.FuturesApi.GetPosition(v.authCtx(ctx), v.cfg.Settle, contract)
	if err != nil {
		if isPositionNotFound(err) {
			return pos, nil // no exposure, flat
		}
		return venue.RawPosition{}, mapError(err)
	}
	if raw.Size == 0 {
		return pos, nil
	}

	mult, err := v.quantoMultiplier(ctx, contract)
	if err != nil {
		return venue.RawPosition{}, err
	}
	entry := convert.ToDecimal(raw.EntryPrice)
	size := decimal.NewFromInt(raw.Size)

	pos.NativeSize = raw.Size
	pos.SizeScale = mult
	pos.EntryNotional = entry.Mul(size).Mul(mult)
	pos.Raw = map[string]any{
		"contract":       raw.Contract,
		"size":           raw.Size,
		"entry_price":    raw.EntryPrice,
		"mark_price":     raw.MarkPrice,
		"unrealised_pnl": raw.UnrealisedPnl,
		"value":          raw.Value,
	}
	return pos, nil
}

func (v *Venue) GetOraclePrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	contract := symbolpkg.Gate.ToExchange(symbol)
	c, _, err := v.rest.FuturesApi.GetFuturesContract(ctx, v.cfg.Settle, contract)
	if err != nil {
		return decimal.Zero, mapError(err)
	}
	mark, err := decimal.NewFromString(strings.TrimSpace(c.MarkPrice))
	if err != nil {
		return decimal.Zero, fmt.Errorf("gate mark price %q: %w", c.MarkPrice, err)
	}
	return mark, nil
}

func (v *Venue) GetOpenOrders(ctx context.Context, symbol string) ([]venue.Order, error) {
	contract := symbolpkg.Gate.ToExchange(symbol)
	opts := &gateapi.ListFuturesOrdersOpts{
		Contract: optional.NewString(contract),
	}
	raw, _, err := v.rest.FuturesApi.ListFuturesOrders(v.authCtx(ctx), v.cfg.Settle, "open", opts)
	if err != nil {
		return nil, mapError(err)
	}
	mult, err := v.quantoMultiplier(ctx, contract)
	if err != nil {
		return nil, err
	}

	out := make([]venue.Order, 0, len(raw))
	for _, o := range raw {
		price := convert.ToDecimal(o.Price)
		size := decimal.NewFromInt(o.Size).Mul(mult)
		side := venue.SideBuy
		if o.Size < 0 {
			side = venue.SideSell
			size = size.Neg()
		}
		out = append(out, venue.Order{
			ID:       fmt.Sprintf("%d", o.Id),
			ClientID: strings.TrimPrefix(o.Text, "t-"),
			Symbol:   symbol,
			Side:     side,
			Price:    price,
			Size:     size,
		})
	}
	return out, nil
}

// PlaceOrder converts the base-unit size to a signed contract count and
// submits with tif "poc" (gate's post-only).
func (v *Venue) PlaceOrder(ctx context.Context, req venue.OrderRequest) (string, error) {
	contract := symbolpkg.Gate.ToExchange(req.Symbol)
	mult, err := v.quantoMultiplier(ctx, contract)
	if err != nil {
		return "", err
	}
	if mult.IsZero() {
		return "", fmt.Errorf("gate contract %s has zero multiplier", contract)
	}
	contracts := req.Size.Div(mult).IntPart()
	if contracts <= 0 {
		return "", fmt.Errorf("order size %s below one contract (%s)", req.Size, mult)
	}
	if req.Side == venue.SideSell {
		contracts = -contracts
	}

	order := gateapi.FuturesOrder{
		Contract: contract,
		Size:     contracts,
		Price:    req.Price.String(),
	}
	if req.PostOnly {
		order.Tif = "poc"
	}
	if req.ClientID != "" {
		// gate requires user-supplied order text to carry the t- prefix
		order.Text = "t-" + req.ClientID
	}
	resp, _, err := v.rest.FuturesApi.CreateFuturesOrder(v.authCtx(ctx), v.cfg.Settle, order, nil)
	if err != nil {
		return "", mapError(err)
	}
	return fmt.Sprintf("%d", resp.Id), nil
}

// CancelOrders bulk-cancels every resting order on the contract.
func (v *Venue) CancelOrders(ctx context.Context, symbol string, _ []string) (string, error) {
	contract := symbolpkg.Gate.ToExchange(symbol)
	_, _, err := v.rest.FuturesApi.CancelFuturesOrders(v.authCtx(ctx), v.cfg.Settle, contract, nil)
	if err != nil {
		return "", mapError(err)
	}
	return "cancel-all:" + contract, nil
}

// quantoMultiplier caches the per-contract size multiplier; it is a static
// contract attribute.
func (v *Venue) quantoMultiplier(ctx context.Context, contract string) (decimal.Decimal, error) {
	v.multMu.Lock()
	cached, ok := v.mults[contract]
	v.multMu.Unlock()
	if ok {
		return cached, nil
	}

	c, _, err := v.rest.FuturesApi.GetFuturesContract(ctx, v.cfg.Settle, contract)
	if err != nil {
		return decimal.Zero, mapError(err)
	}
	mult, err := decimal.NewFromString(strings.TrimSpace(c.QuantoMultiplier))
	if err != nil {
		return decimal.Zero, fmt.Errorf("gate quanto multiplier %q: %w", c.QuantoMultiplier, err)
	}
	v.multMu.Lock()
	v.mults[contract] = mult
	v.multMu.Unlock()
	return mult, nil
}

func isPositionNotFound(err error) bool {
	var gateErr gateapi.GateAPIError
	if errors.As(err, &gateErr) {
		return strings.EqualFold(gateErr.Label, "POSITION_NOT_FOUND")
	}
	return false
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	var gateErr gateapi.GateAPIError
	if errors.As(err, &gateErr) {
		if strings.EqualFold(gateErr.Label, "CONTRACT_NOT_FOUND") {
			return fmt.Errorf("%w: %s", venue.ErrMarketNotFound, gateErr.Message)
		}
	}
	return err
}
