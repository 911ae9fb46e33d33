// Package binance adapts Binance USD-M futures to the venue interface.
// Position amounts come back as signed decimals, so no contract-size scaling
// is needed; cost bases are derived from the reported entry and break-even
// prices.
package binance

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/adshao/go-binance/v2/common"
	"github.com/adshao/go-binance/v2/futures"
	"github.com/shopspring/decimal"

	"skew/internal/gateway/venue"
	"skew/internal/pkg/convert"
	symbolpkg "skew/internal/pkg/symbol"
)

// binance "Invalid symbol" rejection
const codeInvalidSymbol = -1121

type Venue struct {
	cfg    Config
	client *futures.Client
}

func New(cfg Config) (*Venue, error) {
	final := cfg.withDefaults()
	client := futures.NewClient(final.APIKey, final.APISecret)
	client.BaseURL = final.RESTBaseURL
	httpClient := &http.Client{Timeout: final.HTTPTimeout}
	if final.ProxyEnabled && final.RESTProxyURL != "" {
		proxyURL, err := url.Parse(final.RESTProxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid REST proxy url: %w", err)
		}
		baseTransport, ok := http.DefaultTransport.(*http.Transport)
		if !ok || baseTransport == nil {
			return nil, fmt.Errorf("http DefaultTransport is not *http.Transport")
		}
		transport := baseTransport.Clone()
		transport.Proxy = http.ProxyURL(proxyURL)
		httpClient.Transport = transport
	}
	client.HTTPClient = httpClient
	return &Venue{cfg: final, client: client}, nil
}

var _ venue.Venue = (*Venue)(nil)

func (v *Venue) Name() venue.ID { return venue.IDBinance }

func (v *Venue) GetPosition(ctx context.Context, symbol string) (venue.RawPosition, error) {
	clean := symbolpkg.Binance.ToExchange(symbol)
	risks, err := v.client.NewGetPositionRiskService().Symbol(clean).Do(ctx)
	if err != nil {
		return venue.RawPosition{}, mapError(err)
	}

	pos := venue.RawPosition{Symbol: symbol, Venue: venue.IDBinance}
	for _, r := range risks {
		if r == nil || r.Symbol != clean {
			continue
		}
		amt := convert.ToDecimal(r.PositionAmt)
		if amt.IsZero() {
			continue
		}
		entry := convert.ToDecimal(r.EntryPrice)
		breakEven := convert.ToDecimal(r.BreakEvenPrice)

		pos.BaseAmount = amt
		pos.EntryNotional = entry.Mul(amt)
		pos.BreakEvenNotional = breakEven.Mul(amt)
		pos.Raw = map[string]any{
			"positionAmt":      r.PositionAmt,
			"entryPrice":       r.EntryPrice,
			"breakEvenPrice":   r.BreakEvenPrice,
			"markPrice":        r.MarkPrice,
			"unRealizedProfit": r.UnRealizedProfit,
		}
		break
	}
	return pos, nil
}

func (v *Venue) GetOraclePrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	clean := symbolpkg.Binance.ToExchange(symbol)
	idx, err := v.client.NewPremiumIndexService().Symbol(clean).Do(ctx)
	if err != nil {
		return decimal.Zero, mapError(err)
	}
	for _, p := range idx {
		if p == nil || p.Symbol != clean {
			continue
		}
		mark, err := decimal.NewFromString(strings.TrimSpace(p.MarkPrice))
		if err != nil {
			return decimal.Zero, fmt.Errorf("binance mark price %q: %w", p.MarkPrice, err)
		}
		return mark, nil
	}
	return decimal.Zero, venue.ErrMarketNotFound
}

func (v *Venue) GetOpenOrders(ctx context.Context, symbol string) ([]venue.Order, error) {
	clean := symbolpkg.Binance.ToExchange(symbol)
	raw, err := v.client.NewListOpenOrdersService().Symbol(clean).Do(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	out := make([]venue.Order, 0, len(raw))
	for _, o := range raw {
		if o == nil {
			continue
		}
		out = append(out, venue.Order{
			ID:       fmt.Sprintf("%d", o.OrderID),
			ClientID: o.ClientOrderID,
			Symbol:   symbol,
			Side:     venue.Side(o.Side),
			Price:    convert.ToDecimal(o.Price),
			Size:     convert.ToDecimal(o.OrigQuantity),
		})
	}
	return out, nil
}

// PlaceOrder submits a GTX (post-only) limit order and returns the venue's
// order id as the signature.
func (v *Venue) PlaceOrder(ctx context.Context, req venue.OrderRequest) (string, error) {
	clean := symbolpkg.Binance.ToExchange(req.Symbol)
	side := futures.SideTypeBuy
	if req.Side == venue.SideSell {
		side = futures.SideTypeSell
	}
	tif := futures.TimeInForceTypeGTC
	if req.PostOnly {
		tif = futures.TimeInForceTypeGTX
	}
	svc := v.client.NewCreateOrderService().
		Symbol(clean).
		Side(side).
		Type(futures.OrderTypeLimit).
		TimeInForce(tif).
		Quantity(req.Size.String()).
		Price(req.Price.String())
	if req.ClientID != "" {
		svc = svc.NewClientOrderID(req.ClientID)
	}
	resp, err := svc.Do(ctx)
	if err != nil {
		return "", mapError(err)
	}
	return fmt.Sprintf("%d", resp.OrderID), nil
}

// CancelOrders cancels everything resting on the symbol. Binance has a bulk
// cancel endpoint, so the individual ids are not needed.
func (v *Venue) CancelOrders(ctx context.Context, symbol string, _ []string) (string, error) {
	clean := symbolpkg.Binance.ToExchange(symbol)
	if err := v.client.NewCancelAllOpenOrdersService().Symbol(clean).Do(ctx); err != nil {
		return "", mapError(err)
	}
	return "cancel-all:" + clean, nil
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if apiErr, ok := err.(*common.APIError); ok && apiErr.Code == codeInvalidSymbol {
		return fmt.Errorf("%w: %s", venue.ErrMarketNotFound, apiErr.Message)
	}
	return err
}
