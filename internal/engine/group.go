package engine

import (
	"context"
	"fmt"

	"skew/internal/gateway/venue"
	"skew/internal/logger"
)

// Group evaluates one market group against its configured venues. At most one
// corrective order with a real side comes out of an evaluation.
type Group struct {
	cfg    GroupConfig
	venues map[venue.ID]venue.Venue
}

// CycleResult is everything downstream consumers (executor, reporting) need
// from one evaluation pass of one group.
type CycleResult struct {
	Group    string
	Views    []PositionView
	Eval     Evaluation
	Decision Decision
}

func NewGroup(cfg GroupConfig, venues map[venue.ID]venue.Venue) (*Group, error) {
	if len(cfg.Markets) == 0 {
		return nil, fmt.Errorf("group %s: no markets configured", cfg.Name)
	}
	for _, m := range cfg.Markets {
		if _, ok := venues[m.Venue]; !ok {
			return nil, fmt.Errorf("group %s: venue %s not configured", cfg.Name, m.Venue)
		}
	}
	return &Group{cfg: cfg, venues: venues}, nil
}

func (g *Group) Name() string      { return g.cfg.Name }
func (g *Group) Config() GroupConfig { return g.cfg }

// Evaluate rebuilds every member view, computes the spread and sizes the
// cycle's order. A market-not-found error aborts the whole group for this
// cycle: that is a configuration bug, not a transient fault.
func (g *Group) Evaluate(ctx context.Context) (*CycleResult, error) {
	views := make([]PositionView, 0, len(g.cfg.Markets))
	for _, m := range g.cfg.Markets {
		view, err := BuildView(ctx, g.venues[m.Venue], m.Symbol)
		if err != nil {
			return nil, fmt.Errorf("group %s: %w", g.cfg.Name, err)
		}
		views = append(views, view)
	}

	eval := Evaluate(views, g.cfg)
	logger.Debugf("[%s] spread=%s long=%s short=%s pnl=%s",
		g.cfg.Name, eval.Spread.StringFixed(2), eval.LongValue.StringFixed(2),
		eval.ShortValue.StringFixed(2), eval.TotalPnl.StringFixed(2))

	result := &CycleResult{Group: g.cfg.Name, Views: views, Eval: eval}

	candidate, ok := PickCandidate(eval, views, g.cfg)
	if !ok {
		result.Decision = NoneDecision("no candidate view for group")
		return result, nil
	}
	result.Decision = SizeOrder(eval, candidate, g.cfg)
	if result.Decision.None() {
		logger.Infof("[%s] no trade: %s", g.cfg.Name, result.Decision.Reason)
	} else {
		logger.Infof("[%s] decision %s %s %s size=%s price=%s notional=%s",
			g.cfg.Name, result.Decision.Side, result.Decision.Venue, result.Decision.Symbol,
			result.Decision.Size.StringFixed(6), result.Decision.Price.StringFixed(4),
			result.Decision.Notional.StringFixed(2))
	}
	return result, nil
}
