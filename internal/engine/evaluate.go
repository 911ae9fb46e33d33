package engine

import (
	"sort"

	"github.com/shopspring/decimal"

	"skew/internal/gateway/venue"
)

// Evaluate aggregates the group's positions into long/short totals and the
// funding-adjusted spread, then ranks correction candidates.
//
// Flat positions (baseAmount == 0) never contribute to the totals. Shorts
// carry negative notional already, so spread = longValue + shortValue is the
// net signed exposure before the PnL correction.
func Evaluate(views []PositionView, cfg GroupConfig) Evaluation {
	var eval Evaluation
	hints := sideHints(cfg)

	classes := make([]SideClass, len(views))
	for i, view := range views {
		if view.BaseAmount.IsZero() {
			classes[i] = ""
			continue
		}
		class := classify(view, hints[marketKey{view.Venue, view.Symbol}])
		classes[i] = class
		if class == ClassLong {
			eval.LongValue = eval.LongValue.Add(view.NotionalValue)
			eval.LongPnl = eval.LongPnl.Add(view.UnrealizedPnl)
		} else {
			eval.ShortValue = eval.ShortValue.Add(view.NotionalValue)
			eval.ShortPnl = eval.ShortPnl.Add(view.UnrealizedPnl)
		}
	}

	eval.TotalPnl = eval.LongPnl.Add(eval.ShortPnl)
	eval.Spread = eval.LongValue.Add(eval.ShortValue)

	// 基线为负（净空目标）时 PnL 以 -2 倍修正，否则按 fundingMultiplier 直接叠加。
	// 该不对称修正会改变方向判断，必须原样保留。
	baseline := decFromFloat(cfg.BaselineNotional)
	eval.Baseline = baseline
	mult := decFromFloat(cfg.FundingMultiplier)
	if mult.IsZero() {
		mult = decimal.NewFromInt(1)
	}
	if baseline.IsNegative() {
		eval.Spread = eval.Spread.Add(eval.TotalPnl.Mul(decTwoNeg).Mul(mult))
	} else {
		eval.Spread = eval.Spread.Add(eval.TotalPnl.Mul(mult))
	}

	eval.Candidates = rankCandidates(views, classes, cfg, eval.Spread.GreaterThan(baseline))
	return eval
}

type marketKey struct {
	venue  venue.ID
	symbol string
}

func sideHints(cfg GroupConfig) map[marketKey]SideHint {
	out := make(map[marketKey]SideHint, len(cfg.Markets))
	for _, m := range cfg.Markets {
		out[marketKey{m.Venue, m.Symbol}] = m.Side
	}
	return out
}

func classify(view PositionView, hint SideHint) SideClass {
	switch hint {
	case HintLong:
		return ClassLong
	case HintShort:
		return ClassShort
	}
	if view.BaseAmount.Sign() > 0 {
		return ClassLong
	}
	return ClassShort
}

// rankCandidates orders positions for correction. When the group is long-heavy
// (needSell) the most profitable/largest long goes first; when short-heavy the
// most extreme short. Positions failing the profit-and-size gate rank after
// every gated one, so the sizer's fallback to the primary market kicks in when
// nothing passes.
func rankCandidates(views []PositionView, classes []SideClass, cfg GroupConfig, needSell bool) []Candidate {
	minValue := decFromFloat(cfg.MinTradeValue)
	wantClass := ClassShort
	if needSell {
		wantClass = ClassLong
	}

	out := make([]Candidate, 0, len(views))
	for i, view := range views {
		class := classes[i]
		if class != wantClass {
			continue
		}
		sign := decimal.NewFromInt(1)
		if class == ClassShort {
			sign = decimal.NewFromInt(-1)
		}
		cand := Candidate{
			View:          view,
			Class:         class,
			AdjustedValue: view.NotionalValue.Add(view.UnrealizedPnl.Mul(sign)),
		}
		cand.GatePassed = view.UnrealizedPnl.Sign() > 0 &&
			view.NotionalValue.Abs().GreaterThan(minValue)
		out = append(out, cand)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].GatePassed != out[j].GatePassed {
			return out[i].GatePassed
		}
		if needSell {
			// sell the largest/most profitable long first
			return out[i].AdjustedValue.GreaterThan(out[j].AdjustedValue)
		}
		// buy back the most extreme (most negative adjusted) short first
		return out[i].AdjustedValue.LessThan(out[j].AdjustedValue)
	})
	return out
}

// PickCandidate returns the top gated candidate, or the view of the group's
// primary market when nothing passes the gate.
func PickCandidate(eval Evaluation, views []PositionView, cfg GroupConfig) (PositionView, bool) {
	for _, cand := range eval.Candidates {
		if cand.GatePassed {
			return cand.View, true
		}
	}
	primary := cfg.Primary()
	for _, view := range views {
		if view.Venue == primary.Venue && view.Symbol == primary.Symbol {
			return view, true
		}
	}
	return PositionView{}, false
}
