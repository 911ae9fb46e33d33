package notifier

import (
	"fmt"
	"time"

	"skew/internal/engine"
	"skew/internal/executor"
)

// 中文说明：
// 调仓通知：每当某个 group 真正下了单（或下单失败）时推送一条摘要，
// 纯评估无动作的周期不打扰。

// PassSummary renders one group's cycle into a push message. Returns false
// when the cycle produced nothing worth notifying (NONE decision, no
// failures).
func PassSummary(res *engine.CycleResult, outcomes []executor.Outcome) (StructuredMessage, bool) {
	failed := make([]executor.Outcome, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Status == executor.StatusFailed {
			failed = append(failed, o)
		}
	}
	if res.Decision.None() && len(failed) == 0 {
		return StructuredMessage{}, false
	}

	msg := StructuredMessage{
		Icon:      "⚖️",
		Title:     fmt.Sprintf("Rebalance %s", res.Group),
		Timestamp: time.Now(),
	}

	eval := []string{
		fmt.Sprintf("spread %s vs baseline %s", res.Eval.Spread.StringFixed(2), res.Eval.Baseline.StringFixed(2)),
		fmt.Sprintf("long %s / short %s / pnl %s", res.Eval.LongValue.StringFixed(2), res.Eval.ShortValue.StringFixed(2), res.Eval.TotalPnl.StringFixed(2)),
	}
	msg.Sections = append(msg.Sections, MessageSection{Title: "评估", Lines: eval})

	if !res.Decision.None() {
		d := res.Decision
		msg.Sections = append(msg.Sections, MessageSection{
			Title: "订单",
			Lines: []string{fmt.Sprintf("%s %s @%s size=%s notional=%s on %s",
				d.Side, d.Symbol, d.Price.StringFixed(4), d.Size.StringFixed(6), d.Notional.StringFixed(2), d.Venue)},
		})
	}

	if len(failed) > 0 {
		msg.Icon = "🚨"
		lines := make([]string, 0, len(failed))
		for _, o := range failed {
			lines = append(lines, fmt.Sprintf("%s %s %s: %s (attempts=%d)", o.Venue, o.Symbol, o.Stage, o.Err, o.Attempts))
		}
		msg.Sections = append(msg.Sections, MessageSection{Title: "失败", Lines: lines})
	}
	return msg, true
}

// Notify sends the summary through the notifier, swallowing nil notifiers so
// callers need no enabled-check.
func Notify(n TextNotifier, res *engine.CycleResult, outcomes []executor.Outcome) error {
	if n == nil || res == nil {
		return nil
	}
	msg, ok := PassSummary(res, outcomes)
	if !ok {
		return nil
	}
	return n.SendText(msg.RenderMarkdown())
}
