// Package executor drives one group's decision through the venue: cancel the
// superseded resting orders first, then submit the new order, retrying the
// exact same intent on the transient failure class only.
package executor

import (
	"context"
	"time"

	"github.com/google/uuid"

	"skew/internal/engine"
	"skew/internal/gateway/venue"
	"skew/internal/logger"
	"skew/internal/pkg/circuit"
)

type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
	StatusSkipped Status = "SKIPPED"
)

type Stage string

const (
	StageCancel Stage = "CANCEL"
	StagePlace  Stage = "PLACE"
)

// Outcome is the record of one submission attempt chain, appended to the
// reporting ring buffer. The engine itself never reads these back.
type Outcome struct {
	Group     string
	Venue     venue.ID
	Symbol    string
	Stage     Stage
	Status    Status
	Signature string
	Err       string
	Attempts  int
	At        time.Time
}

type Config struct {
	MaxAttempts  int
	RetryBackoff time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = time.Second
	}
	return c
}

// Coordinator owns the cancel-then-place protocol for all groups. Stateless
// across cycles apart from the per-venue circuit breakers.
type Coordinator struct {
	cfg      Config
	venues   map[venue.ID]venue.Venue
	breakers map[venue.ID]*circuit.Breaker

	sleep func(ctx context.Context, d time.Duration) bool
	nowFn func() time.Time
}

func NewCoordinator(cfg Config, venues map[venue.ID]venue.Venue, breakers map[venue.ID]*circuit.Breaker) *Coordinator {
	return &Coordinator{
		cfg:      cfg.withDefaults(),
		venues:   venues,
		breakers: breakers,
		sleep:    sleepWithContext,
		nowFn:    time.Now,
	}
}

// Execute runs the per-cycle state machine for one evaluated group.
// CANCEL always precedes PLACE; the recorded outcomes keep that order.
func (c *Coordinator) Execute(ctx context.Context, res *engine.CycleResult) []Outcome {
	d := res.Decision
	target, resting := c.target(res)
	v := c.venues[target.Venue]

	var outcomes []Outcome

	if v == nil {
		// group evaluated against a venue the coordinator does not hold;
		// configuration bug, surface it loudly
		if !d.None() {
			outcomes = append(outcomes, c.outcome(res.Group, target, StagePlace, StatusFailed, "", "venue not wired: "+target.Venue.String(), 0))
		}
		return outcomes
	}

	if d.None() && len(resting) == 0 {
		outcomes = append(outcomes, c.outcome(res.Group, target, StagePlace, StatusSkipped, "", d.Reason, 0))
		return outcomes
	}

	if len(resting) > 0 {
		sig, attempts, err := c.submit(ctx, func() (string, error) {
			return v.CancelOrders(ctx, target.Symbol, orderIDs(resting))
		})
		if err != nil {
			outcomes = append(outcomes, c.outcome(res.Group, target, StageCancel, StatusFailed, "", err.Error(), attempts))
			logger.Warnf("[%s] cancel failed after %d attempts: %v", res.Group, attempts, err)
			return outcomes // FAILED: never place on top of unknown resting state
		}
		outcomes = append(outcomes, c.outcome(res.Group, target, StageCancel, StatusSuccess, sig, "", attempts))
	}

	if d.None() {
		outcomes = append(outcomes, c.outcome(res.Group, target, StagePlace, StatusSkipped, "", d.Reason, 0))
		return outcomes
	}

	if br := c.breakers[target.Venue]; br != nil && !br.Allow() {
		outcomes = append(outcomes, c.outcome(res.Group, target, StagePlace, StatusSkipped, "", "circuit open for "+target.Venue.String(), 0))
		return outcomes
	}

	// one client id for the whole attempt chain: retries resubmit the same
	// intent, they never re-derive it
	req := venue.OrderRequest{
		Symbol:   d.Symbol,
		Side:     d.Side,
		Price:    d.Price,
		Size:     d.Size,
		ClientID: "skew-" + uuid.NewString(),
		PostOnly: true,
	}
	sig, attempts, err := c.submit(ctx, func() (string, error) {
		return v.PlaceOrder(ctx, req)
	})
	if err != nil {
		if br := c.breakers[target.Venue]; br != nil {
			br.RecordFailure()
		}
		outcomes = append(outcomes, c.outcome(res.Group, target, StagePlace, StatusFailed, "", err.Error(), attempts))
		logger.Warnf("[%s] place %s %s failed after %d attempts: %v", res.Group, d.Side, d.Symbol, attempts, err)
		return outcomes
	}
	if br := c.breakers[target.Venue]; br != nil {
		br.RecordSuccess()
	}
	outcomes = append(outcomes, c.outcome(res.Group, target, StagePlace, StatusSuccess, sig, "", attempts))
	logger.Infof("[%s] placed %s %s size=%s price=%s sig=%s (attempts=%d)",
		res.Group, d.Side, d.Symbol, d.Size.StringFixed(6), d.Price.StringFixed(4), sig, attempts)
	return outcomes
}

// submit retries fn on the transient class with a fixed backoff, up to the
// configured cap. Any terminal error stops the chain immediately.
func (c *Coordinator) submit(ctx context.Context, fn func() (string, error)) (string, int, error) {
	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		sig, err := fn()
		if err == nil {
			return sig, attempt, nil
		}
		lastErr = err
		if !venue.IsTransient(err) {
			return "", attempt, err
		}
		if attempt == c.cfg.MaxAttempts {
			break
		}
		logger.Debugf("transient submit failure (attempt %d/%d): %v", attempt, c.cfg.MaxAttempts, err)
		if !c.sleep(ctx, c.cfg.RetryBackoff) {
			return "", attempt, ctx.Err()
		}
	}
	return "", c.cfg.MaxAttempts, lastErr
}

type targetMarket struct {
	Venue  venue.ID
	Symbol string
}

// target resolves which (venue, symbol) this cycle acts on: the decision's
// market, or the group primary when the decision is NONE, plus whatever is
// resting there.
func (c *Coordinator) target(res *engine.CycleResult) (targetMarket, []venue.Order) {
	t := targetMarket{Venue: res.Decision.Venue, Symbol: res.Decision.Symbol}
	if t.Symbol == "" && len(res.Views) > 0 {
		t = targetMarket{Venue: res.Views[0].Venue, Symbol: res.Views[0].Symbol}
	}
	for _, view := range res.Views {
		if view.Venue == t.Venue && view.Symbol == t.Symbol {
			return t, view.OpenOrders
		}
	}
	return t, nil
}

func (c *Coordinator) outcome(group string, t targetMarket, stage Stage, status Status, sig, errMsg string, attempts int) Outcome {
	return Outcome{
		Group:     group,
		Venue:     t.Venue,
		Symbol:    t.Symbol,
		Stage:     stage,
		Status:    status,
		Signature: sig,
		Err:       errMsg,
		Attempts:  attempts,
		At:        c.nowFn(),
	}
}

func orderIDs(orders []venue.Order) []string {
	out := make([]string, 0, len(orders))
	for _, o := range orders {
		out = append(out, o.ID)
	}
	return out
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
