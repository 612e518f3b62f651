package reconcile

import (
	"context"
	"time"
)

// Outcome is the terminal state of one polling run.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeTimedOut  Outcome = "timed_out"
	OutcomeCanceled  Outcome = "canceled"
)

// state is the poller's internal lifecycle.
type state int

const (
	stateIdle state = iota
	statePolling
	stateDone
)

// Predicate reports whether the condition being waited on has been observed.
// Errors are treated as "not yet" so a flaky fetch never aborts the run.
type Predicate func(ctx context.Context) (bool, error)

// Poller runs a bounded, cancelable retry loop: evaluate the predicate every
// Interval until it reports true or Ceiling elapses. Used after the checkout
// redirect to wait for the paid status to land.
type Poller struct {
	Interval time.Duration
	Ceiling  time.Duration

	st state
}

// NewPoller returns a poller with the given tick interval and total ceiling.
func NewPoller(interval, ceiling time.Duration) *Poller {
	return &Poller{Interval: interval, Ceiling: ceiling, st: stateIdle}
}

// Run drives the loop to one of the three outcomes. The predicate is checked
// once immediately, then on every tick. Ceiling exhaustion is not an error;
// callers treat it as "give up and show whatever was last observed". The
// ticker and timer are always released before returning.
func (p *Poller) Run(ctx context.Context, check Predicate) Outcome {
	p.st = statePolling
	defer func() { p.st = stateDone }()

	if ok, _ := check(ctx); ok {
		return OutcomeSucceeded
	}

	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()
	deadline := time.NewTimer(p.Ceiling)
	defer deadline.Stop()

	for {
		select {
		case <-ctx.Done():
			return OutcomeCanceled
		case <-deadline.C:
			return OutcomeTimedOut
		case <-ticker.C:
			if ok, _ := check(ctx); ok {
				return OutcomeSucceeded
			}
		}
	}
}

// Polling reports whether a run is currently in flight.
func (p *Poller) Polling() bool {
	return p.st == statePolling
}
