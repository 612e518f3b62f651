package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRunImmediateSuccess(t *testing.T) {
	p := NewPoller(time.Hour, time.Hour)

	calls := 0
	outcome := p.Run(context.Background(), func(ctx context.Context) (bool, error) {
		calls++
		return true, nil
	})

	if outcome != OutcomeSucceeded {
		t.Fatalf("expected succeeded, got %s", outcome)
	}
	if calls != 1 {
		t.Fatalf("expected a single immediate check, got %d", calls)
	}
}

func TestRunEventualSuccess(t *testing.T) {
	p := NewPoller(5*time.Millisecond, time.Second)

	calls := 0
	outcome := p.Run(context.Background(), func(ctx context.Context) (bool, error) {
		calls++
		return calls >= 3, nil
	})

	if outcome != OutcomeSucceeded {
		t.Fatalf("expected succeeded, got %s", outcome)
	}
	if calls != 3 {
		t.Fatalf("expected 3 checks, got %d", calls)
	}
}

func TestRunCeilingExhaustion(t *testing.T) {
	p := NewPoller(5*time.Millisecond, 30*time.Millisecond)

	calls := 0
	outcome := p.Run(context.Background(), func(ctx context.Context) (bool, error) {
		calls++
		return false, nil
	})

	if outcome != OutcomeTimedOut {
		t.Fatalf("expected timed_out, got %s", outcome)
	}
	if calls < 2 {
		t.Fatalf("expected repeated checks before the ceiling, got %d", calls)
	}
}

func TestRunPredicateErrorsAreRetried(t *testing.T) {
	p := NewPoller(5*time.Millisecond, time.Second)

	calls := 0
	outcome := p.Run(context.Background(), func(ctx context.Context) (bool, error) {
		calls++
		if calls < 3 {
			return false, errors.New("transient fetch failure")
		}
		return true, nil
	})

	if outcome != OutcomeSucceeded {
		t.Fatalf("errors should not abort the run, got %s", outcome)
	}
}

func TestRunContextCancel(t *testing.T) {
	p := NewPoller(5*time.Millisecond, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	outcome := p.Run(ctx, func(ctx context.Context) (bool, error) {
		return false, nil
	})

	if outcome != OutcomeCanceled {
		t.Fatalf("expected canceled, got %s", outcome)
	}
}

func TestPollingState(t *testing.T) {
	p := NewPoller(time.Hour, time.Hour)
	if p.Polling() {
		t.Fatal("fresh poller should not report polling")
	}

	p.Run(context.Background(), func(ctx context.Context) (bool, error) {
		if !p.Polling() {
			t.Fatal("poller should report polling during a run")
		}
		return true, nil
	})

	if p.Polling() {
		t.Fatal("finished poller should not report polling")
	}
}
