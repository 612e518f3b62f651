package booking

import (
	"errors"
	"testing"
)

func TestTransitionHappyPath(t *testing.T) {
	steps := []struct {
		from   BookingStatus
		action Action
		actor  Actor
		want   BookingStatus
	}{
		{BookingStatusPending, ActionAccept, ActorProvider, BookingStatusAccepted},
		{BookingStatusAccepted, ActionMarkPaid, ActorPayment, BookingStatusPaid},
		{BookingStatusPaid, ActionMarkCompleted, ActorProvider, BookingStatusCompletedByProvider},
		{BookingStatusCompletedByProvider, ActionConfirmCompletion, ActorCustomer, BookingStatusCompleted},
	}

	for _, s := range steps {
		got, err := Transition(s.from, s.action, s.actor)
		if err != nil {
			t.Fatalf("%s %s by %s: unexpected error %v", s.from, s.action, s.actor, err)
		}
		if got != s.want {
			t.Fatalf("%s %s by %s: expected %s, got %s", s.from, s.action, s.actor, s.want, got)
		}
	}
}

func TestTransitionRejectsWrongActor(t *testing.T) {
	cases := []struct {
		from   BookingStatus
		action Action
		actor  Actor
	}{
		// Customers cannot accept their own requests.
		{BookingStatusPending, ActionAccept, ActorCustomer},
		// Only the payment actor marks paid.
		{BookingStatusAccepted, ActionMarkPaid, ActorCustomer},
		{BookingStatusAccepted, ActionMarkPaid, ActorProvider},
		// Providers cannot confirm completion on behalf of the customer.
		{BookingStatusCompletedByProvider, ActionConfirmCompletion, ActorProvider},
		// Customers cannot refund themselves.
		{BookingStatusPaid, ActionRefund, ActorCustomer},
	}

	for _, c := range cases {
		_, err := Transition(c.from, c.action, c.actor)
		if err == nil {
			t.Fatalf("%s %s by %s: expected error, got none", c.from, c.action, c.actor)
		}
		var ite *InvalidTransitionError
		if !errors.As(err, &ite) {
			t.Fatalf("%s %s by %s: expected InvalidTransitionError, got %T", c.from, c.action, c.actor, err)
		}
	}
}

func TestTerminalStatusesHaveNoTransitions(t *testing.T) {
	actors := []Actor{ActorCustomer, ActorProvider, ActorPayment, ActorAdmin}

	for _, status := range GetAllBookingStatuses() {
		if !status.IsTerminal() {
			continue
		}
		for _, actor := range actors {
			if actions := AllowedActions(status, actor); len(actions) != 0 {
				t.Fatalf("terminal status %s allows %v for %s", status, actions, actor)
			}
		}
	}
}

func TestDisputedHasNoOutgoingTransitions(t *testing.T) {
	for _, actor := range []Actor{ActorCustomer, ActorProvider, ActorPayment, ActorAdmin} {
		if actions := AllowedActions(BookingStatusDisputed, actor); len(actions) != 0 {
			t.Fatalf("disputed allows %v for %s", actions, actor)
		}
	}

	// Disputed stays open awaiting resolution; it is not a closed record.
	if BookingStatusDisputed.IsTerminal() {
		t.Fatal("disputed must not report terminal")
	}
}

func TestAllowedActionsStableOrder(t *testing.T) {
	first := AllowedActions(BookingStatusPending, ActorProvider)
	for i := 0; i < 50; i++ {
		again := AllowedActions(BookingStatusPending, ActorProvider)
		if len(again) != len(first) {
			t.Fatalf("iteration %d: length changed from %d to %d", i, len(first), len(again))
		}
		for j := range first {
			if again[j] != first[j] {
				t.Fatalf("iteration %d: order changed at %d, %s vs %s", i, j, first[j], again[j])
			}
		}
	}

	if len(first) != 2 || first[0] != ActionAccept || first[1] != ActionDecline {
		t.Fatalf("expected [accept decline] for pending provider, got %v", first)
	}
}

func TestAdminAndPaymentCanDisputeAndRefund(t *testing.T) {
	for _, from := range []BookingStatus{BookingStatusPaid, BookingStatusCompleted} {
		for _, actor := range []Actor{ActorAdmin, ActorPayment} {
			if got, err := Transition(from, ActionDispute, actor); err != nil || got != BookingStatusDisputed {
				t.Fatalf("dispute %s by %s: got %s, %v", from, actor, got, err)
			}
			if got, err := Transition(from, ActionRefund, actor); err != nil || got != BookingStatusRefunded {
				t.Fatalf("refund %s by %s: got %s, %v", from, actor, got, err)
			}
		}
	}
}

func TestRequiresReason(t *testing.T) {
	if !RequiresReason(ActionDecline) {
		t.Fatal("decline should require a reason")
	}
	if !RequiresReason(ActionCancel) {
		t.Fatal("cancel should require a reason")
	}
	if RequiresReason(ActionAccept) {
		t.Fatal("accept should not require a reason")
	}
	if RequiresReason(ActionMarkPaid) {
		t.Fatal("mark_paid should not require a reason")
	}
}

func TestResolveAmount(t *testing.T) {
	quote := int64(15000)
	if got := ResolveAmount(&quote, 10000); got != 15000 {
		t.Fatalf("expected quote to win, got %d", got)
	}
	if got := ResolveAmount(nil, 10000); got != 10000 {
		t.Fatalf("expected booking price without quote, got %d", got)
	}
	zero := int64(0)
	if got := ResolveAmount(&zero, 10000); got != 10000 {
		t.Fatalf("zero quote should fall back to booking price, got %d", got)
	}
}

func TestLabelAndBadgeTolerateUnknown(t *testing.T) {
	unknown := BookingStatus("something_new")
	if unknown.Label() != "Other" {
		t.Fatalf("expected Other label, got %q", unknown.Label())
	}
	if unknown.BadgeVariant() != "secondary" {
		t.Fatalf("expected secondary badge, got %q", unknown.BadgeVariant())
	}
	if unknown.IsValid() {
		t.Fatal("unknown status should not be valid")
	}
}
