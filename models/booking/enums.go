package booking

import "fmt"

// BookingStatus is the canonical lifecycle vocabulary. The set is closed for
// transition purposes but display helpers tolerate unknown values.
type BookingStatus string

const (
	BookingStatusPending             BookingStatus = "pending"
	BookingStatusAccepted            BookingStatus = "accepted"
	BookingStatusDeclined            BookingStatus = "declined"
	BookingStatusPaid                BookingStatus = "paid"
	BookingStatusCompletedByProvider BookingStatus = "completed_by_provider"
	BookingStatusCompleted           BookingStatus = "completed"
	BookingStatusCanceledCustomer    BookingStatus = "canceled_customer"
	BookingStatusCanceledProvider    BookingStatus = "canceled_provider"
	BookingStatusDisputed            BookingStatus = "disputed"
	BookingStatusRefunded            BookingStatus = "refunded"
)

// Actor identifies who is requesting a transition.
type Actor string

const (
	ActorCustomer Actor = "customer"
	ActorProvider Actor = "provider"
	ActorPayment  Actor = "payment"
	ActorAdmin    Actor = "admin"
)

// Action is a requested lifecycle mutation.
type Action string

const (
	ActionAccept            Action = "accept"
	ActionDecline           Action = "decline"
	ActionCancel            Action = "cancel"
	ActionMarkPaid          Action = "mark_paid"
	ActionMarkCompleted     Action = "mark_completed"
	ActionConfirmCompletion Action = "confirm_completion"
	ActionDispute           Action = "dispute"
	ActionRefund            Action = "refund"
)

// InvalidTransitionError reports a transition request outside the table.
type InvalidTransitionError struct {
	From   BookingStatus
	Action Action
	Actor  Actor
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition: %s cannot %s a %s booking", e.Actor, e.Action, e.From)
}

type transitionKey struct {
	from   BookingStatus
	action Action
	actor  Actor
}

// transitions is the single source of truth for legal status changes.
var transitions = map[transitionKey]BookingStatus{
	{BookingStatusPending, ActionAccept, ActorProvider}:  BookingStatusAccepted,
	{BookingStatusPending, ActionDecline, ActorProvider}: BookingStatusDeclined,
	{BookingStatusPending, ActionCancel, ActorCustomer}:  BookingStatusCanceledCustomer,

	{BookingStatusAccepted, ActionMarkPaid, ActorPayment}: BookingStatusPaid,
	{BookingStatusAccepted, ActionCancel, ActorCustomer}:  BookingStatusCanceledCustomer,
	{BookingStatusAccepted, ActionCancel, ActorProvider}:  BookingStatusCanceledProvider,

	{BookingStatusPaid, ActionMarkCompleted, ActorProvider}:                 BookingStatusCompletedByProvider,
	{BookingStatusCompletedByProvider, ActionConfirmCompletion, ActorCustomer}: BookingStatusCompleted,

	{BookingStatusPaid, ActionDispute, ActorAdmin}:        BookingStatusDisputed,
	{BookingStatusPaid, ActionDispute, ActorPayment}:      BookingStatusDisputed,
	{BookingStatusCompleted, ActionDispute, ActorAdmin}:   BookingStatusDisputed,
	{BookingStatusCompleted, ActionDispute, ActorPayment}: BookingStatusDisputed,

	{BookingStatusPaid, ActionRefund, ActorAdmin}:        BookingStatusRefunded,
	{BookingStatusPaid, ActionRefund, ActorPayment}:      BookingStatusRefunded,
	{BookingStatusCompleted, ActionRefund, ActorAdmin}:   BookingStatusRefunded,
	{BookingStatusCompleted, ActionRefund, ActorPayment}: BookingStatusRefunded,
}

// actionOrder keeps AllowedActions deterministic.
var actionOrder = []Action{
	ActionAccept,
	ActionDecline,
	ActionCancel,
	ActionMarkPaid,
	ActionMarkCompleted,
	ActionConfirmCompletion,
	ActionDispute,
	ActionRefund,
}

// Transition resolves the target status for (from, action, actor), or an
// *InvalidTransitionError. Requests outside the table never apply silently.
func Transition(from BookingStatus, action Action, actor Actor) (BookingStatus, error) {
	to, ok := transitions[transitionKey{from, action, actor}]
	if !ok {
		return "", &InvalidTransitionError{From: from, Action: action, Actor: actor}
	}
	return to, nil
}

// AllowedActions returns the actions legal for the actor from the given
// status, in a stable order.
func AllowedActions(from BookingStatus, actor Actor) []Action {
	var out []Action
	for _, a := range actionOrder {
		if _, ok := transitions[transitionKey{from, a, actor}]; ok {
			out = append(out, a)
		}
	}
	return out
}

// RequiresReason reports whether an action must carry non-empty reason text.
func RequiresReason(action Action) bool {
	return action == ActionDecline || action == ActionCancel
}

// Helper methods for BookingStatus
func (bs BookingStatus) String() string {
	return string(bs)
}

func (bs BookingStatus) IsValid() bool {
	switch bs {
	case BookingStatusPending, BookingStatusAccepted, BookingStatusDeclined,
		BookingStatusPaid, BookingStatusCompletedByProvider, BookingStatusCompleted,
		BookingStatusCanceledCustomer, BookingStatusCanceledProvider,
		BookingStatusDisputed, BookingStatusRefunded:
		return true
	default:
		return false
	}
}

// IsTerminal returns true when the booking record is closed for good.
// Disputed is not terminal: nothing transitions out of it yet, but it is
// held open awaiting resolution rather than closed.
func (bs BookingStatus) IsTerminal() bool {
	switch bs {
	case BookingStatusDeclined, BookingStatusCanceledCustomer,
		BookingStatusCanceledProvider, BookingStatusCompleted, BookingStatusRefunded:
		return true
	default:
		return false
	}
}

// Label returns the display label; unknown statuses fall through to "Other".
func (bs BookingStatus) Label() string {
	switch bs {
	case BookingStatusPending:
		return "Pending"
	case BookingStatusAccepted:
		return "Accepted"
	case BookingStatusDeclined:
		return "Declined"
	case BookingStatusPaid:
		return "Paid"
	case BookingStatusCompletedByProvider:
		return "Awaiting confirmation"
	case BookingStatusCompleted:
		return "Completed"
	case BookingStatusCanceledCustomer:
		return "Canceled by customer"
	case BookingStatusCanceledProvider:
		return "Canceled by provider"
	case BookingStatusDisputed:
		return "Disputed"
	case BookingStatusRefunded:
		return "Refunded"
	default:
		return "Other"
	}
}

// BadgeVariant maps a status to its badge style; unknown values render as
// secondary rather than failing.
func (bs BookingStatus) BadgeVariant() string {
	switch bs {
	case BookingStatusPending:
		return "warning"
	case BookingStatusAccepted, BookingStatusCompletedByProvider:
		return "info"
	case BookingStatusPaid, BookingStatusCompleted:
		return "success"
	case BookingStatusDeclined, BookingStatusCanceledCustomer,
		BookingStatusCanceledProvider, BookingStatusDisputed, BookingStatusRefunded:
		return "destructive"
	default:
		return "secondary"
	}
}

// NextStepHint is a pure function of status and viewer role.
func (bs BookingStatus) NextStepHint(actor Actor) string {
	switch bs {
	case BookingStatusPending:
		if actor == ActorProvider {
			return "Accept or decline this request"
		}
		return "Waiting for the provider to respond"
	case BookingStatusAccepted:
		if actor == ActorCustomer {
			return "Pay now to confirm your booking"
		}
		return "Waiting for customer payment"
	case BookingStatusPaid:
		if actor == ActorProvider {
			return "Mark the work as done when finished"
		}
		return "Waiting for the provider to finish the job"
	case BookingStatusCompletedByProvider:
		if actor == ActorCustomer {
			return "Confirm completion to release payment"
		}
		return "Waiting for customer confirmation"
	case BookingStatusCompleted:
		if actor == ActorCustomer {
			return "Leave a review"
		}
		return "Job complete"
	case BookingStatusDisputed:
		return "Under review by the marketplace"
	default:
		if bs.IsTerminal() {
			return "No further action required"
		}
		return ""
	}
}

// GetAllBookingStatuses returns all valid booking statuses
func GetAllBookingStatuses() []BookingStatus {
	return []BookingStatus{
		BookingStatusPending,
		BookingStatusAccepted,
		BookingStatusDeclined,
		BookingStatusPaid,
		BookingStatusCompletedByProvider,
		BookingStatusCompleted,
		BookingStatusCanceledCustomer,
		BookingStatusCanceledProvider,
		BookingStatusDisputed,
		BookingStatusRefunded,
	}
}

// ResolveAmount returns the authoritative amount to charge in minor currency
// units: a positive provider quote supersedes the price at booking. Every
// place that charges, displays or reports an amount goes through here.
func ResolveAmount(quoted *int64, priceAtBooking int64) int64 {
	if quoted != nil && *quoted > 0 {
		return *quoted
	}
	return priceAtBooking
}
