package booking

import (
	"fmt"

	bookingModel "marketplace-booking/models/booking"
)

// BookingCreateRequest represents the request payload for creating a booking
type BookingCreateRequest struct {
	ServiceID   uint   `json:"service_id" validate:"required"`
	ScheduledAt string `json:"scheduled_at" validate:"omitempty"` // RFC3339, proposed by the customer
	Note        string `json:"note" validate:"omitempty,max=2000"`
}

func (r BookingCreateRequest) Validate() error {
	if r.ServiceID == 0 {
		return fmt.Errorf("service_id is required")
	}
	if len(r.Note) > 2000 {
		return fmt.Errorf("note must not exceed 2000 characters")
	}
	return nil
}

// BookingActionRequest is the single mutation payload for every lifecycle
// action. Reason is mandatory for decline and cancel, omitted otherwise.
type BookingActionRequest struct {
	BookingID uint   `json:"booking_id" validate:"required"`
	Action    string `json:"action" validate:"required"`
	Reason    string `json:"reason" validate:"omitempty"`
}

func (r BookingActionRequest) Validate() error {
	if r.BookingID == 0 {
		return fmt.Errorf("booking_id is required")
	}
	if r.Action == "" {
		return fmt.Errorf("action is required")
	}
	if bookingModel.RequiresReason(bookingModel.Action(r.Action)) && r.Reason == "" {
		return fmt.Errorf("a reason is required to %s a booking", r.Action)
	}
	return nil
}

// QuoteRequest lets the provider override the price before payment.
type QuoteRequest struct {
	BookingID   uint  `json:"booking_id" validate:"required"`
	QuotedPrice int64 `json:"quoted_price" validate:"required,gt=0"`
}

func (r QuoteRequest) Validate() error {
	if r.BookingID == 0 {
		return fmt.Errorf("booking_id is required")
	}
	if r.QuotedPrice <= 0 {
		return fmt.Errorf("quoted_price must be greater than zero")
	}
	return nil
}

// SyncPaymentRequest carries the checkout session hint from the return URL.
type SyncPaymentRequest struct {
	SessionID string `json:"session_id" validate:"omitempty,max=255"`
}

// BookingRow is the list/detail projection rendered for either side of the
// marketplace: the record plus status-derived display fields.
type BookingRow struct {
	Booking        bookingModel.Booking `json:"booking"`
	StatusLabel    string               `json:"status_label"`
	BadgeVariant   string               `json:"badge_variant"`
	NextStepHint   string               `json:"next_step_hint"`
	AllowedActions []string             `json:"allowed_actions"`
	Amount         int64                `json:"amount"`
	AmountDisplay  string               `json:"amount_display"`
}

// ProjectRow builds the projection for one booking as seen by the actor.
func ProjectRow(b bookingModel.Booking, actor bookingModel.Actor, formatAmount func(int64) string) BookingRow {
	actions := bookingModel.AllowedActions(b.Status, actor)
	names := make([]string, 0, len(actions))
	for _, a := range actions {
		names = append(names, string(a))
	}
	amount := b.Amount()
	return BookingRow{
		Booking:        b,
		StatusLabel:    b.Status.Label(),
		BadgeVariant:   b.Status.BadgeVariant(),
		NextStepHint:   b.Status.NextStepHint(actor),
		AllowedActions: names,
		Amount:         amount,
		AmountDisplay:  formatAmount(amount),
	}
}
