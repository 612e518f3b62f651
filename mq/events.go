package mq

import (
	"encoding/json"
	"fmt"
)

// Routing keys published by the API.
const (
	RKBookingStatusPrefix = "booking.status." // + target status

	RKPaymentPaid   = "payment.paid"
	RKPaymentFailed = "payment.failed"
)

// BookingStatusChanged is published after every committed transition.
type BookingStatusChanged struct {
	BookingID     uint   `json:"booking_id"`
	BookingNumber string `json:"booking_number"`
	FromStatus    string `json:"from_status"`
	ToStatus      string `json:"to_status"`
	Action        string `json:"action"`
	Actor         string `json:"actor"`
	Reason        string `json:"reason,omitempty"`
	OccurredAt    string `json:"occurred_at"` // RFC3339
}

type PaymentPaid struct {
	BookingID uint   `json:"booking_id"`
	ChargeID  string `json:"charge_id"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
}

type PaymentFailed struct {
	BookingID      uint   `json:"booking_id"`
	ChargeID       string `json:"charge_id"`
	FailureCode    string `json:"failure_code,omitempty"`
	FailureMessage string `json:"failure_message,omitempty"`
}

func MustUnmarshal[T any](b []byte) (T, error) {
	var t T
	if err := json.Unmarshal(b, &t); err != nil {
		var zero T
		return zero, fmt.Errorf("decode payload failed: %w", err)
	}
	return t, nil
}
