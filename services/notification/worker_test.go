package notification

import (
	"encoding/json"
	"strings"
	"testing"

	"marketplace-booking/mq"
)

type recordedNotification struct {
	subject string
	message string
}

type recordingNotifier struct {
	sent []recordedNotification
}

func (r *recordingNotifier) Notify(subject, message string) error {
	r.sent = append(r.sent, recordedNotification{subject: subject, message: message})
	return nil
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	return b
}

func TestHandleDeliveryBookingStatus(t *testing.T) {
	n := &recordingNotifier{}
	w := NewWorker(nil, n)

	body := mustJSON(t, mq.BookingStatusChanged{
		BookingID:     7,
		BookingNumber: "BK-7",
		FromStatus:    "pending",
		ToStatus:      "accepted",
		Action:        "accept",
		Actor:         "provider",
	})

	if err := w.HandleDelivery("booking.status.accepted", body); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(n.sent) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(n.sent))
	}
	if n.sent[0].subject != "Booking accepted" {
		t.Fatalf("unexpected subject %q", n.sent[0].subject)
	}
	if !strings.Contains(n.sent[0].message, "BK-7") {
		t.Fatalf("message should name the booking, got %q", n.sent[0].message)
	}
}

func TestHandleDeliveryBookingStatusWithReason(t *testing.T) {
	n := &recordingNotifier{}
	w := NewWorker(nil, n)

	body := mustJSON(t, mq.BookingStatusChanged{
		BookingNumber: "BK-8",
		FromStatus:    "pending",
		ToStatus:      "declined",
		Actor:         "provider",
		Reason:        "fully booked",
	})

	if err := w.HandleDelivery("booking.status.declined", body); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(n.sent[0].message, "Reason: fully booked") {
		t.Fatalf("reason missing from message %q", n.sent[0].message)
	}
}

func TestHandleDeliveryPaymentPaid(t *testing.T) {
	n := &recordingNotifier{}
	w := NewWorker(nil, n)

	body := mustJSON(t, mq.PaymentPaid{BookingID: 9, ChargeID: "chrg_1", Amount: 15000, Currency: "nzd"})

	if err := w.HandleDelivery(mq.RKPaymentPaid, body); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.sent[0].subject != "Payment received" {
		t.Fatalf("unexpected subject %q", n.sent[0].subject)
	}
	if !strings.Contains(n.sent[0].message, "NZD") {
		t.Fatalf("currency should be uppercased, got %q", n.sent[0].message)
	}
}

func TestHandleDeliveryPaymentFailed(t *testing.T) {
	n := &recordingNotifier{}
	w := NewWorker(nil, n)

	body := mustJSON(t, mq.PaymentFailed{BookingID: 9, ChargeID: "chrg_1", FailureCode: "insufficient_fund"})

	if err := w.HandleDelivery(mq.RKPaymentFailed, body); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.sent[0].subject != "Payment failed" {
		t.Fatalf("unexpected subject %q", n.sent[0].subject)
	}
	if !strings.Contains(n.sent[0].message, "insufficient_fund") {
		t.Fatalf("failure code missing from %q", n.sent[0].message)
	}
}

func TestHandleDeliverySkipsUnknownKeys(t *testing.T) {
	n := &recordingNotifier{}
	w := NewWorker(nil, n)

	if err := w.HandleDelivery("shipping.created", []byte(`{}`)); err != nil {
		t.Fatalf("unknown keys should be skipped, got %v", err)
	}
	if len(n.sent) != 0 {
		t.Fatalf("unknown keys should not notify, got %d", len(n.sent))
	}
}

func TestHandleDeliveryMalformedBody(t *testing.T) {
	n := &recordingNotifier{}
	w := NewWorker(nil, n)

	if err := w.HandleDelivery(mq.RKPaymentPaid, []byte("not json")); err == nil {
		t.Fatal("expected decode error for malformed body")
	}
	if len(n.sent) != 0 {
		t.Fatalf("malformed payloads should not notify, got %d", len(n.sent))
	}
}
