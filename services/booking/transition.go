package booking

import (
	"context"
	"fmt"
	"time"

	"marketplace-booking/logger"
	bookingModel "marketplace-booking/models/booking"
	"marketplace-booking/mq"
	"marketplace-booking/services/booking_event"

	"gorm.io/gorm"
)

// Transitioner applies lifecycle transitions and fans out the resulting
// events. It is the only code path that mutates Booking.Status.
type Transitioner struct {
	DB        *gorm.DB
	Publisher *mq.Publisher
}

func NewTransitioner(db *gorm.DB, publisher *mq.Publisher) *Transitioner {
	return &Transitioner{DB: db, Publisher: publisher}
}

// Apply validates the requested transition against the table, persists the
// status change plus its audit event in one transaction, and publishes the
// change after commit. An off-table request returns
// *booking.InvalidTransitionError and writes nothing.
func (t *Transitioner) Apply(ctx context.Context, b *bookingModel.Booking, action bookingModel.Action, actor bookingModel.Actor, reason string, actedBy string) error {
	to, err := bookingModel.Transition(b.Status, action, actor)
	if err != nil {
		return err
	}

	if bookingModel.RequiresReason(action) && reason == "" {
		return fmt.Errorf("a reason is required to %s a booking", action)
	}

	from := b.Status
	now := time.Now()

	err = t.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"status":     to,
			"updated_by": actedBy,
		}

		switch to {
		case bookingModel.BookingStatusPaid:
			updates["paid_at"] = now
		case bookingModel.BookingStatusCompleted:
			updates["completed_at"] = now
		case bookingModel.BookingStatusCanceledCustomer, bookingModel.BookingStatusCanceledProvider:
			updates["canceled_at"] = now
			updates["cancel_reason"] = reason
		case bookingModel.BookingStatusDeclined:
			updates["decline_reason"] = reason
		}

		// Guard against concurrent transitions: the row must still be in the
		// status the table was evaluated against.
		res := tx.Model(&bookingModel.Booking{}).
			Where("id = ? AND status = ?", b.ID, from).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return &bookingModel.InvalidTransitionError{From: from, Action: action, Actor: actor}
		}

		b.Status = to
		b.UpdatedBy = actedBy
		switch to {
		case bookingModel.BookingStatusPaid:
			b.PaidAt = &now
		case bookingModel.BookingStatusCompleted:
			b.CompletedAt = &now
		case bookingModel.BookingStatusCanceledCustomer, bookingModel.BookingStatusCanceledProvider:
			b.CanceledAt = &now
			b.CancelReason = &reason
		case bookingModel.BookingStatusDeclined:
			b.DeclineReason = &reason
		}

		var reasonPtr *string
		if reason != "" {
			reasonPtr = &reason
		}
		return booking_event.RecordStatusEvent(tx, b, from, action, actor, reasonPtr, actedBy)
	})
	if err != nil {
		return err
	}

	t.publishStatusChanged(ctx, b, from, action, actor, reason)
	return nil
}

// publishStatusChanged is best effort; a down broker never fails the request.
func (t *Transitioner) publishStatusChanged(ctx context.Context, b *bookingModel.Booking, from bookingModel.BookingStatus, action bookingModel.Action, actor bookingModel.Actor, reason string) {
	evt := mq.BookingStatusChanged{
		BookingID:     b.ID,
		BookingNumber: b.BookingNumber,
		FromStatus:    string(from),
		ToStatus:      string(b.Status),
		Action:        string(action),
		Actor:         string(actor),
		Reason:        reason,
		OccurredAt:    time.Now().UTC().Format(time.RFC3339),
	}
	key := mq.RKBookingStatusPrefix + string(b.Status)
	if err := t.Publisher.PublishJSON(ctx, key, evt); err != nil {
		logger.Warning(fmt.Sprintf("Failed to publish %s for booking %d: %v", key, b.ID, err))
	}
}

// PublishPaymentPaid announces a settled charge; best effort like the status
// events.
func (t *Transitioner) PublishPaymentPaid(ctx context.Context, b *bookingModel.Booking, chargeID string, amount int64, currency string) {
	evt := mq.PaymentPaid{
		BookingID: b.ID,
		ChargeID:  chargeID,
		Amount:    amount,
		Currency:  currency,
	}
	if err := t.Publisher.PublishJSON(ctx, mq.RKPaymentPaid, evt); err != nil {
		logger.Warning(fmt.Sprintf("Failed to publish payment.paid for booking %d: %v", b.ID, err))
	}
}

// PublishPaymentFailed announces a failed charge.
func (t *Transitioner) PublishPaymentFailed(ctx context.Context, b *bookingModel.Booking, chargeID, failureCode, failureMessage string) {
	evt := mq.PaymentFailed{
		BookingID:      b.ID,
		ChargeID:       chargeID,
		FailureCode:    failureCode,
		FailureMessage: failureMessage,
	}
	if err := t.Publisher.PublishJSON(ctx, mq.RKPaymentFailed, evt); err != nil {
		logger.Warning(fmt.Sprintf("Failed to publish payment.failed for booking %d: %v", b.ID, err))
	}
}
