package notification

import (
	"context"
	"fmt"
	"strings"

	"marketplace-booking/logger"
	"marketplace-booking/mq"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Worker consumes booking and payment events and turns them into user facing
// notifications.
type Worker struct {
	consumer Consumer
	notifier Notifier
}

// Consumer narrows mq.Consumer to what the worker needs, so tests can feed
// deliveries without a broker.
type Consumer interface {
	Deliveries(ctx context.Context) (<-chan amqp.Delivery, error)
	Close() error
}

func NewWorker(consumer Consumer, n Notifier) *Worker {
	return &Worker{consumer: consumer, notifier: n}
}

// Run consumes deliveries until the context is canceled or the channel
// closes. Handler errors requeue the delivery.
func (w *Worker) Run(ctx context.Context) error {
	msgs, err := w.consumer.Deliveries(ctx)
	if err != nil {
		return fmt.Errorf("consume failed: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			if err := w.HandleDelivery(d.RoutingKey, d.Body); err != nil {
				logger.Warning(fmt.Sprintf("notify handle error key=%s err=%v, requeueing", d.RoutingKey, err))
				_ = d.Nack(false, true)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// HandleDelivery dispatches one event to the notifier.
func (w *Worker) HandleDelivery(key string, body []byte) error {
	switch {
	case strings.HasPrefix(key, mq.RKBookingStatusPrefix):
		ev, err := mq.MustUnmarshal[mq.BookingStatusChanged](body)
		if err != nil {
			return err
		}
		subject := fmt.Sprintf("Booking %s", strings.ReplaceAll(ev.ToStatus, "_", " "))
		msg := fmt.Sprintf("Booking %s moved from %s to %s by %s.", ev.BookingNumber, ev.FromStatus, ev.ToStatus, ev.Actor)
		if ev.Reason != "" {
			msg = fmt.Sprintf("%s Reason: %s", msg, ev.Reason)
		}
		return w.notifier.Notify(subject, msg)

	case key == mq.RKPaymentPaid:
		ev, err := mq.MustUnmarshal[mq.PaymentPaid](body)
		if err != nil {
			return err
		}
		return w.notifier.Notify("Payment received",
			fmt.Sprintf("Booking %d paid %d %s (charge=%s).", ev.BookingID, ev.Amount, strings.ToUpper(ev.Currency), ev.ChargeID))

	case key == mq.RKPaymentFailed:
		ev, err := mq.MustUnmarshal[mq.PaymentFailed](body)
		if err != nil {
			return err
		}
		msg := fmt.Sprintf("Payment failed for booking %d (charge=%s).", ev.BookingID, ev.ChargeID)
		if ev.FailureCode != "" || ev.FailureMessage != "" {
			msg = fmt.Sprintf("%s Reason: %s %s", msg, ev.FailureCode, ev.FailureMessage)
		}
		return w.notifier.Notify("Payment failed", msg)

	default:
		logger.Debug(fmt.Sprintf("notify skip unknown key=%s", key))
	}
	return nil
}
