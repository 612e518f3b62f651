package payment

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"marketplace-booking/httpServices/payments"
	"marketplace-booking/logger"
	bookingModel "marketplace-booking/models/booking"
	bookingSvc "marketplace-booking/services/booking"
	"marketplace-booking/types"

	"github.com/gofiber/fiber/v2"
	"github.com/omise/omise-go"
	"gorm.io/gorm"
)

// WebhookController receives payment processor callbacks.
type WebhookController struct {
	DB           *gorm.DB
	Payments     payments.Client
	Transitioner *bookingSvc.Transitioner
}

func NewWebhookController(db *gorm.DB, paymentClient payments.Client, transitioner *bookingSvc.Transitioner) *WebhookController {
	return &WebhookController{DB: db, Payments: paymentClient, Transitioner: transitioner}
}

// incomingEvent is the minimal envelope read from the delivery body. Only
// the event id is trusted; the event itself is re-fetched from the API.
type incomingEvent struct {
	ID  string `json:"id"`
	Key string `json:"key"`
}

// Handle processes one webhook delivery. Unknown keys and already-settled
// bookings are acknowledged with 200 so the processor stops retrying.
func (wc *WebhookController) Handle(c *fiber.Ctx) error {
	var inc incomingEvent
	if err := c.BodyParser(&inc); err != nil || inc.ID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid webhook payload",
			Data:    nil,
		})
	}

	ev, err := wc.Payments.RetrieveEvent(c.Context(), inc.ID)
	if err != nil {
		logger.Error(fmt.Sprintf("Webhook event %s could not be verified", inc.ID), err)
		return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
			Status:  fiber.StatusUnauthorized,
			Message: "Event verification failed",
			Data:    nil,
		})
	}

	switch ev.Key {
	case "charge.complete":
		if err := wc.handleChargeComplete(c, ev); err != nil {
			logger.Error(fmt.Sprintf("Webhook charge.complete handling failed for event %s", inc.ID), err)
		}
	default:
		logger.Debug(fmt.Sprintf("Webhook skipping event key %s", ev.Key))
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Event processed",
		Data:    nil,
	})
}

func (wc *WebhookController) handleChargeComplete(c *fiber.Ctx, ev *omise.Event) error {
	raw, err := json.Marshal(ev.Data)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}
	var ch omise.Charge
	if err := json.Unmarshal(raw, &ch); err != nil {
		return fmt.Errorf("unmarshal charge: %w", err)
	}

	state := payments.ChargeStateFromCharge(&ch)
	if state.BookingID == "" {
		return fmt.Errorf("charge %s carries no booking id", state.ChargeID)
	}

	bookingID, err := strconv.ParseUint(state.BookingID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid booking id %q on charge %s", state.BookingID, state.ChargeID)
	}

	var b bookingModel.Booking
	if err := wc.DB.First(&b, uint(bookingID)).Error; err != nil {
		return fmt.Errorf("load booking %d: %w", bookingID, err)
	}

	if !state.Successful {
		logger.Warning(fmt.Sprintf("Charge %s for booking %d did not succeed: %s %s",
			state.ChargeID, b.ID, state.FailureCode, state.FailureMessage))
		wc.Transitioner.PublishPaymentFailed(c.Context(), &b, state.ChargeID, state.FailureCode, state.FailureMessage)
		return nil
	}

	if b.Status != bookingModel.BookingStatusAccepted {
		// Sync polling already settled this booking.
		logger.Info(fmt.Sprintf("Booking %d already %s, webhook is a no-op", b.ID, b.Status))
		return nil
	}

	err = wc.Transitioner.Apply(c.Context(), &b, bookingModel.ActionMarkPaid, bookingModel.ActorPayment, "", "payment:"+state.ChargeID)
	if err != nil {
		var ite *bookingModel.InvalidTransitionError
		if errors.As(err, &ite) {
			logger.Info(fmt.Sprintf("Booking %d settled concurrently, webhook is a no-op", b.ID))
			return nil
		}
		return fmt.Errorf("mark booking %d paid: %w", b.ID, err)
	}

	wc.Transitioner.PublishPaymentPaid(c.Context(), &b, state.ChargeID, state.Amount, state.Currency)
	logger.Success(fmt.Sprintf("Booking %s marked paid via webhook charge %s", b.BookingNumber, state.ChargeID))
	return nil
}
