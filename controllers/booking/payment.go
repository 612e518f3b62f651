package booking

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"marketplace-booking/httpServices/payments"
	"marketplace-booking/logger"
	bookingModel "marketplace-booking/models/booking"
	providerModel "marketplace-booking/models/provider"
	"marketplace-booking/services/reconcile"
	"marketplace-booking/types"
	bookingTypes "marketplace-booking/types/booking"
	"marketplace-booking/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Pay initiates hosted checkout for an accepted booking and returns the URL
// the customer must be redirected to.
func (bc *BookingController) Pay(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return bc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid booking id",
			Data:    nil,
		})
	}

	userInfo, err := bc.currentUser(c)
	if err != nil {
		return bc.sendResponseWithLog(c, fiber.StatusUnauthorized, types.ApiResponse{
			Message: "User not found",
			Status:  fiber.StatusUnauthorized,
			Data:    nil,
		})
	}

	booking, err := bc.loadBooking(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return bc.sendResponseWithLog(c, fiber.StatusNotFound, types.ApiResponse{
				Status:  fiber.StatusNotFound,
				Message: "Booking not found",
				Data:    nil,
			})
		}
		logger.Error("Failed to load booking", err)
		return bc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Database error",
			Data:    nil,
		})
	}

	if booking.CustomerID != userInfo.ID {
		return bc.sendResponseWithLog(c, fiber.StatusForbidden, types.ApiResponse{
			Status:  fiber.StatusForbidden,
			Message: "Only the customer can pay for this booking",
			Data:    nil,
		})
	}

	if booking.Status != bookingModel.BookingStatusAccepted {
		return bc.sendResponseWithLog(c, fiber.StatusConflict, types.ApiResponse{
			Status:  fiber.StatusConflict,
			Message: fmt.Sprintf("Cannot pay for a %s booking", booking.Status),
			Data:    nil,
		})
	}

	var prov providerModel.Provider
	if err := bc.DB.First(&prov, booking.ProviderID).Error; err != nil {
		logger.Error("Failed to load provider for payment", err)
		return bc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Database error",
			Data:    nil,
		})
	}

	if !prov.CanBePaid() {
		return bc.sendResponseWithLog(c, fiber.StatusUnprocessableEntity, types.ApiResponse{
			Status:  fiber.StatusUnprocessableEntity,
			Message: "Provider is not yet verified to receive payments",
			Data:    nil,
		})
	}

	amount := booking.Amount()
	checkout, err := bc.Payments.CreateCheckout(c.Context(), strconv.FormatUint(uint64(booking.ID), 10), amount, bc.Cfg.Currency)
	if err != nil {
		logger.Error(fmt.Sprintf("Checkout creation failed for booking %d", booking.ID), err)
		return bc.sendResponseWithLog(c, fiber.StatusBadGateway, types.ApiResponse{
			Status:  fiber.StatusBadGateway,
			Message: "Failed to start checkout with the payment processor",
			Data:    nil,
		})
	}

	err = bc.DB.Model(&bookingModel.Booking{}).
		Where("id = ?", booking.ID).
		Updates(map[string]interface{}{
			"payment_intent_id":   checkout.ChargeID,
			"checkout_session_id": checkout.SessionID,
			"updated_by":          userInfo.Uuid,
		}).Error
	if err != nil {
		logger.Error("Failed to store checkout references", err)
		return bc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to store checkout state",
			Data:    nil,
		})
	}

	logger.Success(fmt.Sprintf("Checkout started for booking %s charge %s", booking.BookingNumber, checkout.ChargeID))
	return bc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Checkout created successfully",
		Data:    map[string]interface{}{"url": checkout.URL},
	})
}

// reconcileCharge fetches the charge state for a booking and applies
// mark_paid when the processor reports success. Already-paid bookings
// short-circuit to true. Returns whether the booking is paid.
func (bc *BookingController) reconcileCharge(ctx context.Context, bookingID uint) (bool, error) {
	booking, err := bc.loadBooking(bookingID)
	if err != nil {
		return false, err
	}

	if booking.Status != bookingModel.BookingStatusAccepted {
		// Paid, or moved elsewhere; either way there is nothing to apply.
		return booking.Status == bookingModel.BookingStatusPaid ||
			booking.Status == bookingModel.BookingStatusCompletedByProvider ||
			booking.Status == bookingModel.BookingStatusCompleted, nil
	}

	if booking.PaymentIntentID == nil || *booking.PaymentIntentID == "" {
		return false, errors.New("no payment has been initiated for this booking")
	}

	state, err := bc.Payments.RetrieveCharge(ctx, *booking.PaymentIntentID)
	if err != nil {
		return false, err
	}

	return bc.applyChargeState(ctx, booking, state)
}

// applyChargeState moves an accepted booking to paid for a successful charge
// and publishes the payment outcome.
func (bc *BookingController) applyChargeState(ctx context.Context, booking *bookingModel.Booking, state *payments.ChargeState) (bool, error) {
	if state.Failed {
		bc.Transitioner.PublishPaymentFailed(ctx, booking, state.ChargeID, state.FailureCode, state.FailureMessage)
		return false, nil
	}
	if !state.Successful {
		return false, nil
	}

	err := bc.Transitioner.Apply(ctx, booking, bookingModel.ActionMarkPaid, bookingModel.ActorPayment, "", "payment:"+state.ChargeID)
	if err != nil {
		var ite *bookingModel.InvalidTransitionError
		if errors.As(err, &ite) {
			// Lost the race against the webhook; the booking is already paid.
			return true, nil
		}
		return false, err
	}

	bc.Transitioner.PublishPaymentPaid(ctx, booking, state.ChargeID, state.Amount, state.Currency)
	return true, nil
}

// SyncPayment reconciles one booking against the processor on demand. Safe
// to call repeatedly; an already-paid booking reports paid without any side
// effects.
func (bc *BookingController) SyncPayment(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return bc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid booking id",
			Data:    nil,
		})
	}

	var req bookingTypes.SyncPaymentRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			logger.Error("Failed to parse request body", err)
			return bc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
				Status:  fiber.StatusBadRequest,
				Message: "Invalid request body",
				Data:    nil,
			})
		}
	}

	userInfo, err := bc.currentUser(c)
	if err != nil {
		return bc.sendResponseWithLog(c, fiber.StatusUnauthorized, types.ApiResponse{
			Message: "User not found",
			Status:  fiber.StatusUnauthorized,
			Data:    nil,
		})
	}

	booking, err := bc.loadBooking(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return bc.sendResponseWithLog(c, fiber.StatusNotFound, types.ApiResponse{
				Status:  fiber.StatusNotFound,
				Message: "Booking not found",
				Data:    nil,
			})
		}
		logger.Error("Failed to load booking", err)
		return bc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Database error",
			Data:    nil,
		})
	}

	if _, err := bc.actorFor(userInfo, booking); err != nil {
		return bc.sendResponseWithLog(c, fiber.StatusForbidden, types.ApiResponse{
			Status:  fiber.StatusForbidden,
			Message: "You are not a party to this booking",
			Data:    nil,
		})
	}

	if req.SessionID != "" {
		if booking.CheckoutSessionID != nil && *booking.CheckoutSessionID != "" &&
			*booking.CheckoutSessionID != req.SessionID {
			return bc.sendResponseWithLog(c, fiber.StatusConflict, types.ApiResponse{
				Status:  fiber.StatusConflict,
				Message: "session_id does not belong to this booking's checkout",
				Data:    nil,
			})
		}
		// The return URL can land before the checkout references are read
		// back; keep the hint so the session stays traceable.
		if booking.CheckoutSessionID == nil || *booking.CheckoutSessionID == "" {
			err := bc.DB.Model(&bookingModel.Booking{}).
				Where("id = ?", booking.ID).
				Update("checkout_session_id", req.SessionID).Error
			if err != nil {
				logger.Error("Failed to store checkout session hint", err)
			}
		}
	}

	paid, err := bc.reconcileCharge(c.Context(), booking.ID)
	if err != nil {
		logger.Error(fmt.Sprintf("Payment sync failed for booking %d", booking.ID), err)
		return bc.sendResponseWithLog(c, fiber.StatusBadGateway, types.ApiResponse{
			Status:  fiber.StatusBadGateway,
			Message: "Failed to reconcile payment with the processor",
			Data:    nil,
		})
	}

	refreshed, err := bc.loadBooking(booking.ID)
	if err != nil {
		logger.Error("Failed to reload booking after sync", err)
		return bc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Database error",
			Data:    nil,
		})
	}

	row := bookingTypes.ProjectRow(*refreshed, bookingModel.ActorCustomer, utils.FormatAmountNZD)
	return bc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Payment state synchronized",
		Data: map[string]interface{}{
			"paid":    paid,
			"booking": row,
		},
	})
}

// PaymentReturn handles the customer landing back from the hosted checkout.
// Processor settlement can lag the redirect, so the handler polls on a fixed
// interval up to a hard ceiling, then gives up gracefully with whatever state
// was last observed. Giving up is a 200, not an error; the webhook will
// still settle the booking eventually.
func (bc *BookingController) PaymentReturn(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Query("booking_id"))
	if err != nil || id <= 0 {
		return bc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "booking_id query parameter is required",
			Data:    nil,
		})
	}

	userInfo, err := bc.currentUser(c)
	if err != nil {
		return bc.sendResponseWithLog(c, fiber.StatusUnauthorized, types.ApiResponse{
			Message: "User not found",
			Status:  fiber.StatusUnauthorized,
			Data:    nil,
		})
	}

	booking, err := bc.loadBooking(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return bc.sendResponseWithLog(c, fiber.StatusNotFound, types.ApiResponse{
				Status:  fiber.StatusNotFound,
				Message: "Booking not found",
				Data:    nil,
			})
		}
		logger.Error("Failed to load booking", err)
		return bc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Database error",
			Data:    nil,
		})
	}

	if booking.CustomerID != userInfo.ID {
		return bc.sendResponseWithLog(c, fiber.StatusForbidden, types.ApiResponse{
			Status:  fiber.StatusForbidden,
			Message: "You are not a party to this booking",
			Data:    nil,
		})
	}

	interval, ceiling := bc.pollDurations()
	poller := reconcile.NewPoller(interval, ceiling)
	outcome := poller.Run(c.Context(), func(ctx context.Context) (bool, error) {
		return bc.reconcileCharge(ctx, booking.ID)
	})

	refreshed, err := bc.loadBooking(booking.ID)
	if err != nil {
		logger.Error("Failed to reload booking after return polling", err)
		return bc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Database error",
			Data:    nil,
		})
	}

	message := "Payment confirmed"
	if outcome != reconcile.OutcomeSucceeded {
		message = "Payment is still processing; it will be confirmed shortly"
	}
	logger.Info(fmt.Sprintf("Payment return for booking %s finished with outcome %s", booking.BookingNumber, outcome))

	row := bookingTypes.ProjectRow(*refreshed, bookingModel.ActorCustomer, utils.FormatAmountNZD)
	return bc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: message,
		Data: map[string]interface{}{
			"outcome": outcome,
			"booking": row,
		},
	})
}
