package booking

import (
	"errors"
	"fmt"
	"time"

	"marketplace-booking/logger"
	bookingModel "marketplace-booking/models/booking"
	providerModel "marketplace-booking/models/provider"
	serviceModel "marketplace-booking/models/service"
	"marketplace-booking/types"
	bookingTypes "marketplace-booking/types/booking"
	"marketplace-booking/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Store creates a new booking against an active service. The booking starts
// pending and captures the service price at request time.
func (bc *BookingController) Store(c *fiber.Ctx) error {
	var req bookingTypes.BookingCreateRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return bc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
			Data:    nil,
		})
	}

	if err := req.Validate(); err != nil {
		return bc.sendResponseWithLog(c, fiber.StatusUnprocessableEntity, types.ApiResponse{
			Status:  fiber.StatusUnprocessableEntity,
			Message: err.Error(),
			Data:    nil,
		})
	}

	userInfo, err := bc.currentUser(c)
	if err != nil {
		logger.Error("Error finding user by UUID", err)
		return bc.sendResponseWithLog(c, fiber.StatusUnauthorized, types.ApiResponse{
			Message: "User not found",
			Status:  fiber.StatusUnauthorized,
			Data:    nil,
		})
	}

	var svc serviceModel.Service
	if err := bc.DB.First(&svc, req.ServiceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return bc.sendResponseWithLog(c, fiber.StatusNotFound, types.ApiResponse{
				Status:  fiber.StatusNotFound,
				Message: "Service not found",
				Data:    nil,
			})
		}
		logger.Error("Database error while loading service", err)
		return bc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Database error",
			Data:    nil,
		})
	}

	if !svc.Active {
		return bc.sendResponseWithLog(c, fiber.StatusUnprocessableEntity, types.ApiResponse{
			Status:  fiber.StatusUnprocessableEntity,
			Message: "Service is not available for booking",
			Data:    nil,
		})
	}

	var prov providerModel.Provider
	if err := bc.DB.First(&prov, svc.ProviderID).Error; err != nil {
		logger.Error("Database error while loading provider", err)
		return bc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Database error",
			Data:    nil,
		})
	}

	if !prov.CanTakeBookings() {
		return bc.sendResponseWithLog(c, fiber.StatusUnprocessableEntity, types.ApiResponse{
			Status:  fiber.StatusUnprocessableEntity,
			Message: "Provider is not accepting bookings",
			Data:    nil,
		})
	}

	var scheduledAt *time.Time
	if req.ScheduledAt != "" {
		t, err := time.Parse(time.RFC3339, req.ScheduledAt)
		if err != nil {
			return bc.sendResponseWithLog(c, fiber.StatusUnprocessableEntity, types.ApiResponse{
				Status:  fiber.StatusUnprocessableEntity,
				Message: "scheduled_at must be an RFC3339 timestamp",
				Data:    nil,
			})
		}
		scheduledAt = &t
	}

	var booking bookingModel.Booking

	err = bc.DB.Transaction(func(tx *gorm.DB) error {
		booking = bookingModel.Booking{
			BookingNumber:  utils.NewBookingNumber(),
			ServiceID:      svc.ID,
			ProviderID:     prov.ID,
			CustomerID:     userInfo.ID,
			Status:         bookingModel.BookingStatusPending,
			PriceAtBooking: svc.Price,
			ScheduledAt:    scheduledAt,
			Note:           req.Note,
			CreatedBy:      userInfo.Uuid,
		}

		if err := tx.Create(&booking).Error; err != nil {
			logger.Error("Failed to create booking", err)
			return err
		}

		return nil
	})

	if err != nil {
		return bc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to save booking",
			Data:    nil,
		})
	}

	logger.Success(fmt.Sprintf("Booking created successfully with number: %s", booking.BookingNumber))

	created, err := bc.loadBooking(booking.ID)
	if err != nil {
		logger.Error("Failed to load created booking data", err)
		return bc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Booking created but failed to retrieve complete data",
			Data:    nil,
		})
	}

	row := bookingTypes.ProjectRow(*created, bookingModel.ActorCustomer, utils.FormatAmountNZD)
	return bc.sendResponseWithLog(c, fiber.StatusCreated, types.ApiResponse{
		Status:  fiber.StatusCreated,
		Message: "Booking created successfully",
		Data:    row,
	})
}

// MyBookings lists the authenticated customer's bookings, newest first, with
// the customer-side projection applied.
func (bc *BookingController) MyBookings(c *fiber.Ctx) error {
	userInfo, err := bc.currentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
			Message: "User not found",
			Status:  fiber.StatusUnauthorized,
			Data:    nil,
		})
	}

	var bookings []bookingModel.Booking
	err = bc.DB.WithContext(c.Context()).
		Preload("Service").Preload("Provider").Preload("Customer").
		Where("customer_id = ?", userInfo.ID).
		Order("created_at DESC").
		Find(&bookings).Error
	if err != nil {
		logger.Error("Failed to list customer bookings", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Database error",
			Data:    nil,
		})
	}

	rows := make([]bookingTypes.BookingRow, 0, len(bookings))
	for _, b := range bookings {
		rows = append(rows, bookingTypes.ProjectRow(b, bookingModel.ActorCustomer, utils.FormatAmountNZD))
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Bookings fetched successfully",
		Data:    rows,
	})
}

// ProviderBookings lists bookings addressed to the authenticated provider.
func (bc *BookingController) ProviderBookings(c *fiber.Ctx) error {
	userInfo, err := bc.currentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
			Message: "User not found",
			Status:  fiber.StatusUnauthorized,
			Data:    nil,
		})
	}

	prov, err := bc.ensureProviderProfile(userInfo)
	if err != nil {
		return c.Status(fiber.StatusForbidden).JSON(types.ApiResponse{
			Message: "Provider profile not found",
			Status:  fiber.StatusForbidden,
			Data:    nil,
		})
	}

	var bookings []bookingModel.Booking
	err = bc.DB.WithContext(c.Context()).
		Preload("Service").Preload("Provider").Preload("Customer").
		Where("provider_id = ?", prov.ID).
		Order("created_at DESC").
		Find(&bookings).Error
	if err != nil {
		logger.Error("Failed to list provider bookings", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Database error",
			Data:    nil,
		})
	}

	rows := make([]bookingTypes.BookingRow, 0, len(bookings))
	for _, b := range bookings {
		rows = append(rows, bookingTypes.ProjectRow(b, bookingModel.ActorProvider, utils.FormatAmountNZD))
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Bookings fetched successfully",
		Data:    rows,
	})
}

// Show returns one booking with the projection for the requesting party.
func (bc *BookingController) Show(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid booking id",
			Data:    nil,
		})
	}

	userInfo, err := bc.currentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
			Message: "User not found",
			Status:  fiber.StatusUnauthorized,
			Data:    nil,
		})
	}

	booking, err := bc.loadBooking(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(types.ApiResponse{
				Status:  fiber.StatusNotFound,
				Message: "Booking not found",
				Data:    nil,
			})
		}
		logger.Error("Failed to load booking", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Database error",
			Data:    nil,
		})
	}

	actor, err := bc.actorFor(userInfo, booking)
	if err != nil {
		return c.Status(fiber.StatusForbidden).JSON(types.ApiResponse{
			Status:  fiber.StatusForbidden,
			Message: "You are not a party to this booking",
			Data:    nil,
		})
	}

	row := bookingTypes.ProjectRow(*booking, actor, utils.FormatAmountNZD)
	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Booking fetched successfully",
		Data:    row,
	})
}

// Action applies one lifecycle action to a booking. The actor is derived
// from the caller's relationship to the booking, never from the payload.
func (bc *BookingController) Action(c *fiber.Ctx) error {
	var req bookingTypes.BookingActionRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return bc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
			Data:    nil,
		})
	}

	if err := req.Validate(); err != nil {
		return bc.sendResponseWithLog(c, fiber.StatusUnprocessableEntity, types.ApiResponse{
			Status:  fiber.StatusUnprocessableEntity,
			Message: err.Error(),
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

	booking, err := bc.loadBooking(req.BookingID)
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

	actor, err := bc.actorFor(userInfo, booking)
	if err != nil {
		return bc.sendResponseWithLog(c, fiber.StatusForbidden, types.ApiResponse{
			Status:  fiber.StatusForbidden,
			Message: "You are not a party to this booking",
			Data:    nil,
		})
	}

	action := bookingModel.Action(req.Action)
	err = bc.Transitioner.Apply(c.Context(), booking, action, actor, req.Reason, userInfo.Uuid)
	if err != nil {
		var ite *bookingModel.InvalidTransitionError
		if errors.As(err, &ite) {
			return bc.sendResponseWithLog(c, fiber.StatusConflict, types.ApiResponse{
				Status:  fiber.StatusConflict,
				Message: ite.Error(),
				Data:    nil,
			})
		}
		logger.Error(fmt.Sprintf("Failed to apply %s on booking %d", req.Action, booking.ID), err)
		return bc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to update booking",
			Data:    nil,
		})
	}

	logger.Success(fmt.Sprintf("Booking %s moved to %s by %s", booking.BookingNumber, booking.Status, actor))

	// A refund must also reverse the captured charge. Best effort, same as
	// the event publish: the booking is already refunded on our side, so a
	// processor hiccup is logged and retried out of band, never surfaced.
	if action == bookingModel.ActionRefund && booking.PaymentIntentID != nil && *booking.PaymentIntentID != "" {
		if err := bc.Payments.Refund(c.Context(), *booking.PaymentIntentID, booking.Amount()); err != nil {
			logger.Error(fmt.Sprintf("Refund request to the processor failed for booking %s", booking.BookingNumber), err)
		} else {
			logger.Success(fmt.Sprintf("Refund issued at the processor for booking %s", booking.BookingNumber))
		}
	}

	row := bookingTypes.ProjectRow(*booking, actor, utils.FormatAmountNZD)
	return bc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Booking updated successfully",
		Data:    row,
	})
}

// Quote lets the provider set a custom price before payment. A positive
// quote supersedes the captured service price when the customer pays.
func (bc *BookingController) Quote(c *fiber.Ctx) error {
	var req bookingTypes.QuoteRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return bc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
			Data:    nil,
		})
	}

	if err := req.Validate(); err != nil {
		return bc.sendResponseWithLog(c, fiber.StatusUnprocessableEntity, types.ApiResponse{
			Status:  fiber.StatusUnprocessableEntity,
			Message: err.Error(),
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

	booking, err := bc.loadBooking(req.BookingID)
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

	actor, err := bc.actorFor(userInfo, booking)
	if err != nil || actor != bookingModel.ActorProvider {
		return bc.sendResponseWithLog(c, fiber.StatusForbidden, types.ApiResponse{
			Status:  fiber.StatusForbidden,
			Message: "Only the provider can quote a booking",
			Data:    nil,
		})
	}

	// Quoting is only meaningful before money moves.
	switch booking.Status {
	case bookingModel.BookingStatusPending, bookingModel.BookingStatusAccepted:
	default:
		return bc.sendResponseWithLog(c, fiber.StatusConflict, types.ApiResponse{
			Status:  fiber.StatusConflict,
			Message: fmt.Sprintf("Cannot quote a %s booking", booking.Status),
			Data:    nil,
		})
	}

	err = bc.DB.Model(&bookingModel.Booking{}).
		Where("id = ?", booking.ID).
		Updates(map[string]interface{}{
			"provider_quoted_price": req.QuotedPrice,
			"updated_by":            userInfo.Uuid,
		}).Error
	if err != nil {
		logger.Error("Failed to save quote", err)
		return bc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to save quote",
			Data:    nil,
		})
	}

	booking.ProviderQuotedPrice = &req.QuotedPrice
	logger.Success(fmt.Sprintf("Booking %s quoted at %d", booking.BookingNumber, req.QuotedPrice))

	row := bookingTypes.ProjectRow(*booking, actor, utils.FormatAmountNZD)
	return bc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Quote saved successfully",
		Data:    row,
	})
}
