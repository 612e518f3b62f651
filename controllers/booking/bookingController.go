package booking

import (
	"errors"
	"time"

	"marketplace-booking/config"
	"marketplace-booking/constants"
	"marketplace-booking/httpServices/payments"
	"marketplace-booking/logger"
	bookingModel "marketplace-booking/models/booking"
	"marketplace-booking/models/provider"
	userModel "marketplace-booking/models/user"
	bookingSvc "marketplace-booking/services/booking"
	"marketplace-booking/types"
	"marketplace-booking/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// BookingController handles booking-related HTTP requests
type BookingController struct {
	DB           *gorm.DB
	Logger       *logger.AsyncLogger
	Transitioner *bookingSvc.Transitioner
	Payments     payments.Client
	Cfg          config.App
}

// NewBookingController creates a new booking controller
func NewBookingController(db *gorm.DB, asyncLogger *logger.AsyncLogger, transitioner *bookingSvc.Transitioner, paymentClient payments.Client, cfg config.App) *BookingController {
	return &BookingController{
		DB:           db,
		Logger:       asyncLogger,
		Transitioner: transitioner,
		Payments:     paymentClient,
		Cfg:          cfg,
	}
}

// Helper function to log API requests and responses
func (bc *BookingController) logAPIRequest(c *fiber.Ctx) {
	logEntry := utils.CreateSanitizedLogEntry(c)
	bc.Logger.Log(logEntry)
}

// Helper function to send response and log in one call
func (bc *BookingController) sendResponseWithLog(c *fiber.Ctx, status int, response types.ApiResponse) error {
	result := c.Status(status).JSON(response)
	bc.logAPIRequest(c)
	return result
}

// currentUser resolves the authenticated user from the JWT claims.
func (bc *BookingController) currentUser(c *fiber.Ctx) (*userModel.User, error) {
	userUUID, err := utils.UUIDFromContext(c)
	if err != nil {
		return nil, err
	}
	return utils.GetUserByUUID(bc.DB, userUUID)
}

// actorFor resolves which lifecycle actor the user is for this booking.
// Admins act as admin everywhere; otherwise ownership decides the side.
func (bc *BookingController) actorFor(u *userModel.User, b *bookingModel.Booking) (bookingModel.Actor, error) {
	if u.HasPermission(constants.PermAdminFull) {
		return bookingModel.ActorAdmin, nil
	}

	if u.HasPermission(constants.PermProviderFull) {
		p, err := utils.GetProviderByUserID(bc.DB, u.ID)
		if err == nil && p.ID == b.ProviderID {
			return bookingModel.ActorProvider, nil
		}
	}

	if b.CustomerID == u.ID {
		return bookingModel.ActorCustomer, nil
	}

	return "", errors.New("not a party to this booking")
}

// loadBooking fetches a booking with its relations.
func (bc *BookingController) loadBooking(id uint) (*bookingModel.Booking, error) {
	var b bookingModel.Booking
	err := bc.DB.Preload("Service").Preload("Provider").Preload("Customer").First(&b, id).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// pollDurations converts the configured reconciliation windows.
func (bc *BookingController) pollDurations() (time.Duration, time.Duration) {
	interval := time.Duration(bc.Cfg.ReconcilePollIntervalMs) * time.Millisecond
	ceiling := time.Duration(bc.Cfg.ReconcilePollCeilingMs) * time.Millisecond
	return interval, ceiling
}

// ensureProviderProfile loads the provider profile for the authenticated
// provider user.
func (bc *BookingController) ensureProviderProfile(u *userModel.User) (*provider.Provider, error) {
	return utils.GetProviderByUserID(bc.DB, u.ID)
}
