package review

import (
	"errors"
	"fmt"

	"marketplace-booking/logger"
	bookingModel "marketplace-booking/models/booking"
	reviewModel "marketplace-booking/models/review"
	"marketplace-booking/types"
	reviewTypes "marketplace-booking/types/review"
	"marketplace-booking/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// ReviewController handles customer reviews of completed bookings.
type ReviewController struct {
	DB     *gorm.DB
	Logger *logger.AsyncLogger
}

func NewReviewController(db *gorm.DB, asyncLogger *logger.AsyncLogger) *ReviewController {
	return &ReviewController{DB: db, Logger: asyncLogger}
}

// Store creates the review for a completed booking. Only the booking's
// customer may review, only completed bookings qualify, and the unique index
// on booking_id enforces at most one review per booking.
func (rc *ReviewController) Store(c *fiber.Ctx) error {
	var req reviewTypes.CreateReviewRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
			Data:    nil,
		})
	}

	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(types.ApiResponse{
			Status:  fiber.StatusUnprocessableEntity,
			Message: err.Error(),
			Data:    nil,
		})
	}

	userUUID, err := utils.UUIDFromContext(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
			Message: "Invalid token data",
			Status:  fiber.StatusUnauthorized,
			Data:    nil,
		})
	}
	userInfo, err := utils.GetUserByUUID(rc.DB, userUUID)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
			Message: "User not found",
			Status:  fiber.StatusUnauthorized,
			Data:    nil,
		})
	}

	var booking bookingModel.Booking
	if err := rc.DB.First(&booking, req.BookingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(types.ApiResponse{
				Status:  fiber.StatusNotFound,
				Message: "Booking not found",
				Data:    nil,
			})
		}
		logger.Error("Failed to load booking for review", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Database error",
			Data:    nil,
		})
	}

	if booking.CustomerID != userInfo.ID {
		return c.Status(fiber.StatusForbidden).JSON(types.ApiResponse{
			Status:  fiber.StatusForbidden,
			Message: "Only the customer can review this booking",
			Data:    nil,
		})
	}

	if booking.Status != bookingModel.BookingStatusCompleted {
		return c.Status(fiber.StatusConflict).JSON(types.ApiResponse{
			Status:  fiber.StatusConflict,
			Message: fmt.Sprintf("Cannot review a %s booking", booking.Status),
			Data:    nil,
		})
	}

	var review reviewModel.Review

	err = rc.DB.Transaction(func(tx *gorm.DB) error {
		var existing reviewModel.Review
		if err := tx.Where("booking_id = ?", booking.ID).First(&existing).Error; err == nil {
			return gorm.ErrDuplicatedKey
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		review = reviewModel.Review{
			BookingID:  booking.ID,
			CustomerID: userInfo.ID,
			ProviderID: booking.ProviderID,
			Rating:     req.Rating,
			Comment:    req.Comment,
		}

		if err := tx.Create(&review).Error; err != nil {
			return err
		}

		return tx.Model(&bookingModel.Booking{}).
			Where("id = ?", booking.ID).
			Update("reviewed", true).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusConflict).JSON(types.ApiResponse{
				Status:  fiber.StatusConflict,
				Message: "This booking has already been reviewed",
				Data:    nil,
			})
		}
		logger.Error("Failed to save review", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to save review",
			Data:    nil,
		})
	}

	logger.Success(fmt.Sprintf("Review %d created for booking %s", review.ID, booking.BookingNumber))
	return c.Status(fiber.StatusCreated).JSON(types.ApiResponse{
		Status:  fiber.StatusCreated,
		Message: "Review submitted successfully",
		Data:    review,
	})
}

// ForProvider lists the public reviews of one provider, newest first.
func (rc *ReviewController) ForProvider(c *fiber.Ctx) error {
	providerID, err := c.ParamsInt("id")
	if err != nil || providerID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid provider id",
			Data:    nil,
		})
	}

	var reviews []reviewModel.Review
	err = rc.DB.WithContext(c.Context()).
		Preload("Customer").
		Where("provider_id = ?", providerID).
		Order("created_at DESC").
		Find(&reviews).Error
	if err != nil {
		logger.Error("Failed to list provider reviews", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Database error",
			Data:    nil,
		})
	}

	var avg float64
	if len(reviews) > 0 {
		var sum int
		for _, r := range reviews {
			sum += r.Rating
		}
		avg = float64(sum) / float64(len(reviews))
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Reviews fetched successfully",
		Data: map[string]interface{}{
			"reviews":        reviews,
			"average_rating": avg,
			"count":          len(reviews),
		},
	})
}
