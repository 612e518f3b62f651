package calendar

import (
	"time"

	"marketplace-booking/logger"
	bookingModel "marketplace-booking/models/booking"
	timeoffModel "marketplace-booking/models/timeoff"
	calendarSvc "marketplace-booking/services/calendar"
	"marketplace-booking/types"
	"marketplace-booking/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/jinzhu/now"
	"gorm.io/gorm"
)

// CalendarController serves the provider's merged availability view.
type CalendarController struct {
	DB     *gorm.DB
	Logger *logger.AsyncLogger
}

func NewCalendarController(db *gorm.DB, asyncLogger *logger.AsyncLogger) *CalendarController {
	return &CalendarController{DB: db, Logger: asyncLogger}
}

// Month returns the merged booking and time-off events for one calendar
// month, priority sorted. Defaults to the current month.
func (cc *CalendarController) Month(c *fiber.Ctx) error {
	userUUID, err := utils.UUIDFromContext(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
			Message: "Invalid token data",
			Status:  fiber.StatusUnauthorized,
			Data:    nil,
		})
	}

	userInfo, err := utils.GetUserByUUID(cc.DB, userUUID)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
			Message: "User not found",
			Status:  fiber.StatusUnauthorized,
			Data:    nil,
		})
	}

	prov, err := utils.GetProviderByUserID(cc.DB, userInfo.ID)
	if err != nil {
		return c.Status(fiber.StatusForbidden).JSON(types.ApiResponse{
			Message: "Provider profile not found",
			Status:  fiber.StatusForbidden,
			Data:    nil,
		})
	}

	anchor := time.Now()
	if month := c.Query("month"); month != "" {
		parsed, err := time.Parse("2006-01", month)
		if err != nil {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(types.ApiResponse{
				Status:  fiber.StatusUnprocessableEntity,
				Message: "month must be formatted as YYYY-MM",
				Data:    nil,
			})
		}
		anchor = parsed
	}

	monthStart := now.With(anchor).BeginningOfMonth()
	monthEnd := now.With(anchor).EndOfMonth()

	var bookings []bookingModel.Booking
	err = cc.DB.WithContext(c.Context()).
		Preload("Service").
		Where("provider_id = ?", prov.ID).
		Where(
			cc.DB.Where("scheduled_at >= ? AND scheduled_at <= ?", monthStart, monthEnd).
				Or("scheduled_at IS NULL AND created_at >= ? AND created_at <= ?", monthStart, monthEnd),
		).
		Find(&bookings).Error
	if err != nil {
		logger.Error("Failed to load bookings for calendar", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Database error",
			Data:    nil,
		})
	}

	var timeOffs []timeoffModel.TimeOffBlock
	err = cc.DB.WithContext(c.Context()).
		Where("provider_id = ?", prov.ID).
		Where("end_time >= ? AND start_time <= ?", monthStart, monthEnd).
		Find(&timeOffs).Error
	if err != nil {
		logger.Error("Failed to load time-off blocks for calendar", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Database error",
			Data:    nil,
		})
	}

	events := calendarSvc.Merge(bookings, timeOffs)

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Calendar fetched successfully",
		Data: map[string]interface{}{
			"month":  monthStart.Format("2006-01"),
			"events": events,
		},
	})
}

// Day returns the events overlapping one day, priority sorted. The day
// bounds are inclusive on both ends.
func (cc *CalendarController) Day(c *fiber.Ctx) error {
	userUUID, err := utils.UUIDFromContext(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
			Message: "Invalid token data",
			Status:  fiber.StatusUnauthorized,
			Data:    nil,
		})
	}

	userInfo, err := utils.GetUserByUUID(cc.DB, userUUID)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
			Message: "User not found",
			Status:  fiber.StatusUnauthorized,
			Data:    nil,
		})
	}

	prov, err := utils.GetProviderByUserID(cc.DB, userInfo.ID)
	if err != nil {
		return c.Status(fiber.StatusForbidden).JSON(types.ApiResponse{
			Message: "Provider profile not found",
			Status:  fiber.StatusForbidden,
			Data:    nil,
		})
	}

	day, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(types.ApiResponse{
			Status:  fiber.StatusUnprocessableEntity,
			Message: "date query parameter must be formatted as YYYY-MM-DD",
			Data:    nil,
		})
	}

	dayStart := now.With(day).BeginningOfDay()
	dayEnd := now.With(day).EndOfDay()

	var bookings []bookingModel.Booking
	err = cc.DB.WithContext(c.Context()).
		Preload("Service").
		Where("provider_id = ?", prov.ID).
		Where(
			cc.DB.Where("scheduled_at >= ? AND scheduled_at <= ?", dayStart, dayEnd).
				Or("scheduled_at IS NULL AND created_at >= ? AND created_at <= ?", dayStart, dayEnd),
		).
		Find(&bookings).Error
	if err != nil {
		logger.Error("Failed to load bookings for day view", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Database error",
			Data:    nil,
		})
	}

	var timeOffs []timeoffModel.TimeOffBlock
	err = cc.DB.WithContext(c.Context()).
		Where("provider_id = ?", prov.ID).
		Where("end_time >= ? AND start_time <= ?", dayStart, dayEnd).
		Find(&timeOffs).Error
	if err != nil {
		logger.Error("Failed to load time-off blocks for day view", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Database error",
			Data:    nil,
		})
	}

	events := calendarSvc.EventsForDay(calendarSvc.Merge(bookings, timeOffs), day)

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Day events fetched successfully",
		Data: map[string]interface{}{
			"date":   day.Format("2006-01-02"),
			"events": events,
		},
	})
}
