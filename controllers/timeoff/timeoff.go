package timeoff

import (
	"errors"
	"fmt"

	"marketplace-booking/logger"
	timeoffModel "marketplace-booking/models/timeoff"
	"marketplace-booking/types"
	timeoffTypes "marketplace-booking/types/timeoff"
	"marketplace-booking/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// TimeOffController manages provider unavailability blocks.
type TimeOffController struct {
	DB     *gorm.DB
	Logger *logger.AsyncLogger
}

func NewTimeOffController(db *gorm.DB, asyncLogger *logger.AsyncLogger) *TimeOffController {
	return &TimeOffController{DB: db, Logger: asyncLogger}
}

func (tc *TimeOffController) providerForRequest(c *fiber.Ctx) (uint, error) {
	userUUID, err := utils.UUIDFromContext(c)
	if err != nil {
		return 0, err
	}
	userInfo, err := utils.GetUserByUUID(tc.DB, userUUID)
	if err != nil {
		return 0, err
	}
	prov, err := utils.GetProviderByUserID(tc.DB, userInfo.ID)
	if err != nil {
		return 0, err
	}
	return prov.ID, nil
}

// Store creates a time-off block. An interval whose end is not after its
// start is rejected before any write happens.
func (tc *TimeOffController) Store(c *fiber.Ctx) error {
	var req timeoffTypes.CreateTimeOffRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
			Data:    nil,
		})
	}

	start, end, err := req.Validate()
	if err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(types.ApiResponse{
			Status:  fiber.StatusUnprocessableEntity,
			Message: err.Error(),
			Data:    nil,
		})
	}

	providerID, err := tc.providerForRequest(c)
	if err != nil {
		return c.Status(fiber.StatusForbidden).JSON(types.ApiResponse{
			Status:  fiber.StatusForbidden,
			Message: "Provider profile not found",
			Data:    nil,
		})
	}

	block := timeoffModel.TimeOffBlock{
		ProviderID: providerID,
		StartTime:  start,
		EndTime:    end,
		Reason:     req.Reason,
	}

	if err := tc.DB.Create(&block).Error; err != nil {
		logger.Error("Failed to create time-off block", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to save time-off block",
			Data:    nil,
		})
	}

	logger.Success(fmt.Sprintf("Time-off block %d created for provider %d", block.ID, providerID))
	return c.Status(fiber.StatusCreated).JSON(types.ApiResponse{
		Status:  fiber.StatusCreated,
		Message: "Time-off block created successfully",
		Data:    block,
	})
}

// Index lists the provider's time-off blocks, soonest first.
func (tc *TimeOffController) Index(c *fiber.Ctx) error {
	providerID, err := tc.providerForRequest(c)
	if err != nil {
		return c.Status(fiber.StatusForbidden).JSON(types.ApiResponse{
			Status:  fiber.StatusForbidden,
			Message: "Provider profile not found",
			Data:    nil,
		})
	}

	var blocks []timeoffModel.TimeOffBlock
	err = tc.DB.WithContext(c.Context()).
		Where("provider_id = ?", providerID).
		Order("start_time ASC").
		Find(&blocks).Error
	if err != nil {
		logger.Error("Failed to list time-off blocks", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Database error",
			Data:    nil,
		})
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Time-off blocks fetched successfully",
		Data:    blocks,
	})
}

// Destroy deletes one of the provider's own blocks.
func (tc *TimeOffController) Destroy(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid time-off block id",
			Data:    nil,
		})
	}

	providerID, err := tc.providerForRequest(c)
	if err != nil {
		return c.Status(fiber.StatusForbidden).JSON(types.ApiResponse{
			Status:  fiber.StatusForbidden,
			Message: "Provider profile not found",
			Data:    nil,
		})
	}

	var block timeoffModel.TimeOffBlock
	err = tc.DB.Where("id = ? AND provider_id = ?", id, providerID).First(&block).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(types.ApiResponse{
				Status:  fiber.StatusNotFound,
				Message: "Time-off block not found",
				Data:    nil,
			})
		}
		logger.Error("Failed to load time-off block", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Database error",
			Data:    nil,
		})
	}

	if err := tc.DB.Delete(&block).Error; err != nil {
		logger.Error("Failed to delete time-off block", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to delete time-off block",
			Data:    nil,
		})
	}

	logger.Success(fmt.Sprintf("Time-off block %d deleted", block.ID))
	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Time-off block deleted successfully",
		Data:    nil,
	})
}
