package service

import (
	"errors"
	"fmt"

	"marketplace-booking/logger"
	serviceModel "marketplace-booking/models/service"
	"marketplace-booking/types"
	serviceTypes "marketplace-booking/types/service"
	"marketplace-booking/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// ServiceController manages provider service listings.
type ServiceController struct {
	DB     *gorm.DB
	Logger *logger.AsyncLogger
}

func NewServiceController(db *gorm.DB, asyncLogger *logger.AsyncLogger) *ServiceController {
	return &ServiceController{DB: db, Logger: asyncLogger}
}

func (sc *ServiceController) providerForRequest(c *fiber.Ctx) (uint, error) {
	userUUID, err := utils.UUIDFromContext(c)
	if err != nil {
		return 0, err
	}
	userInfo, err := utils.GetUserByUUID(sc.DB, userUUID)
	if err != nil {
		return 0, err
	}
	prov, err := utils.GetProviderByUserID(sc.DB, userInfo.ID)
	if err != nil {
		return 0, err
	}
	return prov.ID, nil
}

// Store publishes a new service listing for the authenticated provider.
func (sc *ServiceController) Store(c *fiber.Ctx) error {
	var req serviceTypes.CreateServiceRequest
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

	providerID, err := sc.providerForRequest(c)
	if err != nil {
		return c.Status(fiber.StatusForbidden).JSON(types.ApiResponse{
			Status:  fiber.StatusForbidden,
			Message: "Provider profile not found",
			Data:    nil,
		})
	}

	svc := serviceModel.Service{
		ProviderID:  providerID,
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Active:      true,
	}

	if err := sc.DB.Create(&svc).Error; err != nil {
		logger.Error("Failed to create service", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to save service",
			Data:    nil,
		})
	}

	logger.Success(fmt.Sprintf("Service %d published by provider %d", svc.ID, providerID))
	return c.Status(fiber.StatusCreated).JSON(types.ApiResponse{
		Status:  fiber.StatusCreated,
		Message: "Service published successfully",
		Data:    svc,
	})
}

// Update applies partial changes to one of the provider's own listings.
func (sc *ServiceController) Update(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid service id",
			Data:    nil,
		})
	}

	var req serviceTypes.UpdateServiceRequest
	if err := c.BodyParser(&req); err != nil {
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

	providerID, err := sc.providerForRequest(c)
	if err != nil {
		return c.Status(fiber.StatusForbidden).JSON(types.ApiResponse{
			Status:  fiber.StatusForbidden,
			Message: "Provider profile not found",
			Data:    nil,
		})
	}

	var svc serviceModel.Service
	err = sc.DB.Where("id = ? AND provider_id = ?", id, providerID).First(&svc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(types.ApiResponse{
				Status:  fiber.StatusNotFound,
				Message: "Service not found",
				Data:    nil,
			})
		}
		logger.Error("Failed to load service", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Database error",
			Data:    nil,
		})
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.Active != nil {
		updates["active"] = *req.Active
	}

	if len(updates) > 0 {
		if err := sc.DB.Model(&svc).Updates(updates).Error; err != nil {
			logger.Error("Failed to update service", err)
			return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
				Status:  fiber.StatusInternalServerError,
				Message: "Failed to update service",
				Data:    nil,
			})
		}
	}

	logger.Success(fmt.Sprintf("Service %d updated", svc.ID))
	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Service updated successfully",
		Data:    svc,
	})
}

// Index lists active services, optionally scoped to one provider. This is
// the public browse endpoint.
func (sc *ServiceController) Index(c *fiber.Ctx) error {
	query := sc.DB.WithContext(c.Context()).
		Preload("Provider").
		Where("active = ?", true)

	if providerID, err := c.ParamsInt("providerId"); err == nil && providerID > 0 {
		query = query.Where("provider_id = ?", providerID)
	}

	var services []serviceModel.Service
	if err := query.Order("created_at DESC").Find(&services).Error; err != nil {
		logger.Error("Failed to list services", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Database error",
			Data:    nil,
		})
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Services fetched successfully",
		Data:    services,
	})
}

// Mine lists all of the provider's own services including inactive ones.
func (sc *ServiceController) Mine(c *fiber.Ctx) error {
	providerID, err := sc.providerForRequest(c)
	if err != nil {
		return c.Status(fiber.StatusForbidden).JSON(types.ApiResponse{
			Status:  fiber.StatusForbidden,
			Message: "Provider profile not found",
			Data:    nil,
		})
	}

	var services []serviceModel.Service
	err = sc.DB.WithContext(c.Context()).
		Where("provider_id = ?", providerID).
		Order("created_at DESC").
		Find(&services).Error
	if err != nil {
		logger.Error("Failed to list own services", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Database error",
			Data:    nil,
		})
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Services fetched successfully",
		Data:    services,
	})
}
