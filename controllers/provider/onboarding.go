package provider

import (
	"errors"
	"fmt"
	"time"

	"marketplace-booking/constants"
	"marketplace-booking/logger"
	providerModel "marketplace-booking/models/provider"
	userModel "marketplace-booking/models/user"
	"marketplace-booking/types"
	providerTypes "marketplace-booking/types/provider"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Apply submits a provider application for the authenticated user. A user
// can hold at most one open application and one provider profile.
func (pc *ProviderController) Apply(c *fiber.Ctx) error {
	var req providerTypes.ApplyRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return pc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
			Data:    nil,
		})
	}

	if err := req.Validate(); err != nil {
		return pc.sendResponseWithLog(c, fiber.StatusUnprocessableEntity, types.ApiResponse{
			Status:  fiber.StatusUnprocessableEntity,
			Message: err.Error(),
			Data:    nil,
		})
	}

	userInfo, err := pc.currentUser(c)
	if err != nil {
		return pc.sendResponseWithLog(c, fiber.StatusUnauthorized, types.ApiResponse{
			Message: "User not found",
			Status:  fiber.StatusUnauthorized,
			Data:    nil,
		})
	}

	var existingProfile providerModel.Provider
	if err := pc.DB.Where("user_id = ?", userInfo.ID).First(&existingProfile).Error; err == nil {
		return pc.sendResponseWithLog(c, fiber.StatusConflict, types.ApiResponse{
			Status:  fiber.StatusConflict,
			Message: "You already have a provider profile",
			Data:    nil,
		})
	}

	var open providerModel.ProviderApplication
	err = pc.DB.Where("user_id = ? AND status = ?", userInfo.ID, providerModel.ApplicationStatusPending).First(&open).Error
	if err == nil {
		return pc.sendResponseWithLog(c, fiber.StatusConflict, types.ApiResponse{
			Status:  fiber.StatusConflict,
			Message: "You already have a pending application",
			Data:    open,
		})
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("Database error while checking applications", err)
		return pc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Database error",
			Data:    nil,
		})
	}

	application := providerModel.ProviderApplication{
		UserID:       userInfo.ID,
		BusinessName: req.BusinessName,
		Bio:          req.Bio,
		Status:       providerModel.ApplicationStatusPending,
	}

	if err := pc.DB.Create(&application).Error; err != nil {
		logger.Error("Failed to create provider application", err)
		return pc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to submit application",
			Data:    nil,
		})
	}

	logger.Success(fmt.Sprintf("Provider application %d submitted by user %s", application.ID, userInfo.Uuid))
	return pc.sendResponseWithLog(c, fiber.StatusCreated, types.ApiResponse{
		Status:  fiber.StatusCreated,
		Message: "Application submitted successfully",
		Data:    application,
	})
}

// MyApplication returns the caller's latest application.
func (pc *ProviderController) MyApplication(c *fiber.Ctx) error {
	userInfo, err := pc.currentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
			Message: "User not found",
			Status:  fiber.StatusUnauthorized,
			Data:    nil,
		})
	}

	var application providerModel.ProviderApplication
	err = pc.DB.Where("user_id = ?", userInfo.ID).Order("created_at DESC").First(&application).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
				Status:  fiber.StatusOK,
				Message: "No application found",
				Data:    map[string]interface{}{"status": providerModel.ApplicationStatusNone},
			})
		}
		logger.Error("Failed to load application", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Database error",
			Data:    nil,
		})
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Application fetched successfully",
		Data:    application,
	})
}

// PendingApplications lists open applications for admin review.
func (pc *ProviderController) PendingApplications(c *fiber.Ctx) error {
	var applications []providerModel.ProviderApplication
	err := pc.DB.WithContext(c.Context()).
		Preload("User").
		Where("status = ?", providerModel.ApplicationStatusPending).
		Order("created_at ASC").
		Find(&applications).Error
	if err != nil {
		logger.Error("Failed to list pending applications", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Database error",
			Data:    nil,
		})
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Applications fetched successfully",
		Data:    applications,
	})
}

// ApproveApplication accepts an application: the provider profile is created
// and the applicant gains the provider permission, atomically.
func (pc *ProviderController) ApproveApplication(c *fiber.Ctx) error {
	return pc.reviewApplication(c, true)
}

// RejectApplication declines an application with an optional note.
func (pc *ProviderController) RejectApplication(c *fiber.Ctx) error {
	return pc.reviewApplication(c, false)
}

func (pc *ProviderController) reviewApplication(c *fiber.Ctx, approve bool) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return pc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid application id",
			Data:    nil,
		})
	}

	var req providerTypes.ReviewApplicationRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return pc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
			Data:    nil,
		})
	}

	adminInfo, err := pc.currentUser(c)
	if err != nil {
		return pc.sendResponseWithLog(c, fiber.StatusUnauthorized, types.ApiResponse{
			Message: "User not found",
			Status:  fiber.StatusUnauthorized,
			Data:    nil,
		})
	}

	var application providerModel.ProviderApplication
	if err := pc.DB.Preload("User").First(&application, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pc.sendResponseWithLog(c, fiber.StatusNotFound, types.ApiResponse{
				Status:  fiber.StatusNotFound,
				Message: "Application not found",
				Data:    nil,
			})
		}
		logger.Error("Failed to load application", err)
		return pc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Database error",
			Data:    nil,
		})
	}

	if application.Status != providerModel.ApplicationStatusPending {
		return pc.sendResponseWithLog(c, fiber.StatusConflict, types.ApiResponse{
			Status:  fiber.StatusConflict,
			Message: fmt.Sprintf("Application is already %s", application.Status),
			Data:    nil,
		})
	}

	now := time.Now()
	decision := providerModel.ApplicationStatusRejected
	if approve {
		decision = providerModel.ApplicationStatusApproved
	}

	err = pc.DB.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"status":      decision,
			"reviewed_by": adminInfo.Uuid,
			"reviewed_at": now,
		}
		if req.Note != "" {
			updates["review_note"] = req.Note
		}

		if err := tx.Model(&application).Updates(updates).Error; err != nil {
			return err
		}

		if !approve {
			return nil
		}

		profile := providerModel.Provider{
			UserID:           application.UserID,
			BusinessName:     application.BusinessName,
			Bio:              application.Bio,
			KYCStatus:        providerModel.KYCStatusNotStarted,
			ModerationStatus: providerModel.ModerationApproved,
		}
		if err := tx.Create(&profile).Error; err != nil {
			return err
		}

		var applicant userModel.User
		if err := tx.First(&applicant, application.UserID).Error; err != nil {
			return err
		}
		if !applicant.HasPermission(constants.PermProviderFull) {
			applicant.Permissions = append(applicant.Permissions, constants.PermProviderFull)
			if err := tx.Model(&applicant).Update("permissions", applicant.Permissions).Error; err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		logger.Error("Failed to review application", err)
		return pc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to review application",
			Data:    nil,
		})
	}

	logger.Success(fmt.Sprintf("Application %d %s by %s", application.ID, decision, adminInfo.Uuid))
	return pc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: fmt.Sprintf("Application %s", decision),
		Data:    application,
	})
}
