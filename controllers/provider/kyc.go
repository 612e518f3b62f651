package provider

import (
	"errors"
	"fmt"
	"io"
	"time"

	"marketplace-booking/logger"
	providerModel "marketplace-booking/models/provider"
	kycSvc "marketplace-booking/services/kyc"
	"marketplace-booking/types"
	providerTypes "marketplace-booking/types/provider"
	"marketplace-booking/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// StartKYC moves the provider's verification from not_started to
// in_progress. Restarting is allowed after a rejection.
func (pc *ProviderController) StartKYC(c *fiber.Ctx) error {
	userInfo, err := pc.currentUser(c)
	if err != nil {
		return pc.sendResponseWithLog(c, fiber.StatusUnauthorized, types.ApiResponse{
			Message: "User not found",
			Status:  fiber.StatusUnauthorized,
			Data:    nil,
		})
	}

	prov, err := utils.GetProviderByUserID(pc.DB, userInfo.ID)
	if err != nil {
		return pc.sendResponseWithLog(c, fiber.StatusForbidden, types.ApiResponse{
			Status:  fiber.StatusForbidden,
			Message: "Provider profile not found",
			Data:    nil,
		})
	}

	switch prov.KYCStatus {
	case providerModel.KYCStatusNotStarted, providerModel.KYCStatusRejected:
	default:
		return pc.sendResponseWithLog(c, fiber.StatusConflict, types.ApiResponse{
			Status:  fiber.StatusConflict,
			Message: fmt.Sprintf("Verification is already %s", prov.KYCStatus),
			Data:    nil,
		})
	}

	err = pc.DB.Model(prov).Update("kyc_status", providerModel.KYCStatusInProgress).Error
	if err != nil {
		logger.Error("Failed to start verification", err)
		return pc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to start verification",
			Data:    nil,
		})
	}

	prov.KYCStatus = providerModel.KYCStatusInProgress
	logger.Success(fmt.Sprintf("Provider %d started verification", prov.ID))
	return pc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Verification started",
		Data:    prov,
	})
}

// UploadKYCDocument accepts one verification document image, extracts its
// fields with the vision model and stores both. The document record is
// created first so every request is traceable even when extraction fails.
func (pc *ProviderController) UploadKYCDocument(c *fiber.Ctx) error {
	startTime := time.Now()

	userInfo, err := pc.currentUser(c)
	if err != nil {
		return pc.sendResponseWithLog(c, fiber.StatusUnauthorized, types.ApiResponse{
			Message: "User not found",
			Status:  fiber.StatusUnauthorized,
			Data:    nil,
		})
	}

	prov, err := utils.GetProviderByUserID(pc.DB, userInfo.ID)
	if err != nil {
		return pc.sendResponseWithLog(c, fiber.StatusForbidden, types.ApiResponse{
			Status:  fiber.StatusForbidden,
			Message: "Provider profile not found",
			Data:    nil,
		})
	}

	switch prov.KYCStatus {
	case providerModel.KYCStatusInProgress, providerModel.KYCStatusPendingReview:
	default:
		return pc.sendResponseWithLog(c, fiber.StatusConflict, types.ApiResponse{
			Status:  fiber.StatusConflict,
			Message: "Start verification before uploading documents",
			Data:    nil,
		})
	}

	requestID := pc.KYC.GenerateRequestID()

	file, err := c.FormFile("document")
	if err != nil {
		logger.Error(fmt.Sprintf("No document file provided for request %s", requestID), err)
		return pc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Message: "No document file provided",
			Status:  fiber.StatusBadRequest,
			Data:    map[string]interface{}{"request_id": requestID},
		})
	}

	mimeType := file.Header.Get("Content-Type")
	if !kycSvc.IsValidImageType(mimeType) {
		logger.Error(fmt.Sprintf("Invalid file type %s for request %s", mimeType, requestID),
			fmt.Errorf("invalid mime type: %s", mimeType))
		return pc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Message: "Invalid file type. Only JPEG, JPG, PNG, and WebP files are allowed",
			Status:  fiber.StatusBadRequest,
			Data:    map[string]interface{}{"request_id": requestID},
		})
	}

	maxSize := int64(10 * 1024 * 1024)
	if file.Size > maxSize {
		logger.Error(fmt.Sprintf("File size %d exceeds max %d for request %s", file.Size, maxSize, requestID),
			fmt.Errorf("file size %d exceeds max %d", file.Size, maxSize))
		return pc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Message: "File size too large. Maximum size is 10MB",
			Status:  fiber.StatusBadRequest,
			Data:    map[string]interface{}{"request_id": requestID},
		})
	}

	_, err = pc.KYC.CreateInitialDocument(prov.ID, requestID, file.Filename, file.Size, mimeType)
	if err != nil {
		logger.Error(fmt.Sprintf("Failed to create document record %s", requestID), err)
		return pc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
			Message: "Failed to initialize request",
			Status:  fiber.StatusInternalServerError,
			Data:    map[string]interface{}{"request_id": requestID},
		})
	}

	src, err := file.Open()
	if err != nil {
		processingTime := time.Since(startTime).Milliseconds()
		pc.KYC.SaveFailureResultAsync(requestID, "Failed to open uploaded file", processingTime)
		logger.Error(fmt.Sprintf("Failed to open uploaded file for request %s", requestID), err)
		return pc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
			Message: "Failed to process uploaded file",
			Status:  fiber.StatusInternalServerError,
			Data:    map[string]interface{}{"request_id": requestID},
		})
	}
	defer src.Close()

	fileBytes, err := io.ReadAll(src)
	if err != nil {
		processingTime := time.Since(startTime).Milliseconds()
		pc.KYC.SaveFailureResultAsync(requestID, "Failed to read file content", processingTime)
		logger.Error(fmt.Sprintf("Failed to read file content for request %s", requestID), err)
		return pc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
			Message: "Failed to read file content",
			Status:  fiber.StatusInternalServerError,
			Data:    map[string]interface{}{"request_id": requestID},
		})
	}

	pc.KYC.SaveFileAsync(requestID, fileBytes, file.Filename)

	extracted, err := pc.KYC.ExtractDocument(c.Context(), fileBytes, mimeType)
	if err != nil {
		processingTime := time.Since(startTime).Milliseconds()
		pc.KYC.SaveFailureResultAsync(requestID, fmt.Sprintf("Extraction failed: %s", err.Error()), processingTime)
		logger.Error(fmt.Sprintf("Failed to extract document for request %s", requestID), err)
		return pc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
			Message: "Failed to extract document data",
			Status:  fiber.StatusInternalServerError,
			Data: map[string]interface{}{
				"error":      err.Error(),
				"request_id": requestID,
			},
		})
	}

	processingTime := time.Since(startTime).Milliseconds()
	pc.KYC.SaveSuccessResultAsync(requestID, extracted, processingTime)

	logger.Success(fmt.Sprintf("Document extracted in %dms for provider %d, Request ID: %s",
		processingTime, prov.ID, requestID))

	return pc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Document processed successfully",
		Data: map[string]interface{}{
			"request_id": requestID,
			"extracted":  extracted,
		},
	})
}

// KYCDocumentStatus returns one document by its request id. Providers can
// only see their own documents.
func (pc *ProviderController) KYCDocumentStatus(c *fiber.Ctx) error {
	requestID := c.Params("requestId")
	if requestID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Request id is required",
			Data:    nil,
		})
	}

	userInfo, err := pc.currentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
			Message: "User not found",
			Status:  fiber.StatusUnauthorized,
			Data:    nil,
		})
	}

	prov, err := utils.GetProviderByUserID(pc.DB, userInfo.ID)
	if err != nil {
		return c.Status(fiber.StatusForbidden).JSON(types.ApiResponse{
			Status:  fiber.StatusForbidden,
			Message: "Provider profile not found",
			Data:    nil,
		})
	}

	doc, err := pc.KYC.GetDocumentByRequestID(requestID)
	if err != nil || doc.ProviderID != prov.ID {
		return c.Status(fiber.StatusNotFound).JSON(types.ApiResponse{
			Status:  fiber.StatusNotFound,
			Message: "Document not found",
			Data:    nil,
		})
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Document fetched successfully",
		Data:    doc,
	})
}

// SetKYCStatus is the admin decision on a provider's verification. Verified
// providers become chargeable; rejection revokes enablement.
func (pc *ProviderController) SetKYCStatus(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return pc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid provider id",
			Data:    nil,
		})
	}

	var req providerTypes.SetKYCStatusRequest
	if err := c.BodyParser(&req); err != nil {
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

	var prov providerModel.Provider
	if err := pc.DB.First(&prov, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pc.sendResponseWithLog(c, fiber.StatusNotFound, types.ApiResponse{
				Status:  fiber.StatusNotFound,
				Message: "Provider not found",
				Data:    nil,
			})
		}
		logger.Error("Failed to load provider", err)
		return pc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Database error",
			Data:    nil,
		})
	}

	status := providerModel.KYCStatus(req.Status)
	updates := map[string]interface{}{
		"kyc_status": status,
	}
	switch status {
	case providerModel.KYCStatusVerified:
		updates["charges_enabled"] = true
		updates["payouts_enabled"] = true
	case providerModel.KYCStatusRejected, providerModel.KYCStatusNotStarted:
		updates["charges_enabled"] = false
		updates["payouts_enabled"] = false
	}

	if err := pc.DB.Model(&prov).Updates(updates).Error; err != nil {
		logger.Error("Failed to update kyc status", err)
		return pc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to update verification status",
			Data:    nil,
		})
	}

	prov.KYCStatus = status
	logger.Success(fmt.Sprintf("Provider %d verification set to %s", prov.ID, status))
	return pc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Verification status updated",
		Data:    prov,
	})
}
