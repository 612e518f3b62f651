package provider

import (
	"errors"
	"fmt"

	"marketplace-booking/logger"
	providerModel "marketplace-booking/models/provider"
	"marketplace-booking/types"
	providerTypes "marketplace-booking/types/provider"
	"marketplace-booking/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func (pc *ProviderController) loadProvider(c *fiber.Ctx) (*providerModel.Provider, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return nil, errors.New("invalid provider id")
	}
	var prov providerModel.Provider
	if err := pc.DB.First(&prov, id).Error; err != nil {
		return nil, err
	}
	return &prov, nil
}

// Suspend hides a provider from the marketplace; suspended providers cannot
// receive bookings or payments.
func (pc *ProviderController) Suspend(c *fiber.Ctx) error {
	return pc.setSuspended(c, true)
}

// Unsuspend restores a suspended provider.
func (pc *ProviderController) Unsuspend(c *fiber.Ctx) error {
	return pc.setSuspended(c, false)
}

func (pc *ProviderController) setSuspended(c *fiber.Ctx, suspended bool) error {
	prov, err := pc.loadProvider(c)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pc.sendResponseWithLog(c, fiber.StatusNotFound, types.ApiResponse{
				Status:  fiber.StatusNotFound,
				Message: "Provider not found",
				Data:    nil,
			})
		}
		return pc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid provider id",
			Data:    nil,
		})
	}

	if err := pc.DB.Model(prov).Update("suspended", suspended).Error; err != nil {
		logger.Error("Failed to update suspension", err)
		return pc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to update provider",
			Data:    nil,
		})
	}

	prov.Suspended = suspended
	verb := "unsuspended"
	if suspended {
		verb = "suspended"
	}
	logger.Success(fmt.Sprintf("Provider %d %s", prov.ID, verb))
	return pc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: fmt.Sprintf("Provider %s", verb),
		Data:    prov,
	})
}

// SetPayoutAccount stores the provider's payout account reference encrypted
// at rest. The plaintext never appears in any response or log.
func (pc *ProviderController) SetPayoutAccount(c *fiber.Ctx) error {
	var req providerTypes.SetPayoutAccountRequest
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

	encrypted, err := utils.EncryptData(req.AccountReference)
	if err != nil {
		logger.Error("Failed to encrypt payout account", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to store payout account",
			Data:    nil,
		})
	}

	if err := pc.DB.Model(prov).Update("payout_account_encrypted", encrypted).Error; err != nil {
		logger.Error("Failed to save payout account", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to store payout account",
			Data:    nil,
		})
	}

	logger.Success(fmt.Sprintf("Payout account updated for provider %d", prov.ID))
	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Payout account saved",
		Data:    nil,
	})
}
