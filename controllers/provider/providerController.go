package provider

import (
	"marketplace-booking/logger"
	userModel "marketplace-booking/models/user"
	kycSvc "marketplace-booking/services/kyc"
	"marketplace-booking/types"
	"marketplace-booking/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// ProviderController handles provider onboarding, verification and
// moderation requests.
type ProviderController struct {
	DB     *gorm.DB
	Logger *logger.AsyncLogger
	KYC    *kycSvc.Service
}

func NewProviderController(db *gorm.DB, asyncLogger *logger.AsyncLogger, kycService *kycSvc.Service) *ProviderController {
	return &ProviderController{
		DB:     db,
		Logger: asyncLogger,
		KYC:    kycService,
	}
}

func (pc *ProviderController) logAPIRequest(c *fiber.Ctx) {
	logEntry := utils.CreateSanitizedLogEntry(c)
	pc.Logger.Log(logEntry)
}

func (pc *ProviderController) sendResponseWithLog(c *fiber.Ctx, status int, response types.ApiResponse) error {
	result := c.Status(status).JSON(response)
	pc.logAPIRequest(c)
	return result
}

// currentUser resolves the authenticated user from the JWT claims.
func (pc *ProviderController) currentUser(c *fiber.Ctx) (*userModel.User, error) {
	userUUID, err := utils.UUIDFromContext(c)
	if err != nil {
		return nil, err
	}
	return utils.GetUserByUUID(pc.DB, userUUID)
}
