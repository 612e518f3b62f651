package user

import (
	"errors"

	"marketplace-booking/logger"
	userModel "marketplace-booking/models/user"
	"marketplace-booking/types"
	"marketplace-booking/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type UserController struct {
	DB *gorm.DB
}

func NewUserController(db *gorm.DB) *UserController {
	return &UserController{DB: db}
}

func (uc *UserController) GetUserInfo(c *fiber.Ctx) error {
	userUUID, err := utils.UUIDFromContext(c)
	if err != nil {
		return c.JSON(&types.ApiResponse{
			Message: "Invalid token data",
			Status:  fiber.StatusUnauthorized,
			Data:    nil,
		})
	}

	var u userModel.User
	if err := uc.DB.Where("uuid = ?", userUUID).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error("User not found", err)
			return c.JSON(&types.ApiResponse{
				Message: "User not found",
				Status:  fiber.StatusNotFound,
				Data:    nil,
			})
		}
		logger.Error("Error fetching user", err)
		return c.JSON(&types.ApiResponse{
			Message: "Error fetching user",
			Status:  fiber.StatusInternalServerError,
			Data:    nil,
		})
	}

	userInfo := map[string]interface{}{
		"uuid":           u.Uuid,
		"username":       u.Username,
		"legal_name":     u.LegalName,
		"phone":          u.Phone,
		"phone_verified": u.PhoneVerified,
		"email":          u.Email,
		"email_verified": u.EmailVerified,
		"avatar":         u.Avatar,
		"permissions":    u.Permissions,
		"created_at":     u.CreatedAt.Format("2006-01-02 15:04:05"),
		"updated_at":     u.UpdatedAt.Format("2006-01-02 15:04:05"),
	}

	logger.Success("User fetched successfully")
	return c.JSON(&types.ApiResponse{
		Message: "User fetched successfully",
		Status:  fiber.StatusOK,
		Data:    userInfo,
	})
}
