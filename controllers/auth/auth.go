package auth

import (
	"errors"
	"fmt"
	"os"
	"time"

	"marketplace-booking/constants"
	"marketplace-booking/logger"
	userModel "marketplace-booking/models/user"
	"marketplace-booking/types"
	"marketplace-booking/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthController struct {
	db             *gorm.DB
	loggerInstance *logger.AsyncLogger
}

func NewAuthController(db *gorm.DB, asyncLogger *logger.AsyncLogger) *AuthController {
	return &AuthController{db: db, loggerInstance: asyncLogger}
}

// setSecureCookie sets auth cookies; Secure only in production so local
// HTTP development keeps working.
func (h *AuthController) setSecureCookie(c *fiber.Ctx, name, value string, maxAge int) {
	isProduction := os.Getenv("APP_ENV") == "production"

	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    value,
		HTTPOnly: false,
		Secure:   isProduction,
		SameSite: "Strict",
		MaxAge:   maxAge,
		Path:     "/",
	})
}

// issueToken signs an 8 hour access token carrying the user's uuid,
// username and permissions.
func issueToken(u *userModel.User) (string, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return "", errors.New("JWT_SECRET is not configured")
	}

	permissions := make([]interface{}, 0, len(u.Permissions))
	for _, p := range u.Permissions {
		permissions = append(permissions, p)
	}

	claims := jwt.MapClaims{
		"uuid":        u.Uuid,
		"username":    u.Username,
		"permissions": permissions,
		"iat":         time.Now().Unix(),
		"exp":         time.Now().Add(8 * time.Hour).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func (h *AuthController) Register(c *fiber.Ctx) error {
	var req types.RegisterUserRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Error parsing request body", err)
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrorResponse{
			Message: fmt.Sprintf("Error parsing request body: %v", err),
			Status:  fiber.StatusBadRequest,
		})
	}

	if validationErr := req.Validate(); validationErr != "" {
		logger.Error(validationErr, nil)
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrorResponse{
			Message: validationErr,
			Status:  fiber.StatusBadRequest,
		})
	}

	var existing userModel.User
	err := h.db.Where("username = ? OR email = ?", req.Username, req.Email).First(&existing).Error
	if err == nil {
		return c.Status(fiber.StatusConflict).JSON(types.ApiResponse{
			Message: "Username or email already taken",
			Status:  fiber.StatusConflict,
		})
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("Database error while checking existing user", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Message: "Database error",
			Status:  fiber.StatusInternalServerError,
		})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("Failed to hash password", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Message: "Failed to register user",
			Status:  fiber.StatusInternalServerError,
		})
	}

	permissions := userModel.StringSlice{constants.PermCustomerFull}

	email := req.Email
	newUser := userModel.User{
		Uuid:         uuid.NewString(),
		Username:     req.Username,
		LegalName:    req.LegalName,
		Phone:        req.Phone,
		Email:        &email,
		PasswordHash: string(hash),
		Permissions:  permissions,
	}

	if err := h.db.Create(&newUser).Error; err != nil {
		logger.Error("Failed to create user", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Message: "Failed to register user",
			Status:  fiber.StatusInternalServerError,
		})
	}

	logger.Success("User registered successfully. UUID: " + newUser.Uuid)
	return c.Status(fiber.StatusCreated).JSON(types.ApiResponse{
		Message: "User registered successfully",
		Status:  fiber.StatusCreated,
		Data:    newUser,
	})
}

func (h *AuthController) Login(c *fiber.Ctx) error {
	var req types.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Error parsing request body", err)
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Message: fmt.Sprintf("Error parsing request body: %v", err),
			Status:  fiber.StatusBadRequest,
		})
	}

	if validationErr := req.Validate(); validationErr != "" {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Message: validationErr,
			Status:  fiber.StatusBadRequest,
		})
	}

	var u userModel.User
	if err := h.db.Where("username = ?", req.Username).First(&u).Error; err != nil {
		logger.Warning("Login failed, unknown username: " + req.Username)
		return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
			Message: "Invalid username or password",
			Status:  fiber.StatusUnauthorized,
		})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		logger.Warning("Login failed, bad password for: " + req.Username)
		return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
			Message: "Invalid username or password",
			Status:  fiber.StatusUnauthorized,
		})
	}

	token, err := issueToken(&u)
	if err != nil {
		logger.Error("Failed to issue token", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Message: "Failed to login user",
			Status:  fiber.StatusInternalServerError,
		})
	}

	h.setSecureCookie(c, "access", token, 8*60*60)

	logEntry := utils.CreateSanitizedLogEntry(c)
	logEntry.UserUUID = u.Uuid
	h.loggerInstance.Log(logEntry)

	currentTime := time.Now().Format("2006-01-02 03:04:05 PM")
	logger.Success("User logged in successfully. uuid: " + u.Uuid + " at " + currentTime)
	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Message: "Login successful",
		Status:  fiber.StatusOK,
		Token:   token,
		Data:    u,
	})
}

func (h *AuthController) LogOut(c *fiber.Ctx) error {
	h.setSecureCookie(c, "access", "", -1)

	logger.Success("Logout successful")
	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Message: "Logout successful",
		Status:  fiber.StatusOK,
	})
}
