package utils

import (
	"errors"
	"fmt"
	"strings"

	"marketplace-booking/models/provider"
	"marketplace-booking/models/user"

	"github.com/bwmarrin/snowflake"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var refNode *snowflake.Node

func init() {
	// Node id 1; single-instance deployment. Booking references only need to
	// be unique and roughly time ordered.
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(fmt.Sprintf("snowflake node: %v", err))
	}
	refNode = node
}

// NewBookingNumber generates a unique, time-sortable booking reference.
func NewBookingNumber() string {
	return "BK-" + refNode.Generate().String()
}

// ClaimsFromContext pulls the JWT claims the auth middleware stored on the
// request context.
func ClaimsFromContext(c *fiber.Ctx) (map[string]interface{}, error) {
	claims, ok := c.Locals("user").(map[string]interface{})
	if !ok {
		return nil, errors.New("invalid user claims")
	}
	return claims, nil
}

// UUIDFromContext extracts the authenticated user's UUID from the claims.
func UUIDFromContext(c *fiber.Ctx) (string, error) {
	claims, err := ClaimsFromContext(c)
	if err != nil {
		return "", err
	}
	uuid, ok := claims["uuid"].(string)
	if !ok || uuid == "" {
		return "", errors.New("user UUID not found in token")
	}
	return uuid, nil
}

// GetUserByUUID retrieves a user by their UUID from the database
func GetUserByUUID(db *gorm.DB, uuid string) (*user.User, error) {
	if uuid == "" {
		return nil, errors.New("UUID cannot be empty")
	}

	var userModel user.User
	if err := db.Where("uuid = ?", uuid).First(&userModel).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("user not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	return &userModel, nil
}

// GetProviderByUserID loads the provider profile owned by the given user.
func GetProviderByUserID(db *gorm.DB, userID uint) (*provider.Provider, error) {
	var p provider.Provider
	if err := db.Where("user_id = ?", userID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("provider profile not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &p, nil
}

// FormatAmountNZD renders an amount in minor units as an NZD display string,
// e.g. 5000 -> "NZD $50.00". Used everywhere an amount is shown so display
// and charge logic cannot diverge.
func FormatAmountNZD(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("NZD %s$%d.%02d", sign, minor/100, minor%100)
}

// CSVEscape quotes a free-text field for CSV output, doubling any embedded
// double quotes.
func CSVEscape(field string) string {
	if strings.ContainsAny(field, ",\"\n") {
		return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
	}
	return field
}
