package review

import (
	"time"

	"marketplace-booking/models/provider"
	"marketplace-booking/models/user"
)

// Review is customer feedback tied to one completed booking. At most one
// review exists per booking.
type Review struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	BookingID uint `gorm:"not null;uniqueIndex" json:"booking_id"`

	CustomerID uint      `gorm:"not null;index" json:"customer_id"`
	Customer   user.User `gorm:"foreignKey:CustomerID" json:"customer"`

	ProviderID uint              `gorm:"not null;index" json:"provider_id"`
	Provider   provider.Provider `gorm:"foreignKey:ProviderID" json:"provider"`

	Rating  int    `gorm:"not null" json:"rating"` // 1..5
	Comment string `gorm:"type:text" json:"comment"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
