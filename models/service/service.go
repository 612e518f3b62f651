package service

import (
	"time"

	"marketplace-booking/models/provider"
)

// Service is one bookable offering published by a provider.
type Service struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	// Foreign key for provider relationship
	ProviderID uint              `gorm:"not null;index" json:"provider_id"`
	Provider   provider.Provider `gorm:"foreignKey:ProviderID" json:"provider"`

	Title       string `gorm:"type:varchar(255);not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`

	// Minor currency units (NZD cents).
	Price    int64  `gorm:"not null" json:"price"`
	Currency string `gorm:"type:varchar(3);not null;default:nzd" json:"currency"`

	Active bool `gorm:"default:true;index" json:"active"`

	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt *time.Time `gorm:"index" json:"deleted_at,omitempty"`
}
