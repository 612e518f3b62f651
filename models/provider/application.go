package provider

import (
	"time"

	"marketplace-booking/models/user"
)

// ApplicationStatus is the onboarding state gating the provider role.
type ApplicationStatus string

const (
	ApplicationStatusNone     ApplicationStatus = "none"
	ApplicationStatusPending  ApplicationStatus = "pending"
	ApplicationStatusApproved ApplicationStatus = "approved"
	ApplicationStatusRejected ApplicationStatus = "rejected"
)

// ProviderApplication is the onboarding record for a user requesting the
// provider role.
type ProviderApplication struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	UserID uint      `gorm:"not null;index" json:"user_id"`
	User   user.User `gorm:"foreignKey:UserID" json:"user"`

	BusinessName string `gorm:"type:varchar(255);not null" json:"business_name"`
	Bio          string `gorm:"type:text" json:"bio"`

	Status     ApplicationStatus `gorm:"type:varchar(20);not null;default:pending;index" json:"status"`
	ReviewNote *string           `gorm:"type:text" json:"review_note,omitempty"`
	ReviewedBy *string           `gorm:"type:varchar(255)" json:"reviewed_by,omitempty"`
	ReviewedAt *time.Time        `gorm:"" json:"reviewed_at,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName sets the table name for the ProviderApplication model
func (ProviderApplication) TableName() string {
	return "provider_applications"
}
