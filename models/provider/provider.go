package provider

import (
	"time"

	"marketplace-booking/models/user"

	"gorm.io/datatypes"
)

// KYCStatus tracks identity/business verification progress.
type KYCStatus string

const (
	KYCStatusNotStarted    KYCStatus = "not_started"
	KYCStatusInProgress    KYCStatus = "in_progress"
	KYCStatusPendingReview KYCStatus = "pending_review"
	KYCStatusVerified      KYCStatus = "verified"
	KYCStatusRejected      KYCStatus = "rejected"
)

func (ks KYCStatus) String() string {
	return string(ks)
}

func (ks KYCStatus) IsValid() bool {
	switch ks {
	case KYCStatusNotStarted, KYCStatusInProgress, KYCStatusPendingReview,
		KYCStatusVerified, KYCStatusRejected:
		return true
	default:
		return false
	}
}

// ModerationStatus is the admin approval state of the provider account.
type ModerationStatus string

const (
	ModerationPending  ModerationStatus = "pending"
	ModerationApproved ModerationStatus = "approved"
	ModerationRejected ModerationStatus = "rejected"
)

// Provider is a business entity offering services on the marketplace.
type Provider struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	// Foreign key for users relationship
	UserID uint      `gorm:"not null;uniqueIndex" json:"user_id"`
	User   user.User `gorm:"foreignKey:UserID" json:"user"`

	BusinessName string `gorm:"type:varchar(255);not null" json:"business_name"`
	Bio          string `gorm:"type:text" json:"bio"`

	KYCStatus   KYCStatus      `gorm:"type:varchar(50);not null;default:not_started;index" json:"kyc_status"`
	KYCMetadata datatypes.JSON `gorm:"type:json" json:"kyc_metadata,omitempty"`

	TrustScore int    `gorm:"default:0" json:"trust_score"` // 0..100
	TrustLevel string `gorm:"type:varchar(20);default:new" json:"trust_level"`

	// Payment processor enablement flags, flipped on verification.
	ChargesEnabled bool `gorm:"default:false" json:"charges_enabled"`
	PayoutsEnabled bool `gorm:"default:false" json:"payouts_enabled"`

	// AES-encrypted at rest; never serialized.
	PayoutAccountEncrypted *string `gorm:"type:text" json:"-"`

	ModerationStatus ModerationStatus `gorm:"type:varchar(20);not null;default:pending;index" json:"moderation_status"`
	Suspended        bool             `gorm:"default:false;index" json:"suspended"`

	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt *time.Time `gorm:"index" json:"deleted_at,omitempty"`
}

// CanTakeBookings reports whether the provider may receive new bookings.
func (p *Provider) CanTakeBookings() bool {
	return p.ModerationStatus == ModerationApproved && !p.Suspended
}

// CanBePaid reports whether payment may be initiated for the provider's
// bookings. KYC gates charge enablement.
func (p *Provider) CanBePaid() bool {
	return p.CanTakeBookings() && p.KYCStatus == KYCStatusVerified && p.ChargesEnabled
}
