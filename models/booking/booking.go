package booking

import (
	"time"

	"marketplace-booking/models/provider"
	"marketplace-booking/models/service"
	"marketplace-booking/models/user"
)

// Booking represents one service request from a customer to a provider.
type Booking struct {
	ID            uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	BookingNumber string `gorm:"type:varchar(64);not null;unique" json:"booking_number"`

	// Foreign key for service relationship
	ServiceID uint            `gorm:"not null;index" json:"service_id"`
	Service   service.Service `gorm:"foreignKey:ServiceID" json:"service"`

	// Foreign key for provider relationship
	ProviderID uint              `gorm:"not null;index" json:"provider_id"`
	Provider   provider.Provider `gorm:"foreignKey:ProviderID" json:"provider"`

	// Foreign key for customer relationship
	CustomerID uint      `gorm:"not null;index" json:"customer_id"`
	Customer   user.User `gorm:"foreignKey:CustomerID" json:"customer"`

	Status BookingStatus `gorm:"type:varchar(50);not null;default:pending;index" json:"status"`

	// Minor currency units (NZD cents). A positive provider quote supersedes
	// the price captured at booking time; see ResolveAmount.
	PriceAtBooking      int64  `gorm:"not null" json:"price_at_booking"`
	ProviderQuotedPrice *int64 `gorm:"" json:"provider_quoted_price,omitempty"`

	// Set on acceptance.
	ScheduledAt *time.Time `gorm:"index" json:"scheduled_at,omitempty"`

	// Present only once the customer has initiated payment.
	PaymentIntentID   *string `gorm:"type:varchar(255);index" json:"payment_intent_id,omitempty"`
	CheckoutSessionID *string `gorm:"type:varchar(255)" json:"checkout_session_id,omitempty"`

	Note          string  `gorm:"type:text" json:"note"`
	DeclineReason *string `gorm:"type:text" json:"decline_reason,omitempty"`
	CancelReason  *string `gorm:"type:text" json:"cancel_reason,omitempty"`

	PaidAt      *time.Time `gorm:"" json:"paid_at,omitempty"`
	CompletedAt *time.Time `gorm:"" json:"completed_at,omitempty"`
	CanceledAt  *time.Time `gorm:"" json:"canceled_at,omitempty"`

	Reviewed bool `gorm:"default:false" json:"reviewed"`

	CreatedBy string     `gorm:"type:varchar(255);not null" json:"created_by"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedBy string     `gorm:"type:varchar(255)" json:"updated_by,omitempty"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt *time.Time `gorm:"index" json:"deleted_at,omitempty"` // Soft delete field
}

// Amount returns the authoritative amount to charge for this booking.
func (b *Booking) Amount() int64 {
	return ResolveAmount(b.ProviderQuotedPrice, b.PriceAtBooking)
}
