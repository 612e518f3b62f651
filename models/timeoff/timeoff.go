package timeoff

import (
	"time"

	"marketplace-booking/models/provider"
)

// TimeOffBlock is a provider-declared unavailability interval. End must be
// strictly after start; there is no status machine.
type TimeOffBlock struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	ProviderID uint              `gorm:"not null;index" json:"provider_id"`
	Provider   provider.Provider `gorm:"foreignKey:ProviderID" json:"provider"`

	StartTime time.Time `gorm:"not null;index" json:"start_time"`
	EndTime   time.Time `gorm:"not null;index" json:"end_time"`
	Reason    string    `gorm:"type:varchar(255)" json:"reason"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName sets the table name for the TimeOffBlock model
func (TimeOffBlock) TableName() string {
	return "time_off_blocks"
}
