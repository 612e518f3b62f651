package booking_event

import (
	bookingModel "marketplace-booking/models/booking"

	"gorm.io/gorm"
)

// RecordStatusEvent writes one audit row for a committed status transition.
func RecordStatusEvent(tx *gorm.DB, b *bookingModel.Booking, from bookingModel.BookingStatus, action bookingModel.Action, actor bookingModel.Actor, reason *string, createdBy string) error {
	ev := bookingModel.BookingStatusEvent{
		BookingID:  b.ID,
		FromStatus: from,
		ToStatus:   b.Status,
		Action:     action,
		Actor:      actor,
		Reason:     reason,
		CreatedBy:  createdBy,
	}

	return tx.Create(&ev).Error
}
