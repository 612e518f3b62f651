package review

import "fmt"

// CreateReviewRequest represents the request payload for submitting a review
type CreateReviewRequest struct {
	BookingID uint   `json:"booking_id" validate:"required"`
	Rating    int    `json:"rating" validate:"required,min=1,max=5"`
	Comment   string `json:"comment" validate:"omitempty,max=2000"`
}

func (r CreateReviewRequest) Validate() error {
	if r.BookingID == 0 {
		return fmt.Errorf("booking_id is required")
	}
	if r.Rating < 1 || r.Rating > 5 {
		return fmt.Errorf("rating must be between 1 and 5")
	}
	if len(r.Comment) > 2000 {
		return fmt.Errorf("comment must not exceed 2000 characters")
	}
	return nil
}
