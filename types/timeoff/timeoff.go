package timeoff

import (
	"fmt"
	"time"
)

// CreateTimeOffRequest represents the request payload for creating a time-off block
type CreateTimeOffRequest struct {
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
	Reason    string `json:"reason" validate:"omitempty,max=255"`
}

// Validate checks the payload and returns the parsed interval. End must be
// strictly after start; violations block the request before any write.
func (r CreateTimeOffRequest) Validate() (start, end time.Time, err error) {
	if r.StartTime == "" {
		return start, end, fmt.Errorf("start_time is required")
	}
	if r.EndTime == "" {
		return start, end, fmt.Errorf("end_time is required")
	}
	start, err = time.Parse(time.RFC3339, r.StartTime)
	if err != nil {
		return start, end, fmt.Errorf("start_time must be an RFC3339 timestamp")
	}
	end, err = time.Parse(time.RFC3339, r.EndTime)
	if err != nil {
		return start, end, fmt.Errorf("end_time must be an RFC3339 timestamp")
	}
	if !end.After(start) {
		return start, end, fmt.Errorf("end_time must be after start_time")
	}
	if len(r.Reason) > 255 {
		return start, end, fmt.Errorf("reason must not exceed 255 characters")
	}
	return start, end, nil
}
