package service

import "fmt"

// CreateServiceRequest represents the request payload for publishing a
// service listing.
type CreateServiceRequest struct {
	Title       string `json:"title" validate:"required,min=1,max=255"`
	Description string `json:"description" validate:"omitempty,max=5000"`
	Price       int64  `json:"price" validate:"required,gt=0"` // minor units
}

func (r CreateServiceRequest) Validate() error {
	if r.Title == "" {
		return fmt.Errorf("title is required")
	}
	if len(r.Title) > 255 {
		return fmt.Errorf("title must not exceed 255 characters")
	}
	if len(r.Description) > 5000 {
		return fmt.Errorf("description must not exceed 5000 characters")
	}
	if r.Price <= 0 {
		return fmt.Errorf("price must be greater than zero")
	}
	return nil
}

// UpdateServiceRequest carries partial listing updates.
type UpdateServiceRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	Price       *int64  `json:"price" validate:"omitempty,gt=0"`
	Active      *bool   `json:"active"`
}

func (r UpdateServiceRequest) Validate() error {
	if r.Title != nil && (*r.Title == "" || len(*r.Title) > 255) {
		return fmt.Errorf("title must be between 1 and 255 characters")
	}
	if r.Description != nil && len(*r.Description) > 5000 {
		return fmt.Errorf("description must not exceed 5000 characters")
	}
	if r.Price != nil && *r.Price <= 0 {
		return fmt.Errorf("price must be greater than zero")
	}
	return nil
}
