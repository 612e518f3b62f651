package provider

import (
	"fmt"

	providerModel "marketplace-booking/models/provider"
)

// ApplyRequest represents the request payload for a provider application
type ApplyRequest struct {
	BusinessName string `json:"business_name" validate:"required,min=1,max=255"`
	Bio          string `json:"bio" validate:"omitempty,max=2000"`
}

func (r ApplyRequest) Validate() error {
	if r.BusinessName == "" {
		return fmt.Errorf("business_name is required")
	}
	if len(r.BusinessName) > 255 {
		return fmt.Errorf("business_name must not exceed 255 characters")
	}
	if len(r.Bio) > 2000 {
		return fmt.Errorf("bio must not exceed 2000 characters")
	}
	return nil
}

// ReviewApplicationRequest is the admin decision payload.
type ReviewApplicationRequest struct {
	Note string `json:"note" validate:"omitempty,max=2000"`
}

// SetKYCStatusRequest is the admin KYC decision payload.
type SetKYCStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func (r SetKYCStatusRequest) Validate() error {
	if r.Status == "" {
		return fmt.Errorf("status is required")
	}
	if !providerModel.KYCStatus(r.Status).IsValid() {
		return fmt.Errorf("unknown kyc status: %s", r.Status)
	}
	return nil
}

// SetPayoutAccountRequest carries the payout account reference to store
// encrypted at rest.
type SetPayoutAccountRequest struct {
	AccountReference string `json:"account_reference" validate:"required,min=1,max=255"`
}

func (r SetPayoutAccountRequest) Validate() error {
	if r.AccountReference == "" {
		return fmt.Errorf("account_reference is required")
	}
	if len(r.AccountReference) > 255 {
		return fmt.Errorf("account_reference must not exceed 255 characters")
	}
	return nil
}
