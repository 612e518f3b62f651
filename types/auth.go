package types

import "strings"

// RegisterUserRequest is the local account registration payload.
type RegisterUserRequest struct {
	Username  string `json:"username" validate:"required,min=3"`
	LegalName string `json:"legal_name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone"`
	Password  string `json:"password" validate:"required,min=8"`
	Role      string `json:"role"` // customer | provider
}

// Validate returns a human readable error message, empty when valid.
func (r RegisterUserRequest) Validate() string {
	if strings.TrimSpace(r.Username) == "" || len(r.Username) < 3 {
		return "Username must be at least 3 characters"
	}
	if strings.TrimSpace(r.LegalName) == "" {
		return "Legal name is required"
	}
	if !strings.Contains(r.Email, "@") {
		return "A valid email address is required"
	}
	if len(r.Password) < 8 {
		return "Password must be at least 8 characters"
	}
	switch r.Role {
	case "", "customer", "provider":
	default:
		return "Role must be customer or provider"
	}
	return ""
}

// LoginRequest is the credential login payload.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (r LoginRequest) Validate() string {
	if strings.TrimSpace(r.Username) == "" {
		return "Username is required"
	}
	if r.Password == "" {
		return "Password is required"
	}
	return ""
}

// ErrorResponse is the error envelope used by auth endpoints.
type ErrorResponse struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}
