package constants

// Marketplace permissions
const (
	// Admin permissions
	PermAdminFull     = "marketplace.admin.full-permit"
	PermModeratorFull = "marketplace.moderator.full-permit"

	// Actor permissions
	PermProviderFull = "marketplace.provider.full-permit"
	PermCustomerFull = "marketplace.customer.full-permit"

	// Special permissions
	PermAny = "any"
)

// Permission groups for convenience
var (
	ModerationPermissions = []string{
		PermAdminFull,
		PermModeratorFull,
	}
)
