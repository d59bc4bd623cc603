package models

import "github.com/golang-jwt/jwt/v5"

// Roles carried in API tokens. Token issuance is handled by the platform's
// identity service; this service only validates and reads claims.
const (
	RoleMerchant  = "merchant"
	RoleCustodian = "custodian"
	RoleAdmin     = "admin"
)

// API permissions
const (
	PermissionRouteWrite      = "route:write"
	PermissionPayoutRequest   = "payout:request"
	PermissionPayoutCancel    = "payout:cancel"
	PermissionObligationAdmin = "obligation:admin"
	PermissionCircuitRead     = "circuit:read"
)

type APIClaims struct {
	jwt.RegisteredClaims
	ActorID     uint     `json:"actor_id"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

// HasPermission checks if the claims include a specific permission
func (c *APIClaims) HasPermission(permission string) bool {
	for _, p := range c.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// GetDefaultPermissions returns default permissions based on role
func GetDefaultPermissions(role string) []string {
	switch role {
	case RoleAdmin:
		return []string{
			PermissionRouteWrite,
			PermissionPayoutRequest,
			PermissionPayoutCancel,
			PermissionObligationAdmin,
			PermissionCircuitRead,
		}
	case RoleMerchant:
		return []string{PermissionRouteWrite}
	case RoleCustodian:
		return []string{
			PermissionPayoutRequest,
			PermissionPayoutCancel,
		}
	default:
		return []string{}
	}
}
