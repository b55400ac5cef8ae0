// internal/core/domain/access.go
package domain

import (
	"fmt"
	"strings"
	"time"
)

// Role is the closed set of user roles.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleManager    Role = "manager"
	RoleTechnician Role = "technician"
	RoleViewer     Role = "viewer"
)

// ParseRole maps a role name to a Role.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := capabilityTable[r]; !ok {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Capability is an action checked at the API boundary.
type Capability string

const (
	CapItemsRead   Capability = "items:read"
	CapItemsWrite  Capability = "items:write"
	CapItemsDelete Capability = "items:delete"
	CapStockAdjust Capability = "stock:adjust"
	CapReportsRead Capability = "reports:read"
	CapLoansRead   Capability = "loans:read"
)

var capabilityTable = map[Role]map[Capability]bool{
	RoleViewer: {
		CapItemsRead:   true,
		CapReportsRead: true,
	},
	RoleTechnician: {
		CapItemsRead:   true,
		CapReportsRead: true,
		CapLoansRead:   true,
		CapStockAdjust: true,
	},
	RoleManager: {
		CapItemsRead:   true,
		CapReportsRead: true,
		CapLoansRead:   true,
		CapStockAdjust: true,
		CapItemsWrite:  true,
	},
	RoleAdmin: {
		CapItemsRead:   true,
		CapReportsRead: true,
		CapLoansRead:   true,
		CapStockAdjust: true,
		CapItemsWrite:  true,
		CapItemsDelete: true,
	},
}

// Can reports whether role grants capability.
func (r Role) Can(c Capability) bool {
	return capabilityTable[r][c]
}

// Principal is the authenticated caller of a request.
type Principal struct {
	Subject string `json:"subject"`
	Email   string `json:"email"`
	Name    string `json:"name,omitempty"`
	Role    Role   `json:"role"`
}

// Actor is the identity recorded on ledger entries.
func (p *Principal) Actor() string {
	if p == nil {
		return ""
	}
	if p.Email != "" {
		return p.Email
	}
	return p.Name
}

// Session is a persisted login.
type Session struct {
	ID        string    `json:"id"`
	Principal Principal `json:"principal"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}
