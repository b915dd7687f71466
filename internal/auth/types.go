package auth

import (
	"strings"
	"time"
)

// Role is the coarse role attached to a principal. Admins are global: they may
// read and write data in any tenant. Users are bound to their home tenant.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole normalizes raw role input, defaulting to RoleUser.
func ParseRole(raw string) Role {
	if strings.EqualFold(strings.TrimSpace(raw), string(RoleAdmin)) {
		return RoleAdmin
	}
	return RoleUser
}

// Principal is the authenticated identity snapshot embedded in the session
// cookie and attached to request contexts.
type Principal struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name,omitempty"`
	Role         Role   `json:"role"`
	HomeTenantID string `json:"home_tenant_id,omitempty"`
}

// IsAdmin reports whether the principal holds the global admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// User is the persisted account backing a principal. The home-tenant linkage
// is set once at creation and is not re-derived per request.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name,omitempty"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	HomeTenantID string    `json:"home_tenant_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Principal returns the session snapshot for the user.
func (u *User) Principal() Principal {
	return Principal{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		Role:         u.Role,
		HomeTenantID: u.HomeTenantID,
	}
}
