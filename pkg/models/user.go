package models

import (
	"time"

	"github.com/uptrace/bun"
)

// User is the authenticated-actor record. Authentication itself happens
// upstream; this is the identity, role, and permission set the core checks
// transitions against.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID        int       `bun:",pk,nullzero" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Username  string    `bun:",nullzero" json:"username"`
	Email     *string   `json:"email,omitempty"`
	RoleID    int       `json:"role_id"`
	IsActive  bool      `json:"is_active"`

	Role *Role `bun:"rel:belongs-to,join:role_id=id" json:"role,omitempty"`
}

// HasPermission checks if the user has a specific permission.
func (u *User) HasPermission(resource, operation string) bool {
	if u.Role == nil {
		return false
	}
	return u.Role.HasPermission(resource, operation)
}

// IsLibrarian reports whether the user holds the librarian role.
func (u *User) IsLibrarian() bool {
	return u.Role != nil && u.Role.Name == RoleLibrarian
}
