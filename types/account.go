package types

import (
	"fmt"
	"strings"
	"time"
)

// Role is an account's authorization level. The set is closed: any value not
// listed below is rejected at every boundary.
type Role string

const (
	// RoleParent is the least privileged role and the registration default.
	RoleParent Role = "parent"

	// RoleStaff is a daycare staff member.
	RoleStaff Role = "staff"

	// RoleSupervisor is a privileged role; self-registration needs the admin key.
	RoleSupervisor Role = "supervisor"

	// RoleAdmin is a privileged role; self-registration needs the admin key.
	RoleAdmin Role = "admin"
)

// Roles lists every valid role from least to most privileged.
func Roles() []Role {
	return []Role{RoleParent, RoleStaff, RoleSupervisor, RoleAdmin}
}

// ParseRole maps a wire value onto the closed role set. Matching is
// case-insensitive and ignores surrounding whitespace.
func ParseRole(value string) (Role, error) {
	candidate := Role(strings.ToLower(strings.TrimSpace(value)))
	if candidate.Valid() {
		return candidate, nil
	}
	return "", fmt.Errorf("unknown role %q", value)
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleParent, RoleStaff, RoleSupervisor, RoleAdmin:
		return true
	default:
		return false
	}
}

// Privileged reports whether r grants elevated access.
func (r Role) Privileged() bool {
	return r == RoleSupervisor || r == RoleAdmin
}

func (r Role) String() string {
	return string(r)
}

// Account represents a persisted identity.
// It contains identity, role, and audit metadata.
type Account struct {
	// ID is the unique identifier of the account.
	ID string `json:"id" db:"id"`

	// Name is the account holder's display name.
	Name string `json:"name" db:"name"`

	// Email is unique across accounts; lookups compare it case-insensitively.
	Email string `json:"email" db:"email"`

	// PasswordHash stores the bcrypt hash of the account's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// Role is the account's authorization level.
	Role Role `json:"role" db:"role"`

	// CreatedAt is the timestamp when the account was created.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the account.
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// NormalizeEmail returns the canonical form used for storage and lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
