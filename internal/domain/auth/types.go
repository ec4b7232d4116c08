package auth

// Package auth contains domain-level types for identity resolution and
// sessions. It is pure and free of framework/adapter concerns.

import "time"

// Role represents an application's authorization role.
// Keep string form for easy persistence and cookies.
// Valid values are defined as constants below.
type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleAdmin      Role = "admin"
	RoleSubAdmin   Role = "sub_admin"
)

// Roles lists every valid role.
var Roles = []Role{RoleSuperAdmin, RoleAdmin, RoleSubAdmin}

// IsValid reports whether r is a member of the closed role set.
func (r Role) IsValid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleSubAdmin:
		return true
	}
	return false
}

// Identity represents the signed-in principal as issued by the identity
// provider. It is immutable from this system's perspective.
type Identity struct {
	ID          string // stable subject identifier (e.g. uid or sub)
	Email       string
	DisplayName string // provider-supplied name, may be empty
}

// UserProfile is the persisted document describing a user's role, activity
// status, and display metadata. The Role field holds the raw stored string,
// which may be malformed; it is normalized during resolution.
type UserProfile struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	Name        string    `json:"name,omitempty"`
	IsActive    bool      `json:"is_active"`
	AutoCreated bool      `json:"auto_created"`
	CreatedAt   time.Time `json:"created_at"`
}

// AuthenticatedUser is the in-memory, validated representation derived from
// a UserProfile for a given Identity. It is constructed fresh on every
// successful resolution and never partially updated. It must never be built
// from an inactive profile.
type AuthenticatedUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
}

// AuditEvent records an authentication lifecycle action for the audit trail.
type AuditEvent struct {
	ID     string    `json:"id"`
	Action string    `json:"action"`
	UserID string    `json:"user_id"`
	Email  string    `json:"email"`
	Role   Role      `json:"role"`
	At     time.Time `json:"at"`
}

// Audit actions recorded by the auth service.
const (
	AuditActionLogin          = "login"
	AuditActionLogout         = "logout"
	AuditActionSessionTimeout = "session_timeout"
)
