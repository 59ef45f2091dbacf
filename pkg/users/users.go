// Package users models the provisioning roster: guest and host entries,
// their roles, and the role-to-access-level mapping.
package users

import (
	"fmt"
	"strings"

	"github.com/Mindburn-Labs/tenantbridge/pkg/gateway"
)

// Kind partitions the roster into guest (partner-tenant) and host entries.
type Kind string

const (
	KindGuest Kind = "GUEST"
	KindHost  Kind = "HOST"
)

// Role is the requested role on the provisioned site.
type Role string

const (
	RoleOwner   Role = "OWNER"
	RoleMember  Role = "MEMBER"
	RoleVisitor Role = "VISITOR"
)

// Entry is one roster line.
type Entry struct {
	Email string `yaml:"email" json:"email"`
	Kind  Kind   `yaml:"kind" json:"kind"`
	Role  Role   `yaml:"role" json:"role"`
}

// AccessLevel maps the entry's role to the access level granted on the
// site. Guests never receive full control: guest owners and members both
// map to edit.
func (e Entry) AccessLevel() gateway.AccessLevel {
	if e.Kind == KindGuest {
		switch e.Role {
		case RoleOwner, RoleMember:
			return gateway.AccessEdit
		default:
			return gateway.AccessRead
		}
	}
	switch e.Role {
	case RoleOwner:
		return gateway.AccessFullControl
	case RoleMember:
		return gateway.AccessEdit
	default:
		return gateway.AccessRead
	}
}

// Validate checks the entry fields.
func (e Entry) Validate() error {
	if !strings.Contains(e.Email, "@") {
		return fmt.Errorf("invalid email %q", e.Email)
	}
	switch e.Kind {
	case KindGuest, KindHost:
	default:
		return fmt.Errorf("invalid kind %q for %s", e.Kind, e.Email)
	}
	switch e.Role {
	case RoleOwner, RoleMember, RoleVisitor:
	default:
		return fmt.Errorf("invalid role %q for %s", e.Role, e.Email)
	}
	return nil
}

// ParseKind normalizes a roster cell into a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "GUEST":
		return KindGuest, nil
	case "HOST":
		return KindHost, nil
	default:
		return "", fmt.Errorf("unknown user type %q", s)
	}
}

// ParseRole normalizes a roster cell into a Role.
func ParseRole(s string) (Role, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "OWNER":
		return RoleOwner, nil
	case "MEMBER":
		return RoleMember, nil
	case "VISITOR":
		return RoleVisitor, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}
