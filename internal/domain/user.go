package domain

import (
	"slices"
	"time"
)

// Role codes carried in access tokens.
const (
	RoleStudent   = "student"
	RoleOrganizer = "organizer"
)

// Caller is the authenticated identity behind a request. Capabilities are
// derived from Roles and checked explicitly by each operation.
type Caller struct {
	UserID string
	Roles  []string
}

// NewCaller returns a Caller for userID with the given roles.
func NewCaller(userID string, roles ...string) Caller {
	return Caller{UserID: userID, Roles: roles}
}

// HasRole reports whether the caller carries role.
func (c Caller) HasRole(role string) bool {
	return slices.Contains(c.Roles, role)
}

func (c Caller) IsStudent() bool { return c.UserID != "" && c.HasRole(RoleStudent) }

func (c Caller) IsOrganizer() bool { return c.UserID != "" && c.HasRole(RoleOrganizer) }

// Owns reports whether the caller is the organizer of event.
func (c Caller) Owns(event *Event) bool {
	return event != nil && c.IsOrganizer() && event.OwnerID == c.UserID
}

// TokenIssuer issues access tokens (e.g. JWT) for a user.
type TokenIssuer interface {
	Issue(userID string, roles []string, expiry time.Duration) (string, error)
}

// TokenVerifier verifies an access token and returns the caller it identifies.
type TokenVerifier interface {
	Verify(token string) (Caller, error)
}
