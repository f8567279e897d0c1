package entity

import (
	"strings"
	"time"
)

// Role is the authorization role attached to a User.
type Role string

const (
	RoleStaff Role = "Staff"
	RoleHR    Role = "HR"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleStaff || r == RoleHR
}

// User is the aggregate root for the user/session domain.
// There is no password: login is passwordless via a single-use magic-link
// token, exchanged for an opaque session token. Both live on the user
// document so that issuance and consumption can be single atomic updates.
//
// A Staff user is scoped to exactly one department; HR carries no department
// and sees all records.
type User struct {
	ID         string `bson:"_id,omitempty"`
	Email      string `bson:"email"`
	Role       Role   `bson:"role"`
	Department string `bson:"department,omitempty"`

	MagicLinkToken        string     `bson:"magicLinkToken,omitempty"`
	MagicLinkTokenExpires *time.Time `bson:"magicLinkTokenExpires,omitempty"`
	SessionToken          string     `bson:"sessionToken,omitempty"`
	SessionExpires        *time.Time `bson:"sessionExpires,omitempty"`

	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// NormalizeEmail lowercases and trims an email for use as the unique identity.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Identity is the resolved, authenticated caller handed to the services.
type Identity struct {
	Email      string `json:"email"`
	Role       Role   `json:"role"`
	Department string `json:"department,omitempty"`
}
