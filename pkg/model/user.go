package model

import "time"

// UserType distinguishes the SuperAdmin shortcut in the authorization
// engine from every other account.
type UserType string

const (
	UserTypeRegular    UserType = "Regular"
	UserTypeSuperAdmin UserType = "SuperAdmin"
)

// User is created on first successful introspection of an unknown subject,
// or explicitly by an admin.
type User struct {
	ID           ID
	ExternalID   *string
	DisplayName  string
	Email        string
	UserType     UserType
	CreatedTime  time.Time
	ModifiedTime time.Time
}

// IsSuperAdmin reports whether the authorization engine's shortcut rule
// applies to this user.
func (u User) IsSuperAdmin() bool { return u.UserType == UserTypeSuperAdmin }

// ExternalIdentity is what the OIDC/apikey credential strategies resolve a
// bearer to before it is matched against User.ExternalID. A caller with an
// ExternalIdentity but no matching User row is still "identified" but not
// yet a usable account — only endpoints like "apply user" treat it as
// enough to act on.
type ExternalIdentity struct {
	Issuer  string
	Subject string
	Claims  map[string]any
}
