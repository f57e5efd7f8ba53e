package models

import "time"

// Role is the coarse authorization tier attached to a user.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleMember
}

// RoleOrMember decodes a stored role. Records with a missing or unknown role
// are treated as members, the default every account is created with.
func RoleOrMember(s string) Role {
	if r := Role(s); r.Valid() {
		return r
	}
	return RoleMember
}

// User represents an account in the system
type User struct {
	ID              string    `json:"_id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	PasswordHash    string    `json:"-"`
	Role            Role      `json:"role"`
	ProfileImageURL string    `json:"profileImageUrl,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// UserRef is the public projection of a user embedded in task responses.
type UserRef struct {
	ID              string `json:"_id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	ProfileImageURL string `json:"profileImageUrl,omitempty"`
}

func (u *User) Ref() UserRef {
	return UserRef{
		ID:              u.ID,
		Name:            u.Name,
		Email:           u.Email,
		ProfileImageURL: u.ProfileImageURL,
	}
}
