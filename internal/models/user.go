package models

import (
	"time"

	"gorm.io/datatypes"
)

type UserRole string

const (
	UserRoleStudent UserRole = "student"
	UserRoleAdmin   UserRole = "admin"
)

// User is the credential store record: identity, password hash, role,
// email-verification state, and the monotonic refresh-token version counter.
//
// VerificationCode and VerificationExpiresAt are either both null or both
// set, and never leave the server (json:"-"). RefreshTokenVersion only
// increases; a refresh token is valid only while its embedded snapshot
// equals the stored value.
type User struct {
	BaseModel
	Name         string   `gorm:"not null" json:"name"`
	Email        string   `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string   `gorm:"not null" json:"-"`
	Role         UserRole `gorm:"type:varchar(20);default:'student'" json:"role"`

	// FaceDescriptor is an opaque embedding captured at registration for the
	// proctoring client. Stored as a JSON array; no recognition happens here.
	FaceDescriptor datatypes.JSON `json:"faceDescriptor,omitempty"`

	EmailVerified         bool       `gorm:"default:false" json:"emailVerified"`
	VerificationCode      *string    `json:"-"`
	VerificationExpiresAt *time.Time `json:"-"`

	RefreshTokenVersion int `gorm:"not null;default:0" json:"-"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}
