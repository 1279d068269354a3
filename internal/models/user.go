// internal/models/user.go
package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

type User struct {
	BaseModel
	Email                      string     `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash               string     `json:"-" gorm:"size:255;not null"`
	FullName                   string     `json:"full_name" gorm:"size:150;not null"`
	Status                     UserStatus `json:"status" gorm:"type:varchar(20);default:'active'"`
	IsPlatformAdmin            bool       `json:"is_platform_admin" gorm:"default:false"`
	HasTemporaryPassword       bool       `json:"has_temporary_password" gorm:"default:false"`
	TemporaryPasswordExpiresAt *time.Time `json:"temporary_password_expires_at"`
	EmailVerifiedAt            *time.Time `json:"email_verified_at"`
	LastLoginAt                *time.Time `json:"last_login_at"`

	// Relationships
	Roles []UserRole `json:"roles,omitempty" gorm:"foreignKey:UserID"`
}

func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
}

// TemporaryPasswordExpired reports whether the user still carries a temporary
// password whose validity window has already passed.
func (u *User) TemporaryPasswordExpired(now time.Time) bool {
	return u.HasTemporaryPassword &&
		u.TemporaryPasswordExpiresAt != nil &&
		now.After(*u.TemporaryPasswordExpiresAt)
}
