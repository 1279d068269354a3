// internal/models/role.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// UserRole binds a user to a company with a permission role. A user may hold
// the same role code across several companies but only one active binding per
// (user, company, role_code).
type UserRole struct {
	BaseModel
	UserID    uuid.UUID  `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_user_roles_binding"`
	CompanyID uuid.UUID  `json:"company_id" gorm:"type:uuid;not null;uniqueIndex:idx_user_roles_binding"`
	RoleCode  RoleCode   `json:"role_code" gorm:"type:varchar(30);not null;uniqueIndex:idx_user_roles_binding"`
	Active    bool       `json:"active" gorm:"default:true"`
	GrantedBy *uuid.UUID `json:"granted_by" gorm:"type:uuid"`
	GrantedAt time.Time  `json:"granted_at"`

	// Relationships
	User    *User    `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Company *Company `json:"company,omitempty" gorm:"foreignKey:CompanyID"`
}
