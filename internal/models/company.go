// internal/models/company.go
package models

import (
	"github.com/google/uuid"
)

type Company struct {
	BaseModel
	CompanyCode  string        `json:"company_code" gorm:"uniqueIndex;size:20;not null"`
	Name         string        `json:"name" gorm:"size:150;not null"`
	LegalName    string        `json:"legal_name" gorm:"size:200"`
	Industry     string        `json:"industry" gorm:"size:100"`
	SupportEmail string        `json:"support_email" gorm:"size:255"`
	SupportPhone string        `json:"support_phone" gorm:"size:30"`
	Website      string        `json:"website" gorm:"size:255"`
	LogoURL      string        `json:"logo_url" gorm:"size:500"`
	Status       CompanyStatus `json:"status" gorm:"type:varchar(20);default:'active'"`
	AdminUserID  uuid.UUID     `json:"admin_user_id" gorm:"type:uuid;not null"`

	// Relationships
	AdminUser *User      `json:"admin_user,omitempty" gorm:"foreignKey:AdminUserID"`
	Roles     []UserRole `json:"-" gorm:"foreignKey:CompanyID"`
	Tickets   []Ticket   `json:"-" gorm:"foreignKey:CompanyID"`
}

// CompanyPublic is the projection returned by the approval workflow and the
// company endpoints.
type CompanyPublic struct {
	ID           uuid.UUID     `json:"id"`
	CompanyCode  string        `json:"company_code"`
	Name         string        `json:"name"`
	LegalName    string        `json:"legal_name,omitempty"`
	Industry     string        `json:"industry,omitempty"`
	SupportEmail string        `json:"support_email,omitempty"`
	Status       CompanyStatus `json:"status"`
}

func (c *Company) Public() CompanyPublic {
	return CompanyPublic{
		ID:           c.ID,
		CompanyCode:  c.CompanyCode,
		Name:         c.Name,
		LegalName:    c.LegalName,
		Industry:     c.Industry,
		SupportEmail: c.SupportEmail,
		Status:       c.Status,
	}
}
