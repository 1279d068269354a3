// internal/models/company_request.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// CompanyRequest is a pending application from a prospective tenant. Submitted
// publicly, decided exactly once by a platform administrator, immutable after
// that except for the review fields set at decision time.
type CompanyRequest struct {
	BaseModel
	RequestCode     string        `json:"request_code" gorm:"uniqueIndex;size:20;not null"`
	CompanyName     string        `json:"company_name" gorm:"size:150;not null"`
	LegalName       string        `json:"legal_name" gorm:"size:200"`
	AdminEmail      string        `json:"admin_email" gorm:"size:255;not null;index"`
	Description     string        `json:"description" gorm:"type:text;not null"`
	Industry        string        `json:"industry" gorm:"size:100;not null"`
	ContactPhone    string        `json:"contact_phone" gorm:"size:30"`
	TaxID           string        `json:"tax_id" gorm:"size:30"`
	Status          RequestStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	ReviewedBy      *uuid.UUID    `json:"reviewed_by" gorm:"type:uuid"`
	ReviewedAt      *time.Time    `json:"reviewed_at"`
	RejectionReason string        `json:"rejection_reason,omitempty" gorm:"type:text"`

	// Relationships
	Reviewer *User `json:"reviewer,omitempty" gorm:"foreignKey:ReviewedBy"`
}
