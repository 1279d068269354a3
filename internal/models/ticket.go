// internal/models/ticket.go
package models

import (
	"github.com/google/uuid"
)

type Ticket struct {
	BaseModel
	TicketCode  string         `json:"ticket_code" gorm:"uniqueIndex;size:20;not null"`
	CompanyID   uuid.UUID      `json:"company_id" gorm:"type:uuid;not null;index"`
	Title       string         `json:"title" gorm:"size:200;not null"`
	Description string         `json:"description" gorm:"type:text;not null"`
	Status      TicketStatus   `json:"status" gorm:"type:varchar(20);default:'open';index"`
	Priority    TicketPriority `json:"priority" gorm:"type:varchar(20);default:'medium';index"`
	Category    string         `json:"category" gorm:"size:100"`
	CreatedBy   uuid.UUID      `json:"created_by" gorm:"type:uuid;not null;index"`
	AssignedTo  *uuid.UUID     `json:"assigned_to" gorm:"type:uuid"`

	// Relationships
	Company   *Company         `json:"company,omitempty" gorm:"foreignKey:CompanyID"`
	Creator   *User            `json:"creator,omitempty" gorm:"foreignKey:CreatedBy"`
	Assignee  *User            `json:"assignee,omitempty" gorm:"foreignKey:AssignedTo"`
	Responses []TicketResponse `json:"responses,omitempty" gorm:"foreignKey:TicketID"`
}

type TicketResponse struct {
	BaseModel
	TicketID       uuid.UUID `json:"ticket_id" gorm:"type:uuid;not null;index"`
	AuthorID       uuid.UUID `json:"author_id" gorm:"type:uuid;not null"`
	Body           string    `json:"body" gorm:"type:text;not null"`
	IsInternal     bool      `json:"is_internal" gorm:"default:false"`
	AttachmentURL  string    `json:"attachment_url,omitempty" gorm:"size:500"`
	AttachmentKey  string    `json:"attachment_key,omitempty" gorm:"size:300"`
	AttachmentSize int64     `json:"attachment_size,omitempty"`
	AttachmentMime string    `json:"attachment_mime,omitempty" gorm:"size:100"`

	// Relationships
	Ticket *Ticket `json:"ticket,omitempty" gorm:"foreignKey:TicketID"`
	Author *User   `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
}
