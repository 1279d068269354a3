// internal/queue/queue.go
package queue

import (
	"context"
	"time"
)

type MailKind string

const (
	MailCompanyRequestReceived      MailKind = "company_request_received"
	MailCompanyApprovalNewUser      MailKind = "company_approval_new_user"
	MailCompanyApprovalExistingUser MailKind = "company_approval_existing_user"
	MailCompanyRejection            MailKind = "company_rejection"
	MailTicketResponse              MailKind = "ticket_response"
)

// MailJob is the payload handed to the asynchronous mail worker. Kind alone
// decides which template is rendered; TemporaryPassword must be set for
// MailCompanyApprovalNewUser and empty for every other kind.
type MailJob struct {
	Kind MailKind `json:"kind"`
	To   string   `json:"to"`
	Lang string   `json:"lang,omitempty"`

	RecipientName string `json:"recipient_name,omitempty"`
	RequestCode   string `json:"request_code,omitempty"`
	CompanyName   string `json:"company_name,omitempty"`
	CompanyCode   string `json:"company_code,omitempty"`

	TemporaryPassword string     `json:"temporary_password,omitempty"`
	PasswordExpiresAt *time.Time `json:"password_expires_at,omitempty"`

	RejectionReason string `json:"rejection_reason,omitempty"`

	TicketCode   string `json:"ticket_code,omitempty"`
	TicketTitle  string `json:"ticket_title,omitempty"`
	ResponseBody string `json:"response_body,omitempty"`
}

// MailQueue accepts mail jobs for at-least-once asynchronous delivery.
type MailQueue interface {
	Enqueue(ctx context.Context, job MailJob) error
	Close() error
}
