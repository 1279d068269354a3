// internal/services/errors.go
package services

import (
	"errors"
	"fmt"

	"github.com/elingeyesdev/tickets-incidentes-sub002/internal/models"
)

var (
	ErrRequestNotFound         = errors.New("company request not found")
	ErrCompanyNotFound         = errors.New("company not found")
	ErrUserNotFound            = errors.New("user not found")
	ErrTicketNotFound          = errors.New("ticket not found")
	ErrForbidden               = errors.New("platform administrator privileges required")
	ErrDuplicatePendingRequest = errors.New("a pending request already exists for this email")
	ErrReasonRequired          = errors.New("rejection reason is required")
	ErrCodeGenerationFailed    = errors.New("exhausted attempts generating a unique code")
	ErrTicketClosed            = errors.New("ticket is closed")
	ErrNotCompanyMember        = errors.New("user has no active role in this company")
)

// InvalidRequestStateError reports a decision attempted on a request that is
// no longer pending. It carries the current status for caller diagnostics.
type InvalidRequestStateError struct {
	CurrentStatus models.RequestStatus
}

func (e *InvalidRequestStateError) Error() string {
	return fmt.Sprintf("request already reviewed, current status: %s", e.CurrentStatus)
}

// InvalidTicketTransitionError reports a disallowed ticket status change.
type InvalidTicketTransitionError struct {
	From models.TicketStatus
	To   models.TicketStatus
}

func (e *InvalidTicketTransitionError) Error() string {
	return fmt.Sprintf("cannot move ticket from %s to %s", e.From, e.To)
}
