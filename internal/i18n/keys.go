// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Authentication
	KeyAuthRequired           = "auth.required"
	KeyAuthInvalidToken       = "auth.invalid_token"
	KeyAuthTokenExpired       = "auth.token_expired"
	KeyAuthInvalidCredentials = "auth.invalid_credentials"
	KeyAuthAccountSuspended   = "auth.account_suspended"
	KeyAuthTempPasswordGone   = "auth.temporary_password_expired"
	KeyAuthLoginSuccess       = "auth.login_success"
	KeyAuthPasswordChanged    = "auth.password_changed"

	// Users
	KeyUserNotFound = "user.not_found"

	// Company requests
	KeyRequestSubmitted       = "company_request.submitted"
	KeyRequestNotFound        = "company_request.not_found"
	KeyRequestDuplicate       = "company_request.duplicate_pending"
	KeyRequestApproved        = "company_request.approved"
	KeyRequestRejected        = "company_request.rejected"
	KeyRequestReasonRequired  = "company_request.reason_required"
	KeyRequestAlreadyDecided  = "company_request.already_decided"
	KeyRequestCodeGenFailed   = "company_request.code_generation_failed"
	KeyRequestDescriptionSize = "company_request.description_too_short"

	// Companies
	KeyCompanyNotFound      = "company.not_found"
	KeyCompanyStatusUpdated = "company.status_updated"

	// Tickets
	KeyTicketCreated       = "ticket.created"
	KeyTicketNotFound      = "ticket.not_found"
	KeyTicketResponseAdded = "ticket.response_added"
	KeyTicketStatusUpdated = "ticket.status_updated"
	KeyTicketClosed        = "ticket.closed"

	// Admin
	KeyAdminAccessDenied  = "admin.access_denied"
	KeyAdminActionSuccess = "admin.action_success"

	// Validation
	KeyValidationRequired = "validation.required"
	KeyValidationInvalid  = "validation.invalid"
)
