// internal/services/company_request_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/elingeyesdev/tickets-incidentes-sub002/internal/models"
	"github.com/elingeyesdev/tickets-incidentes-sub002/internal/queue"
	"github.com/elingeyesdev/tickets-incidentes-sub002/internal/utils"
)

// Bounded retry for the soft uniqueness check on generated codes.
const codeGenerationAttempts = 10

const temporaryPasswordTTL = 7 * 24 * time.Hour

// CompanyRequestService owns the tenant registration lifecycle: public
// submission of company requests and the admin approve/reject decision that
// provisions the company, its admin user and role binding, all in one
// transaction, with email delivery deferred to the mail queue.
type CompanyRequestService struct {
	db        *gorm.DB
	mailQueue queue.MailQueue
}

func NewCompanyRequestService(db *gorm.DB, mailQueue queue.MailQueue) *CompanyRequestService {
	return &CompanyRequestService{
		db:        db,
		mailQueue: mailQueue,
	}
}

type SubmitCompanyRequestInput struct {
	CompanyName  string `json:"company_name" validate:"required,max=150"`
	LegalName    string `json:"legal_name,omitempty" validate:"omitempty,max=200"`
	AdminEmail   string `json:"admin_email" validate:"required,email"`
	Description  string `json:"description" validate:"required,min=50"`
	Industry     string `json:"industry" validate:"required,max=100"`
	ContactPhone string `json:"contact_phone,omitempty" validate:"omitempty,max=30"`
	TaxID        string `json:"tax_id,omitempty" validate:"omitempty,max=30"`
}

type ApprovalResult struct {
	Success            bool                 `json:"success"`
	Message            string               `json:"message"`
	NewUserCreated     bool                 `json:"new_user_created"`
	NotificationSentTo string               `json:"notification_sent_to"`
	Company            models.CompanyPublic `json:"company"`
}

type RejectionResult struct {
	Success bool   `json:"success"`
	Reason  string `json:"reason"`
}

// Submit registers a public company request. Only one PENDING request per
// admin email is allowed; a request whose predecessor was already decided may
// be submitted again.
func (s *CompanyRequestService) Submit(ctx context.Context, input *SubmitCompanyRequestInput) (*models.CompanyRequest, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	email := strings.ToLower(strings.TrimSpace(input.AdminEmail))

	var pendingCount int64
	if err := s.db.Model(&models.CompanyRequest{}).
		Where("admin_email = ? AND status = ?", email, models.RequestStatusPending).
		Count(&pendingCount).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if pendingCount > 0 {
		return nil, ErrDuplicatePendingRequest
	}

	request := &models.CompanyRequest{
		CompanyName:  strings.TrimSpace(input.CompanyName),
		LegalName:    strings.TrimSpace(input.LegalName),
		AdminEmail:   email,
		Description:  strings.TrimSpace(input.Description),
		Industry:     strings.TrimSpace(input.Industry),
		ContactPhone: strings.TrimSpace(input.ContactPhone),
		TaxID:        strings.TrimSpace(input.TaxID),
		Status:       models.RequestStatusPending,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		code, err := generateUniqueCode(tx, "REQ", &models.CompanyRequest{}, "request_code")
		if err != nil {
			return err
		}
		request.RequestCode = code
		return tx.Create(request).Error
	})
	if err != nil {
		return nil, err
	}

	s.enqueueMail(ctx, queue.MailJob{
		Kind:          queue.MailCompanyRequestReceived,
		To:            request.AdminEmail,
		RequestCode:   request.RequestCode,
		CompanyName:   request.CompanyName,
		RecipientName: request.CompanyName,
	})

	return request, nil
}

// Approve provisions the company for a pending request: generates the company
// code, creates the company, resolves or creates the admin user (issuing a
// temporary password for new users), binds the company_admin role and marks
// the request approved. All writes happen in one transaction; the
// notification email is enqueued only after commit.
func (s *CompanyRequestService) Approve(ctx context.Context, requestID, reviewerID uuid.UUID) (*ApprovalResult, error) {
	if err := s.requirePlatformAdmin(reviewerID); err != nil {
		return nil, err
	}

	var request models.CompanyRequest
	if err := s.db.First(&request, "id = ?", requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if request.Status != models.RequestStatusPending {
		return nil, &InvalidRequestStateError{CurrentStatus: request.Status}
	}

	var (
		company        models.Company
		adminUser      models.User
		newUserCreated bool
		plainPassword  string
		passwordExpiry time.Time
	)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		// Concurrency gate: the guarded update loses against a concurrent
		// decision, in which case no other write below ever runs.
		res := tx.Model(&models.CompanyRequest{}).
			Where("id = ? AND status = ?", request.ID, models.RequestStatusPending).
			Updates(map[string]interface{}{
				"status":      models.RequestStatusApproved,
				"reviewed_by": reviewerID,
				"reviewed_at": now,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to update request: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			var current models.CompanyRequest
			if err := tx.Unscoped().First(&current, "id = ?", request.ID).Error; err != nil {
				return ErrRequestNotFound
			}
			return &InvalidRequestStateError{CurrentStatus: current.Status}
		}

		// Resolve the admin user by email, creating one with a temporary
		// password when no account exists. The plaintext survives only in
		// memory for the notification email.
		err := tx.Where("email = ?", request.AdminEmail).First(&adminUser).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			password, genErr := utils.GenerateTemporaryPassword()
			if genErr != nil {
				return fmt.Errorf("failed to generate temporary password: %w", genErr)
			}
			plainPassword = password
			passwordExpiry = now.Add(temporaryPasswordTTL)

			adminUser = models.User{
				Email:                      request.AdminEmail,
				FullName:                   "Administrador " + request.CompanyName,
				Status:                     models.UserStatusActive,
				HasTemporaryPassword:       true,
				TemporaryPasswordExpiresAt: &passwordExpiry,
			}
			if err := adminUser.SetPassword(password); err != nil {
				return fmt.Errorf("failed to hash password: %w", err)
			}
			if err := tx.Create(&adminUser).Error; err != nil {
				return fmt.Errorf("failed to create admin user: %w", err)
			}
			newUserCreated = true
		case err != nil:
			return fmt.Errorf("database error: %w", err)
		}

		companyCode, err := generateUniqueCode(tx, "CMP", &models.Company{}, "company_code")
		if err != nil {
			return err
		}

		company = models.Company{
			CompanyCode:  companyCode,
			Name:         request.CompanyName,
			LegalName:    request.LegalName,
			Industry:     request.Industry,
			SupportEmail: request.AdminEmail,
			SupportPhone: request.ContactPhone,
			Status:       models.CompanyStatusActive,
			AdminUserID:  adminUser.ID,
		}
		if err := tx.Create(&company).Error; err != nil {
			return fmt.Errorf("failed to create company: %w", err)
		}

		role := models.UserRole{
			UserID:    adminUser.ID,
			CompanyID: company.ID,
			RoleCode:  models.RoleCompanyAdmin,
			Active:    true,
			GrantedBy: &reviewerID,
			GrantedAt: now,
		}
		if err := tx.Create(&role).Error; err != nil {
			return fmt.Errorf("failed to create role assignment: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	job := queue.MailJob{
		Kind:          queue.MailCompanyApprovalExistingUser,
		To:            request.AdminEmail,
		RecipientName: adminUser.FullName,
		RequestCode:   request.RequestCode,
		CompanyName:   company.Name,
		CompanyCode:   company.CompanyCode,
	}
	if newUserCreated {
		job.Kind = queue.MailCompanyApprovalNewUser
		job.TemporaryPassword = plainPassword
		job.PasswordExpiresAt = &passwordExpiry
	}
	s.enqueueMail(ctx, job)

	go s.createAuditLog(reviewerID, "APPROVE_COMPANY_REQUEST", "company_request", request.ID,
		map[string]interface{}{"status": models.RequestStatusPending},
		map[string]interface{}{"status": models.RequestStatusApproved, "company_code": company.CompanyCode})

	return &ApprovalResult{
		Success:            true,
		Message:            fmt.Sprintf("company %s created from request %s", company.CompanyCode, request.RequestCode),
		NewUserCreated:     newUserCreated,
		NotificationSentTo: request.AdminEmail,
		Company:            company.Public(),
	}, nil
}

// Reject is the terminal transition for an unwanted request: it records the
// reason and reviewer and enqueues the rejection email. It never touches
// company or user rows.
func (s *CompanyRequestService) Reject(ctx context.Context, requestID, reviewerID uuid.UUID, reason string) (*RejectionResult, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}

	if err := s.requirePlatformAdmin(reviewerID); err != nil {
		return nil, err
	}

	var request models.CompanyRequest
	if err := s.db.First(&request, "id = ?", requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if request.Status != models.RequestStatusPending {
		return nil, &InvalidRequestStateError{CurrentStatus: request.Status}
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		res := tx.Model(&models.CompanyRequest{}).
			Where("id = ? AND status = ?", request.ID, models.RequestStatusPending).
			Updates(map[string]interface{}{
				"status":           models.RequestStatusRejected,
				"reviewed_by":      reviewerID,
				"reviewed_at":      now,
				"rejection_reason": reason,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to update request: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			var current models.CompanyRequest
			if err := tx.Unscoped().First(&current, "id = ?", request.ID).Error; err != nil {
				return ErrRequestNotFound
			}
			return &InvalidRequestStateError{CurrentStatus: current.Status}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.enqueueMail(ctx, queue.MailJob{
		Kind:            queue.MailCompanyRejection,
		To:              request.AdminEmail,
		RecipientName:   request.CompanyName,
		RequestCode:     request.RequestCode,
		CompanyName:     request.CompanyName,
		RejectionReason: reason,
	})

	go s.createAuditLog(reviewerID, "REJECT_COMPANY_REQUEST", "company_request", request.ID,
		map[string]interface{}{"status": models.RequestStatusPending},
		map[string]interface{}{"status": models.RequestStatusRejected, "reason": reason})

	return &RejectionResult{
		Success: true,
		Reason:  reason,
	}, nil
}

type CompanyRequestFilter struct {
	utils.PaginationParams
	Status *models.RequestStatus `json:"status,omitempty"`
}

func (s *CompanyRequestService) List(filter CompanyRequestFilter) ([]models.CompanyRequest, int64, error) {
	query := s.db.Model(&models.CompanyRequest{})

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Search != "" {
		searchTerm := "%" + filter.Search + "%"
		query = query.Where("company_name ILIKE ? OR admin_email ILIKE ?", searchTerm, searchTerm)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count company requests: %w", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "company_name", "status", "reviewed_at"}
	query = utils.ApplySort(query, filter.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, filter.PaginationParams)

	var requests []models.CompanyRequest
	if err := query.Find(&requests).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch company requests: %w", err)
	}

	return requests, total, nil
}

// GetByCode serves the public status endpoint for applicants tracking their
// request.
func (s *CompanyRequestService) GetByCode(code string) (*models.CompanyRequest, error) {
	var request models.CompanyRequest
	if err := s.db.Where("request_code = ?", code).First(&request).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &request, nil
}

func (s *CompanyRequestService) requirePlatformAdmin(reviewerID uuid.UUID) error {
	var reviewer models.User
	if err := s.db.First(&reviewer, "id = ?", reviewerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrForbidden
		}
		return fmt.Errorf("database error: %w", err)
	}
	if !reviewer.IsPlatformAdmin || reviewer.Status != models.UserStatusActive {
		return ErrForbidden
	}
	return nil
}

func (s *CompanyRequestService) enqueueMail(ctx context.Context, job queue.MailJob) {
	if s.mailQueue == nil {
		return
	}
	if job.Lang == "" {
		job.Lang = "es"
	}
	if err := s.mailQueue.Enqueue(ctx, job); err != nil {
		// The decision is already committed; delivery failures are logged,
		// never surfaced to the caller.
		logrus.WithError(err).WithFields(logrus.Fields{
			"kind": job.Kind,
			"to":   job.To,
		}).Error("Failed to enqueue mail job")
	}
}

func (s *CompanyRequestService) createAuditLog(userID uuid.UUID, action, resourceType string, resourceID uuid.UUID, oldValues, newValues map[string]interface{}) {
	auditLog := &models.AuditLog{
		UserID:       &userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   &resourceID,
		OldValues:    models.JSONB(oldValues),
		NewValues:    models.JSONB(newValues),
	}

	s.db.Create(auditLog)
}

// generateUniqueCode builds codes like REQ-2025-00042: the current year plus a
// zero-padded sequence, retried against the uniqueness constraint a bounded
// number of times.
func generateUniqueCode(tx *gorm.DB, prefix string, model interface{}, column string) (string, error) {
	year := time.Now().Year()

	var issued int64
	if err := tx.Model(model).
		Where(column+" LIKE ?", fmt.Sprintf("%s-%d-%%", prefix, year)).
		Count(&issued).Error; err != nil {
		return "", fmt.Errorf("failed to count issued codes: %w", err)
	}

	for attempt := 0; attempt < codeGenerationAttempts; attempt++ {
		code := fmt.Sprintf("%s-%d-%05d", prefix, year, issued+int64(attempt)+1)

		var exists int64
		if err := tx.Model(model).Where(column+" = ?", code).Count(&exists).Error; err != nil {
			return "", fmt.Errorf("failed to check code uniqueness: %w", err)
		}
		if exists == 0 {
			return code, nil
		}
	}

	return "", ErrCodeGenerationFailed
}
