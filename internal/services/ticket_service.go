// internal/services/ticket_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/elingeyesdev/tickets-incidentes-sub002/internal/models"
	"github.com/elingeyesdev/tickets-incidentes-sub002/internal/queue"
	"github.com/elingeyesdev/tickets-incidentes-sub002/internal/utils"
)

// ticketTransitions lists the allowed status moves. Closed is terminal.
var ticketTransitions = map[models.TicketStatus][]models.TicketStatus{
	models.TicketStatusOpen:     {models.TicketStatusPending, models.TicketStatusResolved, models.TicketStatusClosed},
	models.TicketStatusPending:  {models.TicketStatusOpen, models.TicketStatusResolved, models.TicketStatusClosed},
	models.TicketStatusResolved: {models.TicketStatusOpen, models.TicketStatusClosed},
	models.TicketStatusClosed:   {},
}

type TicketService struct {
	db        *gorm.DB
	mailQueue queue.MailQueue
	storage   *StorageService
}

func NewTicketService(db *gorm.DB, mailQueue queue.MailQueue, storage *StorageService) *TicketService {
	return &TicketService{
		db:        db,
		mailQueue: mailQueue,
		storage:   storage,
	}
}

type CreateTicketInput struct {
	Title       string                `json:"title" validate:"required,max=200"`
	Description string                `json:"description" validate:"required"`
	Priority    models.TicketPriority `json:"priority,omitempty"`
	Category    string                `json:"category,omitempty" validate:"omitempty,max=100"`
}

type AddResponseInput struct {
	Body       string `json:"body" validate:"required"`
	IsInternal bool   `json:"is_internal"`
}

type TicketFilter struct {
	utils.PaginationParams
	Status   *models.TicketStatus   `json:"status,omitempty"`
	Priority *models.TicketPriority `json:"priority,omitempty"`
	Category string                 `json:"category,omitempty"`
}

// Create opens a ticket in the caller's company. The caller must hold an
// active role there.
func (s *TicketService) Create(ctx context.Context, userID, companyID uuid.UUID, input *CreateTicketInput) (*models.Ticket, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if err := s.requireMembership(userID, companyID); err != nil {
		return nil, err
	}

	priority := input.Priority
	if priority == "" {
		priority = models.TicketPriorityMedium
	}

	ticket := &models.Ticket{
		CompanyID:   companyID,
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Status:      models.TicketStatusOpen,
		Priority:    priority,
		Category:    strings.TrimSpace(input.Category),
		CreatedBy:   userID,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		code, err := generateUniqueCode(tx, "TKT", &models.Ticket{}, "ticket_code")
		if err != nil {
			return err
		}
		ticket.TicketCode = code
		return tx.Create(ticket).Error
	})
	if err != nil {
		return nil, err
	}

	return ticket, nil
}

// List returns company-scoped tickets. Agents and company admins see all of
// the company's tickets, end users only their own.
func (s *TicketService) List(userID, companyID uuid.UUID, filter TicketFilter) ([]models.Ticket, int64, error) {
	role, err := s.activeRole(userID, companyID)
	if err != nil {
		return nil, 0, err
	}

	query := s.db.Model(&models.Ticket{}).Where("company_id = ?", companyID)
	if role.RoleCode == models.RoleEndUser {
		query = query.Where("created_by = ?", userID)
	}

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Priority != nil {
		query = query.Where("priority = ?", *filter.Priority)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Search != "" {
		searchTerm := "%" + filter.Search + "%"
		query = query.Where("title ILIKE ? OR ticket_code ILIKE ?", searchTerm, searchTerm)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count tickets: %w", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "priority", "status", "ticket_code"}
	query = utils.ApplySort(query, filter.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, filter.PaginationParams)

	var tickets []models.Ticket
	if err := query.Preload("Creator").Preload("Assignee").Find(&tickets).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch tickets: %w", err)
	}

	return tickets, total, nil
}

// Get loads one ticket with its thread. Internal notes are stripped for end
// users.
func (s *TicketService) Get(userID, ticketID uuid.UUID) (*models.Ticket, error) {
	var ticket models.Ticket
	if err := s.db.Preload("Creator").Preload("Assignee").Preload("Responses.Author").
		First(&ticket, "id = ?", ticketID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	role, err := s.activeRole(userID, ticket.CompanyID)
	if err != nil {
		return nil, err
	}
	if role.RoleCode == models.RoleEndUser {
		if ticket.CreatedBy != userID {
			return nil, ErrTicketNotFound
		}
		visible := ticket.Responses[:0]
		for _, r := range ticket.Responses {
			if !r.IsInternal {
				visible = append(visible, r)
			}
		}
		ticket.Responses = visible
	}

	return &ticket, nil
}

// AddResponse appends to the ticket thread, optionally attaching an uploaded
// file. A reply by the creator to a resolved ticket reopens it. The other
// thread participant is notified by mail.
func (s *TicketService) AddResponse(ctx context.Context, userID, ticketID uuid.UUID, input *AddResponseInput, attachment *multipart.FileHeader) (*models.TicketResponse, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var ticket models.Ticket
	if err := s.db.Preload("Creator").First(&ticket, "id = ?", ticketID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if ticket.Status == models.TicketStatusClosed {
		return nil, ErrTicketClosed
	}

	role, err := s.activeRole(userID, ticket.CompanyID)
	if err != nil {
		return nil, err
	}
	if role.RoleCode == models.RoleEndUser && ticket.CreatedBy != userID {
		return nil, ErrTicketNotFound
	}
	if input.IsInternal && role.RoleCode == models.RoleEndUser {
		return nil, ErrForbidden
	}

	response := &models.TicketResponse{
		TicketID:   ticket.ID,
		AuthorID:   userID,
		Body:       strings.TrimSpace(input.Body),
		IsInternal: input.IsInternal,
	}

	if attachment != nil && s.storage != nil {
		upload, err := s.storage.UploadAttachment(ctx, ticket.TicketCode, attachment)
		if err != nil {
			return nil, fmt.Errorf("failed to upload attachment: %w", err)
		}
		response.AttachmentURL = upload.URL
		response.AttachmentKey = upload.Key
		response.AttachmentSize = upload.Size
		response.AttachmentMime = upload.ContentType
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(response).Error; err != nil {
			return fmt.Errorf("failed to create response: %w", err)
		}
		if ticket.Status == models.TicketStatusResolved && userID == ticket.CreatedBy {
			return tx.Model(&models.Ticket{}).
				Where("id = ?", ticket.ID).
				Update("status", models.TicketStatusOpen).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !response.IsInternal {
		s.notifyThread(ctx, &ticket, userID, response.Body)
	}

	return response, nil
}

// UpdateStatus moves a ticket through its lifecycle. Only agents and company
// admins may change status.
func (s *TicketService) UpdateStatus(userID, ticketID uuid.UUID, target models.TicketStatus) (*models.Ticket, error) {
	var ticket models.Ticket
	if err := s.db.First(&ticket, "id = ?", ticketID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	role, err := s.activeRole(userID, ticket.CompanyID)
	if err != nil {
		return nil, err
	}
	if role.RoleCode == models.RoleEndUser {
		return nil, ErrForbidden
	}

	if !transitionAllowed(ticket.Status, target) {
		return nil, &InvalidTicketTransitionError{From: ticket.Status, To: target}
	}

	if err := s.db.Model(&ticket).Update("status", target).Error; err != nil {
		return nil, fmt.Errorf("failed to update ticket status: %w", err)
	}
	ticket.Status = target

	return &ticket, nil
}

// Assign hands a ticket to an agent of the same company.
func (s *TicketService) Assign(userID, ticketID, assigneeID uuid.UUID) (*models.Ticket, error) {
	var ticket models.Ticket
	if err := s.db.First(&ticket, "id = ?", ticketID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	role, err := s.activeRole(userID, ticket.CompanyID)
	if err != nil {
		return nil, err
	}
	if role.RoleCode == models.RoleEndUser {
		return nil, ErrForbidden
	}

	if err := s.requireMembership(assigneeID, ticket.CompanyID); err != nil {
		return nil, ErrNotCompanyMember
	}

	if err := s.db.Model(&ticket).Update("assigned_to", assigneeID).Error; err != nil {
		return nil, fmt.Errorf("failed to assign ticket: %w", err)
	}
	ticket.AssignedTo = &assigneeID

	return &ticket, nil
}

func transitionAllowed(from, to models.TicketStatus) bool {
	for _, allowed := range ticketTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func (s *TicketService) activeRole(userID, companyID uuid.UUID) (*models.UserRole, error) {
	var role models.UserRole
	err := s.db.Where("user_id = ? AND company_id = ? AND active = ?", userID, companyID, true).
		First(&role).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotCompanyMember
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &role, nil
}

func (s *TicketService) requireMembership(userID, companyID uuid.UUID) error {
	_, err := s.activeRole(userID, companyID)
	return err
}

// notifyThread mails the other side of the conversation: the creator when an
// agent replies, the assignee when the creator replies.
func (s *TicketService) notifyThread(ctx context.Context, ticket *models.Ticket, authorID uuid.UUID, body string) {
	if s.mailQueue == nil {
		return
	}

	var recipientID uuid.UUID
	switch {
	case authorID != ticket.CreatedBy:
		recipientID = ticket.CreatedBy
	case ticket.AssignedTo != nil:
		recipientID = *ticket.AssignedTo
	default:
		return
	}

	var recipient models.User
	if err := s.db.First(&recipient, "id = ?", recipientID).Error; err != nil {
		logrus.WithError(err).Warn("Skipping ticket notification, recipient not found")
		return
	}

	job := queue.MailJob{
		Kind:          queue.MailTicketResponse,
		To:            recipient.Email,
		Lang:          "es",
		RecipientName: recipient.FullName,
		TicketCode:    ticket.TicketCode,
		TicketTitle:   ticket.Title,
		ResponseBody:  body,
	}
	if err := s.mailQueue.Enqueue(ctx, job); err != nil {
		logrus.WithError(err).WithField("ticket", ticket.TicketCode).
			Error("Failed to enqueue ticket notification")
	}
}
