// internal/services/company_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/elingeyesdev/tickets-incidentes-sub002/internal/models"
	"github.com/elingeyesdev/tickets-incidentes-sub002/internal/utils"
)

type CompanyService struct {
	db *gorm.DB
}

func NewCompanyService(db *gorm.DB) *CompanyService {
	return &CompanyService{db: db}
}

type CompanyFilter struct {
	utils.PaginationParams
	Status *models.CompanyStatus `json:"status,omitempty"`
}

type UpdateCompanyInput struct {
	Name         string `json:"name,omitempty" validate:"omitempty,max=150"`
	LegalName    string `json:"legal_name,omitempty" validate:"omitempty,max=200"`
	SupportEmail string `json:"support_email,omitempty" validate:"omitempty,email"`
	SupportPhone string `json:"support_phone,omitempty" validate:"omitempty,max=30"`
	Website      string `json:"website,omitempty" validate:"omitempty,url,max=255"`
	LogoURL      string `json:"logo_url,omitempty" validate:"omitempty,url,max=500"`
}

// GetMine returns the companies the user holds an active role in.
func (s *CompanyService) GetMine(userID uuid.UUID) ([]models.Company, error) {
	var companies []models.Company
	err := s.db.
		Joins("JOIN user_roles ON user_roles.company_id = companies.id").
		Where("user_roles.user_id = ? AND user_roles.active = ?", userID, true).
		Distinct().
		Find(&companies).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch companies: %w", err)
	}
	return companies, nil
}

func (s *CompanyService) GetByID(companyID uuid.UUID) (*models.Company, error) {
	var company models.Company
	if err := s.db.Preload("AdminUser").First(&company, "id = ?", companyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCompanyNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &company, nil
}

// List is the platform admin directory of tenants.
func (s *CompanyService) List(filter CompanyFilter) ([]models.Company, int64, error) {
	query := s.db.Model(&models.Company{})

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Search != "" {
		searchTerm := "%" + filter.Search + "%"
		query = query.Where("name ILIKE ? OR company_code ILIKE ?", searchTerm, searchTerm)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count companies: %w", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "name", "company_code", "status"}
	query = utils.ApplySort(query, filter.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, filter.PaginationParams)

	var companies []models.Company
	if err := query.Find(&companies).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch companies: %w", err)
	}

	return companies, total, nil
}

// Update edits a company profile. Only the company admin may do it.
func (s *CompanyService) Update(userID, companyID uuid.UUID, input *UpdateCompanyInput) (*models.Company, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	company, err := s.GetByID(companyID)
	if err != nil {
		return nil, err
	}

	var role models.UserRole
	err = s.db.Where("user_id = ? AND company_id = ? AND role_code = ? AND active = ?",
		userID, companyID, models.RoleCompanyAdmin, true).First(&role).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrForbidden
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	updates := map[string]interface{}{}
	if input.Name != "" {
		updates["name"] = input.Name
	}
	if input.LegalName != "" {
		updates["legal_name"] = input.LegalName
	}
	if input.SupportEmail != "" {
		updates["support_email"] = input.SupportEmail
	}
	if input.SupportPhone != "" {
		updates["support_phone"] = input.SupportPhone
	}
	if input.Website != "" {
		updates["website"] = input.Website
	}
	if input.LogoURL != "" {
		updates["logo_url"] = input.LogoURL
	}
	if len(updates) == 0 {
		return company, nil
	}

	if err := s.db.Model(company).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update company: %w", err)
	}

	return s.GetByID(companyID)
}

// SetStatus suspends or reactivates a tenant. Reserved for platform admins;
// the handler enforces that, this records the audit trail.
func (s *CompanyService) SetStatus(adminID, companyID uuid.UUID, status models.CompanyStatus) (*models.Company, error) {
	company, err := s.GetByID(companyID)
	if err != nil {
		return nil, err
	}

	if company.Status == status {
		return company, nil
	}

	oldStatus := company.Status
	if err := s.db.Model(company).Update("status", status).Error; err != nil {
		return nil, fmt.Errorf("failed to update company status: %w", err)
	}
	company.Status = status

	auditLog := &models.AuditLog{
		UserID:       &adminID,
		Action:       "SET_COMPANY_STATUS",
		ResourceType: "company",
		ResourceID:   &company.ID,
		OldValues:    models.JSONB{"status": oldStatus},
		NewValues:    models.JSONB{"status": status},
	}
	s.db.Create(auditLog)

	return company, nil
}
