// internal/handlers/company.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/elingeyesdev/tickets-incidentes-sub002/internal/i18n"
	"github.com/elingeyesdev/tickets-incidentes-sub002/internal/models"
	"github.com/elingeyesdev/tickets-incidentes-sub002/internal/services"
	"github.com/elingeyesdev/tickets-incidentes-sub002/internal/utils"
)

type CompanyHandler struct {
	companyService *services.CompanyService
}

func NewCompanyHandler(companyService *services.CompanyService) *CompanyHandler {
	return &CompanyHandler{
		companyService: companyService,
	}
}

// GET /companies/mine
func (h *CompanyHandler) GetMine(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	companies, err := h.companyService.GetMine(userID)
	if err != nil {
		utils.InternalErrorResponse(c, "")
		return
	}

	utils.SuccessResponse(c, gin.H{"companies": companies})
}

// GET /companies/:companyId
func (h *CompanyHandler) Get(c *gin.Context) {
	companyID, err := uuid.Parse(c.Param("companyId"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid company ID", nil)
		return
	}

	company, err := h.companyService.GetByID(companyID)
	if err != nil {
		if errors.Is(err, services.ErrCompanyNotFound) {
			utils.NotFoundResponse(c, "company")
			return
		}
		utils.InternalErrorResponse(c, "")
		return
	}

	utils.SuccessResponse(c, gin.H{"company": company.Public()})
}

// PUT /companies/:companyId
func (h *CompanyHandler) Update(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	companyID, err := uuid.Parse(c.Param("companyId"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid company ID", nil)
		return
	}

	var req services.UpdateCompanyInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	company, err := h.companyService.Update(userID, companyID, &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrCompanyNotFound):
			utils.NotFoundResponse(c, "company")
		case errors.Is(err, services.ErrForbidden):
			utils.ForbiddenResponse(c, "")
		default:
			if validationErrors := utils.GetValidationErrors(errors.Unwrap(err)); len(validationErrors) > 0 {
				utils.ValidationErrorResponse(c, validationErrors)
				return
			}
			utils.InternalErrorResponse(c, "")
		}
		return
	}

	utils.SuccessResponse(c, gin.H{"company": company})
}

// GET /admin/companies
func (h *CompanyHandler) List(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	filter := services.CompanyFilter{
		PaginationParams: params,
	}
	if status := c.Query("status"); status != "" {
		cStatus := models.CompanyStatus(status)
		filter.Status = &cStatus
	}

	companies, total, err := h.companyService.List(filter)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(companies, total, params)
	utils.PaginatedResponse(c, result)
}

// PUT /admin/companies/:companyId/status
func (h *CompanyHandler) SetStatus(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	adminID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	companyID, err := uuid.Parse(c.Param("companyId"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid company ID", nil)
		return
	}

	var req struct {
		Status models.CompanyStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}
	if req.Status != models.CompanyStatusActive && req.Status != models.CompanyStatusSuspended {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "status"), nil)
		return
	}

	company, err := h.companyService.SetStatus(adminID, companyID, req.Status)
	if err != nil {
		if errors.Is(err, services.ErrCompanyNotFound) {
			utils.NotFoundResponse(c, "company")
			return
		}
		utils.InternalErrorResponse(c, "")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyCompanyStatusUpdated),
		"company": company.Public(),
	})
}
