// internal/handlers/company_request.go
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

type CompanyRequestHandler struct {
	requestService *services.CompanyRequestService
}

func NewCompanyRequestHandler(requestService *services.CompanyRequestService) *CompanyRequestHandler {
	return &CompanyRequestHandler{
		requestService: requestService,
	}
}

// POST /company-requests
func (h *CompanyRequestHandler) Submit(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.SubmitCompanyRequestInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	request, err := h.requestService.Submit(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, services.ErrDuplicatePendingRequest) {
			utils.ConflictResponse(c, i18n.T(lang, i18n.KeyRequestDuplicate))
			return
		}
		if validationErrors := utils.GetValidationErrors(errors.Unwrap(err)); len(validationErrors) > 0 {
			utils.ValidationErrorResponse(c, validationErrors)
			return
		}
		utils.InternalErrorResponse(c, "")
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":      i18n.T(lang, i18n.KeyRequestSubmitted),
		"request_code": request.RequestCode,
		"status":       request.Status,
	})
}

// GET /company-requests/:code
func (h *CompanyRequestHandler) GetByCode(c *gin.Context) {
	request, err := h.requestService.GetByCode(c.Param("code"))
	if err != nil {
		if errors.Is(err, services.ErrRequestNotFound) {
			utils.NotFoundResponse(c, "company_request")
			return
		}
		utils.InternalErrorResponse(c, "")
		return
	}

	// Public status endpoint, only tracking fields are exposed
	utils.SuccessResponse(c, gin.H{
		"request_code": request.RequestCode,
		"company_name": request.CompanyName,
		"status":       request.Status,
		"submitted_at": request.CreatedAt,
		"reviewed_at":  request.ReviewedAt,
	})
}

// GET /admin/company-requests
func (h *CompanyRequestHandler) List(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	filter := services.CompanyRequestFilter{
		PaginationParams: params,
	}
	if status := c.Query("status"); status != "" {
		rStatus := models.RequestStatus(status)
		filter.Status = &rStatus
	}

	requests, total, err := h.requestService.List(filter)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(requests, total, params)
	utils.PaginatedResponse(c, result)
}

// POST /admin/company-requests/:id/approve
func (h *CompanyRequestHandler) Approve(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid request ID", nil)
		return
	}

	reviewerID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	result, err := h.requestService.Approve(c.Request.Context(), requestID, reviewerID)
	if err != nil {
		h.respondDecisionError(c, lang, err)
		return
	}

	result.Message = i18n.T(lang, i18n.KeyRequestApproved)
	utils.SuccessResponse(c, result)
}

// POST /admin/company-requests/:id/reject
func (h *CompanyRequestHandler) Reject(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid request ID", nil)
		return
	}

	reviewerID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	result, err := h.requestService.Reject(c.Request.Context(), requestID, reviewerID, req.Reason)
	if err != nil {
		if errors.Is(err, services.ErrReasonRequired) {
			utils.UnprocessableResponse(c, "REASON_REQUIRED", i18n.T(lang, i18n.KeyRequestReasonRequired))
			return
		}
		h.respondDecisionError(c, lang, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyRequestRejected),
		"reason":  result.Reason,
	})
}

func (h *CompanyRequestHandler) respondDecisionError(c *gin.Context, lang string, err error) {
	var stateErr *services.InvalidRequestStateError
	switch {
	case errors.Is(err, services.ErrRequestNotFound):
		utils.NotFoundResponse(c, "company_request")
	case errors.Is(err, services.ErrForbidden):
		utils.ForbiddenResponse(c, "")
	case errors.As(err, &stateErr):
		utils.UnprocessableResponse(c, "INVALID_REQUEST_STATE",
			i18n.T(lang, i18n.KeyRequestAlreadyDecided, string(stateErr.CurrentStatus)))
	case errors.Is(err, services.ErrCodeGenerationFailed):
		utils.InternalErrorResponse(c, i18n.T(lang, i18n.KeyRequestCodeGenFailed))
	default:
		utils.InternalErrorResponse(c, "")
	}
}
