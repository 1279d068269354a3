// internal/handlers/ticket.go
package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/elingeyesdev/tickets-incidentes-sub002/internal/i18n"
	"github.com/elingeyesdev/tickets-incidentes-sub002/internal/models"
	"github.com/elingeyesdev/tickets-incidentes-sub002/internal/services"
	"github.com/elingeyesdev/tickets-incidentes-sub002/internal/utils"
)

type TicketHandler struct {
	ticketService *services.TicketService
}

func NewTicketHandler(ticketService *services.TicketService) *TicketHandler {
	return &TicketHandler{
		ticketService: ticketService,
	}
}

// POST /companies/:companyId/tickets
func (h *TicketHandler) Create(c *gin.Context) {
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

	var req services.CreateTicketInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	ticket, err := h.ticketService.Create(c.Request.Context(), userID, companyID, &req)
	if err != nil {
		h.respondTicketError(c, lang, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyTicketCreated),
		"ticket":  ticket,
	})
}

// GET /companies/:companyId/tickets
func (h *TicketHandler) List(c *gin.Context) {
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

	params := utils.GetPaginationParams(c)
	filter := services.TicketFilter{
		PaginationParams: params,
		Category:         c.Query("category"),
	}
	if status := c.Query("status"); status != "" {
		tStatus := models.TicketStatus(status)
		filter.Status = &tStatus
	}
	if priority := c.Query("priority"); priority != "" {
		tPriority := models.TicketPriority(priority)
		filter.Priority = &tPriority
	}

	tickets, total, err := h.ticketService.List(userID, companyID, filter)
	if err != nil {
		h.respondTicketError(c, utils.GetLangFromContext(c), err)
		return
	}

	result := utils.CreatePaginationResult(tickets, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /tickets/:id
func (h *TicketHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	ticketID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid ticket ID", nil)
		return
	}

	ticket, err := h.ticketService.Get(userID, ticketID)
	if err != nil {
		h.respondTicketError(c, utils.GetLangFromContext(c), err)
		return
	}

	utils.SuccessResponse(c, gin.H{"ticket": ticket})
}

// POST /tickets/:id/responses
// Accepts either JSON or multipart form with an optional "attachment" file.
func (h *TicketHandler) AddResponse(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	ticketID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid ticket ID", nil)
		return
	}

	var req services.AddResponseInput
	attachment, _ := c.FormFile("attachment")
	if attachment != nil || c.ContentType() == "multipart/form-data" {
		req.Body = c.PostForm("body")
		req.IsInternal, _ = strconv.ParseBool(c.PostForm("is_internal"))
	} else {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
			return
		}
	}

	response, err := h.ticketService.AddResponse(c.Request.Context(), userID, ticketID, &req, attachment)
	if err != nil {
		h.respondTicketError(c, lang, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":  i18n.T(lang, i18n.KeyTicketResponseAdded),
		"response": response,
	})
}

// PUT /tickets/:id/status
func (h *TicketHandler) UpdateStatus(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	ticketID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid ticket ID", nil)
		return
	}

	var req struct {
		Status models.TicketStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	ticket, err := h.ticketService.UpdateStatus(userID, ticketID, req.Status)
	if err != nil {
		h.respondTicketError(c, lang, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyTicketStatusUpdated),
		"ticket":  ticket,
	})
}

// PUT /tickets/:id/assign
func (h *TicketHandler) Assign(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	ticketID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid ticket ID", nil)
		return
	}

	var req struct {
		AssigneeID uuid.UUID `json:"assignee_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	ticket, err := h.ticketService.Assign(userID, ticketID, req.AssigneeID)
	if err != nil {
		h.respondTicketError(c, lang, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"ticket": ticket})
}

func (h *TicketHandler) respondTicketError(c *gin.Context, lang string, err error) {
	var transitionErr *services.InvalidTicketTransitionError
	switch {
	case errors.Is(err, services.ErrTicketNotFound):
		utils.NotFoundResponse(c, "ticket")
	case errors.Is(err, services.ErrNotCompanyMember), errors.Is(err, services.ErrForbidden):
		utils.ForbiddenResponse(c, "")
	case errors.Is(err, services.ErrTicketClosed):
		utils.UnprocessableResponse(c, "TICKET_CLOSED", i18n.T(lang, i18n.KeyTicketClosed))
	case errors.As(err, &transitionErr):
		utils.UnprocessableResponse(c, "INVALID_TRANSITION", transitionErr.Error())
	case errors.Is(err, services.ErrCodeGenerationFailed):
		utils.InternalErrorResponse(c, "")
	default:
		if validationErrors := utils.GetValidationErrors(errors.Unwrap(err)); len(validationErrors) > 0 {
			utils.ValidationErrorResponse(c, validationErrors)
			return
		}
		utils.InternalErrorResponse(c, "")
	}
}
