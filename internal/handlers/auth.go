// internal/handlers/auth.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/elingeyesdev/tickets-incidentes-sub002/internal/i18n"
	"github.com/elingeyesdev/tickets-incidentes-sub002/internal/services"
	"github.com/elingeyesdev/tickets-incidentes-sub002/internal/utils"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.LoginInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	result, err := h.authService.Login(&req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthInvalidCredentials))
		case errors.Is(err, services.ErrAccountSuspended):
			utils.ForbiddenResponse(c, i18n.T(lang, i18n.KeyAuthAccountSuspended))
		case errors.Is(err, services.ErrTemporaryPasswordExpired):
			utils.ForbiddenResponse(c, i18n.T(lang, i18n.KeyAuthTempPasswordGone))
		default:
			if validationErrors := utils.GetValidationErrors(errors.Unwrap(err)); len(validationErrors) > 0 {
				utils.ValidationErrorResponse(c, validationErrors)
				return
			}
			utils.InternalErrorResponse(c, "")
		}
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":              i18n.T(lang, i18n.KeyAuthLoginSuccess),
		"tokens":               result.Tokens,
		"user":                 result.User,
		"must_change_password": result.MustChangePassword,
		"password_expires_at":  result.PasswordExpiresAt,
	})
}

// POST /auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "refresh_token is required", nil)
		return
	}

	tokens, err := h.authService.RefreshToken(req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAccountSuspended):
			utils.ForbiddenResponse(c, "")
		default:
			utils.UnauthorizedResponse(c, "")
		}
		return
	}

	utils.SuccessResponse(c, gin.H{"tokens": tokens})
}

// GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	user, err := h.authService.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			utils.NotFoundResponse(c, "user")
			return
		}
		utils.InternalErrorResponse(c, "")
		return
	}

	utils.SuccessResponse(c, gin.H{"user": user})
}

// PUT /auth/password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.ChangePasswordInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if err := h.authService.ChangePassword(userID, &req); err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthInvalidCredentials))
		case errors.Is(err, services.ErrUserNotFound):
			utils.NotFoundResponse(c, "user")
		default:
			if validationErrors := utils.GetValidationErrors(errors.Unwrap(err)); len(validationErrors) > 0 {
				utils.ValidationErrorResponse(c, validationErrors)
				return
			}
			utils.InternalErrorResponse(c, "")
		}
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyAuthPasswordChanged),
	})
}
