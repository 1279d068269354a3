// internal/services/auth_service.go
package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/elingeyesdev/tickets-incidentes-sub002/internal/models"
	"github.com/elingeyesdev/tickets-incidentes-sub002/internal/utils"
)

var (
	ErrInvalidCredentials       = errors.New("invalid email or password")
	ErrAccountSuspended         = errors.New("account is suspended")
	ErrTemporaryPasswordExpired = errors.New("temporary password has expired, request a new one")
	ErrInvalidRefreshToken      = errors.New("invalid refresh token")
)

type AuthService struct {
	db              *gorm.DB
	accessTTLHours  int
	refreshTTLHours int
}

func NewAuthService(db *gorm.DB, accessTTLHours, refreshTTLHours int) *AuthService {
	return &AuthService{
		db:              db,
		accessTTLHours:  accessTTLHours,
		refreshTTLHours: refreshTTLHours,
	}
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,strong_password"`
}

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

type LoginResult struct {
	Tokens             AuthTokens  `json:"tokens"`
	User               models.User `json:"user"`
	MustChangePassword bool        `json:"must_change_password"`
	PasswordExpiresAt  *time.Time  `json:"password_expires_at,omitempty"`
}

// Login authenticates by email and password. Users holding a still-valid
// temporary password may log in but are flagged to change it; an expired
// temporary password blocks the login entirely.
func (s *AuthService) Login(input *LoginInput) (*LoginResult, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))

	var user models.User
	if err := s.db.Preload("Roles").Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if err := user.CheckPassword(input.Password); err != nil {
		return nil, ErrInvalidCredentials
	}

	if user.Status == models.UserStatusSuspended {
		return nil, ErrAccountSuspended
	}

	now := time.Now()
	if user.HasTemporaryPassword && user.TemporaryPasswordExpired(now) {
		return nil, ErrTemporaryPasswordExpired
	}

	tokens, err := s.issueTokens(&user)
	if err != nil {
		return nil, err
	}

	s.db.Model(&user).Update("last_login_at", now)

	user.PasswordHash = ""
	return &LoginResult{
		Tokens:             *tokens,
		User:               user,
		MustChangePassword: user.HasTemporaryPassword,
		PasswordExpiresAt:  user.TemporaryPasswordExpiresAt,
	}, nil
}

// RefreshToken exchanges a valid refresh token for a fresh token pair.
func (s *AuthService) RefreshToken(refreshToken string) (*AuthTokens, error) {
	userID, err := utils.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if user.Status == models.UserStatusSuspended {
		return nil, ErrAccountSuspended
	}

	return s.issueTokens(&user)
}

func (s *AuthService) GetUserByID(userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.Preload("Roles").First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	user.PasswordHash = ""
	return &user, nil
}

// ChangePassword verifies the current credential and installs the new one.
// Changing away from a temporary password clears the temporary flag and its
// expiry.
func (s *AuthService) ChangePassword(userID uuid.UUID, input *ChangePasswordInput) error {
	if err := utils.ValidateStruct(input); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("database error: %w", err)
	}

	if err := user.CheckPassword(input.CurrentPassword); err != nil {
		return ErrInvalidCredentials
	}

	if err := user.SetPassword(input.NewPassword); err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.db.Model(&user).Updates(map[string]interface{}{
		"password_hash":                 user.PasswordHash,
		"has_temporary_password":        false,
		"temporary_password_expires_at": nil,
	}).Error
}

func (s *AuthService) issueTokens(user *models.User) (*AuthTokens, error) {
	accessToken, err := utils.GenerateJWT(user.ID, user.Email, user.IsPlatformAdmin, s.accessTTLHours)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := utils.GenerateRefreshToken(user.ID, s.refreshTTLHours)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    s.accessTTLHours * 3600,
	}, nil
}
