// internal/services/auth_service_test.go
package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/elingeyesdev/tickets-incidentes-sub002/internal/models"
)

type AuthServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *AuthService
}

func (suite *AuthServiceTestSuite) SetupTest() {
	suite.db = newTestDB(suite.T())
	suite.service = NewAuthService(suite.db, 24, 168)
}

func (suite *AuthServiceTestSuite) createUser(email, password string, mutate func(*models.User)) *models.User {
	user := &models.User{
		Email:    email,
		FullName: "Usuario de Prueba",
		Status:   models.UserStatusActive,
	}
	suite.Require().NoError(user.SetPassword(password))
	if mutate != nil {
		mutate(user)
	}
	suite.Require().NoError(suite.db.Create(user).Error)
	return user
}

func (suite *AuthServiceTestSuite) TestLoginSuccess() {
	suite.createUser("maria@andinas.bo", "MiClave123", nil)

	result, err := suite.service.Login(&LoginInput{
		Email:    "Maria@Andinas.bo",
		Password: "MiClave123",
	})
	suite.Require().NoError(err)

	suite.NotEmpty(result.Tokens.AccessToken)
	suite.NotEmpty(result.Tokens.RefreshToken)
	suite.False(result.MustChangePassword)

	var stored models.User
	suite.Require().NoError(suite.db.First(&stored, "email = ?", "maria@andinas.bo").Error)
	suite.NotNil(stored.LastLoginAt)
}

func (suite *AuthServiceTestSuite) TestLoginWrongPassword() {
	suite.createUser("maria@andinas.bo", "MiClave123", nil)

	_, err := suite.service.Login(&LoginInput{
		Email:    "maria@andinas.bo",
		Password: "Incorrecta1",
	})
	suite.ErrorIs(err, ErrInvalidCredentials)
}

func (suite *AuthServiceTestSuite) TestLoginUnknownEmail() {
	_, err := suite.service.Login(&LoginInput{
		Email:    "nadie@andinas.bo",
		Password: "Cualquiera1",
	})
	suite.ErrorIs(err, ErrInvalidCredentials)
}

func (suite *AuthServiceTestSuite) TestLoginSuspendedAccount() {
	suite.createUser("maria@andinas.bo", "MiClave123", func(u *models.User) {
		u.Status = models.UserStatusSuspended
	})

	_, err := suite.service.Login(&LoginInput{
		Email:    "maria@andinas.bo",
		Password: "MiClave123",
	})
	suite.ErrorIs(err, ErrAccountSuspended)
}

func (suite *AuthServiceTestSuite) TestLoginWithValidTemporaryPassword() {
	expiry := time.Now().Add(48 * time.Hour)
	suite.createUser("maria@andinas.bo", "Temporal123", func(u *models.User) {
		u.HasTemporaryPassword = true
		u.TemporaryPasswordExpiresAt = &expiry
	})

	result, err := suite.service.Login(&LoginInput{
		Email:    "maria@andinas.bo",
		Password: "Temporal123",
	})
	suite.Require().NoError(err)
	suite.True(result.MustChangePassword)
	suite.NotNil(result.PasswordExpiresAt)
}

func (suite *AuthServiceTestSuite) TestLoginWithExpiredTemporaryPassword() {
	expiry := time.Now().Add(-time.Hour)
	suite.createUser("maria@andinas.bo", "Temporal123", func(u *models.User) {
		u.HasTemporaryPassword = true
		u.TemporaryPasswordExpiresAt = &expiry
	})

	_, err := suite.service.Login(&LoginInput{
		Email:    "maria@andinas.bo",
		Password: "Temporal123",
	})
	suite.ErrorIs(err, ErrTemporaryPasswordExpired)
}

func (suite *AuthServiceTestSuite) TestRefreshToken() {
	suite.createUser("maria@andinas.bo", "MiClave123", nil)

	result, err := suite.service.Login(&LoginInput{
		Email:    "maria@andinas.bo",
		Password: "MiClave123",
	})
	suite.Require().NoError(err)

	tokens, err := suite.service.RefreshToken(result.Tokens.RefreshToken)
	suite.Require().NoError(err)
	suite.NotEmpty(tokens.AccessToken)

	_, err = suite.service.RefreshToken("no-es-un-token")
	suite.ErrorIs(err, ErrInvalidRefreshToken)
}

func (suite *AuthServiceTestSuite) TestChangePasswordClearsTemporaryFlag() {
	expiry := time.Now().Add(48 * time.Hour)
	user := suite.createUser("maria@andinas.bo", "Temporal123", func(u *models.User) {
		u.HasTemporaryPassword = true
		u.TemporaryPasswordExpiresAt = &expiry
	})

	err := suite.service.ChangePassword(user.ID, &ChangePasswordInput{
		CurrentPassword: "Temporal123",
		NewPassword:     "Definitiva99",
	})
	suite.Require().NoError(err)

	var stored models.User
	suite.Require().NoError(suite.db.First(&stored, "id = ?", user.ID).Error)
	suite.False(stored.HasTemporaryPassword)
	suite.Nil(stored.TemporaryPasswordExpiresAt)
	suite.NoError(stored.CheckPassword("Definitiva99"))
}

func (suite *AuthServiceTestSuite) TestChangePasswordRejectsWrongCurrent() {
	user := suite.createUser("maria@andinas.bo", "MiClave123", nil)

	err := suite.service.ChangePassword(user.ID, &ChangePasswordInput{
		CurrentPassword: "Incorrecta1",
		NewPassword:     "Definitiva99",
	})
	suite.ErrorIs(err, ErrInvalidCredentials)
}

func (suite *AuthServiceTestSuite) TestChangePasswordEnforcesStrength() {
	user := suite.createUser("maria@andinas.bo", "MiClave123", nil)

	err := suite.service.ChangePassword(user.ID, &ChangePasswordInput{
		CurrentPassword: "MiClave123",
		NewPassword:     "debil",
	})
	suite.Error(err)
}

func TestAuthServiceSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}
