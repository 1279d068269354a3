// internal/services/company_request_service_test.go
package services

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/elingeyesdev/tickets-incidentes-sub002/internal/models"
	"github.com/elingeyesdev/tickets-incidentes-sub002/internal/queue"
)

// fakeMailQueue records enqueued jobs for assertions.
type fakeMailQueue struct {
	mu   sync.Mutex
	jobs []queue.MailJob
}

func (f *fakeMailQueue) Enqueue(ctx context.Context, job queue.MailJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs = append(f.jobs, job)
	return nil
}

func (f *fakeMailQueue) Close() error { return nil }

func (f *fakeMailQueue) last() queue.MailJob {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.jobs[len(f.jobs)-1]
}

func (f *fakeMailQueue) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.jobs)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Company{},
		&models.CompanyRequest{},
		&models.UserRole{},
		&models.Ticket{},
		&models.TicketResponse{},
		&models.AuditLog{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

func createPlatformAdmin(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()

	admin := &models.User{
		Email:           "admin@ticketera.bo",
		FullName:        "Administrador de Plataforma",
		Status:          models.UserStatusActive,
		IsPlatformAdmin: true,
	}
	if err := admin.SetPassword("Admin123!"); err != nil {
		t.Fatalf("failed to set password: %v", err)
	}
	if err := db.Create(admin).Error; err != nil {
		t.Fatalf("failed to create admin: %v", err)
	}
	return admin
}

type CompanyRequestServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	mail    *fakeMailQueue
	service *CompanyRequestService
	admin   *models.User
}

func (suite *CompanyRequestServiceTestSuite) SetupTest() {
	suite.db = newTestDB(suite.T())
	suite.mail = &fakeMailQueue{}
	suite.service = NewCompanyRequestService(suite.db, suite.mail)
	suite.admin = createPlatformAdmin(suite.T(), suite.db)
}

func (suite *CompanyRequestServiceTestSuite) submitRequest(email string) *models.CompanyRequest {
	request, err := suite.service.Submit(context.Background(), &SubmitCompanyRequestInput{
		CompanyName: "Soluciones Andinas",
		AdminEmail:  email,
		Description: "Necesitamos una mesa de ayuda para atender los reclamos de nuestros clientes en todo el pais.",
		Industry:    "Retail",
	})
	suite.Require().NoError(err)
	return request
}

func (suite *CompanyRequestServiceTestSuite) TestSubmitGeneratesTrackingCode() {
	request := suite.submitRequest("gerencia@andinas.bo")

	suite.Equal(models.RequestStatusPending, request.Status)
	suite.Regexp(regexp.MustCompile(`^REQ-\d{4}-\d{5}$`), request.RequestCode)

	suite.Equal(1, suite.mail.count())
	suite.Equal(queue.MailCompanyRequestReceived, suite.mail.last().Kind)
	suite.Equal("gerencia@andinas.bo", suite.mail.last().To)
}

func (suite *CompanyRequestServiceTestSuite) TestSubmitRejectsDuplicatePending() {
	suite.submitRequest("gerencia@andinas.bo")

	_, err := suite.service.Submit(context.Background(), &SubmitCompanyRequestInput{
		CompanyName: "Soluciones Andinas",
		AdminEmail:  "Gerencia@Andinas.bo",
		Description: "Segunda solicitud enviada por error, el correo es el mismo que el de la primera solicitud.",
		Industry:    "Retail",
	})
	suite.ErrorIs(err, ErrDuplicatePendingRequest)
}

func (suite *CompanyRequestServiceTestSuite) TestSubmitAllowedAfterRejection() {
	request := suite.submitRequest("gerencia@andinas.bo")

	_, err := suite.service.Reject(context.Background(), request.ID, suite.admin.ID, "Datos incompletos")
	suite.Require().NoError(err)

	second := suite.submitRequest("gerencia@andinas.bo")
	suite.NotEqual(request.RequestCode, second.RequestCode)
}

func (suite *CompanyRequestServiceTestSuite) TestSubmitValidatesDescription() {
	_, err := suite.service.Submit(context.Background(), &SubmitCompanyRequestInput{
		CompanyName: "Soluciones Andinas",
		AdminEmail:  "gerencia@andinas.bo",
		Description: "Muy corta",
		Industry:    "Retail",
	})
	suite.Error(err)
}

func (suite *CompanyRequestServiceTestSuite) TestApproveCreatesCompanyUserAndRole() {
	request := suite.submitRequest("gerencia@andinas.bo")

	result, err := suite.service.Approve(context.Background(), request.ID, suite.admin.ID)
	suite.Require().NoError(err)

	suite.True(result.Success)
	suite.True(result.NewUserCreated)
	suite.Equal("gerencia@andinas.bo", result.NotificationSentTo)
	suite.Regexp(regexp.MustCompile(`^CMP-\d{4}-\d{5}$`), result.Company.CompanyCode)

	var company models.Company
	suite.Require().NoError(suite.db.First(&company, "company_code = ?", result.Company.CompanyCode).Error)
	suite.Equal(models.CompanyStatusActive, company.Status)

	var user models.User
	suite.Require().NoError(suite.db.First(&user, "email = ?", "gerencia@andinas.bo").Error)
	suite.True(user.HasTemporaryPassword)
	suite.NotNil(user.TemporaryPasswordExpiresAt)
	suite.Equal(company.AdminUserID, user.ID)

	var role models.UserRole
	suite.Require().NoError(suite.db.First(&role,
		"user_id = ? AND company_id = ?", user.ID, company.ID).Error)
	suite.Equal(models.RoleCompanyAdmin, role.RoleCode)
	suite.True(role.Active)

	job := suite.mail.last()
	suite.Equal(queue.MailCompanyApprovalNewUser, job.Kind)
	suite.NotEmpty(job.TemporaryPassword)
	suite.NotNil(job.PasswordExpiresAt)

	// Temporary password must match the stored hash
	suite.NoError(user.CheckPassword(job.TemporaryPassword))
}

func (suite *CompanyRequestServiceTestSuite) TestApproveReusesExistingUser() {
	existing := &models.User{
		Email:    "gerencia@andinas.bo",
		FullName: "Maria Quispe",
		Status:   models.UserStatusActive,
	}
	suite.Require().NoError(existing.SetPassword("MiClave123"))
	suite.Require().NoError(suite.db.Create(existing).Error)

	request := suite.submitRequest("gerencia@andinas.bo")

	result, err := suite.service.Approve(context.Background(), request.ID, suite.admin.ID)
	suite.Require().NoError(err)

	suite.False(result.NewUserCreated)

	var userCount int64
	suite.db.Model(&models.User{}).Where("email = ?", "gerencia@andinas.bo").Count(&userCount)
	suite.Equal(int64(1), userCount)

	var user models.User
	suite.Require().NoError(suite.db.First(&user, "email = ?", "gerencia@andinas.bo").Error)
	suite.False(user.HasTemporaryPassword)

	job := suite.mail.last()
	suite.Equal(queue.MailCompanyApprovalExistingUser, job.Kind)
	suite.Empty(job.TemporaryPassword)
}

func (suite *CompanyRequestServiceTestSuite) TestApproveTwiceFails() {
	request := suite.submitRequest("gerencia@andinas.bo")

	_, err := suite.service.Approve(context.Background(), request.ID, suite.admin.ID)
	suite.Require().NoError(err)

	_, err = suite.service.Approve(context.Background(), request.ID, suite.admin.ID)

	var stateErr *InvalidRequestStateError
	suite.Require().True(errors.As(err, &stateErr))
	suite.Equal(models.RequestStatusApproved, stateErr.CurrentStatus)

	// No duplicate company was created
	var companyCount int64
	suite.db.Model(&models.Company{}).Count(&companyCount)
	suite.Equal(int64(1), companyCount)
}

func (suite *CompanyRequestServiceTestSuite) TestApproveRequiresPlatformAdmin() {
	request := suite.submitRequest("gerencia@andinas.bo")

	regular := &models.User{
		Email:    "usuario@andinas.bo",
		FullName: "Usuario Comun",
		Status:   models.UserStatusActive,
	}
	suite.Require().NoError(regular.SetPassword("Clave1234"))
	suite.Require().NoError(suite.db.Create(regular).Error)

	_, err := suite.service.Approve(context.Background(), request.ID, regular.ID)
	suite.ErrorIs(err, ErrForbidden)

	_, err = suite.service.Approve(context.Background(), request.ID, uuid.New())
	suite.ErrorIs(err, ErrForbidden)
}

func (suite *CompanyRequestServiceTestSuite) TestApproveUnknownRequest() {
	_, err := suite.service.Approve(context.Background(), uuid.New(), suite.admin.ID)
	suite.ErrorIs(err, ErrRequestNotFound)
}

func (suite *CompanyRequestServiceTestSuite) TestRejectRecordsReason() {
	request := suite.submitRequest("gerencia@andinas.bo")

	result, err := suite.service.Reject(context.Background(), request.ID, suite.admin.ID, "  Documentación incompleta  ")
	suite.Require().NoError(err)
	suite.Equal("Documentación incompleta", result.Reason)

	var stored models.CompanyRequest
	suite.Require().NoError(suite.db.First(&stored, "id = ?", request.ID).Error)
	suite.Equal(models.RequestStatusRejected, stored.Status)
	suite.Equal("Documentación incompleta", stored.RejectionReason)
	suite.NotNil(stored.ReviewedAt)
	suite.Require().NotNil(stored.ReviewedBy)
	suite.Equal(suite.admin.ID, *stored.ReviewedBy)

	job := suite.mail.last()
	suite.Equal(queue.MailCompanyRejection, job.Kind)
	suite.Equal("Documentación incompleta", job.RejectionReason)

	// No provisioning happened
	var companyCount int64
	suite.db.Model(&models.Company{}).Count(&companyCount)
	suite.Equal(int64(0), companyCount)
}

func (suite *CompanyRequestServiceTestSuite) TestRejectRequiresReason() {
	request := suite.submitRequest("gerencia@andinas.bo")

	_, err := suite.service.Reject(context.Background(), request.ID, suite.admin.ID, "   ")
	suite.ErrorIs(err, ErrReasonRequired)
}

func (suite *CompanyRequestServiceTestSuite) TestRejectAfterApproveFails() {
	request := suite.submitRequest("gerencia@andinas.bo")

	_, err := suite.service.Approve(context.Background(), request.ID, suite.admin.ID)
	suite.Require().NoError(err)

	_, err = suite.service.Reject(context.Background(), request.ID, suite.admin.ID, "Cambio de opinion")

	var stateErr *InvalidRequestStateError
	suite.Require().True(errors.As(err, &stateErr))
	suite.Equal(models.RequestStatusApproved, stateErr.CurrentStatus)
}

func (suite *CompanyRequestServiceTestSuite) TestGetByCode() {
	request := suite.submitRequest("gerencia@andinas.bo")

	found, err := suite.service.GetByCode(request.RequestCode)
	suite.Require().NoError(err)
	suite.Equal(request.ID, found.ID)

	_, err = suite.service.GetByCode("REQ-2020-99999")
	suite.ErrorIs(err, ErrRequestNotFound)
}

func (suite *CompanyRequestServiceTestSuite) TestListFiltersByStatus() {
	first := suite.submitRequest("gerencia@andinas.bo")
	suite.submitRequest("contacto@otraempresa.bo")

	_, err := suite.service.Reject(context.Background(), first.ID, suite.admin.ID, "Datos incompletos")
	suite.Require().NoError(err)

	pending := models.RequestStatusPending
	requests, total, err := suite.service.List(CompanyRequestFilter{Status: &pending})
	suite.Require().NoError(err)
	suite.Equal(int64(1), total)
	suite.Len(requests, 1)
	suite.Equal("contacto@otraempresa.bo", requests[0].AdminEmail)
}

func TestCompanyRequestServiceSuite(t *testing.T) {
	suite.Run(t, new(CompanyRequestServiceTestSuite))
}
