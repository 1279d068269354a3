// internal/services/notification_service_test.go
package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elingeyesdev/tickets-incidentes-sub002/internal/config"
	"github.com/elingeyesdev/tickets-incidentes-sub002/internal/queue"
)

func newTestNotificationService() *NotificationService {
	return NewNotificationService(&config.Config{
		Email: config.EmailConfig{
			FromEmail: "soporte@ticketera.bo",
			FromName:  "Ticketera",
		},
		Frontend: config.FrontendConfig{
			BaseURL: "http://localhost:3000",
		},
	})
}

func TestNewUserApprovalEmailCarriesCredentials(t *testing.T) {
	svc := newTestNotificationService()
	expiry := time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC)

	tmpl, data, err := svc.prepare(queue.MailJob{
		Kind:              queue.MailCompanyApprovalNewUser,
		To:                "gerencia@andinas.bo",
		RecipientName:     "Administrador Soluciones Andinas",
		RequestCode:       "REQ-2025-00001",
		CompanyName:       "Soluciones Andinas",
		CompanyCode:       "CMP-2025-00001",
		TemporaryPassword: "abcDEF123456xyzw",
		PasswordExpiresAt: &expiry,
	})
	require.NoError(t, err)

	body, err := svc.renderTemplate(tmpl.Body, data)
	require.NoError(t, err)

	assert.Contains(t, body, "abcDEF123456xyzw")
	assert.Contains(t, body, "15/07/2025")
	assert.Contains(t, body, "CMP-2025-00001")
	assert.Contains(t, body, "gerencia@andinas.bo")
}

func TestNewUserApprovalRequiresCredentials(t *testing.T) {
	svc := newTestNotificationService()

	_, _, err := svc.prepare(queue.MailJob{
		Kind: queue.MailCompanyApprovalNewUser,
		To:   "gerencia@andinas.bo",
	})
	assert.Error(t, err)
}

func TestExistingUserApprovalEmailOmitsCredentials(t *testing.T) {
	svc := newTestNotificationService()

	tmpl, data, err := svc.prepare(queue.MailJob{
		Kind:          queue.MailCompanyApprovalExistingUser,
		To:            "gerencia@andinas.bo",
		RecipientName: "Maria Quispe",
		RequestCode:   "REQ-2025-00001",
		CompanyName:   "Soluciones Andinas",
		CompanyCode:   "CMP-2025-00001",
	})
	require.NoError(t, err)

	body, err := svc.renderTemplate(tmpl.Body, data)
	require.NoError(t, err)

	assert.NotContains(t, body, "Contraseña temporal")
	assert.Contains(t, body, "cuenta existente")
	assert.Contains(t, body, "CMP-2025-00001")
}

func TestRejectionEmailRequiresReason(t *testing.T) {
	svc := newTestNotificationService()

	_, _, err := svc.prepare(queue.MailJob{
		Kind: queue.MailCompanyRejection,
		To:   "gerencia@andinas.bo",
	})
	assert.Error(t, err)

	tmpl, data, err := svc.prepare(queue.MailJob{
		Kind:            queue.MailCompanyRejection,
		To:              "gerencia@andinas.bo",
		RequestCode:     "REQ-2025-00001",
		CompanyName:     "Soluciones Andinas",
		RejectionReason: "Documentación incompleta",
	})
	require.NoError(t, err)

	body, err := svc.renderTemplate(tmpl.Body, data)
	require.NoError(t, err)
	assert.Contains(t, body, "Documentación incompleta")
}

func TestUnknownKindIsDroppedWithoutRetry(t *testing.T) {
	svc := newTestNotificationService()

	// HandleMailJob must not return an error for payloads that can never
	// succeed, otherwise the consumer would requeue them forever.
	err := svc.HandleMailJob(context.Background(), queue.MailJob{
		Kind: "algo_desconocido",
		To:   "gerencia@andinas.bo",
	})
	assert.NoError(t, err)
}

func TestHandleMailJobWithoutSMTPIsLoggedOnly(t *testing.T) {
	svc := newTestNotificationService()

	err := svc.HandleMailJob(context.Background(), queue.MailJob{
		Kind:          queue.MailCompanyRequestReceived,
		To:            "gerencia@andinas.bo",
		RequestCode:   "REQ-2025-00001",
		CompanyName:   "Soluciones Andinas",
		RecipientName: "Soluciones Andinas",
	})
	assert.NoError(t, err)
}
