// internal/services/notification_service.go
package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/sirupsen/logrus"

	"github.com/elingeyesdev/tickets-incidentes-sub002/internal/config"
	"github.com/elingeyesdev/tickets-incidentes-sub002/internal/queue"
)

// NotificationService renders and sends the transactional emails of the
// platform. It runs inside the mail worker, consuming jobs from the queue.
type NotificationService struct {
	config *config.Config
}

type emailTemplate struct {
	Subject string
	Body    string
}

func NewNotificationService(cfg *config.Config) *NotificationService {
	return &NotificationService{config: cfg}
}

// HandleMailJob dispatches one queued job to its template. Transport failures
// return an error so the delivery is retried; payload problems are dropped
// after logging, retrying them can never succeed.
func (s *NotificationService) HandleMailJob(ctx context.Context, job queue.MailJob) error {
	tmpl, data, err := s.prepare(job)
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"kind": job.Kind,
			"to":   job.To,
		}).Error("Dropping undeliverable mail job")
		return nil
	}

	body, err := s.renderTemplate(tmpl.Body, data)
	if err != nil {
		logrus.WithError(err).WithField("kind", job.Kind).Error("Dropping mail job, template failed")
		return nil
	}

	return s.sendEmail(job.To, tmpl.Subject, body)
}

func (s *NotificationService) prepare(job queue.MailJob) (emailTemplate, map[string]interface{}, error) {
	if job.To == "" {
		return emailTemplate{}, nil, fmt.Errorf("mail job has no recipient")
	}

	data := map[string]interface{}{
		"RecipientName": job.RecipientName,
		"RequestCode":   job.RequestCode,
		"CompanyName":   job.CompanyName,
		"CompanyCode":   job.CompanyCode,
		"PlatformName":  s.config.Email.FromName,
		"LoginURL":      fmt.Sprintf("%s/login", s.config.Frontend.BaseURL),
	}

	switch job.Kind {
	case queue.MailCompanyRequestReceived:
		return s.getEmailTemplate("company_request_received"), data, nil

	case queue.MailCompanyApprovalNewUser:
		if job.TemporaryPassword == "" || job.PasswordExpiresAt == nil {
			return emailTemplate{}, nil, fmt.Errorf("new user approval job missing temporary credentials")
		}
		data["Email"] = job.To
		data["TemporaryPassword"] = job.TemporaryPassword
		data["PasswordExpiresAt"] = job.PasswordExpiresAt.Format("02/01/2006")
		return s.getEmailTemplate("company_approval_new_user"), data, nil

	case queue.MailCompanyApprovalExistingUser:
		return s.getEmailTemplate("company_approval_existing_user"), data, nil

	case queue.MailCompanyRejection:
		if job.RejectionReason == "" {
			return emailTemplate{}, nil, fmt.Errorf("rejection job missing reason")
		}
		data["Reason"] = job.RejectionReason
		return s.getEmailTemplate("company_rejection"), data, nil

	case queue.MailTicketResponse:
		data["TicketCode"] = job.TicketCode
		data["TicketTitle"] = job.TicketTitle
		data["ResponseBody"] = job.ResponseBody
		return s.getEmailTemplate("ticket_response"), data, nil

	default:
		return emailTemplate{}, nil, fmt.Errorf("unknown mail kind %q", job.Kind)
	}
}

func (s *NotificationService) sendEmail(to, subject, body string) error {
	if s.config.Email.SMTPHost == "" {
		logrus.WithFields(logrus.Fields{
			"to":      to,
			"subject": subject,
		}).Info("SMTP not configured, email logged only")
		return nil
	}

	auth := smtp.PlainAuth("", s.config.Email.SMTPUsername, s.config.Email.SMTPPassword, s.config.Email.SMTPHost)

	msg := []byte(fmt.Sprintf("From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s",
		s.config.Email.FromName, s.config.Email.FromEmail, to, subject, body))

	addr := fmt.Sprintf("%s:%s", s.config.Email.SMTPHost, s.config.Email.SMTPPort)
	return smtp.SendMail(addr, auth, s.config.Email.FromEmail, []string{to}, msg)
}

func (s *NotificationService) renderTemplate(templateStr string, data interface{}) (string, error) {
	tmpl, err := template.New("email").Parse(templateStr)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func (s *NotificationService) getEmailTemplate(templateType string) emailTemplate {
	templates := map[string]emailTemplate{
		"company_request_received": {
			Subject: "Solicitud recibida",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Hemos recibido su solicitud</h2>
	<p>Gracias por registrar a <strong>{{.CompanyName}}</strong> en {{.PlatformName}}.</p>
	<p>Su número de seguimiento es <strong>{{.RequestCode}}</strong>. Nuestro equipo revisará la solicitud y le notificaremos la decisión por este medio.</p>
	<p>Saludos,<br>Equipo {{.PlatformName}}</p>
</body>
</html>`,
		},
		"company_approval_new_user": {
			Subject: "Solicitud aprobada, su cuenta está lista",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>¡Bienvenido a {{.PlatformName}}!</h2>
	<p>Hola {{.RecipientName}},</p>
	<p>Su solicitud <strong>{{.RequestCode}}</strong> fue aprobada. La empresa <strong>{{.CompanyName}}</strong> quedó registrada con el código <strong>{{.CompanyCode}}</strong>.</p>
	<p>Creamos una cuenta de administrador para usted:</p>
	<ul>
		<li>Usuario: {{.Email}}</li>
		<li>Contraseña temporal: <strong>{{.TemporaryPassword}}</strong></li>
	</ul>
	<p>La contraseña temporal vence el {{.PasswordExpiresAt}}. Debe cambiarla en su primer ingreso.</p>
	<a href="{{.LoginURL}}">Iniciar sesión</a>
	<p>Saludos,<br>Equipo {{.PlatformName}}</p>
</body>
</html>`,
		},
		"company_approval_existing_user": {
			Subject: "Solicitud aprobada",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Solicitud aprobada</h2>
	<p>Hola {{.RecipientName}},</p>
	<p>Su solicitud <strong>{{.RequestCode}}</strong> fue aprobada. La empresa <strong>{{.CompanyName}}</strong> quedó registrada con el código <strong>{{.CompanyCode}}</strong> y ya está vinculada a su cuenta existente.</p>
	<p>Ingrese con sus credenciales habituales para administrarla.</p>
	<a href="{{.LoginURL}}">Iniciar sesión</a>
	<p>Saludos,<br>Equipo {{.PlatformName}}</p>
</body>
</html>`,
		},
		"company_rejection": {
			Subject: "Solicitud rechazada",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Solicitud rechazada</h2>
	<p>Hola,</p>
	<p>Lamentamos informarle que su solicitud <strong>{{.RequestCode}}</strong> para registrar a <strong>{{.CompanyName}}</strong> fue rechazada.</p>
	<p>Motivo: {{.Reason}}</p>
	<p>Puede enviar una nueva solicitud corrigiendo lo indicado.</p>
	<p>Saludos,<br>Equipo {{.PlatformName}}</p>
</body>
</html>`,
		},
		"ticket_response": {
			Subject: "Nueva respuesta en su ticket",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Nueva respuesta</h2>
	<p>Hola {{.RecipientName}},</p>
	<p>El ticket <strong>{{.TicketCode}}</strong> ({{.TicketTitle}}) tiene una nueva respuesta:</p>
	<blockquote>{{.ResponseBody}}</blockquote>
	<p>Saludos,<br>Equipo {{.PlatformName}}</p>
</body>
</html>`,
		},
	}

	if tmpl, exists := templates[templateType]; exists {
		return tmpl
	}

	return emailTemplate{
		Subject: "Notificación",
		Body:    "<p>{{.RecipientName}}</p>",
	}
}
