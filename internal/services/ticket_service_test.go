// internal/services/ticket_service_test.go
package services

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/elingeyesdev/tickets-incidentes-sub002/internal/models"
	"github.com/elingeyesdev/tickets-incidentes-sub002/internal/queue"
)

type TicketServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	mail    *fakeMailQueue
	service *TicketService

	company *models.Company
	agent   *models.User
	endUser *models.User
}

func (suite *TicketServiceTestSuite) SetupTest() {
	suite.db = newTestDB(suite.T())
	suite.mail = &fakeMailQueue{}
	suite.service = NewTicketService(suite.db, suite.mail, nil)

	suite.agent = suite.createUser("agente@andinas.bo", "Agente Soporte")
	suite.endUser = suite.createUser("cliente@andinas.bo", "Cliente Final")

	suite.company = &models.Company{
		CompanyCode: "CMP-2025-00001",
		Name:        "Soluciones Andinas",
		Status:      models.CompanyStatusActive,
		AdminUserID: suite.agent.ID,
	}
	suite.Require().NoError(suite.db.Create(suite.company).Error)

	suite.grantRole(suite.agent, models.RoleAgent)
	suite.grantRole(suite.endUser, models.RoleEndUser)
}

func (suite *TicketServiceTestSuite) createUser(email, name string) *models.User {
	user := &models.User{
		Email:    email,
		FullName: name,
		Status:   models.UserStatusActive,
	}
	suite.Require().NoError(user.SetPassword("Clave1234"))
	suite.Require().NoError(suite.db.Create(user).Error)
	return user
}

func (suite *TicketServiceTestSuite) grantRole(user *models.User, code models.RoleCode) {
	role := &models.UserRole{
		UserID:    user.ID,
		CompanyID: suite.company.ID,
		RoleCode:  code,
		Active:    true,
		GrantedAt: time.Now(),
	}
	suite.Require().NoError(suite.db.Create(role).Error)
}

func (suite *TicketServiceTestSuite) createTicket(creator *models.User) *models.Ticket {
	ticket, err := suite.service.Create(context.Background(), creator.ID, suite.company.ID, &CreateTicketInput{
		Title:       "No puedo acceder al sistema",
		Description: "Desde esta mañana el sistema rechaza mis credenciales.",
	})
	suite.Require().NoError(err)
	return ticket
}

func (suite *TicketServiceTestSuite) TestCreateGeneratesCode() {
	ticket := suite.createTicket(suite.endUser)

	suite.Regexp(regexp.MustCompile(`^TKT-\d{4}-\d{5}$`), ticket.TicketCode)
	suite.Equal(models.TicketStatusOpen, ticket.Status)
	suite.Equal(models.TicketPriorityMedium, ticket.Priority)
}

func (suite *TicketServiceTestSuite) TestCreateRequiresMembership() {
	outsider := suite.createUser("externo@otro.bo", "Externo")

	_, err := suite.service.Create(context.Background(), outsider.ID, suite.company.ID, &CreateTicketInput{
		Title:       "Intento sin permiso",
		Description: "Este usuario no pertenece a la empresa.",
	})
	suite.ErrorIs(err, ErrNotCompanyMember)
}

func (suite *TicketServiceTestSuite) TestEndUserSeesOnlyOwnTickets() {
	suite.createTicket(suite.endUser)
	suite.createTicket(suite.agent)

	tickets, total, err := suite.service.List(suite.endUser.ID, suite.company.ID, TicketFilter{})
	suite.Require().NoError(err)
	suite.Equal(int64(1), total)
	suite.Equal(suite.endUser.ID, tickets[0].CreatedBy)

	_, total, err = suite.service.List(suite.agent.ID, suite.company.ID, TicketFilter{})
	suite.Require().NoError(err)
	suite.Equal(int64(2), total)
}

func (suite *TicketServiceTestSuite) TestInternalNotesHiddenFromEndUser() {
	ticket := suite.createTicket(suite.endUser)

	_, err := suite.service.AddResponse(context.Background(), suite.agent.ID, ticket.ID, &AddResponseInput{
		Body:       "Nota interna sobre el cliente",
		IsInternal: true,
	}, nil)
	suite.Require().NoError(err)

	_, err = suite.service.AddResponse(context.Background(), suite.agent.ID, ticket.ID, &AddResponseInput{
		Body: "Estamos revisando su acceso",
	}, nil)
	suite.Require().NoError(err)

	visible, err := suite.service.Get(suite.endUser.ID, ticket.ID)
	suite.Require().NoError(err)
	suite.Len(visible.Responses, 1)
	suite.False(visible.Responses[0].IsInternal)

	full, err := suite.service.Get(suite.agent.ID, ticket.ID)
	suite.Require().NoError(err)
	suite.Len(full.Responses, 2)
}

func (suite *TicketServiceTestSuite) TestEndUserCannotWriteInternalNote() {
	ticket := suite.createTicket(suite.endUser)

	_, err := suite.service.AddResponse(context.Background(), suite.endUser.ID, ticket.ID, &AddResponseInput{
		Body:       "Intento de nota interna",
		IsInternal: true,
	}, nil)
	suite.ErrorIs(err, ErrForbidden)
}

func (suite *TicketServiceTestSuite) TestClosedTicketRejectsResponses() {
	ticket := suite.createTicket(suite.endUser)

	_, err := suite.service.UpdateStatus(suite.agent.ID, ticket.ID, models.TicketStatusClosed)
	suite.Require().NoError(err)

	_, err = suite.service.AddResponse(context.Background(), suite.endUser.ID, ticket.ID, &AddResponseInput{
		Body: "Todavía tengo el problema",
	}, nil)
	suite.ErrorIs(err, ErrTicketClosed)
}

func (suite *TicketServiceTestSuite) TestCreatorReplyReopensResolvedTicket() {
	ticket := suite.createTicket(suite.endUser)

	_, err := suite.service.UpdateStatus(suite.agent.ID, ticket.ID, models.TicketStatusResolved)
	suite.Require().NoError(err)

	_, err = suite.service.AddResponse(context.Background(), suite.endUser.ID, ticket.ID, &AddResponseInput{
		Body: "El problema volvió a aparecer",
	}, nil)
	suite.Require().NoError(err)

	var stored models.Ticket
	suite.Require().NoError(suite.db.First(&stored, "id = ?", ticket.ID).Error)
	suite.Equal(models.TicketStatusOpen, stored.Status)
}

func (suite *TicketServiceTestSuite) TestClosedIsTerminal() {
	ticket := suite.createTicket(suite.endUser)

	_, err := suite.service.UpdateStatus(suite.agent.ID, ticket.ID, models.TicketStatusClosed)
	suite.Require().NoError(err)

	_, err = suite.service.UpdateStatus(suite.agent.ID, ticket.ID, models.TicketStatusOpen)

	var transitionErr *InvalidTicketTransitionError
	suite.Require().True(errors.As(err, &transitionErr))
	suite.Equal(models.TicketStatusClosed, transitionErr.From)
}

func (suite *TicketServiceTestSuite) TestEndUserCannotChangeStatus() {
	ticket := suite.createTicket(suite.endUser)

	_, err := suite.service.UpdateStatus(suite.endUser.ID, ticket.ID, models.TicketStatusResolved)
	suite.ErrorIs(err, ErrForbidden)
}

func (suite *TicketServiceTestSuite) TestAgentReplyNotifiesCreator() {
	ticket := suite.createTicket(suite.endUser)
	before := suite.mail.count()

	_, err := suite.service.AddResponse(context.Background(), suite.agent.ID, ticket.ID, &AddResponseInput{
		Body: "Su acceso fue restablecido",
	}, nil)
	suite.Require().NoError(err)

	suite.Equal(before+1, suite.mail.count())
	job := suite.mail.last()
	suite.Equal(queue.MailTicketResponse, job.Kind)
	suite.Equal(suite.endUser.Email, job.To)
	suite.Equal(ticket.TicketCode, job.TicketCode)
}

func (suite *TicketServiceTestSuite) TestInternalNoteDoesNotNotify() {
	ticket := suite.createTicket(suite.endUser)
	before := suite.mail.count()

	_, err := suite.service.AddResponse(context.Background(), suite.agent.ID, ticket.ID, &AddResponseInput{
		Body:       "Revisar configuración del cliente",
		IsInternal: true,
	}, nil)
	suite.Require().NoError(err)

	suite.Equal(before, suite.mail.count())
}

func (suite *TicketServiceTestSuite) TestAssignToCompanyMember() {
	ticket := suite.createTicket(suite.endUser)

	updated, err := suite.service.Assign(suite.agent.ID, ticket.ID, suite.agent.ID)
	suite.Require().NoError(err)
	suite.Require().NotNil(updated.AssignedTo)
	suite.Equal(suite.agent.ID, *updated.AssignedTo)

	outsider := suite.createUser("externo@otro.bo", "Externo")
	_, err = suite.service.Assign(suite.agent.ID, ticket.ID, outsider.ID)
	suite.ErrorIs(err, ErrNotCompanyMember)
}

func (suite *TicketServiceTestSuite) TestGetUnknownTicket() {
	_, err := suite.service.Get(suite.agent.ID, uuid.New())
	suite.ErrorIs(err, ErrTicketNotFound)
}

func TestTicketServiceSuite(t *testing.T) {
	suite.Run(t, new(TicketServiceTestSuite))
}
