// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/elingeyesdev/tickets-incidentes-sub002/internal/config"
	"github.com/elingeyesdev/tickets-incidentes-sub002/internal/handlers"
	"github.com/elingeyesdev/tickets-incidentes-sub002/internal/middleware"
	"github.com/elingeyesdev/tickets-incidentes-sub002/internal/queue"
	"github.com/elingeyesdev/tickets-incidentes-sub002/internal/services"
	"github.com/elingeyesdev/tickets-incidentes-sub002/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config, mailQueue queue.MailQueue) *gin.Engine {
	// Initialize services
	storageService, _ := services.NewStorageService(cfg)

	requestService := services.NewCompanyRequestService(db, mailQueue)
	authService := services.NewAuthService(db, cfg.JWT.AccessTokenTTL, cfg.JWT.RefreshTokenTTL)
	companyService := services.NewCompanyService(db)
	ticketService := services.NewTicketService(db, mailQueue, storageService)

	// Initialize handlers
	requestHandler := handlers.NewCompanyRequestHandler(requestService)
	authHandler := handlers.NewAuthHandler(authService)
	companyHandler := handlers.NewCompanyHandler(companyService)
	ticketHandler := handlers.NewTicketHandler(ticketService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.CORS(cfg.Frontend.BaseURL))
	r.Use(middleware.I18nMiddleware(cfg.I18n.DefaultLocale))
	r.Use(middleware.GeneralRateLimit())
	r.Use(middleware.AuditLogMiddleware(db))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Public company registration
		requests := v1.Group("/company-requests")
		{
			requests.POST("", middleware.SubmitRateLimit(), requestHandler.Submit)
			requests.GET("/:code", requestHandler.GetByCode)
		}

		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
			auth.GET("/me", middleware.AuthRequired(), authHandler.Me)
			auth.PUT("/password", middleware.AuthRequired(), authHandler.ChangePassword)
		}

		// Company routes
		companies := v1.Group("/companies")
		companies.Use(middleware.AuthRequired())
		{
			companies.GET("/mine", companyHandler.GetMine)
			companies.GET("/:companyId", companyHandler.Get)
			companies.PUT("/:companyId", companyHandler.Update)

			// Company-scoped tickets
			companies.POST("/:companyId/tickets", ticketHandler.Create)
			companies.GET("/:companyId/tickets", ticketHandler.List)
		}

		// Ticket routes
		tickets := v1.Group("/tickets")
		tickets.Use(middleware.AuthRequired())
		{
			tickets.GET("/:id", ticketHandler.Get)
			tickets.POST("/:id/responses", ticketHandler.AddResponse)
			tickets.PUT("/:id/status", ticketHandler.UpdateStatus)
			tickets.PUT("/:id/assign", ticketHandler.Assign)
		}

		// Admin routes
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.PlatformAdminRequired())
		{
			adminRequests := admin.Group("/company-requests")
			{
				adminRequests.GET("", requestHandler.List)
				adminRequests.POST("/:id/approve", requestHandler.Approve)
				adminRequests.POST("/:id/reject", requestHandler.Reject)
			}

			adminCompanies := admin.Group("/companies")
			{
				adminCompanies.GET("", companyHandler.List)
				adminCompanies.PUT("/:companyId/status", companyHandler.SetStatus)
			}
		}
	}

	// Static file serving (for development)
	if cfg.Environment == "development" {
		r.Static("/uploads", "./uploads")
	}

	return r
}
