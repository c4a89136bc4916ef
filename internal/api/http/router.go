package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/ratelimit"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	Comments       *handlers.CommentsHandler
	Categories     *handlers.CategoriesHandler
	Client         *handlers.ClientHandler
	Reports        *handlers.ReportsHandler
	Metrics        fiber.Handler
	AuthMiddleware *auth.AuthMiddleware
	ClientLimiter  *ratelimit.Limiter
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", cfg.Metrics)
	}

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)
	authGroup.Get("/me", cfg.AuthMiddleware.Handle, cfg.Users.Me)

	client := app.Group("/client")
	client.Post("/submit-ticket", cfg.ClientLimiter.Middleware("client_submit"), cfg.Client.Submit)
	client.Get("/ticket-status/:reference", cfg.Client.Status)

	authenticated := []fiber.Handler{cfg.AuthMiddleware.Handle, auth.RequireAuthenticated()}

	tickets := app.Group("/tickets", authenticated...)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Put("/:id", cfg.Tickets.UpdateTicket)
	tickets.Delete("/:id", auth.RequireAdmin(), cfg.Tickets.DeleteTicket)
	tickets.Post("/:id/status", cfg.Tickets.UpdateStatus)
	tickets.Post("/:id/priority", cfg.Tickets.UpdatePriority)
	tickets.Post("/:id/assign", cfg.Tickets.Assign)
	tickets.Post("/:id/category", cfg.Tickets.ChangeCategory)
	tickets.Get("/:id/audit", cfg.Tickets.ListAudit)
	tickets.Get("/:id/attachments", cfg.Tickets.ListAttachments)
	tickets.Post("/:id/attachments", cfg.Tickets.UploadAttachment)
	tickets.Get("/:id/comments", cfg.Comments.ListComments)
	tickets.Post("/:id/comments", cfg.Comments.AddComment)

	comments := app.Group("/comments", authenticated...)
	comments.Put("/:id", cfg.Comments.EditComment)
	comments.Delete("/:id", cfg.Comments.DeleteComment)
	comments.Post("/:id/restore", cfg.Comments.RestoreComment)

	categories := app.Group("/categories", authenticated...)
	categories.Get("/", cfg.Categories.List)
	categories.Get("/:id", cfg.Categories.Get)
	categories.Post("/", auth.RequireAdmin(), cfg.Categories.Create)
	categories.Put("/:id", auth.RequireAdmin(), cfg.Categories.Update)
	categories.Delete("/:id", auth.RequireAdmin(), cfg.Categories.Deactivate)

	users := app.Group("/users", authenticated...)
	users.Get("/", auth.RequireAdmin(), cfg.Users.List)
	users.Put("/me", cfg.Users.UpdateProfile)
	users.Get("/:username", cfg.Users.Get)
	users.Put("/:id/access", auth.RequireAdmin(), cfg.Users.SetAccess)

	reports := app.Group("/reports", append(authenticated, auth.RequireAdmin())...)
	reports.Get("/dashboard", cfg.Reports.Dashboard)
	reports.Get("/export", cfg.Reports.Export)
}
