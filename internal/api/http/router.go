package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/bugtracker/internal/api/http/handlers"
	"github.com/spec-kit/bugtracker/internal/auth"
	"github.com/spec-kit/bugtracker/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Teams          *handlers.TeamsHandler
	Projects       *handlers.ProjectsHandler
	Tickets        *handlers.TicketsHandler
	AuditLogs      *handlers.AuditLogsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)
	authGroup.Post("/password/reset/request", cfg.Users.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Users.ConfirmPasswordReset)

	authProtected := authGroup.Group("", cfg.AuthMiddleware.Handle)
	authProtected.Post("/logout", cfg.Users.Logout)
	authProtected.Get("/me", cfg.Users.Me)
	authProtected.Post("/password/change", cfg.Users.ChangePassword)

	api := app.Group("/api", cfg.AuthMiddleware.Handle, auth.RequireRole())

	api.Put("/users/:id/role", auth.RequireAdmin(), cfg.Users.SetRole)

	api.Post("/teams", auth.RequireRole(domain.RoleProfessor, domain.RoleAdmin), cfg.Teams.CreateTeam)
	api.Get("/teams", cfg.Teams.ListTeams)
	api.Get("/teams/:id", cfg.Teams.GetTeam)
	api.Put("/teams/:id", auth.RequireRole(domain.RoleProfessor, domain.RoleAdmin), cfg.Teams.UpdateTeam)
	api.Delete("/teams/:id", auth.RequireAdmin(), cfg.Teams.DeleteTeam)
	api.Post("/teams/leave", cfg.Teams.LeaveTeam)
	api.Post("/teams/:id/join", cfg.Teams.JoinTeam)

	api.Post("/projects", auth.RequireRole(domain.RoleProfessor, domain.RoleAdmin), cfg.Projects.CreateProject)
	api.Get("/projects/team/:teamId", cfg.Projects.ListTeamProjects)
	api.Get("/projects/:id", cfg.Projects.GetProject)
	api.Put("/projects/:id", auth.RequireRole(domain.RoleProfessor, domain.RoleAdmin), cfg.Projects.UpdateProject)
	api.Delete("/projects/:id", auth.RequireAdmin(), cfg.Projects.DeleteProject)

	api.Post("/tickets", cfg.Tickets.CreateTicket)
	api.Get("/tickets/project/:projectId", cfg.Tickets.ListProjectTickets)
	api.Get("/tickets/:id", cfg.Tickets.GetTicket)
	api.Put("/tickets/:id", cfg.Tickets.UpdateTicket)
	api.Delete("/tickets/:id", auth.RequireAdmin(), cfg.Tickets.DeleteTicket)

	api.Post("/changeTicketState", cfg.Tickets.ChangeTicketState)
	api.Get("/logs", cfg.AuditLogs.GetAllLogs)
	api.Get("/logs/ticket/:ticketId", cfg.AuditLogs.GetLogsForTicket)
	api.Get("/logs/user/:userId", cfg.AuditLogs.GetLogsByUser)
	api.Delete("/log/:logId", auth.RequireAdmin(), cfg.AuditLogs.DeleteLog)
}
