package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/task-service/internal/api/http/handlers"
	"github.com/spec-kit/task-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health *handlers.HealthHandler
	Auth   *handlers.AuthHandler
	Users  *handlers.UsersHandler
	Tasks  *handlers.TasksHandler
	Gate   *auth.Gate
}

// RegisterRoutes wires HTTP routes. The gate runs on every request and only
// attaches identity; the public allow-list is simply the set of routes
// without a RequireAuth/RequireAdmin guard.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api", cfg.Gate.Handle)

	authGroup := api.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/refresh", cfg.Auth.Refresh)
	authGroup.Post("/logout", cfg.Auth.Logout)

	users := api.Group("/users")
	users.Post("/", cfg.Users.Create) // public registration; role forced by service
	users.Put("/me/password", auth.RequireAuth(), cfg.Users.ChangePassword)
	users.Get("/", auth.RequireAdmin(), cfg.Users.List)
	users.Get("/username/:username", auth.RequireAdmin(), cfg.Users.GetByUsername)
	users.Get("/:id", auth.RequireAdmin(), cfg.Users.Get)
	users.Put("/:id/role", auth.RequireAdmin(), cfg.Users.UpdateRole)
	users.Delete("/:id", auth.RequireAdmin(), cfg.Users.Delete)

	tasks := api.Group("/tasks", auth.RequireAuth())
	tasks.Post("/", cfg.Tasks.Create)
	tasks.Get("/", cfg.Tasks.List)
	tasks.Get("/completed/:completed", cfg.Tasks.ListByCompleted)
	tasks.Get("/user/:userId/date-range", cfg.Tasks.ListDueBetween)
	tasks.Get("/user/:userId", cfg.Tasks.ListForUser)
	tasks.Get("/:id", cfg.Tasks.Get)
	tasks.Put("/:id", cfg.Tasks.Update)
	tasks.Delete("/:id", cfg.Tasks.Delete)
}
