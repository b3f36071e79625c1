package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/phone-auth/internal/api/http/handlers"
	"github.com/spec-kit/phone-auth/internal/session"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health   *handlers.HealthHandler
	Auth     *handlers.AuthHandler
	Sessions *session.Manager
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	pages := app.Group("", cfg.Sessions.Handle)
	pages.Get("/", cfg.Auth.Home)

	pages.Get("/signup", cfg.Auth.SignupPage)
	pages.Post("/signup", cfg.Auth.Signup)
	pages.Get("/verify", session.RequirePendingSignup(), cfg.Auth.VerifyPage)
	pages.Post("/verify", cfg.Auth.Verify)

	pages.Get("/signin", cfg.Auth.SigninPage)
	pages.Post("/signin", cfg.Auth.Signin)
	pages.Get("/signin/verify", session.RequirePendingSignin(), cfg.Auth.SigninVerifyPage)
	pages.Post("/signin/verify", cfg.Auth.SigninVerify)

	pages.Get("/signout", cfg.Auth.Signout)
}
