package router

import (
	"github.com/gofiber/fiber/v2"
	gothfiber "github.com/shareed2k/goth_fiber"

	"github.com/ManuelReschke/DubFox/app/controllers"
	"github.com/ManuelReschke/DubFox/internal/pkg/middleware"
	"github.com/ManuelReschke/DubFox/internal/pkg/oauth"
	"github.com/ManuelReschke/DubFox/internal/pkg/session"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	// init oauth providers
	oauth.Setup()

	// Apply UserContext middleware globally as first middleware
	app.Use(middleware.UserContextMiddleware)

	h.registerAuthRoutes(app)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}

func (h HttpRouter) registerAuthRoutes(app *fiber.App) {
	// Native auth
	app.Post("/login", controllers.HandleAuthLogin)
	app.Post("/register", controllers.HandleAuthRegister)
	app.Get("/activate", controllers.HandleAuthActivate)
	app.Post("/logout", middleware.RequireAuth, controllers.HandleAuthLogout)
	app.Post("/forgot-password", controllers.HandleAuthForgotPassword)
	app.Post("/reset-password", controllers.HandleAuthResetPassword)

	// Social OAuth
	app.Get("/auth/:provider", gothfiber.BeginAuthHandler)
	app.Get("/auth/:provider/callback", controllers.HandleOAuthCallback)
}
