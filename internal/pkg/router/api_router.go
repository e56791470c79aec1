package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/ManuelReschke/DubFox/app/controllers"
	apiv1 "github.com/ManuelReschke/DubFox/internal/api/v1"
	"github.com/ManuelReschke/DubFox/internal/pkg/jobqueue"
	"github.com/ManuelReschke/DubFox/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	// API v1 routes
	v1 := api.Group("/v1")
	apiServer := apiv1.NewAPIServer()
	apiv1.RegisterHandlers(v1, apiServer)

	// Session-authenticated routes
	authed := v1.Group("", middleware.RequireAPISessionAuth)

	credentialController := controllers.NewCredentialControllerFromEnv()
	authed.Get("/dubverse-key", credentialController.HandleGetCredential)
	authed.Post("/dubverse-key", credentialController.HandleSaveCredential)

	accountController := controllers.NewAccountControllerFromEnv()
	authed.Get("/account", accountController.HandleGetAccount)

	// Dubbing surface is gated on the subscription predicate
	proxyController := controllers.NewProxyControllerFromEnv()
	dub := authed.Group("", middleware.RequireEntitlement)
	dub.Post("/dubverse", proxyController.HandleProxyPost)
	dub.Get("/dubverse", proxyController.HandleProxyGet)

	dubController := controllers.NewDubController(jobqueue.GetManager().GetQueue())
	dub.Post("/dub", dubController.HandleStartDub)
	dub.Get("/dub/:job_id", dubController.HandleGetDubJob)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
