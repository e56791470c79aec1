package apiv1

import (
	"github.com/gofiber/fiber/v2"
)

// Pong is the ping response payload.
type Pong struct {
	Ping string `json:"ping"`
}

// ServerInterface lists the unauthenticated v1 handlers.
type ServerInterface interface {
	GetPing(c *fiber.Ctx) error
}

// APIServer implements the ServerInterface
type APIServer struct{}

// NewAPIServer creates a new API server instance
func NewAPIServer() *APIServer {
	return &APIServer{}
}

// GetPing handles the ping endpoint
func (s *APIServer) GetPing(c *fiber.Ctx) error {
	response := Pong{
		Ping: "pong",
	}

	return c.Status(fiber.StatusOK).JSON(response)
}

// RegisterHandlers attaches the unauthenticated v1 routes to the router group.
func RegisterHandlers(router fiber.Router, si ServerInterface) {
	router.Get("/ping", si.GetPing)
}
