package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/DubFox/internal/pkg/usercontext"
)

func isLoggedIn(c *fiber.Ctx) bool {
	userContext := usercontext.GetUserContext(c)

	return userContext.IsLoggedIn
}

func getUserID(c *fiber.Ctx) uint {
	userContext := usercontext.GetUserContext(c)

	return userContext.UserID
}
