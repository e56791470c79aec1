package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/DubFox/app/repository"
	"github.com/ManuelReschke/DubFox/internal/pkg/entitlements"
	"github.com/ManuelReschke/DubFox/internal/pkg/usercontext"
)

// RequireAuth ensures a logged-in web session; redirects to /login if missing.
func RequireAuth(c *fiber.Ctx) error {
	if !usercontext.IsLoggedIn(c) {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}
	return c.Next()
}

// RequireAPISessionAuth ensures a logged-in session for API routes and returns JSON 401 instead of redirect.
func RequireAPISessionAuth(c *fiber.Ctx) error {
	if !usercontext.IsLoggedIn(c) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "login required",
		})
	}
	return c.Next()
}

// RequireEntitlement gates the dubbing surface on the subscription predicate.
// The bypass allow-list is consulted first so internal testing accounts work
// without subscription rows; it is empty unless explicitly configured.
func RequireEntitlement(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "login required",
		})
	}

	allowlist := entitlements.BypassAllowlistFromEnv()
	if entitlements.IsBypassed(userCtx.Email, allowlist) {
		return c.Next()
	}

	subs, err := repository.GetGlobalFactory().GetSubscriptionRepository().ListByUserID(userCtx.UserID)
	if err != nil {
		log.Errorf("subscription lookup failed for user %d: %v", userCtx.UserID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "internal_server_error",
			"message": "Subscription check failed",
		})
	}

	if !entitlements.IsEntitled(subs, time.Now()) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":   "subscription_required",
			"message": "An active subscription is required to use the dubbing tool",
		})
	}

	return c.Next()
}
