package controllers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/DubFox/app/repository"
	"github.com/ManuelReschke/DubFox/internal/pkg/entitlements"
	"github.com/ManuelReschke/DubFox/internal/pkg/usercontext"
)

// AccountController exposes the caller's account summary for the dashboard.
type AccountController struct {
	users         repository.UserRepository
	creds         repository.CredentialRepository
	subscriptions repository.SubscriptionRepository
	bypass        []string
}

func NewAccountController(users repository.UserRepository, creds repository.CredentialRepository, subscriptions repository.SubscriptionRepository, bypass []string) *AccountController {
	return &AccountController{
		users:         users,
		creds:         creds,
		subscriptions: subscriptions,
		bypass:        bypass,
	}
}

func NewAccountControllerFromEnv() *AccountController {
	factory := repository.GetGlobalFactory()
	return NewAccountController(
		factory.GetUserRepository(),
		factory.GetCredentialRepository(),
		factory.GetSubscriptionRepository(),
		entitlements.BypassAllowlistFromEnv(),
	)
}

// HandleGetAccount returns the account summary. The entitled flag is what
// the dashboard branches on for the dubbing feature.
// @Summary      Get the current account
// @Tags         account
// @Produce      json
// @Router       /api/v1/account [get]
func (ac *AccountController) HandleGetAccount(c *fiber.Ctx) error {
	uc := usercontext.GetUserContext(c)

	user, err := ac.users.GetByID(uc.UserID)
	if err != nil {
		log.Errorf("[Account] User lookup %d failed: %v", uc.UserID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "database_error",
			"message": "could not load account",
		})
	}

	subs, err := ac.subscriptions.ListByUserID(user.ID)
	if err != nil {
		log.Errorf("[Account] Subscription lookup %d failed: %v", user.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "database_error",
			"message": "could not load subscriptions",
		})
	}

	hasKey := false
	var requestCount int64
	cred, err := ac.creds.GetByUserID(user.ID)
	switch {
	case err == nil:
		hasKey = cred.HasKey()
		requestCount = cred.RequestCount
	case errors.Is(err, gorm.ErrRecordNotFound):
		// no credential yet
	default:
		log.Errorf("[Account] Credential lookup %d failed: %v", user.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "database_error",
			"message": "could not load account",
		})
	}

	return c.JSON(fiber.Map{
		"id":            user.ID,
		"username":      user.Name,
		"email":         user.Email,
		"entitled":      entitlements.Check(user.Email, subs, time.Now(), ac.bypass),
		"api_key_set":   hasKey,
		"request_count": requestCount,
		"created_at":    user.CreatedAt,
	})
}
