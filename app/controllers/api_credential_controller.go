package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/DubFox/app/repository"
	"github.com/ManuelReschke/DubFox/internal/pkg/usercontext"
)

// CredentialController manages the caller's stored Dubverse API key.
type CredentialController struct {
	creds repository.CredentialRepository
}

func NewCredentialController(creds repository.CredentialRepository) *CredentialController {
	return &CredentialController{creds: creds}
}

func NewCredentialControllerFromEnv() *CredentialController {
	return NewCredentialController(repository.GetGlobalFactory().GetCredentialRepository())
}

type saveCredentialRequest struct {
	APIKey string `json:"apiKey"`
}

// HandleGetCredential returns the caller's stored API key, or null when no
// key has been saved yet. An absent key is not an error.
// @Summary      Get the stored Dubverse API key
// @Tags         dubverse
// @Produce      json
// @Router       /api/v1/dubverse-key [get]
func (cc *CredentialController) HandleGetCredential(c *fiber.Ctx) error {
	userID := usercontext.GetUserContext(c).UserID

	cred, err := cc.creds.GetByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(fiber.Map{"apiKey": nil})
		}
		log.Errorf("[Credential] Lookup for user %d failed: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "database_error",
			"message": "could not load API key",
		})
	}
	if !cred.HasKey() {
		return c.JSON(fiber.Map{"apiKey": nil})
	}

	return c.JSON(fiber.Map{"apiKey": cred.APIKey})
}

// HandleSaveCredential stores the caller's API key (last write wins).
// @Summary      Save the Dubverse API key
// @Tags         dubverse
// @Accept       json
// @Produce      json
// @Router       /api/v1/dubverse-key [post]
func (cc *CredentialController) HandleSaveCredential(c *fiber.Ctx) error {
	var req saveCredentialRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "validation_error",
			"message": "invalid request body",
		})
	}

	uc := usercontext.GetUserContext(c)

	if err := cc.creds.Save(uc.UserID, uc.Email, req.APIKey); err != nil {
		if errors.Is(err, repository.ErrEmptyAPIKey) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   "validation_error",
				"message": "API key is required",
			})
		}
		log.Errorf("[Credential] Save for user %d failed: %v", uc.UserID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "database_error",
			"message": "could not save API key",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "API key saved",
	})
}
