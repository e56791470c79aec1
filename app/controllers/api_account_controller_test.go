package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ManuelReschke/DubFox/app/models"
	"github.com/ManuelReschke/DubFox/internal/pkg/usercontext"
)

type stubUserRepo struct {
	user *models.User
}

func (s *stubUserRepo) Create(user *models.User) error                          { return nil }
func (s *stubUserRepo) GetByID(id uint) (*models.User, error)                   { return s.user, nil }
func (s *stubUserRepo) GetByEmail(email string) (*models.User, error)           { return s.user, nil }
func (s *stubUserRepo) GetByActivationToken(token string) (*models.User, error) { return s.user, nil }
func (s *stubUserRepo) GetByResetToken(token string) (*models.User, error)      { return s.user, nil }
func (s *stubUserRepo) Update(user *models.User) error                          { return nil }
func (s *stubUserRepo) Delete(id uint) error                                    { return nil }
func (s *stubUserRepo) List(offset, limit int) ([]models.User, error)           { return nil, nil }
func (s *stubUserRepo) Count() (int64, error)                                   { return 0, nil }

type stubSubscriptionRepo struct {
	subs []models.Subscription
}

func (s *stubSubscriptionRepo) ListByUserID(userID uint) ([]models.Subscription, error) {
	return s.subs, nil
}

func newAccountTestApp(ac *AccountController) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		usercontext.SetUserContext(c, loggedInUser())
		return c.Next()
	})
	app.Get("/api/v1/account", ac.HandleGetAccount)
	return app
}

func TestGetAccountEntitledWithActiveSubscription(t *testing.T) {
	ac := NewAccountController(
		&stubUserRepo{user: &models.User{ID: 7, Name: "tester", Email: "tester@example.com"}},
		&savingCredentialRepo{cred: &models.DubCredential{UserID: 7, APIKey: "secret", RequestCount: 12}},
		&stubSubscriptionRepo{subs: []models.Subscription{{Status: models.SubscriptionStatusActive}}},
		nil,
	)
	app := newAccountTestApp(ac)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/account", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, true, body["entitled"])
	assert.Equal(t, true, body["api_key_set"])
	assert.Equal(t, float64(12), body["request_count"])
	assert.Equal(t, "tester", body["username"])
}

func TestGetAccountNotEntitledWithoutSubscription(t *testing.T) {
	ac := NewAccountController(
		&stubUserRepo{user: &models.User{ID: 7, Name: "tester", Email: "tester@example.com"}},
		&savingCredentialRepo{getErr: gorm.ErrRecordNotFound},
		&stubSubscriptionRepo{},
		nil,
	)
	app := newAccountTestApp(ac)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/account", nil))
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, false, body["entitled"])
	assert.Equal(t, false, body["api_key_set"])
}

func TestGetAccountBypassedEmailIsEntitled(t *testing.T) {
	ac := NewAccountController(
		&stubUserRepo{user: &models.User{ID: 7, Name: "tester", Email: "tester@example.com"}},
		&savingCredentialRepo{getErr: gorm.ErrRecordNotFound},
		&stubSubscriptionRepo{},
		[]string{"tester@example.com"},
	)
	app := newAccountTestApp(ac)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/account", nil))
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, true, body["entitled"])
}

func TestGetAccountPastDueExpiredNotEntitled(t *testing.T) {
	past := time.Now().Add(-48 * time.Hour)
	ac := NewAccountController(
		&stubUserRepo{user: &models.User{ID: 7, Name: "tester", Email: "tester@example.com"}},
		&savingCredentialRepo{getErr: gorm.ErrRecordNotFound},
		&stubSubscriptionRepo{subs: []models.Subscription{{Status: models.SubscriptionStatusPastDue, CurrentPeriodEnd: &past}}},
		nil,
	)
	app := newAccountTestApp(ac)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/account", nil))
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, false, body["entitled"])
}
