package controllers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ManuelReschke/DubFox/app/models"
	"github.com/ManuelReschke/DubFox/internal/pkg/usercontext"
)

type stubCredentialRepo struct {
	cred *models.DubCredential
	err  error
}

func (s *stubCredentialRepo) GetByUserID(userID uint) (*models.DubCredential, error) {
	return s.cred, s.err
}

func (s *stubCredentialRepo) Save(userID uint, email, apiKey string) error { return nil }

func newProxyTestApp(pc *ProxyController, uc usercontext.UserContext) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		usercontext.SetUserContext(c, uc)
		return c.Next()
	})
	app.Post("/api/v1/dubverse", pc.HandleProxyPost)
	app.Get("/api/v1/dubverse", pc.HandleProxyGet)
	return app
}

func loggedInUser() usercontext.UserContext {
	return usercontext.UserContext{UserID: 7, Username: "tester", Email: "tester@example.com", IsLoggedIn: true}
}

func TestProxyWithoutCredentialNeverCallsUpstream(t *testing.T) {
	upstreamCalls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upstreamCalls++
	}))
	defer srv.Close()

	pc := NewProxyController(&stubCredentialRepo{err: gorm.ErrRecordNotFound}, srv.URL, srv.Client())
	app := newProxyTestApp(pc, loggedInUser())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/dubverse", strings.NewReader(`{"endpoint":"/languages"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 0, upstreamCalls)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "configuration_error", body["error"])
}

func TestProxyWithoutLoginNeverCallsUpstream(t *testing.T) {
	upstreamCalls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upstreamCalls++
	}))
	defer srv.Close()

	pc := NewProxyController(&stubCredentialRepo{cred: &models.DubCredential{UserID: 7, APIKey: "secret"}}, srv.URL, srv.Client())
	app := newProxyTestApp(pc, usercontext.UserContext{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dubverse?endpoint=/languages", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, 0, upstreamCalls)
}

func TestProxyAttachesStoredCredential(t *testing.T) {
	var gotAuth, gotMethod, gotPath, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotMethod = r.Method
		gotPath = r.URL.Path
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"p1","status":"created"}`))
	}))
	defer srv.Close()

	pc := NewProxyController(&stubCredentialRepo{cred: &models.DubCredential{UserID: 7, APIKey: "secret-key"}}, srv.URL, srv.Client())
	app := newProxyTestApp(pc, loggedInUser())

	envelope := `{"endpoint":"/projects","method":"POST","body":{"name":"test","target_language":"es"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/dubverse", strings.NewReader(envelope))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Bearer secret-key", gotAuth)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/projects", gotPath)
	assert.JSONEq(t, `{"name":"test","target_language":"es"}`, gotBody)

	data, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"id":"p1","status":"created"}`, string(data))
}

func TestProxyEnvelopeDefaultsToPost(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"p2","status":"created"}`))
	}))
	defer srv.Close()

	pc := NewProxyController(&stubCredentialRepo{cred: &models.DubCredential{UserID: 7, APIKey: "secret"}}, srv.URL, srv.Client())
	app := newProxyTestApp(pc, loggedInUser())

	envelope := `{"endpoint":"/projects","body":{"name":"no method"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/dubverse", strings.NewReader(envelope))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/projects", gotPath)
}

func TestProxyGetConvenienceForm(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`[{"code":"es"}]`))
	}))
	defer srv.Close()

	pc := NewProxyController(&stubCredentialRepo{cred: &models.DubCredential{UserID: 7, APIKey: "secret"}}, srv.URL, srv.Client())
	app := newProxyTestApp(pc, loggedInUser())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dubverse?endpoint=/languages", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, http.MethodGet, gotMethod)
	assert.Equal(t, "/languages", gotPath)
}

func TestProxyUpstreamErrorPassthrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"invalid key"}`))
	}))
	defer srv.Close()

	pc := NewProxyController(&stubCredentialRepo{cred: &models.DubCredential{UserID: 7, APIKey: "bad"}}, srv.URL, srv.Client())
	app := newProxyTestApp(pc, loggedInUser())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dubverse?endpoint=/languages", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	var body struct {
		Error   string          `json:"error"`
		Details json.RawMessage `json:"details"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Dubverse API error", body.Error)
	assert.JSONEq(t, `{"message":"invalid key"}`, string(body.Details))
}

func TestProxyMissingEndpoint(t *testing.T) {
	upstreamCalls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upstreamCalls++
	}))
	defer srv.Close()

	pc := NewProxyController(&stubCredentialRepo{cred: &models.DubCredential{UserID: 7, APIKey: "secret"}}, srv.URL, srv.Client())
	app := newProxyTestApp(pc, loggedInUser())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/dubverse", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 0, upstreamCalls)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "validation_error", body["error"])
}
