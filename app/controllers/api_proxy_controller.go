package controllers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/DubFox/app/repository"
	"github.com/ManuelReschke/DubFox/internal/pkg/dubverse"
	"github.com/ManuelReschke/DubFox/internal/pkg/metrics/counter"
)

const maxProxyResponseBytes = 1 << 20

// ProxyEnvelope is the posted request shape for the generic proxy route.
type ProxyEnvelope struct {
	Endpoint string          `json:"endpoint"`
	Method   string          `json:"method"`
	Body     json.RawMessage `json:"body"`
}

// ProxyController relays requests to the Dubverse API with the caller's
// stored credential attached as a bearer token. It holds no per-request state.
type ProxyController struct {
	creds      repository.CredentialRepository
	baseURL    string
	httpClient *http.Client
}

// NewProxyController creates a proxy controller with explicit dependencies.
func NewProxyController(creds repository.CredentialRepository, baseURL string, httpClient *http.Client) *ProxyController {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &ProxyController{
		creds:      creds,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// NewProxyControllerFromEnv wires the controller to the global repositories
// and the configured upstream base URL.
func NewProxyControllerFromEnv() *ProxyController {
	return NewProxyController(
		repository.GetGlobalFactory().GetCredentialRepository(),
		dubverse.BaseURLFromEnv(),
		nil,
	)
}

// HandleProxyPost relays an enveloped request ({endpoint, method?, body?}).
// @Summary      Proxy a Dubverse API request
// @Tags         dubverse
// @Accept       json
// @Produce      json
// @Param        envelope body ProxyEnvelope true "proxied request"
// @Router       /api/v1/dubverse [post]
func (pc *ProxyController) HandleProxyPost(c *fiber.Ctx) error {
	var envelope ProxyEnvelope
	if err := c.BodyParser(&envelope); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "validation_error",
			"message": "invalid request body",
		})
	}

	// An envelope without an explicit method is a write: plain retrievals go
	// through the GET form instead.
	method := strings.ToUpper(strings.TrimSpace(envelope.Method))
	if method == "" {
		method = http.MethodPost
	}

	var body []byte
	if len(envelope.Body) > 0 && string(envelope.Body) != "null" {
		body = envelope.Body
	}

	return pc.relay(c, method, envelope.Endpoint, body)
}

// HandleProxyGet relays a plain retrieval (?endpoint=...). GET only.
// @Summary      Proxy a Dubverse API GET request
// @Tags         dubverse
// @Produce      json
// @Param        endpoint query string true "upstream endpoint path"
// @Router       /api/v1/dubverse [get]
func (pc *ProxyController) HandleProxyGet(c *fiber.Ctx) error {
	return pc.relay(c, http.MethodGet, c.Query("endpoint"), nil)
}

// relay enforces the identity and credential checks, then issues exactly one
// upstream call. No retries; upstream errors pass through verbatim.
func (pc *ProxyController) relay(c *fiber.Ctx, method, endpoint string, body []byte) error {
	if !isLoggedIn(c) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "login required",
		})
	}
	userID := getUserID(c)

	cred, err := pc.creds.GetByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   "configuration_error",
				"message": "Dubverse API key not configured. Please save your API key first.",
			})
		}
		log.Errorf("[Proxy] Credential lookup for user %d failed: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "database_error",
			"message": "could not load API key",
		})
	}
	if !cred.HasKey() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "configuration_error",
			"message": "Dubverse API key not configured. Please save your API key first.",
		})
	}

	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "validation_error",
			"message": "endpoint is required",
		})
	}
	if !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}

	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(c.UserContext(), method, pc.baseURL+endpoint, reader)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "validation_error",
			"message": "invalid endpoint or method",
		})
	}
	req.Header.Set("Authorization", "Bearer "+cred.APIKey)
	req.Header.Set("Accept", "application/json")
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := pc.httpClient.Do(req)
	if err != nil {
		log.Errorf("[Proxy] Upstream call %s %s failed: %v", method, endpoint, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":   "network_error",
			"message": "could not reach the Dubverse API",
		})
	}
	defer resp.Body.Close()

	counter.AddProxyRequest(userID)

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxProxyResponseBytes))
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":   "network_error",
			"message": "could not read the Dubverse API response",
		})
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var details interface{}
		if json.Valid(respBody) {
			details = json.RawMessage(respBody)
		} else {
			details = string(respBody)
		}
		return c.Status(resp.StatusCode).JSON(fiber.Map{
			"error":   "Dubverse API error",
			"details": details,
		})
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Status(resp.StatusCode).Send(respBody)
}
