package dubverse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ManuelReschke/DubFox/internal/pkg/env"
)

const defaultAPIBaseURL = "https://api.dubverse.ai"

// DefaultSourceLanguage is used when the caller selects automatic detection.
const DefaultSourceLanguage = "en"

// Client is a typed client for the Dubverse dubbing API. It is constructed
// explicitly and passed to whatever needs it; there is no package-level
// instance.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewClient creates a provider client carrying the given bearer credential.
func NewClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = defaultAPIBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		APIKey:     apiKey,
		HTTPClient: httpClient,
	}
}

// BaseURLFromEnv returns the configured upstream base URL.
func BaseURLFromEnv() string {
	return strings.TrimRight(env.GetEnv("DUBVERSE_API_URL", defaultAPIBaseURL), "/")
}

// Do issues one request to the provider: endpoint appended to the base URL,
// JSON body when present, the credential as bearer token. Non-2xx responses
// come back as *APIError carrying the upstream status and body verbatim.
func (c *Client) Do(ctx context.Context, method, endpoint string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("dubverse request failed: %w", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Body: json.RawMessage(data)}
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode dubverse response: %w", err)
		}
	}
	return nil
}

// ListLanguages returns the languages available for translation
func (c *Client) ListLanguages(ctx context.Context) ([]Language, error) {
	var langs []Language
	if err := c.Do(ctx, http.MethodGet, "/languages", nil, &langs); err != nil {
		return nil, err
	}
	return langs, nil
}

// CreateProject creates a new dubbing project
func (c *Client) CreateProject(ctx context.Context, req CreateProjectRequest) (*Project, error) {
	var project Project
	if err := c.Do(ctx, http.MethodPost, "/projects", req, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// GetProject fetches the current state of a project
func (c *Client) GetProject(ctx context.Context, projectID string) (*Project, error) {
	var project Project
	endpoint := "/projects/" + url.PathEscape(projectID)
	if err := c.Do(ctx, http.MethodGet, endpoint, nil, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// StartDub starts the dubbing process for a project
func (c *Client) StartDub(ctx context.Context, projectID string, opts *DubOptions) (*Project, error) {
	var project Project
	endpoint := "/projects/" + url.PathEscape(projectID) + "/dub"
	var body interface{}
	if opts != nil {
		body = opts
	}
	if err := c.Do(ctx, http.MethodPost, endpoint, body, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// ListVoices returns the voices available for a language
func (c *Client) ListVoices(ctx context.Context, languageCode string) ([]Voice, error) {
	var voices []Voice
	endpoint := "/voices?language=" + url.QueryEscape(languageCode)
	if err := c.Do(ctx, http.MethodGet, endpoint, nil, &voices); err != nil {
		return nil, err
	}
	return voices, nil
}

// ResolveSourceLanguage maps the auto-detect selection to the base language;
// everything else passes through unchanged.
func ResolveSourceLanguage(code string) string {
	if code == "" || code == "auto" {
		return DefaultSourceLanguage
	}
	return code
}
