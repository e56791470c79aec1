package dubverse

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientAttachesBearerToken(t *testing.T) {
	t.Parallel()

	var gotAuth, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"code":"es","name":"Spanish"}]`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "secret-key", srv.Client())
	langs, err := client.ListLanguages(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "Bearer secret-key", gotAuth)
	assert.Equal(t, "/languages", gotPath)
	require.Len(t, langs, 1)
	assert.Equal(t, "es", langs[0].Code)
}

func TestClientEndpointConstruction(t *testing.T) {
	t.Parallel()

	var gotPath, gotQuery, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotMethod = r.Method
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/voices" {
			_, _ = w.Write([]byte(`[]`))
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "k", srv.Client())
	ctx := context.Background()

	_, err := client.GetProject(ctx, "proj-42")
	require.NoError(t, err)
	assert.Equal(t, "/projects/proj-42", gotPath)
	assert.Equal(t, http.MethodGet, gotMethod)

	_, err = client.StartDub(ctx, "proj-42", &DubOptions{Speed: 1.25})
	require.NoError(t, err)
	assert.Equal(t, "/projects/proj-42/dub", gotPath)
	assert.Equal(t, http.MethodPost, gotMethod)

	_, err = client.ListVoices(ctx, "es")
	require.NoError(t, err)
	assert.Equal(t, "/voices", gotPath)
	assert.Equal(t, "language=es", gotQuery)
}

func TestClientCreateProjectPayload(t *testing.T) {
	t.Parallel()

	var gotBody CreateProjectRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"id":"p1","status":"created"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "k", srv.Client())
	project, err := client.CreateProject(context.Background(), CreateProjectRequest{
		Name:           "YouTube Dubbing - test",
		SourceLanguage: "en",
		TargetLanguage: "es",
		VideoURL:       "https://www.youtube.com/watch?v=abc12345678",
	})

	require.NoError(t, err)
	assert.Equal(t, "p1", project.ID)
	assert.Equal(t, "https://www.youtube.com/watch?v=abc12345678", gotBody.VideoURL)
	assert.Equal(t, "en", gotBody.SourceLanguage)
	assert.Equal(t, "es", gotBody.TargetLanguage)
}

func TestClientUpstreamErrorPassthrough(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"invalid key"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "bad-key", srv.Client())
	_, err := client.ListLanguages(context.Background())

	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.JSONEq(t, `{"message":"invalid key"}`, string(apiErr.Body))
}

func TestResolveSourceLanguage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "en", ResolveSourceLanguage("auto"))
	assert.Equal(t, "en", ResolveSourceLanguage(""))
	assert.Equal(t, "de", ResolveSourceLanguage("de"))
}

func TestIsTerminalStatus(t *testing.T) {
	t.Parallel()

	assert.True(t, IsTerminalStatus(ProjectStatusCompleted))
	assert.True(t, IsTerminalStatus(ProjectStatusFailed))
	assert.False(t, IsTerminalStatus(ProjectStatusProcessing))
	assert.False(t, IsTerminalStatus(ProjectStatusCreated))
	assert.False(t, IsTerminalStatus("rendering"))
}
