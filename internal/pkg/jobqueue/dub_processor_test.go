package jobqueue

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ManuelReschke/DubFox/app/models"
)

type stubCredentialRepo struct {
	cred *models.DubCredential
	err  error
}

func (s *stubCredentialRepo) GetByUserID(userID uint) (*models.DubCredential, error) {
	return s.cred, s.err
}

func (s *stubCredentialRepo) Save(userID uint, email, apiKey string) error { return nil }

func newDubJob(userID uint) *Job {
	payload := DubProjectJobPayload{
		UserID:         userID,
		ProjectName:    "YouTube Dubbing - test",
		VideoURL:       "https://www.youtube.com/watch?v=abc12345678",
		SourceLanguage: "auto",
		TargetLanguage: "es",
		Speed:          1.0,
	}
	return &Job{
		ID:      "job-1",
		Type:    JobTypeDubProject,
		Status:  JobStatusProcessing,
		Payload: payload.ToMap(),
	}
}

func TestDubProcessorHappyPath(t *testing.T) {
	t.Parallel()

	var createBody map[string]interface{}
	statusCalls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/projects":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&createBody))
			_, _ = w.Write([]byte(`{"id":"p1","status":"created"}`))
		case r.Method == http.MethodPost && r.URL.Path == "/projects/p1/dub":
			_, _ = w.Write([]byte(`{"id":"p1","status":"processing"}`))
		case r.Method == http.MethodGet && r.URL.Path == "/projects/p1":
			statusCalls++
			if statusCalls <= 3 {
				_, _ = w.Write([]byte(`{"id":"p1","status":"processing"}`))
			} else {
				_, _ = w.Write([]byte(`{"id":"p1","status":"completed","output_url":"https://cdn.example.com/p1.mp3"}`))
			}
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	creds := &stubCredentialRepo{cred: &models.DubCredential{UserID: 7, APIKey: "secret"}}
	p := NewDubProcessor(creds, srv.URL, srv.Client(), time.Millisecond, 10)

	job := newDubJob(7)
	err := p.Process(context.Background(), job, nil)

	require.NoError(t, err)
	// three processing responses then completed: exactly four poll calls
	assert.Equal(t, 4, statusCalls)
	require.NotNil(t, job.Progress)
	assert.Equal(t, DubStageCompleted, job.Progress.Stage)
	assert.Equal(t, "https://cdn.example.com/p1.mp3", job.Progress.OutputURL)
	assert.Equal(t, 4, job.Progress.PollCount)

	// auto resolves to the base language; the URL passes through verbatim
	assert.Equal(t, "en", createBody["source_language"])
	assert.Equal(t, "es", createBody["target_language"])
	assert.Equal(t, "https://www.youtube.com/watch?v=abc12345678", createBody["video_url"])
}

func TestDubProcessorTimesOut(t *testing.T) {
	t.Parallel()

	statusCalls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/projects":
			_, _ = w.Write([]byte(`{"id":"p1","status":"created"}`))
		case r.Method == http.MethodPost && r.URL.Path == "/projects/p1/dub":
			_, _ = w.Write([]byte(`{"id":"p1","status":"processing"}`))
		case r.Method == http.MethodGet && r.URL.Path == "/projects/p1":
			statusCalls++
			_, _ = w.Write([]byte(`{"id":"p1","status":"processing"}`))
		}
	}))
	defer srv.Close()

	creds := &stubCredentialRepo{cred: &models.DubCredential{UserID: 7, APIKey: "secret"}}
	p := NewDubProcessor(creds, srv.URL, srv.Client(), time.Millisecond, 3)

	job := newDubJob(7)
	err := p.Process(context.Background(), job, nil)

	require.ErrorIs(t, err, ErrDubTimedOut)
	assert.Equal(t, 3, statusCalls)
	require.NotNil(t, job.Progress)
	assert.Equal(t, DubStageTimedOut, job.Progress.Stage)
}

func TestDubProcessorProviderFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/projects":
			_, _ = w.Write([]byte(`{"id":"p1","status":"created"}`))
		case r.Method == http.MethodPost && r.URL.Path == "/projects/p1/dub":
			_, _ = w.Write([]byte(`{"id":"p1","status":"processing"}`))
		case r.Method == http.MethodGet && r.URL.Path == "/projects/p1":
			_, _ = w.Write([]byte(`{"id":"p1","status":"failed"}`))
		}
	}))
	defer srv.Close()

	creds := &stubCredentialRepo{cred: &models.DubCredential{UserID: 7, APIKey: "secret"}}
	p := NewDubProcessor(creds, srv.URL, srv.Client(), time.Millisecond, 10)

	job := newDubJob(7)
	err := p.Process(context.Background(), job, nil)

	require.ErrorIs(t, err, ErrDubFailed)
	require.NotNil(t, job.Progress)
	assert.Equal(t, DubStageFailed, job.Progress.Stage)
}

func TestDubProcessorTransientPollFailureContinues(t *testing.T) {
	t.Parallel()

	statusCalls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/projects":
			_, _ = w.Write([]byte(`{"id":"p1","status":"created"}`))
		case r.Method == http.MethodPost && r.URL.Path == "/projects/p1/dub":
			_, _ = w.Write([]byte(`{"id":"p1","status":"processing"}`))
		case r.Method == http.MethodGet && r.URL.Path == "/projects/p1":
			statusCalls++
			if statusCalls == 1 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			_, _ = w.Write([]byte(`{"id":"p1","status":"completed"}`))
		}
	}))
	defer srv.Close()

	creds := &stubCredentialRepo{cred: &models.DubCredential{UserID: 7, APIKey: "secret"}}
	p := NewDubProcessor(creds, srv.URL, srv.Client(), time.Millisecond, 10)

	job := newDubJob(7)
	err := p.Process(context.Background(), job, nil)

	require.NoError(t, err)
	assert.Equal(t, 2, statusCalls)
	assert.Equal(t, DubStageCompleted, job.Progress.Stage)
}

func TestDubProcessorMissingCredential(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("upstream must not be called without a credential")
	}))
	defer srv.Close()

	creds := &stubCredentialRepo{err: gorm.ErrRecordNotFound}
	p := NewDubProcessor(creds, srv.URL, srv.Client(), time.Millisecond, 3)

	job := newDubJob(7)
	err := p.Process(context.Background(), job, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}
