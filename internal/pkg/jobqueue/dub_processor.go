package jobqueue

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/DubFox/app/repository"
	"github.com/ManuelReschke/DubFox/internal/pkg/dubverse"
	"github.com/ManuelReschke/DubFox/internal/pkg/env"
)

const (
	// DefaultPollInterval is how long the processor waits between status
	// checks. Each cycle waits for the prior response, so a slow upstream
	// delays the next poll by the same amount.
	DefaultPollInterval = 5 * time.Second

	// DefaultMaxPollAttempts bounds the polling loop (~10 minutes at the
	// default interval). Exhaustion yields the timed_out terminal state.
	DefaultMaxPollAttempts = 120
)

// ErrDubTimedOut is returned when a dub job exhausts its poll budget without
// the provider reaching a terminal status.
var ErrDubTimedOut = errors.New("dub project did not reach a terminal status in time")

// ErrDubFailed is returned when the provider reports the project as failed.
var ErrDubFailed = errors.New("dub project failed")

// DubProcessor walks a dub job through the provider sequence:
// create project -> start dub -> poll status until completed/failed/timed out.
type DubProcessor struct {
	creds           repository.CredentialRepository
	baseURL         string
	httpClient      *http.Client
	pollInterval    time.Duration
	maxPollAttempts int
}

// NewDubProcessor creates a processor with explicit dependencies.
func NewDubProcessor(creds repository.CredentialRepository, baseURL string, httpClient *http.Client, pollInterval time.Duration, maxPollAttempts int) *DubProcessor {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	if maxPollAttempts <= 0 {
		maxPollAttempts = DefaultMaxPollAttempts
	}
	return &DubProcessor{
		creds:           creds,
		baseURL:         baseURL,
		httpClient:      httpClient,
		pollInterval:    pollInterval,
		maxPollAttempts: maxPollAttempts,
	}
}

// NewDubProcessorFromEnv creates a processor wired to the global repositories
// and the configured upstream base URL.
func NewDubProcessorFromEnv() *DubProcessor {
	maxAttempts := DefaultMaxPollAttempts
	if v, err := strconv.Atoi(env.GetEnv("DUB_POLL_MAX_ATTEMPTS", "")); err == nil && v > 0 {
		maxAttempts = v
	}
	return NewDubProcessor(
		repository.GetGlobalFactory().GetCredentialRepository(),
		dubverse.BaseURLFromEnv(),
		&http.Client{Timeout: 30 * time.Second},
		DefaultPollInterval,
		maxAttempts,
	)
}

// Process runs the dub sequence for one job. The update callback persists
// intermediate progress so the job can be polled while it runs; it may be nil.
func (p *DubProcessor) Process(ctx context.Context, job *Job, update func(*Job)) error {
	payload, err := DubProjectJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid dub job payload: %w", err)
	}

	record := func(progress DubProgress) {
		job.Progress = &progress
		job.UpdatedAt = time.Now()
		if update != nil {
			update(job)
		}
	}

	cred, err := p.creds.GetByUserID(payload.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("dubverse api key not configured for user %d", payload.UserID)
		}
		return fmt.Errorf("credential lookup failed: %w", err)
	}
	if !cred.HasKey() {
		return fmt.Errorf("dubverse api key not configured for user %d", payload.UserID)
	}

	client := dubverse.NewClient(p.baseURL, cred.APIKey, p.httpClient)

	// Stage 1: create the project. The source URL passes through verbatim.
	record(DubProgress{Stage: DubStageCreatingProject})
	project, err := client.CreateProject(ctx, dubverse.CreateProjectRequest{
		Name:           payload.ProjectName,
		SourceLanguage: dubverse.ResolveSourceLanguage(payload.SourceLanguage),
		TargetLanguage: payload.TargetLanguage,
		VideoURL:       payload.VideoURL,
	})
	if err != nil {
		record(DubProgress{Stage: DubStageFailed, StatusMessage: err.Error()})
		return fmt.Errorf("create project: %w", err)
	}
	if project.ID == "" {
		record(DubProgress{Stage: DubStageFailed, StatusMessage: "provider returned no project id"})
		return errors.New("create project: provider returned no project id")
	}

	// Stage 2: start the dubbing process.
	record(DubProgress{Stage: DubStageStartingDub, ProjectID: project.ID})
	opts := &dubverse.DubOptions{VoiceID: payload.VoiceID, Speed: payload.Speed, Pitch: payload.Pitch}
	if _, err := client.StartDub(ctx, project.ID, opts); err != nil {
		record(DubProgress{Stage: DubStageFailed, ProjectID: project.ID, StatusMessage: err.Error()})
		return fmt.Errorf("start dub: %w", err)
	}

	// Stage 3: poll until terminal. The loop re-arms after each response; a
	// failed status check is recorded but does not stop polling.
	progress := DubProgress{Stage: DubStagePolling, ProjectID: project.ID}
	record(progress)

	for attempt := 1; attempt <= p.maxPollAttempts; attempt++ {
		// First check runs immediately; afterwards the loop re-arms only once
		// the previous response is in.
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.pollInterval):
			}
		}

		state, err := client.GetProject(ctx, project.ID)
		progress.PollCount = attempt
		if err != nil {
			log.Warnf("[DubProcessor] Status check %d for project %s failed: %v", attempt, project.ID, err)
			progress.StatusMessage = "status check failed: " + err.Error()
			record(progress)
			continue
		}

		progress.ProviderStatus = state.Status
		progress.StatusMessage = ""

		if !dubverse.IsTerminalStatus(state.Status) {
			record(progress)
			continue
		}

		if state.Status == dubverse.ProjectStatusCompleted {
			progress.Stage = DubStageCompleted
			progress.OutputURL = state.OutputURL
			record(progress)
			return nil
		}
		progress.Stage = DubStageFailed
		record(progress)
		return ErrDubFailed
	}

	progress.Stage = DubStageTimedOut
	record(progress)
	return ErrDubTimedOut
}
