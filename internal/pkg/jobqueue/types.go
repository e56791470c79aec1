package jobqueue

import (
	"encoding/json"
	"time"
)

// JobType defines the type of job
type JobType string

const (
	JobTypeDubProject JobType = "dub_project"
)

// JobStatus defines the status of a job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusTimedOut   JobStatus = "timed_out"
	JobStatusRetrying   JobStatus = "retrying"
)

// Dub stages recorded on the job progress while the processor walks the
// create -> dub -> poll sequence.
const (
	DubStageCreatingProject = "creating_project"
	DubStageStartingDub     = "starting_dub"
	DubStagePolling         = "polling"
	DubStageCompleted       = "completed"
	DubStageFailed          = "failed"
	DubStageTimedOut        = "timed_out"
)

// Job represents a background job
type Job struct {
	ID          string                 `json:"id"`
	Type        JobType                `json:"type"`
	Status      JobStatus              `json:"status"`
	Payload     map[string]interface{} `json:"payload"`
	Progress    *DubProgress           `json:"progress,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
	ProcessedAt *time.Time             `json:"processed_at,omitempty"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
	ErrorMsg    string                 `json:"error_msg,omitempty"`
	RetryCount  int                    `json:"retry_count"`
	MaxRetries  int                    `json:"max_retries"`
}

// DubProgress tracks the orchestration state of a dub job so the UI can poll
// it. ProviderProjectID is assigned by the provider and held only here.
type DubProgress struct {
	Stage          string `json:"stage"`
	ProjectID      string `json:"project_id,omitempty"`
	ProviderStatus string `json:"provider_status,omitempty"`
	PollCount      int    `json:"poll_count"`
	OutputURL      string `json:"output_url,omitempty"`
	StatusMessage  string `json:"status_message,omitempty"`
}

// DubProjectJobPayload contains the payload for dub project jobs
type DubProjectJobPayload struct {
	UserID         uint    `json:"user_id"`
	ProjectName    string  `json:"project_name"`
	VideoURL       string  `json:"video_url"`
	SourceLanguage string  `json:"source_language"`
	TargetLanguage string  `json:"target_language"`
	VoiceID        string  `json:"voice_id,omitempty"`
	Speed          float64 `json:"speed,omitempty"`
	Pitch          float64 `json:"pitch,omitempty"`
}

// ToMap converts the payload to a map for storage
func (p DubProjectJobPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"user_id":         p.UserID,
		"project_name":    p.ProjectName,
		"video_url":       p.VideoURL,
		"source_language": p.SourceLanguage,
		"target_language": p.TargetLanguage,
		"voice_id":        p.VoiceID,
		"speed":           p.Speed,
		"pitch":           p.Pitch,
	}
}

// DubProjectJobPayloadFromMap creates a payload from a map
func DubProjectJobPayloadFromMap(data map[string]interface{}) (*DubProjectJobPayload, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	var payload DubProjectJobPayload
	err = json.Unmarshal(jsonData, &payload)
	return &payload, err
}

// IsRetryable checks if the job can be retried
func (j *Job) IsRetryable() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

// IsTerminal reports whether the job reached a final state
func (j *Job) IsTerminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed || j.Status == JobStatusTimedOut
}

// MarkAsProcessing updates the job status to processing
func (j *Job) MarkAsProcessing() {
	now := time.Now()
	j.Status = JobStatusProcessing
	j.UpdatedAt = now
	j.ProcessedAt = &now
}

// MarkAsCompleted updates the job status to completed
func (j *Job) MarkAsCompleted() {
	now := time.Now()
	j.Status = JobStatusCompleted
	j.UpdatedAt = now
	j.CompletedAt = &now
	j.ErrorMsg = ""
}

// MarkAsFailed updates the job status to failed
func (j *Job) MarkAsFailed(errorMsg string) {
	j.Status = JobStatusFailed
	j.UpdatedAt = time.Now()
	j.ErrorMsg = errorMsg
	j.RetryCount++
}

// MarkAsTimedOut updates the job status to timed out. Unlike failed jobs a
// timed out job is never retried; the provider may still be working on it.
func (j *Job) MarkAsTimedOut(errorMsg string) {
	now := time.Now()
	j.Status = JobStatusTimedOut
	j.UpdatedAt = now
	j.CompletedAt = &now
	j.ErrorMsg = errorMsg
}

// MarkAsRetrying updates the job status to retrying
func (j *Job) MarkAsRetrying() {
	j.Status = JobStatusRetrying
	j.UpdatedAt = time.Now()
}
