package dubverse

import (
	"encoding/json"
	"fmt"
)

// Project status values observed from the provider. The vocabulary is open
// ended; anything other than completed/failed counts as still in progress.
const (
	ProjectStatusCreated    = "created"
	ProjectStatusProcessing = "processing"
	ProjectStatusCompleted  = "completed"
	ProjectStatusFailed     = "failed"
)

// Language is a translation language offered by the provider
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Voice is a synthetic voice available for a language
type Voice struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Language string `json:"language"`
	Gender   string `json:"gender,omitempty"`
}

// Project is a dubbing unit of work tracked by the provider
type Project struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Status         string `json:"status"`
	SourceLanguage string `json:"source_language"`
	TargetLanguage string `json:"target_language"`
	VideoURL       string `json:"video_url,omitempty"`
	AudioURL       string `json:"audio_url,omitempty"`
	OutputURL      string `json:"output_url,omitempty"`
}

// CreateProjectRequest is the payload for POST /projects
type CreateProjectRequest struct {
	Name           string `json:"name"`
	SourceLanguage string `json:"source_language"`
	TargetLanguage string `json:"target_language"`
	VideoURL       string `json:"video_url,omitempty"`
	AudioURL       string `json:"audio_url,omitempty"`
}

// DubOptions are the optional parameters for POST /projects/{id}/dub
type DubOptions struct {
	VoiceID string  `json:"voice_id,omitempty"`
	Speed   float64 `json:"speed,omitempty"`
	Pitch   float64 `json:"pitch,omitempty"`
}

// APIError carries a non-2xx provider response unchanged: the upstream status
// code and the raw response body. Callers pass both through verbatim.
type APIError struct {
	StatusCode int
	Body       json.RawMessage
}

func (e *APIError) Error() string {
	return fmt.Sprintf("dubverse api error: status=%d body=%s", e.StatusCode, string(e.Body))
}

// IsTerminalStatus reports whether a project status ends the polling loop.
func IsTerminalStatus(status string) bool {
	return status == ProjectStatusCompleted || status == ProjectStatusFailed
}
