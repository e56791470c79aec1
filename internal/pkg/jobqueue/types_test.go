package jobqueue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDubProjectJobPayloadRoundTrip(t *testing.T) {
	t.Parallel()

	payload := DubProjectJobPayload{
		UserID:         42,
		ProjectName:    "YouTube Dubbing - 2025-06-01T12:00:00Z",
		VideoURL:       "https://www.youtube.com/watch?v=abc12345678",
		SourceLanguage: "auto",
		TargetLanguage: "es",
		Speed:          1.25,
	}

	got, err := DubProjectJobPayloadFromMap(payload.ToMap())
	require.NoError(t, err)
	assert.Equal(t, payload, *got)
}

func TestJobTerminalStates(t *testing.T) {
	t.Parallel()

	job := &Job{Status: JobStatusPending}
	assert.False(t, job.IsTerminal())

	job.MarkAsProcessing()
	assert.False(t, job.IsTerminal())
	assert.NotNil(t, job.ProcessedAt)

	job.MarkAsCompleted()
	assert.True(t, job.IsTerminal())
	assert.NotNil(t, job.CompletedAt)

	timedOut := &Job{Status: JobStatusProcessing}
	timedOut.MarkAsTimedOut("poll budget exhausted")
	assert.True(t, timedOut.IsTerminal())
	assert.Equal(t, JobStatusTimedOut, timedOut.Status)
	assert.False(t, timedOut.IsRetryable())

	failed := &Job{Status: JobStatusProcessing, MaxRetries: 0}
	failed.MarkAsFailed("boom")
	assert.True(t, failed.IsTerminal())
	assert.False(t, failed.IsRetryable())
}
