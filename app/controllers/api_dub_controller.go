package controllers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"

	"github.com/ManuelReschke/DubFox/internal/pkg/jobqueue"
	"github.com/ManuelReschke/DubFox/internal/pkg/usercontext"
	"github.com/ManuelReschke/DubFox/internal/pkg/youtube"
)

// DubController starts dub sequences and exposes their progress.
type DubController struct {
	queue *jobqueue.Queue
}

func NewDubController(queue *jobqueue.Queue) *DubController {
	return &DubController{queue: queue}
}

type startDubRequest struct {
	VideoURL       string  `json:"video_url"`
	SourceLanguage string  `json:"source_language"`
	TargetLanguage string  `json:"target_language"`
	VoiceID        string  `json:"voice_id"`
	Speed          float64 `json:"speed"`
	Pitch          float64 `json:"pitch"`
}

// HandleStartDub enqueues a dub job for the submitted video URL. The URL is
// passed to the provider verbatim; video-id extraction is only used for the
// embeddable preview in the response.
// @Summary      Start a dubbing job
// @Tags         dub
// @Accept       json
// @Produce      json
// @Router       /api/v1/dub [post]
func (dc *DubController) HandleStartDub(c *fiber.Ctx) error {
	var req startDubRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "validation_error",
			"message": "invalid request body",
		})
	}

	if req.VideoURL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "validation_error",
			"message": "Please enter a YouTube URL",
		})
	}
	if req.TargetLanguage == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "validation_error",
			"message": "Please choose a target language",
		})
	}

	uc := usercontext.GetUserContext(c)

	payload := jobqueue.DubProjectJobPayload{
		UserID:         uc.UserID,
		ProjectName:    fmt.Sprintf("YouTube Dubbing - %s", time.Now().UTC().Format(time.RFC3339)),
		VideoURL:       req.VideoURL,
		SourceLanguage: req.SourceLanguage,
		TargetLanguage: req.TargetLanguage,
		VoiceID:        req.VoiceID,
		Speed:          req.Speed,
		Pitch:          req.Pitch,
	}

	job, err := dc.queue.EnqueueJob(jobqueue.JobTypeDubProject, payload.ToMap())
	if err != nil {
		log.Errorf("[Dub] Enqueue for user %d failed: %v", uc.UserID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "queue_error",
			"message": "could not start the dubbing job",
		})
	}

	resp := fiber.Map{
		"job_id": job.ID,
		"status": job.Status,
	}
	if embed := youtube.EmbedURL(req.VideoURL); embed != "" {
		resp["embed_url"] = embed
	}

	return c.Status(fiber.StatusAccepted).JSON(resp)
}

// HandleGetDubJob returns the current state of a dub job. Callers can only
// read their own jobs.
// @Summary      Get dubbing job status
// @Tags         dub
// @Produce      json
// @Param        job_id path string true "job id"
// @Router       /api/v1/dub/{job_id} [get]
func (dc *DubController) HandleGetDubJob(c *fiber.Ctx) error {
	jobID := c.Params("job_id")
	if jobID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "validation_error",
			"message": "job id is required",
		})
	}

	job, err := dc.queue.GetJob(c.UserContext(), jobID)
	if err != nil {
		if err == redis.Nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error":   "not_found",
				"message": "job not found",
			})
		}
		log.Errorf("[Dub] Job lookup %s failed: %v", jobID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "queue_error",
			"message": "could not load the job",
		})
	}

	payload, perr := jobqueue.DubProjectJobPayloadFromMap(job.Payload)
	if perr != nil || payload.UserID != usercontext.GetUserContext(c).UserID {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "not_found",
			"message": "job not found",
		})
	}

	resp := fiber.Map{
		"job_id":     job.ID,
		"status":     job.Status,
		"created_at": job.CreatedAt,
		"updated_at": job.UpdatedAt,
	}
	if job.Progress != nil {
		resp["progress"] = job.Progress
	}
	if job.ErrorMsg != "" {
		resp["error_msg"] = job.ErrorMsg
	}
	if embed := youtube.EmbedURL(payload.VideoURL); embed != "" {
		resp["embed_url"] = embed
	}

	return c.JSON(resp)
}
