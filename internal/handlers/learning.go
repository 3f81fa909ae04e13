package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"coursehub-backend/internal/metrics"
	"coursehub-backend/internal/middleware"
	"coursehub-backend/internal/models"
	"coursehub-backend/internal/services"
)

// Enqueuer hands learning jobs to the background workers.
type Enqueuer interface {
	Enqueue(ctx context.Context, job models.LearningJob) error
}

type LearningHandler struct {
	queue  Enqueuer
	logger zerolog.Logger
}

func NewLearningHandler(queue Enqueuer, logger zerolog.Logger) *LearningHandler {
	return &LearningHandler{queue: queue, logger: logger}
}

func (h *LearningHandler) ModuleProgress(w http.ResponseWriter, r *http.Request) {
	var req models.ModuleProgressRequest
	h.accept(w, r, models.EventModuleProgress, &req, func() string { return req.ClientID })
}

func (h *LearningHandler) QuizAttempt(w http.ResponseWriter, r *http.Request) {
	var req models.QuizAttemptRequest
	h.accept(w, r, models.EventQuizAttempt, &req, func() string { return req.ClientID })
}

func (h *LearningHandler) LessonProgress(w http.ResponseWriter, r *http.Request) {
	var req models.LessonProgressRequest
	h.accept(w, r, models.EventLessonProgress, &req, func() string { return req.ClientID })
}

func (h *LearningHandler) CourseCompletion(w http.ResponseWriter, r *http.Request) {
	var req models.CourseCompletionRequest
	h.accept(w, r, models.EventCourseCompletion, &req, func() string { return req.ClientID })
}

func (h *LearningHandler) Bookmark(w http.ResponseWriter, r *http.Request) {
	var req models.BookmarkRequest
	h.accept(w, r, models.EventBookmark, &req, func() string { return req.ClientID })
}

func (h *LearningHandler) Note(w http.ResponseWriter, r *http.Request) {
	var req models.NoteRequest
	h.accept(w, r, models.EventNote, &req, func() string { return req.ClientID })
}

// accept validates the request and queues it. The caller gets 202 as soon
// as the job is handed off; a queue failure is logged and reported as
// "dropped" rather than failing the request.
func (h *LearningHandler) accept(w http.ResponseWriter, r *http.Request, kind models.LearningEventKind, req services.LearningRequest, clientID func() string) {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		metrics.IncLearningEvent(string(kind), "rejected")
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	userID := middleware.GetUserID(r.Context())
	job, err := services.NewLearningJob(kind, userID, clientID(), req)
	if err != nil {
		metrics.IncLearningEvent(string(kind), "rejected")
		handleServiceError(w, r, err)
		return
	}

	status := "queued"
	if err := h.queue.Enqueue(r.Context(), job); err != nil {
		status = "dropped"
		h.logger.Error().Err(err).
			Str("job_id", job.ID).
			Str("kind", string(kind)).
			Str("user_id", userID).
			Msg("failed to enqueue learning event")
		metrics.IncTelemetryFailure("enqueue")
	}
	metrics.IncLearningEvent(string(kind), status)

	writeJSON(w, http.StatusAccepted, models.AcceptedResponse{JobID: job.ID, Status: status})
}
