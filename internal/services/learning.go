package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"coursehub-backend/internal/models"
	"coursehub-backend/internal/tracking"
)

// RecorderSource resolves the interaction recorder of a connected client.
type RecorderSource interface {
	Recorder(clientID, userID string) tracking.Recorder
}

// LearningService turns queued learning jobs into Aggregator calls.
type LearningService struct {
	agg       *Aggregator
	recorders RecorderSource
	logger    zerolog.Logger
}

func NewLearningService(agg *Aggregator, recorders RecorderSource, logger zerolog.Logger) *LearningService {
	return &LearningService{agg: agg, recorders: recorders, logger: logger}
}

// LearningRequest is a learning event body that can validate itself.
type LearningRequest interface {
	Validate() map[string]string
}

// NewLearningJob validates req and wraps it as a job of kind for userID.
func NewLearningJob(kind models.LearningEventKind, userID, clientID string, req LearningRequest) (models.LearningJob, error) {
	if fields := req.Validate(); len(fields) > 0 {
		return models.LearningJob{}, &ValidationError{Fields: fields}
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return models.LearningJob{}, fmt.Errorf("failed to encode %s payload: %w", kind, err)
	}
	return models.LearningJob{
		ID:       uuid.NewString(),
		Kind:     kind,
		UserID:   userID,
		ClientID: clientID,
		Payload:  payload,
	}, nil
}

// Handle applies one job. It returns an error only for jobs that cannot be
// decoded; persistence failures are absorbed by the Aggregator.
func (s *LearningService) Handle(ctx context.Context, job models.LearningJob) error {
	if job.UserID == "" {
		return fmt.Errorf("job %s has no user", job.ID)
	}
	rec := tracking.Discard
	if s.recorders != nil {
		rec = s.recorders.Recorder(job.ClientID, job.UserID)
	}

	switch job.Kind {
	case models.EventModuleProgress:
		var req models.ModuleProgressRequest
		if err := decodePayload(job, &req); err != nil {
			return err
		}
		s.agg.ApplyModuleProgress(ctx, rec, job.UserID, req.CourseID, req.ModuleID, req.ProgressPercentage, req.TimeSpentSeconds)
	case models.EventQuizAttempt:
		var req models.QuizAttemptRequest
		if err := decodePayload(job, &req); err != nil {
			return err
		}
		s.agg.ApplyQuizAttempt(ctx, rec, job.UserID, req.CourseID, req.ModuleID, req.QuizID, req.Score, req.TotalQuestions)
	case models.EventLessonProgress:
		var req models.LessonProgressRequest
		if err := decodePayload(job, &req); err != nil {
			return err
		}
		s.agg.ApplyLessonProgress(ctx, rec, job.UserID, req.CourseID, req.ModuleID, req.LessonID, req.Progress, req.Completed)
	case models.EventCourseCompletion:
		var req models.CourseCompletionRequest
		if err := decodePayload(job, &req); err != nil {
			return err
		}
		s.agg.ApplyCourseCompletion(ctx, rec, job.UserID, req.CourseID)
	case models.EventBookmark:
		var req models.BookmarkRequest
		if err := decodePayload(job, &req); err != nil {
			return err
		}
		s.agg.ApplyBookmark(ctx, rec, job.UserID, req.CourseID, req.ModuleID)
	case models.EventNote:
		var req models.NoteRequest
		if err := decodePayload(job, &req); err != nil {
			return err
		}
		s.agg.ApplyNote(ctx, rec, job.UserID, req.CourseID, req.ModuleID, req.Content)
	default:
		return fmt.Errorf("job %s has unknown kind %q", job.ID, job.Kind)
	}

	s.logger.Debug().Str("job_id", job.ID).Str("kind", string(job.Kind)).Str("user_id", job.UserID).Msg("learning job applied")
	return nil
}

func decodePayload(job models.LearningJob, req LearningRequest) error {
	dec := json.NewDecoder(bytes.NewReader(job.Payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(req); err != nil {
		return fmt.Errorf("job %s: invalid %s payload: %w", job.ID, job.Kind, err)
	}
	if fields := req.Validate(); len(fields) > 0 {
		return fmt.Errorf("job %s: invalid %s payload: %v", job.ID, job.Kind, fields)
	}
	return nil
}
