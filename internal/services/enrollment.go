package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"coursehub-backend/internal/docstore"
	"coursehub-backend/internal/models"
	"coursehub-backend/internal/repository"
)

type EnrollmentService struct {
	enrollments *repository.EnrollmentRepo
	courses     *repository.CourseRepo
	users       *repository.UserRepo
	progress    *repository.ProgressRepo
	analytics   *repository.AnalyticsRepo
	logger      zerolog.Logger
}

func NewEnrollmentService(
	enrollments *repository.EnrollmentRepo,
	courses *repository.CourseRepo,
	users *repository.UserRepo,
	progress *repository.ProgressRepo,
	analytics *repository.AnalyticsRepo,
	logger zerolog.Logger,
) *EnrollmentService {
	return &EnrollmentService{
		enrollments: enrollments,
		courses:     courses,
		users:       users,
		progress:    progress,
		analytics:   analytics,
		logger:      logger,
	}
}

// Enroll enrolls the user in a published course their plan allows.
func (s *EnrollmentService) Enroll(ctx context.Context, userID, courseID string) (*models.Enrollment, error) {
	if !docstore.ValidKey(courseID) {
		return nil, &ValidationError{Fields: map[string]string{"course_id": "Course ID is required"}}
	}

	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, &NotFoundError{Message: "Course not found"}
		}
		return nil, fmt.Errorf("failed to load course: %w", err)
	}
	if !course.IsPublished {
		return nil, &NotFoundError{Message: "Course not found"}
	}

	plan := models.PlanFree
	user, err := s.users.GetByID(ctx, userID)
	switch {
	case err == nil:
		if user.Subscription.Plan != "" {
			plan = user.Subscription.Plan
		}
	case !repository.IsNotFound(err):
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if !CanAccessCourse(plan, course.Level) {
		return nil, &ForbiddenError{Message: "Your subscription plan does not include this course."}
	}

	if err := s.enrollments.Create(ctx, userID, courseID); err != nil {
		if errors.Is(err, repository.ErrAlreadyEnrolled) {
			return nil, &ConflictError{Message: "You are already enrolled in this course"}
		}
		return nil, fmt.Errorf("failed to create enrollment: %w", err)
	}

	// The enrollment is the source of truth; the counters below are
	// best-effort.
	err = s.progress.Apply(ctx, userID, []docstore.Update{
		{Path: "user_id", Value: userID},
		{Path: "courses_in_progress", Value: docstore.Increment(1)},
		{Path: coursePath(courseID, "enrolled_at"), Value: docstore.ServerTimestamp},
	})
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Str("course_id", courseID).Msg("failed to record enrollment progress")
	}
	if err := s.courses.IncrementEnrollmentCount(ctx, courseID); err != nil {
		s.logger.Warn().Err(err).Str("course_id", courseID).Msg("failed to increment enrollment count")
	}
	err = s.analytics.ApplyCourse(ctx, courseID, []docstore.Update{
		{Path: "overview.total_enrollments", Value: docstore.Increment(1)},
		{Path: "overview.active_students", Value: docstore.Increment(1)},
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("course_id", courseID).Msg("failed to update course analytics")
	}

	e, err := s.enrollments.Get(ctx, userID, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to load enrollment: %w", err)
	}
	s.logger.Info().Str("user_id", userID).Str("course_id", courseID).Msg("user enrolled")
	return e, nil
}

func (s *EnrollmentService) ListEnrollments(ctx context.Context, userID string) ([]models.Enrollment, error) {
	list, err := s.enrollments.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}
	return list, nil
}

// IsEnrolled reports false when the enrollment cannot be read.
func (s *EnrollmentService) IsEnrolled(ctx context.Context, userID, courseID string) bool {
	e, err := s.enrollments.Get(ctx, userID, courseID)
	if err != nil {
		if !repository.IsNotFound(err) {
			s.logger.Warn().Err(err).Str("user_id", userID).Str("course_id", courseID).Msg("read failed")
		}
		return false
	}
	return e.Status == models.EnrollmentActive || e.Status == models.EnrollmentCompleted
}
