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

const defaultRecommendationLimit = 10

// InsightService serves the derived views: per-course analytics for the
// people teaching a course and course recommendations for learners.
type InsightService struct {
	catalog   *CatalogService
	courses   *repository.CourseRepo
	users     *repository.UserRepo
	analytics *repository.AnalyticsRepo
	logger    zerolog.Logger
}

func NewInsightService(
	catalog *CatalogService,
	courses *repository.CourseRepo,
	users *repository.UserRepo,
	analytics *repository.AnalyticsRepo,
	logger zerolog.Logger,
) *InsightService {
	return &InsightService{
		catalog:   catalog,
		courses:   courses,
		users:     users,
		analytics: analytics,
		logger:    logger,
	}
}

// CourseAnalytics returns the aggregate record of a course. Admins can read
// any course; instructors only the courses they teach. A course nobody has
// enrolled in yet yields a zeroed record.
func (s *InsightService) CourseAnalytics(ctx context.Context, userID, courseID string) (*models.CourseAnalytics, error) {
	if !docstore.ValidKey(courseID) {
		return nil, &NotFoundError{Message: "Course not found"}
	}
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, &NotFoundError{Message: "Course not found"}
		}
		return nil, fmt.Errorf("failed to load course: %w", err)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil && !repository.IsNotFound(err) {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	teaches := HasRole(user, models.RoleInstructor) && course.InstructorID == userID
	if !teaches && !HasAnyRole(user, models.RoleAdmin, models.RoleEnterpriseAdmin) {
		return nil, &ForbiddenError{Message: "Only the course instructor can view its analytics."}
	}

	a, err := s.analytics.GetCourse(ctx, courseID)
	switch {
	case repository.IsNotFound(err):
		a = &models.CourseAnalytics{CourseID: courseID}
	case err != nil:
		return nil, fmt.Errorf("failed to load course analytics: %w", err)
	}

	o := &a.Overview
	if o.ActiveStudents < 0 {
		o.ActiveStudents = 0
	}
	if o.TotalEnrollments > 0 {
		o.CompletionRate = clamp(float64(o.Completions)*100/float64(o.TotalEnrollments), 0, 100)
	}
	return a, nil
}

// Recommendations returns the courses recommended for the user, in the
// recommended order. Without recommendations, or when none of them is
// still published, it falls back to the newest published courses.
func (s *InsightService) Recommendations(ctx context.Context, userID string, limit int) ([]models.Course, error) {
	switch {
	case limit <= 0:
		limit = defaultRecommendationLimit
	case limit > maxCourseLimit:
		limit = maxCourseLimit
	}

	var ids []string
	a, err := s.analytics.Get(ctx, userID)
	switch {
	case err == nil:
		if a.AIRecommendations != nil {
			ids = a.AIRecommendations.RecommendedCourses
		}
	case !repository.IsNotFound(err):
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("read failed; using published courses")
	}

	courses := make([]models.Course, 0, min(len(ids), limit))
	for _, id := range ids {
		if len(courses) == limit {
			break
		}
		c, err := s.catalog.GetCourse(ctx, id)
		if err != nil {
			var nf *NotFoundError
			if errors.As(err, &nf) {
				continue
			}
			return nil, err
		}
		courses = append(courses, *c)
	}
	if len(courses) > 0 {
		return courses, nil
	}
	return s.catalog.ListCourses(ctx, models.CourseFilter{Limit: limit})
}
