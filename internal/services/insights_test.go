package services

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursehub-backend/internal/docstore"
	"coursehub-backend/internal/models"
	"coursehub-backend/internal/repository"
)

func newInsightFixture(t *testing.T) (*InsightService, *docstore.MemoryStore) {
	t.Helper()
	svc, store := seededCatalog(t)
	ctx := context.Background()

	profiles := newProfileService(store, &bytes.Buffer{})
	for id, role := range map[string]string{
		"instructor-1": models.RoleInstructor,
		"other":        models.RoleInstructor,
		"root":         models.RoleAdmin,
		"learner":      models.RoleStudent,
	} {
		_, err := profiles.EnsureProfile(ctx, models.Identity{UserID: id})
		require.NoError(t, err)
		require.NoError(t, store.Update(ctx, docstore.Doc("users", id), []docstore.Update{{Path: "role", Value: role}}))
	}
	require.NoError(t, store.Update(ctx, docstore.Doc("courses", "intro-ml"), []docstore.Update{
		{Path: "instructor_id", Value: "instructor-1"},
	}))

	insights := NewInsightService(
		svc,
		repository.NewCourseRepo(store),
		repository.NewUserRepo(store),
		repository.NewAnalyticsRepo(store),
		zerolog.Nop(),
	)
	return insights, store
}

func TestCourseAnalytics_Access(t *testing.T) {
	insights, _ := newInsightFixture(t)
	ctx := context.Background()

	a, err := insights.CourseAnalytics(ctx, "instructor-1", "intro-ml")
	require.NoError(t, err)
	assert.Equal(t, "intro-ml", a.CourseID)
	assert.Zero(t, a.Overview.TotalEnrollments)

	_, err = insights.CourseAnalytics(ctx, "root", "hidden")
	require.NoError(t, err)

	var forbidden *ForbiddenError
	for _, user := range []string{"other", "learner", "nobody"} {
		_, err = insights.CourseAnalytics(ctx, user, "intro-ml")
		require.ErrorAs(t, err, &forbidden, user)
	}

	var nf *NotFoundError
	_, err = insights.CourseAnalytics(ctx, "root", "missing")
	require.ErrorAs(t, err, &nf)
}

func TestCourseAnalytics_DerivesCompletionRate(t *testing.T) {
	insights, store := newInsightFixture(t)
	ctx := context.Background()
	repo := repository.NewAnalyticsRepo(store)

	require.NoError(t, repo.ApplyCourse(ctx, "intro-ml", []docstore.Update{
		{Path: "overview.total_enrollments", Value: 4},
		{Path: "overview.active_students", Value: -1},
		{Path: "overview.completions", Value: 3},
	}))

	a, err := insights.CourseAnalytics(ctx, "instructor-1", "intro-ml")
	require.NoError(t, err)
	assert.Equal(t, 75.0, a.Overview.CompletionRate)
	assert.Equal(t, 0, a.Overview.ActiveStudents)
	assert.NotNil(t, a.UpdatedAt)
}

func TestRecommendations(t *testing.T) {
	insights, store := newInsightFixture(t)
	ctx := context.Background()

	ids := func(courses []models.Course) []string {
		out := make([]string, len(courses))
		for i, c := range courses {
			out[i] = c.ID
		}
		return out
	}

	// Nothing recommended yet: newest published courses.
	got, err := insights.Recommendations(ctx, "learner", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"advanced-react", "intro-ml"}, ids(got))

	analytics := repository.NewAnalyticsRepo(store)
	require.NoError(t, analytics.Apply(ctx, "learner", []docstore.Update{
		{Path: "ai_recommendations.recommended_courses", Value: []string{"intro-ml", "hidden", "gone", "advanced-react"}},
	}))

	got, err = insights.Recommendations(ctx, "learner", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"intro-ml", "advanced-react"}, ids(got))

	got, err = insights.Recommendations(ctx, "learner", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"intro-ml"}, ids(got))

	// Only unavailable courses recommended: fall back again.
	require.NoError(t, analytics.Apply(ctx, "learner", []docstore.Update{
		{Path: "ai_recommendations.recommended_courses", Value: []string{"hidden", "gone"}},
	}))
	got, err = insights.Recommendations(ctx, "learner", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"advanced-react"}, ids(got))
}

func TestRecommendations_StoreFailure(t *testing.T) {
	insights, store := newInsightFixture(t)
	store.FailWith(assert.AnError)

	_, err := insights.Recommendations(context.Background(), "learner", 5)
	require.ErrorIs(t, err, assert.AnError)
}

func TestGetLessonProgress(t *testing.T) {
	store := docstore.NewMemoryStore()
	profiles := newProfileService(store, &bytes.Buffer{})
	ctx := context.Background()

	progress := repository.NewProgressRepo(store)
	require.NoError(t, progress.ApplyLesson(ctx, "u1", "c1", "m1", "l1", []docstore.Update{{Path: "progress", Value: 50}}))

	lessons, err := profiles.GetLessonProgress(ctx, "u1", "c1")
	require.NoError(t, err)
	require.Len(t, lessons, 1)
	assert.Equal(t, 50.0, lessons[0].Progress)

	lessons, err = profiles.GetLessonProgress(ctx, "u1", "c2")
	require.NoError(t, err)
	assert.Empty(t, lessons)

	var vErr *ValidationError
	_, err = profiles.GetLessonProgress(ctx, "u1", "a.b")
	require.ErrorAs(t, err, &vErr)
}
