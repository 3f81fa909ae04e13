package services

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursehub-backend/internal/docstore"
	"coursehub-backend/internal/models"
	"coursehub-backend/internal/repository"
)

func newEnrollmentFixture(t *testing.T) (*EnrollmentService, *docstore.MemoryStore) {
	t.Helper()
	store := docstore.NewMemoryStore()
	courses := repository.NewCourseRepo(store)
	ctx := context.Background()

	for _, c := range []models.Course{
		{ID: "intro", Level: models.LevelBeginner, IsPublished: true},
		{ID: "deep", Level: models.LevelAdvanced, IsPublished: true},
		{ID: "draft", Level: models.LevelBeginner, IsPublished: false},
	} {
		require.NoError(t, courses.Save(ctx, c))
	}

	profiles := newProfileService(store, &bytes.Buffer{})
	_, err := profiles.EnsureProfile(ctx, models.Identity{UserID: "u1"})
	require.NoError(t, err)

	svc := NewEnrollmentService(
		repository.NewEnrollmentRepo(store),
		courses,
		repository.NewUserRepo(store),
		repository.NewProgressRepo(store),
		repository.NewAnalyticsRepo(store),
		zerolog.Nop(),
	)
	return svc, store
}

func TestEnroll(t *testing.T) {
	svc, store := newEnrollmentFixture(t)
	ctx := context.Background()

	e, err := svc.Enroll(ctx, "u1", "intro")
	require.NoError(t, err)
	assert.Equal(t, "u1_intro", e.ID)
	assert.Equal(t, models.EnrollmentActive, e.Status)
	assert.Zero(t, e.Progress)
	assert.True(t, svc.IsEnrolled(ctx, "u1", "intro"))

	p, err := repository.NewProgressRepo(store).Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, p.CoursesInProgress)
	assert.NotNil(t, p.Courses["intro"].EnrolledAt)

	c, err := repository.NewCourseRepo(store).GetByID(ctx, "intro")
	require.NoError(t, err)
	assert.Equal(t, 1, c.EnrollmentCount)

	ca, err := repository.NewAnalyticsRepo(store).GetCourse(ctx, "intro")
	require.NoError(t, err)
	assert.Equal(t, 1, ca.Overview.TotalEnrollments)
	assert.Equal(t, 1, ca.Overview.ActiveStudents)

	list, err := svc.ListEnrollments(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestEnroll_Rejections(t *testing.T) {
	svc, _ := newEnrollmentFixture(t)
	ctx := context.Background()

	_, err := svc.Enroll(ctx, "u1", "intro")
	require.NoError(t, err)

	var conflict *ConflictError
	_, err = svc.Enroll(ctx, "u1", "intro")
	require.ErrorAs(t, err, &conflict)

	var forbidden *ForbiddenError
	_, err = svc.Enroll(ctx, "u1", "deep")
	require.ErrorAs(t, err, &forbidden)

	var nf *NotFoundError
	_, err = svc.Enroll(ctx, "u1", "draft")
	require.ErrorAs(t, err, &nf)
	_, err = svc.Enroll(ctx, "u1", "missing")
	require.ErrorAs(t, err, &nf)

	var vErr *ValidationError
	_, err = svc.Enroll(ctx, "u1", "")
	require.ErrorAs(t, err, &vErr)
}

func TestEnroll_PremiumPlanAllowsIntermediate(t *testing.T) {
	svc, store := newEnrollmentFixture(t)
	ctx := context.Background()
	require.NoError(t, repository.NewCourseRepo(store).Save(ctx, models.Course{ID: "mid", Level: models.LevelIntermediate, IsPublished: true}))
	require.NoError(t, repository.NewUserRepo(store).Update(ctx, "u1", []docstore.Update{
		{Path: "subscription.plan", Value: models.PlanPremium},
	}))

	_, err := svc.Enroll(ctx, "u1", "mid")
	require.NoError(t, err)
}

func TestIsEnrolled_ReadFailureIsFalse(t *testing.T) {
	svc, store := newEnrollmentFixture(t)
	ctx := context.Background()
	_, err := svc.Enroll(ctx, "u1", "intro")
	require.NoError(t, err)

	store.FailWith(errors.New("store unavailable"))
	assert.False(t, svc.IsEnrolled(ctx, "u1", "intro"))
}
