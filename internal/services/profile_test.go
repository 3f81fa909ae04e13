package services

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursehub-backend/internal/docstore"
	"coursehub-backend/internal/models"
	"coursehub-backend/internal/repository"
)

func newProfileService(store docstore.Store, logs *bytes.Buffer) *ProfileService {
	return NewProfileService(
		repository.NewUserRepo(store),
		repository.NewProgressRepo(store),
		repository.NewAnalyticsRepo(store),
		"Europe/Berlin",
		zerolog.New(logs),
	)
}

func TestEnsureProfile_CreatesDefaults(t *testing.T) {
	store := docstore.NewMemoryStore()
	svc := newProfileService(store, &bytes.Buffer{})
	ctx := context.Background()

	p, err := svc.EnsureProfile(ctx, models.Identity{UserID: "u1", DisplayName: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)

	assert.Equal(t, models.RoleStudent, p.Role)
	assert.Equal(t, "dark", p.Preferences.Theme)
	assert.True(t, p.Preferences.Notifications)
	assert.True(t, p.Preferences.LearningReminders)
	assert.False(t, p.Preferences.EmailUpdates)
	assert.Equal(t, "Europe/Berlin", p.Preferences.Timezone)
	assert.Equal(t, models.LevelBeginner, p.Profile.Experience)
	assert.Equal(t, "evening", p.LearningAnalytics.PreferredLearningTime)
	assert.Equal(t, models.PlanFree, p.Subscription.Plan)
	assert.Equal(t, []string{"basic_courses", "community_access"}, p.Subscription.Features)
	assert.NotNil(t, p.CreatedAt)

	a := svc.GetAnalytics(ctx, "u1")
	require.NotNil(t, a)
	assert.Equal(t, 0, a.SessionData.TotalSessions)

	progress := svc.GetProgress(ctx, "u1")
	require.NotNil(t, progress)
	assert.Equal(t, 0, progress.CoursesInProgress)
}

func TestEnsureProfile_ExistingUserBumpsLastLogin(t *testing.T) {
	store := docstore.NewMemoryStore()
	first := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time { return first })
	svc := newProfileService(store, &bytes.Buffer{})
	ctx := context.Background()

	_, err := svc.EnsureProfile(ctx, models.Identity{UserID: "u1", DisplayName: "Ada"})
	require.NoError(t, err)
	require.NoError(t, svc.UpdatePreferences(ctx, "u1", models.UpdatePreferencesRequest{Theme: ptr("light")}))

	later := first.Add(48 * time.Hour)
	store.SetClock(func() time.Time { return later })
	_, err = svc.EnsureProfile(ctx, models.Identity{UserID: "u1", DisplayName: "Someone Else"})
	require.NoError(t, err)

	p := svc.GetProfile(ctx, "u1")
	require.NotNil(t, p)
	assert.Equal(t, "Ada", p.DisplayName)
	assert.Equal(t, "light", p.Preferences.Theme)
	assert.True(t, p.LastLoginAt.Equal(later))
	assert.True(t, p.CreatedAt.Equal(first))
}

func TestEnsureProfile_RejectsUnusableID(t *testing.T) {
	svc := newProfileService(docstore.NewMemoryStore(), &bytes.Buffer{})
	_, err := svc.EnsureProfile(context.Background(), models.Identity{UserID: "a.b"})

	var authErr *UnauthorizedError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, AuthInvalidIDToken, authErr.Code)
}

func TestProfileReads_ReturnNilOnFailure(t *testing.T) {
	store := docstore.NewMemoryStore()
	logs := &bytes.Buffer{}
	svc := newProfileService(store, logs)
	ctx := context.Background()

	assert.Nil(t, svc.GetProfile(ctx, "missing"))
	assert.Empty(t, logs.String())

	store.FailWith(errors.New("store unavailable"))
	assert.Nil(t, svc.GetProfile(ctx, "u1"))
	assert.Nil(t, svc.GetAnalytics(ctx, "u1"))
	assert.Nil(t, svc.GetProgress(ctx, "u1"))
	assert.Contains(t, logs.String(), `"level":"warn"`)
	assert.Contains(t, logs.String(), "store unavailable")
}

func TestUpdateProfile(t *testing.T) {
	store := docstore.NewMemoryStore()
	svc := newProfileService(store, &bytes.Buffer{})
	ctx := context.Background()
	_, err := svc.EnsureProfile(ctx, models.Identity{UserID: "u1", DisplayName: "Ada"})
	require.NoError(t, err)

	err = svc.UpdateProfile(ctx, "u1", models.UpdateProfileRequest{
		Bio:        ptr("Curious"),
		Skills:     &[]string{"go"},
		Experience: ptr(models.LevelAdvanced),
		JobTitle:   ptr("Engineer"),
	})
	require.NoError(t, err)

	p := svc.GetProfile(ctx, "u1")
	require.NotNil(t, p)
	assert.Equal(t, "Curious", p.Profile.Bio)
	assert.Equal(t, []string{"go"}, p.Profile.Skills)
	assert.Equal(t, models.LevelAdvanced, p.Profile.Experience)
	assert.Equal(t, "Engineer", p.Profile.JobTitle)
	assert.Equal(t, "Ada", p.DisplayName)
}

func TestUpdateProfile_Validation(t *testing.T) {
	svc := newProfileService(docstore.NewMemoryStore(), &bytes.Buffer{})
	ctx := context.Background()

	err := svc.UpdateProfile(ctx, "u1", models.UpdateProfileRequest{
		DisplayName: ptr("  "),
		Experience:  ptr("guru"),
	})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Fields, "display_name")
	assert.Contains(t, vErr.Fields, "experience")

	err = svc.UpdateProfile(ctx, "u1", models.UpdateProfileRequest{})
	require.ErrorAs(t, err, &vErr)

	err = svc.UpdateProfile(ctx, "missing", models.UpdateProfileRequest{Bio: ptr("x")})
	var nfErr *NotFoundError
	require.ErrorAs(t, err, &nfErr)
}

func TestUpdatePreferences_Validation(t *testing.T) {
	svc := newProfileService(docstore.NewMemoryStore(), &bytes.Buffer{})
	err := svc.UpdatePreferences(context.Background(), "u1", models.UpdatePreferencesRequest{
		Theme:    ptr("neon"),
		Timezone: ptr("Mars/Olympus"),
	})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Fields, "theme")
	assert.Contains(t, vErr.Fields, "timezone")
}

type stubEnder struct{ users []string }

func (s *stubEnder) EndUser(_ context.Context, userID string) int {
	s.users = append(s.users, userID)
	return 2
}

func TestAuthService_SignInAndOut(t *testing.T) {
	store := docstore.NewMemoryStore()
	ender := &stubEnder{}
	auth := NewAuthService(newProfileService(store, &bytes.Buffer{}), ender, zerolog.Nop())
	ctx := context.Background()

	me, err := auth.SignIn(ctx, models.Identity{UserID: "u1", Email: "ada@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "u1", me.Profile.UserID)
	assert.Equal(t, SubscriptionFeatures(models.PlanFree), me.Features)

	require.NotNil(t, auth.Me(ctx, "u1"))
	assert.Nil(t, auth.Me(ctx, "u2"))

	assert.Equal(t, 2, auth.SignOut(ctx, "u1"))
	assert.Equal(t, []string{"u1"}, ender.users)
}

func ptr[T any](v T) *T { return &v }
