package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"coursehub-backend/internal/docstore"
	"coursehub-backend/internal/models"
	"coursehub-backend/internal/repository"
)

var validExperience = map[string]bool{
	models.LevelBeginner:     true,
	models.LevelIntermediate: true,
	models.LevelAdvanced:     true,
	models.LevelExpert:       true,
}

var validThemes = map[string]bool{"light": true, "dark": true, "system": true}

type ProfileService struct {
	users           *repository.UserRepo
	progress        *repository.ProgressRepo
	analytics       *repository.AnalyticsRepo
	defaultTimezone string
	logger          zerolog.Logger
}

func NewProfileService(
	users *repository.UserRepo,
	progress *repository.ProgressRepo,
	analytics *repository.AnalyticsRepo,
	defaultTimezone string,
	logger zerolog.Logger,
) *ProfileService {
	if defaultTimezone == "" {
		defaultTimezone = "UTC"
	}
	return &ProfileService{
		users:           users,
		progress:        progress,
		analytics:       analytics,
		defaultTimezone: defaultTimezone,
		logger:          logger,
	}
}

func (s *ProfileService) defaultProfile(id models.Identity) *models.UserProfile {
	provider := id.Provider
	if provider == "" {
		provider = "google"
	}
	return &models.UserProfile{
		UserID:       id.UserID,
		Email:        id.Email,
		DisplayName:  id.DisplayName,
		PhotoURL:     id.PhotoURL,
		AuthProvider: provider,
		Role:         models.RoleStudent,
		Preferences: models.Preferences{
			Theme:             "dark",
			Notifications:     true,
			Language:          "en",
			Timezone:          s.defaultTimezone,
			LearningReminders: true,
			EmailUpdates:      false,
		},
		Profile: models.Profile{
			Skills:     []string{},
			Interests:  []string{},
			Experience: models.LevelBeginner,
			Goals:      []string{},
		},
		LearningAnalytics: models.LearningAnalytics{
			SkillsAcquired:        []string{},
			PreferredLearningTime: "evening",
		},
		Subscription: models.Subscription{
			Plan:     models.PlanFree,
			Status:   "active",
			Features: SubscriptionFeatures(models.PlanFree),
		},
	}
}

// EnsureProfile creates the user's profile, analytics and progress records
// on first sign-in, and bumps last_login_at on later ones.
func (s *ProfileService) EnsureProfile(ctx context.Context, id models.Identity) (*models.UserProfile, error) {
	if !docstore.ValidKey(id.UserID) || strings.Contains(id.UserID, "/") {
		return nil, NewAuthError(AuthInvalidIDToken)
	}

	existing, err := s.users.GetByID(ctx, id.UserID)
	switch {
	case err == nil:
		if err := s.users.UpdateLastLogin(ctx, id.UserID); err != nil {
			return nil, fmt.Errorf("failed to update last login: %w", err)
		}
		return existing, nil
	case !repository.IsNotFound(err):
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	profile := s.defaultProfile(id)
	if err := s.users.Create(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}
	if err := s.analytics.Init(ctx, id.UserID); err != nil {
		return nil, fmt.Errorf("failed to initialise analytics: %w", err)
	}
	if err := s.progress.Init(ctx, id.UserID); err != nil {
		return nil, fmt.Errorf("failed to initialise progress: %w", err)
	}
	s.logger.Info().Str("user_id", id.UserID).Msg("profile created")

	if created, err := s.users.GetByID(ctx, id.UserID); err == nil {
		return created, nil
	}
	return profile, nil
}

// GetProfile returns nil when the profile is missing or cannot be read.
func (s *ProfileService) GetProfile(ctx context.Context, userID string) *models.UserProfile {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		s.readFailed("profile", userID, err)
		return nil
	}
	return u
}

// GetAnalytics returns nil when the record is missing or cannot be read.
func (s *ProfileService) GetAnalytics(ctx context.Context, userID string) *models.UserAnalytics {
	a, err := s.analytics.Get(ctx, userID)
	if err != nil {
		s.readFailed("analytics", userID, err)
		return nil
	}
	return a
}

// GetProgress returns nil when the record is missing or cannot be read.
func (s *ProfileService) GetProgress(ctx context.Context, userID string) *models.UserProgress {
	p, err := s.progress.Get(ctx, userID)
	if err != nil {
		s.readFailed("progress", userID, err)
		return nil
	}
	return p
}

// GetLessonProgress returns the user's lesson records within a course.
func (s *ProfileService) GetLessonProgress(ctx context.Context, userID, courseID string) ([]models.LessonProgress, error) {
	if !docstore.ValidKey(courseID) {
		return nil, &ValidationError{Fields: map[string]string{"course_id": "contains invalid characters"}}
	}
	lessons, err := s.progress.ListLessons(ctx, userID, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list lesson progress: %w", err)
	}
	return lessons, nil
}

func (s *ProfileService) readFailed(record, userID string, err error) {
	if repository.IsNotFound(err) {
		return
	}
	s.logger.Warn().Err(err).Str("record", record).Str("user_id", userID).Msg("read failed")
}

func (s *ProfileService) UpdateProfile(ctx context.Context, userID string, req models.UpdateProfileRequest) error {
	fieldErrors := make(map[string]string)
	var updates []docstore.Update

	set := func(path string, v any) {
		updates = append(updates, docstore.Update{Path: path, Value: v})
	}

	if req.DisplayName != nil {
		if strings.TrimSpace(*req.DisplayName) == "" {
			fieldErrors["display_name"] = "Display name cannot be empty"
		}
		set("display_name", strings.TrimSpace(*req.DisplayName))
	}
	if req.PhotoURL != nil {
		set("photo_url", *req.PhotoURL)
	}
	if req.Bio != nil {
		set("profile.bio", *req.Bio)
	}
	if req.Skills != nil {
		set("profile.skills", nonNil(*req.Skills))
	}
	if req.Interests != nil {
		set("profile.interests", nonNil(*req.Interests))
	}
	if req.Experience != nil {
		if !validExperience[*req.Experience] {
			fieldErrors["experience"] = "Experience must be beginner, intermediate, advanced or expert"
		}
		set("profile.experience", *req.Experience)
	}
	if req.Goals != nil {
		set("profile.goals", nonNil(*req.Goals))
	}
	if req.Industry != nil {
		set("profile.industry", *req.Industry)
	}
	if req.JobTitle != nil {
		set("profile.job_title", *req.JobTitle)
	}
	if req.Company != nil {
		set("profile.company", *req.Company)
	}
	if req.Location != nil {
		set("profile.location", *req.Location)
	}

	if len(fieldErrors) > 0 {
		return &ValidationError{Fields: fieldErrors}
	}
	return s.applyUserUpdates(ctx, userID, updates)
}

func (s *ProfileService) UpdatePreferences(ctx context.Context, userID string, req models.UpdatePreferencesRequest) error {
	fieldErrors := make(map[string]string)
	var updates []docstore.Update

	if req.Theme != nil {
		if !validThemes[*req.Theme] {
			fieldErrors["theme"] = "Theme must be light, dark or system"
		}
		updates = append(updates, docstore.Update{Path: "preferences.theme", Value: *req.Theme})
	}
	if req.Notifications != nil {
		updates = append(updates, docstore.Update{Path: "preferences.notifications", Value: *req.Notifications})
	}
	if req.Language != nil {
		if strings.TrimSpace(*req.Language) == "" {
			fieldErrors["language"] = "Language cannot be empty"
		}
		updates = append(updates, docstore.Update{Path: "preferences.language", Value: *req.Language})
	}
	if req.Timezone != nil {
		if _, err := time.LoadLocation(*req.Timezone); err != nil {
			fieldErrors["timezone"] = "Unknown timezone"
		}
		updates = append(updates, docstore.Update{Path: "preferences.timezone", Value: *req.Timezone})
	}
	if req.LearningReminders != nil {
		updates = append(updates, docstore.Update{Path: "preferences.learning_reminders", Value: *req.LearningReminders})
	}
	if req.EmailUpdates != nil {
		updates = append(updates, docstore.Update{Path: "preferences.email_updates", Value: *req.EmailUpdates})
	}

	if len(fieldErrors) > 0 {
		return &ValidationError{Fields: fieldErrors}
	}
	return s.applyUserUpdates(ctx, userID, updates)
}

func (s *ProfileService) applyUserUpdates(ctx context.Context, userID string, updates []docstore.Update) error {
	if len(updates) == 0 {
		return &ValidationError{Fields: map[string]string{"body": "No fields to update"}}
	}
	if err := s.users.Update(ctx, userID, updates); err != nil {
		if repository.IsNotFound(err) {
			return &NotFoundError{Message: "Profile not found"}
		}
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
