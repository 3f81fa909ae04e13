package services

import (
	"context"

	"github.com/rs/zerolog"

	"coursehub-backend/internal/models"
)

// SessionEnder ends the live sessions of a user's connected clients.
type SessionEnder interface {
	EndUser(ctx context.Context, userID string) int
}

// AuthService reacts to sign-in and sign-out transitions reported by the
// client after it authenticated with the identity provider.
type AuthService struct {
	profiles *ProfileService
	sessions SessionEnder
	logger   zerolog.Logger
}

func NewAuthService(profiles *ProfileService, sessions SessionEnder, logger zerolog.Logger) *AuthService {
	return &AuthService{profiles: profiles, sessions: sessions, logger: logger}
}

// SignIn makes sure the user's records exist and returns the profile with
// the features of its plan.
func (s *AuthService) SignIn(ctx context.Context, id models.Identity) (*models.Me, error) {
	profile, err := s.profiles.EnsureProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", id.UserID).Msg("user signed in")
	return &models.Me{
		Profile:  profile,
		Features: SubscriptionFeatures(profile.Subscription.Plan),
	}, nil
}

// SignOut ends the active sessions of the user and returns how many were
// ended.
func (s *AuthService) SignOut(ctx context.Context, userID string) int {
	ended := 0
	if s.sessions != nil {
		ended = s.sessions.EndUser(ctx, userID)
	}
	s.logger.Info().Str("user_id", userID).Int("sessions_ended", ended).Msg("user signed out")
	return ended
}

// Me returns the stored profile with its plan features, or nil when the
// profile cannot be read.
func (s *AuthService) Me(ctx context.Context, userID string) *models.Me {
	profile := s.profiles.GetProfile(ctx, userID)
	if profile == nil {
		return nil
	}
	return &models.Me{
		Profile:  profile,
		Features: SubscriptionFeatures(profile.Subscription.Plan),
	}
}
