package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"coursehub-backend/internal/models"
)

func TestCanAccessCourse(t *testing.T) {
	tests := []struct {
		plan, level string
		want        bool
	}{
		{models.PlanFree, models.LevelBeginner, true},
		{models.PlanFree, models.LevelIntermediate, false},
		{models.PlanPremium, models.LevelIntermediate, true},
		{models.PlanPremium, models.LevelAdvanced, false},
		{models.PlanEnterprise, models.LevelExpert, true},
		{"", models.LevelBeginner, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanAccessCourse(tt.plan, tt.level), "%s/%s", tt.plan, tt.level)
	}
}

func TestSubscriptionFeatures(t *testing.T) {
	assert.Equal(t, []string{"basic_courses", "community_access"}, SubscriptionFeatures(models.PlanFree))
	assert.Contains(t, SubscriptionFeatures(models.PlanEnterprise), "analytics")
	assert.Empty(t, SubscriptionFeatures("gold"))

	f := SubscriptionFeatures(models.PlanFree)
	f[0] = "mutated"
	assert.Equal(t, "basic_courses", SubscriptionFeatures(models.PlanFree)[0])
}

func TestRoles(t *testing.T) {
	admin := &models.UserProfile{Role: models.RoleAdmin}
	assert.True(t, HasRole(admin, models.RoleAdmin))
	assert.False(t, HasRole(nil, models.RoleAdmin))
	assert.True(t, HasAnyRole(admin, models.RoleInstructor, models.RoleAdmin))
	assert.False(t, HasAnyRole(&models.UserProfile{}, ""))
}

func TestAuthErrorMessage(t *testing.T) {
	assert.Equal(t, "Incorrect password.", AuthErrorMessage(AuthWrongPassword))
	assert.Equal(t, "Too many failed attempts. Please try again later.", AuthErrorMessage(AuthTooManyRequests))
	assert.Equal(t, "An unexpected error occurred.", AuthErrorMessage("auth/something-else"))
	assert.Equal(t, "An unexpected error occurred.", AuthErrorMessage(""))

	err := NewAuthError(AuthIDTokenExpired)
	assert.Equal(t, AuthIDTokenExpired, err.Code)
	assert.Equal(t, AuthErrorMessage(AuthIDTokenExpired), err.Error())
}
