package services

import (
	"slices"

	"coursehub-backend/internal/models"
)

var subscriptionFeatures = map[string][]string{
	models.PlanFree:       {"basic_courses", "community_access"},
	models.PlanPremium:    {"basic_courses", "advanced_courses", "community_access", "certificates", "offline_access"},
	models.PlanEnterprise: {"all_courses", "community_access", "certificates", "offline_access", "analytics", "custom_content"},
}

// CanAccessCourse reports whether a plan includes courses of level.
func CanAccessCourse(plan, level string) bool {
	switch plan {
	case models.PlanFree:
		return level == models.LevelBeginner
	case models.PlanPremium:
		return level == models.LevelBeginner || level == models.LevelIntermediate
	case models.PlanEnterprise:
		return true
	}
	return false
}

// SubscriptionFeatures lists the features of plan; unknown plans have none.
func SubscriptionFeatures(plan string) []string {
	return slices.Clone(subscriptionFeatures[plan])
}

func HasRole(user *models.UserProfile, role string) bool {
	return user != nil && user.Role == role
}

func HasAnyRole(user *models.UserProfile, roles ...string) bool {
	return user != nil && user.Role != "" && slices.Contains(roles, user.Role)
}
