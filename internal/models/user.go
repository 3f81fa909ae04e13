package models

import "time"

const (
	RoleStudent         = "student"
	RoleInstructor      = "instructor"
	RoleAdmin           = "admin"
	RoleEnterpriseAdmin = "enterprise_admin"
)

const (
	PlanFree       = "free"
	PlanPremium    = "premium"
	PlanEnterprise = "enterprise"
)

// Identity is the signed-in principal extracted from the identity
// provider's ID token.
type Identity struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	PhotoURL    string `json:"photo_url,omitempty"`
	Provider    string `json:"provider,omitempty"`
}

// UserProfile is stored at users/<userID>.
type UserProfile struct {
	UserID            string            `json:"user_id"`
	Email             string            `json:"email"`
	DisplayName       string            `json:"display_name"`
	PhotoURL          string            `json:"photo_url,omitempty"`
	AuthProvider      string            `json:"auth_provider"`
	Role              string            `json:"role"`
	CreatedAt         *time.Time        `json:"created_at,omitempty"`
	LastLoginAt       *time.Time        `json:"last_login_at,omitempty"`
	Preferences       Preferences       `json:"preferences"`
	Profile           Profile           `json:"profile"`
	LearningAnalytics LearningAnalytics `json:"learning_analytics"`
	Subscription      Subscription      `json:"subscription"`
}

type Preferences struct {
	Theme             string `json:"theme"`
	Notifications     bool   `json:"notifications"`
	Language          string `json:"language"`
	Timezone          string `json:"timezone"`
	LearningReminders bool   `json:"learning_reminders"`
	EmailUpdates      bool   `json:"email_updates"`
}

type Profile struct {
	Bio        string   `json:"bio,omitempty"`
	Skills     []string `json:"skills"`
	Interests  []string `json:"interests"`
	Experience string   `json:"experience"`
	Goals      []string `json:"goals"`
	Industry   string   `json:"industry,omitempty"`
	JobTitle   string   `json:"job_title,omitempty"`
	Company    string   `json:"company,omitempty"`
	Location   string   `json:"location,omitempty"`
}

// LearningAnalytics is the summary block kept on the user document.
type LearningAnalytics struct {
	TotalTimeSpent         float64  `json:"total_time_spent"`
	SkillsAcquired         []string `json:"skills_acquired"`
	LearningStreak         int      `json:"learning_streak"`
	AverageSessionDuration float64  `json:"average_session_duration"`
	PreferredLearningTime  string   `json:"preferred_learning_time"`
	CompletionRate         float64  `json:"completion_rate"`
	EngagementScore        float64  `json:"engagement_score"`
}

type Subscription struct {
	Plan      string     `json:"plan"`
	Status    string     `json:"status"`
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	Features  []string   `json:"features"`
}

type UpdateProfileRequest struct {
	DisplayName *string   `json:"display_name"`
	PhotoURL    *string   `json:"photo_url"`
	Bio         *string   `json:"bio"`
	Skills      *[]string `json:"skills"`
	Interests   *[]string `json:"interests"`
	Experience  *string   `json:"experience"`
	Goals       *[]string `json:"goals"`
	Industry    *string   `json:"industry"`
	JobTitle    *string   `json:"job_title"`
	Company     *string   `json:"company"`
	Location    *string   `json:"location"`
}

type UpdatePreferencesRequest struct {
	Theme             *string `json:"theme"`
	Notifications     *bool   `json:"notifications"`
	Language          *string `json:"language"`
	Timezone          *string `json:"timezone"`
	LearningReminders *bool   `json:"learning_reminders"`
	EmailUpdates      *bool   `json:"email_updates"`
}

// Me is the response of GET /me.
type Me struct {
	Profile  *UserProfile `json:"profile"`
	Features []string     `json:"features"`
}
