package models

import "time"

// UserAnalytics is stored at analytics/<userID>.
type UserAnalytics struct {
	UserID            string            `json:"user_id"`
	SessionData       SessionStats      `json:"session_data"`
	LearningPatterns  LearningPatterns  `json:"learning_patterns"`
	SkillAssessments  SkillAssessments  `json:"skill_assessments"`
	EngagementMetrics EngagementMetrics `json:"engagement_metrics"`
	// AIRecommendations is filled by the recommendation pipeline and stays
	// absent until it has run for the user.
	AIRecommendations *AIRecommendations `json:"ai_recommendations,omitempty"`
}

type AIRecommendations struct {
	RecommendedCourses []string `json:"recommended_courses"`
	LearningPath       []string `json:"learning_path,omitempty"`
	SkillGaps          []string `json:"skill_gaps,omitempty"`
}

type SessionStats struct {
	TotalSessions int `json:"total_sessions"`
	// AverageSessionDuration is the running mean in milliseconds.
	AverageSessionDuration float64        `json:"average_session_duration"`
	LastSessionDate        *time.Time     `json:"last_session_date,omitempty"`
	DeviceTypes            map[string]int `json:"device_types"`
	BrowserTypes           map[string]int `json:"browser_types"`
	AccessPatterns         map[string]int `json:"access_patterns"`
}

type LearningPatterns struct {
	PreferredTimeSlots  []string       `json:"preferred_time_slots"`
	LearningVelocity    float64        `json:"learning_velocity"`
	ContentPreferences  map[string]int `json:"content_preferences"`
	InteractionPatterns map[string]int `json:"interaction_patterns"`
}

type SkillAssessments struct {
	CurrentSkills map[string]float64       `json:"current_skills"`
	SkillGrowth   map[string][]SkillGrowth `json:"skill_growth"`
}

type SkillGrowth struct {
	Date   *time.Time `json:"date,omitempty"`
	Level  float64    `json:"level"`
	Source string     `json:"source"`
}

type EngagementMetrics struct {
	CourseCompletionRate float64 `json:"course_completion_rate"`
}

// NewUserAnalytics returns the zero-valued record created on first sign-in.
func NewUserAnalytics(userID string) UserAnalytics {
	return UserAnalytics{
		UserID: userID,
		SessionData: SessionStats{
			DeviceTypes:    map[string]int{},
			BrowserTypes:   map[string]int{},
			AccessPatterns: map[string]int{},
		},
		LearningPatterns: LearningPatterns{
			PreferredTimeSlots:  []string{},
			ContentPreferences:  map[string]int{},
			InteractionPatterns: map[string]int{},
		},
		SkillAssessments: SkillAssessments{
			CurrentSkills: map[string]float64{},
			SkillGrowth:   map[string][]SkillGrowth{},
		},
	}
}

// CourseAnalytics is stored at course_analytics/<courseID>.
type CourseAnalytics struct {
	CourseID  string         `json:"course_id"`
	Overview  CourseOverview `json:"overview"`
	UpdatedAt *time.Time     `json:"updated_at,omitempty"`
}

type CourseOverview struct {
	TotalEnrollments int `json:"total_enrollments"`
	ActiveStudents   int `json:"active_students"`
	Completions      int `json:"completions"`
	// CompletionRate is the percentage of enrollments completed. It is
	// derived when the record is read and never stored.
	CompletionRate float64 `json:"completion_rate"`
}
