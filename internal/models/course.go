package models

import "time"

const (
	LevelBeginner     = "beginner"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"
	LevelExpert       = "expert"
)

type Course struct {
	ID                 string     `json:"id" yaml:"id"`
	Title              string     `json:"title" yaml:"title"`
	Description        string     `json:"description" yaml:"description"`
	ShortDescription   string     `json:"short_description,omitempty" yaml:"short_description"`
	InstructorID       string     `json:"instructor_id,omitempty" yaml:"instructor_id"`
	InstructorName     string     `json:"instructor_name,omitempty" yaml:"instructor_name"`
	Category           string     `json:"category" yaml:"category"`
	Level              string     `json:"level" yaml:"level"`
	DurationMinutes    int        `json:"duration_minutes" yaml:"duration_minutes"`
	Language           string     `json:"language,omitempty" yaml:"language"`
	Price              float64    `json:"price" yaml:"price"`
	Currency           string     `json:"currency,omitempty" yaml:"currency"`
	Thumbnail          string     `json:"thumbnail,omitempty" yaml:"thumbnail"`
	Tags               []string   `json:"tags" yaml:"tags"`
	Skills             []string   `json:"skills" yaml:"skills"`
	Prerequisites      []string   `json:"prerequisites,omitempty" yaml:"prerequisites"`
	LearningObjectives []string   `json:"learning_objectives,omitempty" yaml:"learning_objectives"`
	EnrollmentCount    int        `json:"enrollment_count" yaml:"-"`
	Rating             float64    `json:"rating" yaml:"rating"`
	IsPublished        bool       `json:"is_published" yaml:"is_published"`
	CreatedAt          *time.Time `json:"created_at,omitempty" yaml:"-"`
	UpdatedAt          *time.Time `json:"updated_at,omitempty" yaml:"-"`
}

type Module struct {
	ID              string `json:"id" yaml:"id"`
	CourseID        string `json:"course_id" yaml:"-"`
	Title           string `json:"title" yaml:"title"`
	Description     string `json:"description" yaml:"description"`
	Order           int    `json:"order" yaml:"order"`
	DurationMinutes int    `json:"duration_minutes" yaml:"duration_minutes"`
	Type            string `json:"type" yaml:"type"` // "video" | "text" | "quiz" | "assignment" | "interactive" | "live_session"
	IsPreview       bool   `json:"is_preview" yaml:"is_preview"`
	IsPublished     bool   `json:"is_published" yaml:"is_published"`
}

type Lesson struct {
	ID              string `json:"id" yaml:"id"`
	ModuleID        string `json:"module_id" yaml:"-"`
	CourseID        string `json:"course_id" yaml:"-"`
	Title           string `json:"title" yaml:"title"`
	Description     string `json:"description" yaml:"description"`
	Content         string `json:"content,omitempty" yaml:"content"`
	Type            string `json:"type" yaml:"type"` // "video" | "text" | "quiz" | "interactive" | "assignment"
	Order           int    `json:"order" yaml:"order"`
	DurationMinutes int    `json:"duration_minutes" yaml:"duration_minutes"`
	VideoURL        string `json:"video_url,omitempty" yaml:"video_url"`
	IsPublished     bool   `json:"is_published" yaml:"is_published"`
}

const (
	EnrollmentActive    = "active"
	EnrollmentCompleted = "completed"
	EnrollmentPaused    = "paused"
	EnrollmentCancelled = "cancelled"
)

// Enrollment is stored at enrollments/<userID>_<courseID>.
type Enrollment struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	CourseID    string     `json:"course_id"`
	Status      string     `json:"status"`
	Progress    float64    `json:"progress"`
	EnrolledAt  *time.Time `json:"enrolled_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

type EnrollRequest struct {
	CourseID string `json:"course_id"`
}

type CourseFilter struct {
	Category     string
	Level        string
	InstructorID string
	Search       string
	MinRating    float64
	Limit        int
}
