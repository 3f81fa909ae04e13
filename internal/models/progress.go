package models

import "time"

// UserProgress is stored at progress/<userID>.
type UserProgress struct {
	UserID            string                    `json:"user_id"`
	CoursesCompleted  int                       `json:"courses_completed"`
	CoursesInProgress int                       `json:"courses_in_progress"`
	Courses           map[string]CourseProgress `json:"courses"`
}

type CourseProgress struct {
	ProgressPercentage float64            `json:"progress_percentage"`
	TimeSpent          float64            `json:"time_spent"` // seconds
	CurrentModule      string             `json:"current_module,omitempty"`
	QuizScores         map[string]float64 `json:"quiz_scores,omitempty"`
	Bookmarks          []string           `json:"bookmarks,omitempty"`
	Notes              []Note             `json:"notes,omitempty"`
	EnrolledAt         *time.Time         `json:"enrolled_at,omitempty"`
	LastAccessedAt     *time.Time         `json:"last_accessed_at,omitempty"`
	CompletedAt        *time.Time         `json:"completed_at,omitempty"`
}

type Note struct {
	NoteID    string     `json:"note_id"`
	ModuleID  string     `json:"module_id"`
	Content   string     `json:"content"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
	IsPrivate bool       `json:"is_private"`
}

// LessonProgress is stored at
// lesson_progress/<userID>_<courseID>_<moduleID>_<lessonID>.
type LessonProgress struct {
	ID             string     `json:"id"`
	UserID         string     `json:"user_id"`
	CourseID       string     `json:"course_id"`
	ModuleID       string     `json:"module_id"`
	LessonID       string     `json:"lesson_id"`
	Progress       float64    `json:"progress"`
	Completed      bool       `json:"completed"`
	LastAccessedAt *time.Time `json:"last_accessed_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}
