package models

import (
	"encoding/json"
	"strings"
)

type LearningEventKind string

const (
	EventModuleProgress   LearningEventKind = "module_progress"
	EventQuizAttempt      LearningEventKind = "quiz_attempt"
	EventCourseCompletion LearningEventKind = "course_completion"
	EventBookmark         LearningEventKind = "bookmark"
	EventNote             LearningEventKind = "note"
	EventLessonProgress   LearningEventKind = "lesson_progress"
)

// LearningJob is the queued form of a learning event.
type LearningJob struct {
	ID       string            `json:"id"`
	Kind     LearningEventKind `json:"kind"`
	UserID   string            `json:"user_id"`
	ClientID string            `json:"client_id,omitempty"`
	Payload  json.RawMessage   `json:"payload"`
}

type ModuleProgressRequest struct {
	ClientID           string  `json:"client_id"`
	CourseID           string  `json:"course_id"`
	ModuleID           string  `json:"module_id"`
	ProgressPercentage float64 `json:"progress_percentage"`
	TimeSpentSeconds   float64 `json:"time_spent_seconds"`
}

func (r ModuleProgressRequest) Validate() map[string]string {
	fields := requireIDs(map[string]string{"course_id": r.CourseID, "module_id": r.ModuleID})
	if r.ProgressPercentage < 0 || r.ProgressPercentage > 100 {
		fields["progress_percentage"] = "must be between 0 and 100"
	}
	return fields
}

type QuizAttemptRequest struct {
	ClientID       string  `json:"client_id"`
	CourseID       string  `json:"course_id"`
	ModuleID       string  `json:"module_id"`
	QuizID         string  `json:"quiz_id"`
	Score          float64 `json:"score"`
	TotalQuestions int     `json:"total_questions"`
}

func (r QuizAttemptRequest) Validate() map[string]string {
	fields := requireIDs(map[string]string{"course_id": r.CourseID, "module_id": r.ModuleID, "quiz_id": r.QuizID})
	if r.TotalQuestions <= 0 {
		fields["total_questions"] = "must be greater than 0"
	}
	switch {
	case r.Score < 0:
		fields["score"] = "must not be negative"
	case r.TotalQuestions > 0 && r.Score > float64(r.TotalQuestions):
		fields["score"] = "must not exceed total_questions"
	}
	return fields
}

type LessonProgressRequest struct {
	ClientID  string  `json:"client_id"`
	CourseID  string  `json:"course_id"`
	ModuleID  string  `json:"module_id"`
	LessonID  string  `json:"lesson_id"`
	Progress  float64 `json:"progress"`
	Completed bool    `json:"completed"`
}

func (r LessonProgressRequest) Validate() map[string]string {
	fields := requireIDs(map[string]string{"course_id": r.CourseID, "module_id": r.ModuleID, "lesson_id": r.LessonID})
	if r.Progress < 0 || r.Progress > 100 {
		fields["progress"] = "must be between 0 and 100"
	}
	return fields
}

type CourseCompletionRequest struct {
	ClientID string `json:"client_id"`
	CourseID string `json:"course_id"`
}

func (r CourseCompletionRequest) Validate() map[string]string {
	return requireIDs(map[string]string{"course_id": r.CourseID})
}

type BookmarkRequest struct {
	ClientID string `json:"client_id"`
	CourseID string `json:"course_id"`
	ModuleID string `json:"module_id"`
}

func (r BookmarkRequest) Validate() map[string]string {
	return requireIDs(map[string]string{"course_id": r.CourseID, "module_id": r.ModuleID})
}

type NoteRequest struct {
	ClientID string `json:"client_id"`
	CourseID string `json:"course_id"`
	ModuleID string `json:"module_id"`
	Content  string `json:"content"`
}

const MaxNoteLength = 10000

func (r NoteRequest) Validate() map[string]string {
	fields := requireIDs(map[string]string{"course_id": r.CourseID, "module_id": r.ModuleID})
	switch {
	case strings.TrimSpace(r.Content) == "":
		fields["content"] = "is required"
	case len(r.Content) > MaxNoteLength:
		fields["content"] = "is too long"
	}
	return fields
}

// requireIDs checks that ids are present and usable as document path keys.
func requireIDs(ids map[string]string) map[string]string {
	fields := map[string]string{}
	for name, v := range ids {
		switch {
		case strings.TrimSpace(v) == "":
			fields[name] = "is required"
		case strings.ContainsAny(v, ".`/"):
			fields[name] = "contains invalid characters"
		}
	}
	return fields
}

type AcceptedResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}
