package repository

import (
	"encoding/json"
	"errors"

	"coursehub-backend/internal/docstore"
)

const (
	collUsers       = "users"
	collCourses     = "courses"
	collModules     = "modules"
	collLessons     = "lessons"
	collEnrollments = "enrollments"
	collProgress    = "progress"
	collAnalytics   = "analytics"
	collSessions    = "sessions"

	collCourseAnalytics = "course_analytics"
	collLessonProgress  = "lesson_progress"
)

// IsNotFound reports whether err means the document does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, docstore.ErrNotFound)
}

// toDocument encodes v into a document map so sentinel values can be added
// before writing.
func toDocument(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	doc := map[string]any{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func decodeAll[T any](snaps []*docstore.Snapshot) ([]T, error) {
	out := make([]T, 0, len(snaps))
	for _, s := range snaps {
		var v T
		if err := s.DataTo(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
