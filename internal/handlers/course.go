package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"coursehub-backend/internal/models"
)

type catalogService interface {
	ListCourses(ctx context.Context, filter models.CourseFilter) ([]models.Course, error)
	GetCourse(ctx context.Context, courseID string) (*models.Course, error)
	ListModules(ctx context.Context, courseID string) ([]models.Module, error)
	ListLessons(ctx context.Context, moduleID string) ([]models.Lesson, error)
}

type CourseHandler struct {
	catalog catalogService
}

func NewCourseHandler(catalog catalogService) *CourseHandler {
	return &CourseHandler{catalog: catalog}
}

func (h *CourseHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.CourseFilter{
		Category:     q.Get("category"),
		Level:        q.Get("level"),
		InstructorID: q.Get("instructor"),
		Search:       q.Get("search"),
	}

	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Limit must be a positive number", r))
			return
		}
		filter.Limit = limit
	}
	if v := q.Get("min_rating"); v != "" {
		rating, err := strconv.ParseFloat(v, 64)
		if err != nil || rating < 0 || rating > 5 {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Minimum rating must be between 0 and 5", r))
			return
		}
		filter.MinRating = rating
	}

	courses, err := h.catalog.ListCourses(r.Context(), filter)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"courses": courses,
		"count":   len(courses),
	})
}

func (h *CourseHandler) Get(w http.ResponseWriter, r *http.Request) {
	course, err := h.catalog.GetCourse(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, course)
}

func (h *CourseHandler) Modules(w http.ResponseWriter, r *http.Request) {
	modules, err := h.catalog.ListModules(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"modules": modules})
}

func (h *CourseHandler) Lessons(w http.ResponseWriter, r *http.Request) {
	lessons, err := h.catalog.ListLessons(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"lessons": lessons})
}
