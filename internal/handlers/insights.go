package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"coursehub-backend/internal/middleware"
	"coursehub-backend/internal/models"
)

type insightService interface {
	CourseAnalytics(ctx context.Context, userID, courseID string) (*models.CourseAnalytics, error)
	Recommendations(ctx context.Context, userID string, limit int) ([]models.Course, error)
}

type InsightHandler struct {
	insights insightService
}

func NewInsightHandler(insights insightService) *InsightHandler {
	return &InsightHandler{insights: insights}
}

func (h *InsightHandler) CourseAnalytics(w http.ResponseWriter, r *http.Request) {
	a, err := h.insights.CourseAnalytics(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *InsightHandler) Recommendations(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Limit must be a positive number", r))
			return
		}
		limit = n
	}

	courses, err := h.insights.Recommendations(r.Context(), middleware.GetUserID(r.Context()), limit)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"courses": courses,
		"count":   len(courses),
	})
}
