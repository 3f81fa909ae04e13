package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"coursehub-backend/internal/middleware"
	"coursehub-backend/internal/models"
)

type enrollmentService interface {
	Enroll(ctx context.Context, userID, courseID string) (*models.Enrollment, error)
	ListEnrollments(ctx context.Context, userID string) ([]models.Enrollment, error)
}

type EnrollmentHandler struct {
	enrollments enrollmentService
}

func NewEnrollmentHandler(enrollments enrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments}
}

func (h *EnrollmentHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	var req models.EnrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	enrollment, err := h.enrollments.Enroll(r.Context(), middleware.GetUserID(r.Context()), req.CourseID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, enrollment)
}

func (h *EnrollmentHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.enrollments.ListEnrollments(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"enrollments": list})
}
