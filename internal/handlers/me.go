package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"coursehub-backend/internal/middleware"
	"coursehub-backend/internal/models"
)

type profileService interface {
	GetAnalytics(ctx context.Context, userID string) *models.UserAnalytics
	GetProgress(ctx context.Context, userID string) *models.UserProgress
	GetLessonProgress(ctx context.Context, userID, courseID string) ([]models.LessonProgress, error)
	UpdateProfile(ctx context.Context, userID string, req models.UpdateProfileRequest) error
	UpdatePreferences(ctx context.Context, userID string, req models.UpdatePreferencesRequest) error
}

type meService interface {
	Me(ctx context.Context, userID string) *models.Me
}

type MeHandler struct {
	profiles profileService
	me       meService
}

func NewMeHandler(profiles profileService, me meService) *MeHandler {
	return &MeHandler{profiles: profiles, me: me}
}

func (h *MeHandler) Get(w http.ResponseWriter, r *http.Request) {
	me := h.me.Me(r.Context(), middleware.GetUserID(r.Context()))
	if me == nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Profile not found", r))
		return
	}
	writeJSON(w, http.StatusOK, me)
}

func (h *MeHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	userID := middleware.GetUserID(r.Context())
	if err := h.profiles.UpdateProfile(r.Context(), userID, req); err != nil {
		handleServiceError(w, r, err)
		return
	}
	h.Get(w, r)
}

func (h *MeHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var req models.UpdatePreferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if err := h.profiles.UpdatePreferences(r.Context(), middleware.GetUserID(r.Context()), req); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Preferences updated"})
}

func (h *MeHandler) Progress(w http.ResponseWriter, r *http.Request) {
	progress := h.profiles.GetProgress(r.Context(), middleware.GetUserID(r.Context()))
	if progress == nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "No progress recorded yet", r))
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

func (h *MeHandler) LessonProgress(w http.ResponseWriter, r *http.Request) {
	lessons, err := h.profiles.GetLessonProgress(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "courseId"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"lessons": lessons})
}

func (h *MeHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	analytics := h.profiles.GetAnalytics(r.Context(), middleware.GetUserID(r.Context()))
	if analytics == nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "No analytics recorded yet", r))
		return
	}
	writeJSON(w, http.StatusOK, analytics)
}
