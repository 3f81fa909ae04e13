package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursehub-backend/internal/docstore"
	"coursehub-backend/internal/handlers"
	"coursehub-backend/internal/middleware"
	"coursehub-backend/internal/models"
	"coursehub-backend/internal/repository"
	"coursehub-backend/internal/services"
)

const frontendURL = "http://localhost:5173"

type memoryQueue struct {
	mu   sync.Mutex
	jobs []models.LearningJob
}

func (q *memoryQueue) Enqueue(_ context.Context, job models.LearningJob) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
	return nil
}

type noSessions struct{}

func (noSessions) EndUser(context.Context, string) int { return 0 }

type testRouter struct {
	handler  http.Handler
	verifier *middleware.Verifier
	queue    *memoryQueue
}

func newTestRouter(t *testing.T) *testRouter {
	t.Helper()
	store := docstore.NewMemoryStore()
	logger := zerolog.Nop()

	users := repository.NewUserRepo(store)
	progress := repository.NewProgressRepo(store)
	analytics := repository.NewAnalyticsRepo(store)
	courses := repository.NewCourseRepo(store)
	enrollments := repository.NewEnrollmentRepo(store)

	profiles := services.NewProfileService(users, progress, analytics, "UTC", logger)
	auth := services.NewAuthService(profiles, noSessions{}, logger)
	catalog := services.NewCatalogService(courses, logger)
	enrolls := services.NewEnrollmentService(enrollments, courses, users, progress, analytics, logger)
	insights := services.NewInsightService(catalog, courses, users, analytics, logger)
	queue := &memoryQueue{}

	require.NoError(t, courses.Save(context.Background(), models.Course{
		ID: "intro", Title: "Intro to AI", Level: models.LevelBeginner, IsPublished: true,
	}))

	verifier := middleware.NewVerifier("router-secret", services.AuthErrorMessage)
	ws := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	h := New(
		verifier,
		handlers.NewAuthHandler(auth),
		handlers.NewCourseHandler(catalog),
		handlers.NewEnrollmentHandler(enrolls),
		handlers.NewMeHandler(profiles, auth),
		handlers.NewLearningHandler(queue, logger),
		handlers.NewInsightHandler(insights),
		ws,
		frontendURL,
		logger,
	)
	return &testRouter{handler: h, verifier: verifier, queue: queue}
}

func (tr *testRouter) do(t *testing.T, method, path, user, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		token, err := tr.verifier.Sign(models.Identity{UserID: user, DisplayName: "Ada", Email: "ada@example.com"}, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	tr.handler.ServeHTTP(rec, req)
	return rec
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	tr := newTestRouter(t)

	rec := tr.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(middleware.HeaderRequestID))

	rec = tr.do(t, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "coursehub_sessions_active")
}

func TestRouter_ProtectedRoutesNeedToken(t *testing.T) {
	tr := newTestRouter(t)

	for _, path := range []string{
		"/api/v1/me",
		"/api/v1/enrollments",
		"/api/v1/me/progress",
		"/api/v1/me/progress/intro/lessons",
		"/api/v1/me/recommendations",
		"/api/v1/courses/intro/analytics",
	} {
		rec := tr.do(t, http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)

		var body models.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "UNAUTHORIZED", body.Error.Code)
	}
}

func TestRouter_SignInThenProfile(t *testing.T) {
	tr := newTestRouter(t)

	rec := tr.do(t, http.MethodPost, "/api/v1/auth/session", "u1", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = tr.do(t, http.MethodGet, "/api/v1/me", "u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var me models.Me
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	require.NotNil(t, me.Profile)
	assert.Equal(t, "u1", me.Profile.UserID)

	rec = tr.do(t, http.MethodPost, "/api/v1/enrollments", "u1", `{"course_id":"intro"}`)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestRouter_PublicCatalog(t *testing.T) {
	tr := newTestRouter(t)

	rec := tr.do(t, http.MethodGet, "/api/v1/courses", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Intro to AI")

	rec = tr.do(t, http.MethodGet, "/api/v1/courses/missing", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = tr.do(t, http.MethodGet, "/api/v1/courses?instructor=nobody", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":0`)
}

func TestRouter_Recommendations(t *testing.T) {
	tr := newTestRouter(t)
	rec := tr.do(t, http.MethodGet, "/api/v1/me/recommendations", "u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Intro to AI")

	rec = tr.do(t, http.MethodGet, "/api/v1/courses/intro/analytics", "u1", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouter_LearningEventsAreQueued(t *testing.T) {
	tr := newTestRouter(t)

	rec := tr.do(t, http.MethodPost, "/api/v1/learning/bookmarks", "u1", `{"course_id":"intro","module_id":"m1"}`)
	assert.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	rec = tr.do(t, http.MethodPost, "/api/v1/learning/lesson-progress", "u1", `{"course_id":"intro","module_id":"m1","lesson_id":"l1","progress":20}`)
	assert.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	require.Len(t, tr.queue.jobs, 2)
	assert.Equal(t, "u1", tr.queue.jobs[0].UserID)
}

func TestRouter_WebSocketRoute(t *testing.T) {
	tr := newTestRouter(t)
	rec := tr.do(t, http.MethodGet, "/api/v1/ws?token=x", "", "")
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestRouter_CORSPreflight(t *testing.T) {
	tr := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/courses", nil)
	req.Header.Set("Origin", frontendURL)
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	tr.handler.ServeHTTP(rec, req)

	assert.Equal(t, frontendURL, rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/v1/courses", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec = httptest.NewRecorder()
	tr.handler.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
