package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"coursehub-backend/internal/handlers"
	"coursehub-backend/internal/middleware"
)

func New(
	verifier *middleware.Verifier,
	authHandler *handlers.AuthHandler,
	courseHandler *handlers.CourseHandler,
	enrollmentHandler *handlers.EnrollmentHandler,
	meHandler *handlers.MeHandler,
	learningHandler *handlers.LearningHandler,
	insightHandler *handlers.InsightHandler,
	wsHandler http.Handler,
	frontendURL string,
	logger zerolog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{frontendURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.HeaderRequestID},
		ExposedHeaders:   []string{middleware.HeaderRequestID},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Auth Routes ────
		r.Route("/auth", func(r chi.Router) {
			r.Use(middleware.AuthRateLimit())
			r.Use(verifier.Middleware)
			r.Post("/session", authHandler.SignIn)
			r.Delete("/session", authHandler.SignOut)
		})

		// ──── Catalog Routes (public) ────
		r.Group(func(r chi.Router) {
			r.Use(middleware.APIRateLimit())
			r.Get("/courses", courseHandler.List)
			r.Get("/courses/{id}", courseHandler.Get)
			r.Get("/courses/{id}/modules", courseHandler.Modules)
			r.Get("/modules/{id}/lessons", courseHandler.Lessons)
		})

		// ──── Course Analytics (instructors and admins) ────
		r.Group(func(r chi.Router) {
			r.Use(middleware.APIRateLimit())
			r.Use(verifier.Middleware)
			r.Get("/courses/{id}/analytics", insightHandler.CourseAnalytics)
		})

		// ──── Enrollment Routes ────
		r.Route("/enrollments", func(r chi.Router) {
			r.Use(verifier.Middleware)
			r.Post("/", enrollmentHandler.Enroll)
			r.Get("/", enrollmentHandler.List)
		})

		// ──── Profile Routes ────
		r.Route("/me", func(r chi.Router) {
			r.Use(verifier.Middleware)
			r.Get("/", meHandler.Get)
			r.Put("/", meHandler.Update)
			r.Put("/preferences", meHandler.UpdatePreferences)
			r.Get("/progress", meHandler.Progress)
			r.Get("/progress/{courseId}/lessons", meHandler.LessonProgress)
			r.Get("/analytics", meHandler.Analytics)
			r.Get("/recommendations", insightHandler.Recommendations)
		})

		// ──── Learning Event Routes ────
		r.Route("/learning", func(r chi.Router) {
			r.Use(middleware.APIRateLimit())
			r.Use(verifier.Middleware)
			r.Post("/progress", learningHandler.ModuleProgress)
			r.Post("/lesson-progress", learningHandler.LessonProgress)
			r.Post("/quiz-attempts", learningHandler.QuizAttempt)
			r.Post("/completions", learningHandler.CourseCompletion)
			r.Post("/bookmarks", learningHandler.Bookmark)
			r.Post("/notes", learningHandler.Note)
		})

		// ──── WebSocket ────
		r.Get("/ws", wsHandler.ServeHTTP)
	})

	return r
}
