package services

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"coursehub-backend/internal/docstore"
	"coursehub-backend/internal/metrics"
	"coursehub-backend/internal/models"
	"coursehub-backend/internal/repository"
	"coursehub-backend/internal/tracking"
)

// SkillThreshold is the quiz percentage from which a skill level is
// recorded.
const SkillThreshold = 70.0

// Publisher pushes realtime notifications to a user's open connections.
type Publisher interface {
	PublishUserUpdate(ctx context.Context, userID string, msg models.WSMessage) error
}

// TimeSlot buckets an hour of day: afternoon [12,17), evening [17,21),
// night [21,24) and [0,6), morning otherwise.
func TimeSlot(hour int) string {
	switch {
	case hour >= 12 && hour < 17:
		return "afternoon"
	case hour >= 17 && hour < 21:
		return "evening"
	case hour >= 21 || hour < 6:
		return "night"
	}
	return "morning"
}

type AggregatorOption func(*Aggregator)

func WithAggregatorClock(now func() time.Time) AggregatorOption {
	return func(a *Aggregator) { a.now = now }
}

// WithLocation sets the zone in which session start hours are bucketed.
func WithLocation(loc *time.Location) AggregatorOption {
	return func(a *Aggregator) { a.loc = loc }
}

func WithPublisher(p Publisher) AggregatorOption {
	return func(a *Aggregator) { a.publisher = p }
}

// Aggregator folds learning events and closed sessions into the per-user
// progress and analytics records. Apply* operations never fail: a
// persistence error is logged, counted and swallowed, and the interaction
// is not recorded.
type Aggregator struct {
	progress    *repository.ProgressRepo
	analytics   *repository.AnalyticsRepo
	sessions    *repository.SessionRepo
	enrollments *repository.EnrollmentRepo
	publisher   Publisher
	loc         *time.Location
	now         func() time.Time
	logger      zerolog.Logger
}

func NewAggregator(
	progress *repository.ProgressRepo,
	analytics *repository.AnalyticsRepo,
	sessions *repository.SessionRepo,
	enrollments *repository.EnrollmentRepo,
	logger zerolog.Logger,
	opts ...AggregatorOption,
) *Aggregator {
	a := &Aggregator{
		progress:    progress,
		analytics:   analytics,
		sessions:    sessions,
		enrollments: enrollments,
		loc:         time.UTC,
		now:         time.Now,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func coursePath(courseID string, field ...string) string {
	return docstore.FieldPath(append([]string{"courses", courseID}, field...)...)
}

func recorderOrDiscard(rec tracking.Recorder) tracking.Recorder {
	if rec == nil {
		return tracking.Discard
	}
	return rec
}

// ApplyModuleProgress records progress within a course module. The stored
// percentage is the last one reported.
func (a *Aggregator) ApplyModuleProgress(ctx context.Context, rec tracking.Recorder, userID, courseID, moduleID string, percentage, timeDeltaSeconds float64) {
	const op = "module_progress"
	if !a.validKeys(op, userID, courseID) {
		return
	}
	percentage = clamp(percentage, 0, 100)
	if timeDeltaSeconds < 0 {
		timeDeltaSeconds = 0
	}

	err := a.progress.Apply(ctx, userID, []docstore.Update{
		{Path: coursePath(courseID, "current_module"), Value: moduleID},
		{Path: coursePath(courseID, "time_spent"), Value: docstore.Increment(timeDeltaSeconds)},
		{Path: coursePath(courseID, "progress_percentage"), Value: percentage},
		{Path: coursePath(courseID, "last_accessed_at"), Value: docstore.ServerTimestamp},
	})
	if err != nil {
		a.fail(op, userID, courseID, err)
		return
	}

	err = a.analytics.Apply(ctx, userID, []docstore.Update{
		{Path: "learning_patterns.learning_velocity", Value: docstore.Increment(percentage)},
		{Path: "session_data.last_session_date", Value: docstore.ServerTimestamp},
	})
	if err != nil {
		a.fail(op, userID, courseID, err)
		return
	}

	recorderOrDiscard(rec).Record(models.InteractionEvent{
		Kind:     models.KindVideoPlay,
		ModuleID: moduleID,
		CourseID: courseID,
		Data: models.VideoData{
			ProgressPercentage: percentage,
			TimeSpentSeconds:   timeDeltaSeconds,
		},
	})
	a.done(ctx, op, userID, courseID, models.WSProgressUpdated)
}

// ApplyQuizAttempt stores the attempt's percentage and, from
// SkillThreshold on, the skill level of the module's skill.
func (a *Aggregator) ApplyQuizAttempt(ctx context.Context, rec tracking.Recorder, userID, courseID, moduleID, quizID string, score float64, totalQuestions int) {
	const op = "quiz_attempt"
	if totalQuestions <= 0 {
		a.logger.Warn().
			Str("op", op).
			Str("user_id", userID).
			Str("quiz_id", quizID).
			Int("total_questions", totalQuestions).
			Msg("dropping quiz attempt without questions")
		metrics.IncLearningEvent(op, "dropped")
		return
	}
	if score < 0 || score > float64(totalQuestions) {
		a.logger.Warn().
			Str("op", op).
			Str("user_id", userID).
			Str("quiz_id", quizID).
			Float64("score", score).
			Int("total_questions", totalQuestions).
			Msg("dropping quiz attempt with out-of-range score")
		metrics.IncLearningEvent(op, "dropped")
		return
	}
	if !a.validKeys(op, userID, courseID, quizID) {
		return
	}

	percentage := score * 100 / float64(totalQuestions)

	err := a.progress.Apply(ctx, userID, []docstore.Update{
		{Path: coursePath(courseID, "quiz_scores", quizID), Value: percentage},
	})
	if err != nil {
		a.fail(op, userID, courseID, err)
		return
	}

	recorderOrDiscard(rec).Record(models.InteractionEvent{
		Kind:     models.KindQuizAttempt,
		ModuleID: moduleID,
		CourseID: courseID,
		Data: models.QuizData{
			QuizID:         quizID,
			Score:          score,
			TotalQuestions: totalQuestions,
			Percentage:     percentage,
		},
	})

	if percentage >= SkillThreshold {
		a.updateSkill(ctx, userID, moduleID, percentage)
	}
	a.done(ctx, op, userID, courseID, models.WSProgressUpdated)
}

func (a *Aggregator) updateSkill(ctx context.Context, userID, moduleID string, percentage float64) {
	skill, ok := tracking.MapModuleToSkill(moduleID)
	if !ok {
		return
	}
	err := a.analytics.Apply(ctx, userID, []docstore.Update{
		{Path: docstore.FieldPath("skill_assessments", "current_skills", skill), Value: percentage},
		{Path: docstore.FieldPath("skill_assessments", "skill_growth", skill), Value: docstore.ArrayUnion(map[string]any{
			"date":   docstore.ServerTimestamp,
			"level":  percentage,
			"source": moduleID,
		})},
	})
	if err != nil {
		a.fail("skill_update", userID, "", err)
		return
	}
	a.logger.Debug().Str("user_id", userID).Str("skill", skill).Float64("level", percentage).Msg("skill level recorded")
}

// ApplyCourseCompletion moves a course from in-progress to completed.
func (a *Aggregator) ApplyCourseCompletion(ctx context.Context, rec tracking.Recorder, userID, courseID string) {
	const op = "course_completion"
	if !a.validKeys(op, userID, courseID) {
		return
	}

	err := a.progress.Apply(ctx, userID, []docstore.Update{
		{Path: "courses_completed", Value: docstore.Increment(1)},
		{Path: "courses_in_progress", Value: docstore.Increment(-1)},
		{Path: coursePath(courseID, "completed_at"), Value: docstore.ServerTimestamp},
	})
	if err != nil {
		a.fail(op, userID, courseID, err)
		return
	}

	err = a.analytics.Apply(ctx, userID, []docstore.Update{
		{Path: "engagement_metrics.course_completion_rate", Value: docstore.Increment(1)},
	})
	if err != nil {
		a.fail(op, userID, courseID, err)
		return
	}

	recorderOrDiscard(rec).Record(models.InteractionEvent{
		Kind:     models.KindClick,
		CourseID: courseID,
		Data:     models.ClickData{Action: "course_completed"},
	})

	if err := a.enrollments.MarkCompleted(ctx, userID, courseID); err != nil {
		a.logger.Warn().Err(err).
			Str("op", op).
			Str("user_id", userID).
			Str("course_id", courseID).
			Msg("could not mark enrollment completed")
	}
	err = a.analytics.ApplyCourse(ctx, courseID, []docstore.Update{
		{Path: "overview.completions", Value: docstore.Increment(1)},
		{Path: "overview.active_students", Value: docstore.Increment(-1)},
	})
	if err != nil {
		a.logger.Warn().Err(err).
			Str("op", op).
			Str("course_id", courseID).
			Msg("could not update course analytics")
	}
	a.done(ctx, op, userID, courseID, models.WSProgressUpdated)
}

// ApplyLessonProgress records progress within one lesson. Completion is
// sticky: a later report without it leaves the lesson completed.
func (a *Aggregator) ApplyLessonProgress(ctx context.Context, rec tracking.Recorder, userID, courseID, moduleID, lessonID string, progress float64, completed bool) {
	const op = "lesson_progress"
	if !a.validKeys(op, userID, courseID, moduleID, lessonID) {
		return
	}
	progress = clamp(progress, 0, 100)

	updates := []docstore.Update{
		{Path: "progress", Value: progress},
		{Path: "last_accessed_at", Value: docstore.ServerTimestamp},
	}
	if completed {
		updates = append(updates,
			docstore.Update{Path: "completed", Value: true},
			docstore.Update{Path: "completed_at", Value: docstore.ServerTimestamp},
		)
	}
	if err := a.progress.ApplyLesson(ctx, userID, courseID, moduleID, lessonID, updates); err != nil {
		a.fail(op, userID, courseID, err)
		return
	}

	if completed {
		recorderOrDiscard(rec).Record(models.InteractionEvent{
			Kind:     models.KindClick,
			ModuleID: moduleID,
			CourseID: courseID,
			Data:     models.ClickData{Action: "lesson_completed"},
		})
	}
	a.done(ctx, op, userID, courseID, models.WSProgressUpdated)
}

func (a *Aggregator) ApplyBookmark(ctx context.Context, rec tracking.Recorder, userID, courseID, moduleID string) {
	const op = "bookmark"
	if !a.validKeys(op, userID, courseID) {
		return
	}

	err := a.progress.Apply(ctx, userID, []docstore.Update{
		{Path: coursePath(courseID, "bookmarks"), Value: docstore.ArrayUnion(moduleID)},
	})
	if err != nil {
		a.fail(op, userID, courseID, err)
		return
	}

	recorderOrDiscard(rec).Record(models.InteractionEvent{
		Kind:     models.KindBookmarkAdded,
		ModuleID: moduleID,
		CourseID: courseID,
	})
	a.done(ctx, op, userID, courseID, models.WSProgressUpdated)
}

// ApplyNote appends a private note. The recorded interaction carries the
// note's length, not its content.
func (a *Aggregator) ApplyNote(ctx context.Context, rec tracking.Recorder, userID, courseID, moduleID, content string) {
	const op = "note"
	if !a.validKeys(op, userID, courseID) {
		return
	}
	noteID := fmt.Sprintf("note_%d", a.now().UnixMilli())

	err := a.progress.Apply(ctx, userID, []docstore.Update{
		{Path: coursePath(courseID, "notes"), Value: docstore.ArrayUnion(map[string]any{
			"note_id":    noteID,
			"module_id":  moduleID,
			"content":    content,
			"timestamp":  docstore.ServerTimestamp,
			"is_private": true,
		})},
	})
	if err != nil {
		a.fail(op, userID, courseID, err)
		return
	}

	recorderOrDiscard(rec).Record(models.InteractionEvent{
		Kind:     models.KindNoteCreated,
		ModuleID: moduleID,
		CourseID: courseID,
		Data: models.NoteData{
			NoteID:        noteID,
			ContentLength: utf8.RuneCountInString(content),
		},
	})
	a.done(ctx, op, userID, courseID, models.WSProgressUpdated)
}

// IngestSession folds a closed session into the user's session analytics
// and stores its summary. It implements tracking.SessionSink.
func (a *Aggregator) IngestSession(ctx context.Context, userID string, session models.Session) error {
	const op = "ingest_session"

	durationMs := float64(session.Duration.Milliseconds())
	slot := TimeSlot(session.StartTime.In(a.loc).Hour())
	device := session.Device

	err := a.analytics.Transform(ctx, userID, func(snap *docstore.Snapshot) ([]docstore.Update, error) {
		var n, avg float64
		if v, ok := snap.Field("session_data.total_sessions"); ok {
			n, _ = docstore.Number(v)
		}
		if v, ok := snap.Field("session_data.average_session_duration"); ok {
			avg, _ = docstore.Number(v)
		}
		n++
		avg += (durationMs - avg) / n

		return []docstore.Update{
			{Path: "session_data.total_sessions", Value: n},
			{Path: "session_data.average_session_duration", Value: avg},
			{Path: docstore.FieldPath("session_data", "device_types", statKey(string(device.DeviceType))), Value: docstore.Increment(1)},
			{Path: docstore.FieldPath("session_data", "browser_types", statKey(device.Browser)), Value: docstore.Increment(1)},
			{Path: docstore.FieldPath("session_data", "access_patterns", slot), Value: docstore.Increment(1)},
			{Path: "session_data.last_session_date", Value: docstore.ServerTimestamp},
		}, nil
	})
	if err != nil {
		metrics.IncTelemetryFailure(op)
		return fmt.Errorf("failed to update session analytics: %w", err)
	}

	record := models.SessionRecord{
		ID:           session.ID,
		UserID:       userID,
		StartTime:    session.StartTime,
		DurationMs:   session.Duration.Milliseconds(),
		TimeSlot:     slot,
		PageViews:    session.PageViews,
		Interactions: session.Interactions,
		Device:       device,
	}
	if session.EndTime != nil {
		record.EndTime = *session.EndTime
	}
	if err := a.sessions.Save(ctx, record); err != nil {
		metrics.IncTelemetryFailure(op)
		return fmt.Errorf("failed to store session %s: %w", session.ID, err)
	}

	a.publish(ctx, userID, models.WSAnalyticsUpdated, "", op)
	return nil
}

func (a *Aggregator) validKeys(op, userID string, keys ...string) bool {
	for _, k := range append([]string{userID}, keys...) {
		if !docstore.ValidKey(k) {
			a.logger.Warn().Str("op", op).Str("user_id", userID).Str("key", k).Msg("dropping event with invalid id")
			metrics.IncLearningEvent(op, "dropped")
			return false
		}
	}
	return true
}

func (a *Aggregator) fail(op, userID, courseID string, err error) {
	a.logger.Error().Err(err).
		Str("op", op).
		Str("user_id", userID).
		Str("course_id", courseID).
		Msg("failed to persist learning event")
	metrics.IncTelemetryFailure(op)
	metrics.IncLearningEvent(op, "failed")
}

func (a *Aggregator) done(ctx context.Context, op, userID, courseID, notification string) {
	metrics.IncLearningEvent(op, "applied")
	a.publish(ctx, userID, notification, courseID, op)
}

func (a *Aggregator) publish(ctx context.Context, userID, kind, courseID, reason string) {
	if a.publisher == nil {
		return
	}
	msg := models.WSMessage{
		Type:    kind,
		Payload: models.UserUpdateEvent{UserID: userID, CourseID: courseID, Reason: reason},
	}
	if err := a.publisher.PublishUserUpdate(ctx, userID, msg); err != nil {
		a.logger.Debug().Err(err).Str("user_id", userID).Msg("failed to publish user update")
	}
}

// statKey makes a device or browser name usable as a map key in a field
// path.
func statKey(s string) string {
	if !docstore.ValidKey(s) {
		return "Unknown"
	}
	return s
}

func clamp(v, lo, hi float64) float64 {
	switch {
	case v < lo:
		return lo
	case v > hi:
		return hi
	}
	return v
}
