package repository

import (
	"context"

	"coursehub-backend/internal/docstore"
	"coursehub-backend/internal/models"
)

type ProgressRepo struct {
	store docstore.Store
}

func NewProgressRepo(store docstore.Store) *ProgressRepo {
	return &ProgressRepo{store: store}
}

func (r *ProgressRepo) Get(ctx context.Context, userID string) (*models.UserProgress, error) {
	snap, err := r.store.Get(ctx, docstore.Doc(collProgress, userID))
	if err != nil {
		return nil, err
	}
	p := &models.UserProgress{}
	if err := snap.DataTo(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Init creates the empty progress record unless one exists.
func (r *ProgressRepo) Init(ctx context.Context, userID string) error {
	return r.store.RunTransaction(ctx, docstore.Doc(collProgress, userID), func(snap *docstore.Snapshot) ([]docstore.Update, error) {
		if snap.Exists() {
			return nil, nil
		}
		return []docstore.Update{
			{Path: "user_id", Value: userID},
			{Path: "courses_completed", Value: 0},
			{Path: "courses_in_progress", Value: 0},
			{Path: "courses", Value: map[string]any{}},
		}, nil
	})
}

// Apply writes field updates, creating the record when missing.
func (r *ProgressRepo) Apply(ctx context.Context, userID string, updates []docstore.Update) error {
	return r.store.Upsert(ctx, docstore.Doc(collProgress, userID), updates)
}

func LessonProgressID(userID, courseID, moduleID, lessonID string) string {
	return userID + "_" + courseID + "_" + moduleID + "_" + lessonID
}

// ApplyLesson writes field updates to one lesson's progress record,
// creating it with its identifying fields when missing.
func (r *ProgressRepo) ApplyLesson(ctx context.Context, userID, courseID, moduleID, lessonID string, updates []docstore.Update) error {
	id := LessonProgressID(userID, courseID, moduleID, lessonID)
	return r.store.Upsert(ctx, docstore.Doc(collLessonProgress, id), append([]docstore.Update{
		{Path: "id", Value: id},
		{Path: "user_id", Value: userID},
		{Path: "course_id", Value: courseID},
		{Path: "module_id", Value: moduleID},
		{Path: "lesson_id", Value: lessonID},
	}, updates...))
}

// ListLessons returns the user's lesson records within a course, ordered by
// record id.
func (r *ProgressRepo) ListLessons(ctx context.Context, userID, courseID string) ([]models.LessonProgress, error) {
	snaps, err := r.store.Query(ctx, docstore.Collection(collLessonProgress).
		Where("user_id", docstore.OpEq, userID).
		Where("course_id", docstore.OpEq, courseID))
	if err != nil {
		return nil, err
	}
	return decodeAll[models.LessonProgress](snaps)
}
