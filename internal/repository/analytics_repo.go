package repository

import (
	"context"

	"coursehub-backend/internal/docstore"
	"coursehub-backend/internal/models"
)

type AnalyticsRepo struct {
	store docstore.Store
}

func NewAnalyticsRepo(store docstore.Store) *AnalyticsRepo {
	return &AnalyticsRepo{store: store}
}

func (r *AnalyticsRepo) Get(ctx context.Context, userID string) (*models.UserAnalytics, error) {
	snap, err := r.store.Get(ctx, docstore.Doc(collAnalytics, userID))
	if err != nil {
		return nil, err
	}
	a := &models.UserAnalytics{}
	if err := snap.DataTo(a); err != nil {
		return nil, err
	}
	return a, nil
}

// Init creates the zero-valued analytics record unless one exists.
func (r *AnalyticsRepo) Init(ctx context.Context, userID string) error {
	doc, err := toDocument(models.NewUserAnalytics(userID))
	if err != nil {
		return err
	}
	return r.store.RunTransaction(ctx, docstore.Doc(collAnalytics, userID), func(snap *docstore.Snapshot) ([]docstore.Update, error) {
		if snap.Exists() {
			return nil, nil
		}
		updates := make([]docstore.Update, 0, len(doc))
		for k, v := range doc {
			updates = append(updates, docstore.Update{Path: k, Value: v})
		}
		return updates, nil
	})
}

// Apply writes field updates, creating the record when missing.
func (r *AnalyticsRepo) Apply(ctx context.Context, userID string, updates []docstore.Update) error {
	return r.store.Upsert(ctx, docstore.Doc(collAnalytics, userID), updates)
}

// Transform runs a read-modify-write of the analytics record.
func (r *AnalyticsRepo) Transform(ctx context.Context, userID string, fn docstore.TxFunc) error {
	return r.store.RunTransaction(ctx, docstore.Doc(collAnalytics, userID), fn)
}

// GetCourse reads the aggregate record of a course.
func (r *AnalyticsRepo) GetCourse(ctx context.Context, courseID string) (*models.CourseAnalytics, error) {
	snap, err := r.store.Get(ctx, docstore.Doc(collCourseAnalytics, courseID))
	if err != nil {
		return nil, err
	}
	a := &models.CourseAnalytics{}
	if err := snap.DataTo(a); err != nil {
		return nil, err
	}
	a.CourseID = courseID
	return a, nil
}

// ApplyCourse writes field updates to a course's aggregate record,
// creating it when missing.
func (r *AnalyticsRepo) ApplyCourse(ctx context.Context, courseID string, updates []docstore.Update) error {
	return r.store.Upsert(ctx, docstore.Doc(collCourseAnalytics, courseID), append([]docstore.Update{
		{Path: "course_id", Value: courseID},
		{Path: "updated_at", Value: docstore.ServerTimestamp},
	}, updates...))
}
