package repository

import (
	"context"
	"errors"

	"coursehub-backend/internal/docstore"
	"coursehub-backend/internal/models"
)

var ErrAlreadyEnrolled = errors.New("already enrolled")

type EnrollmentRepo struct {
	store docstore.Store
}

func NewEnrollmentRepo(store docstore.Store) *EnrollmentRepo {
	return &EnrollmentRepo{store: store}
}

func EnrollmentID(userID, courseID string) string {
	return userID + "_" + courseID
}

func (r *EnrollmentRepo) Get(ctx context.Context, userID, courseID string) (*models.Enrollment, error) {
	snap, err := r.store.Get(ctx, docstore.Doc(collEnrollments, EnrollmentID(userID, courseID)))
	if err != nil {
		return nil, err
	}
	e := &models.Enrollment{}
	if err := snap.DataTo(e); err != nil {
		return nil, err
	}
	return e, nil
}

// Create enrolls the user. An active or completed enrollment yields
// ErrAlreadyEnrolled; a paused or cancelled one is reactivated.
func (r *EnrollmentRepo) Create(ctx context.Context, userID, courseID string) error {
	id := EnrollmentID(userID, courseID)
	return r.store.RunTransaction(ctx, docstore.Doc(collEnrollments, id), func(snap *docstore.Snapshot) ([]docstore.Update, error) {
		if status, ok := snap.Field("status"); ok {
			if status == models.EnrollmentActive || status == models.EnrollmentCompleted {
				return nil, ErrAlreadyEnrolled
			}
		}
		return []docstore.Update{
			{Path: "id", Value: id},
			{Path: "user_id", Value: userID},
			{Path: "course_id", Value: courseID},
			{Path: "status", Value: models.EnrollmentActive},
			{Path: "progress", Value: 0},
			{Path: "enrolled_at", Value: docstore.ServerTimestamp},
			{Path: "completed_at", Value: docstore.DeleteField},
		}, nil
	})
}

func (r *EnrollmentRepo) ListByUser(ctx context.Context, userID string) ([]models.Enrollment, error) {
	snaps, err := r.store.Query(ctx, docstore.Collection(collEnrollments).
		Where("user_id", docstore.OpEq, userID).
		OrderBy("enrolled_at", docstore.Desc))
	if err != nil {
		return nil, err
	}
	return decodeAll[models.Enrollment](snaps)
}

func (r *EnrollmentRepo) MarkCompleted(ctx context.Context, userID, courseID string) error {
	return r.store.Update(ctx, docstore.Doc(collEnrollments, EnrollmentID(userID, courseID)), []docstore.Update{
		{Path: "status", Value: models.EnrollmentCompleted},
		{Path: "progress", Value: 100},
		{Path: "completed_at", Value: docstore.ServerTimestamp},
	})
}
