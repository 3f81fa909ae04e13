package repository

import (
	"context"

	"coursehub-backend/internal/docstore"
	"coursehub-backend/internal/models"
)

type SessionRepo struct {
	store docstore.Store
}

func NewSessionRepo(store docstore.Store) *SessionRepo {
	return &SessionRepo{store: store}
}

func (r *SessionRepo) Save(ctx context.Context, record models.SessionRecord) error {
	return r.store.Set(ctx, docstore.Doc(collSessions, record.ID), record, false)
}

// ListRecent returns the user's latest closed sessions.
func (r *SessionRepo) ListRecent(ctx context.Context, userID string, limit int) ([]models.SessionRecord, error) {
	q := docstore.Collection(collSessions).
		Where("user_id", docstore.OpEq, userID).
		OrderBy("start_time", docstore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}
	snaps, err := r.store.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	return decodeAll[models.SessionRecord](snaps)
}
