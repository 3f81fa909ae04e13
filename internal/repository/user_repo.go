package repository

import (
	"context"

	"coursehub-backend/internal/docstore"
	"coursehub-backend/internal/models"
)

type UserRepo struct {
	store docstore.Store
}

func NewUserRepo(store docstore.Store) *UserRepo {
	return &UserRepo{store: store}
}

func (r *UserRepo) GetByID(ctx context.Context, userID string) (*models.UserProfile, error) {
	snap, err := r.store.Get(ctx, docstore.Doc(collUsers, userID))
	if err != nil {
		return nil, err
	}
	user := &models.UserProfile{}
	if err := snap.DataTo(user); err != nil {
		return nil, err
	}
	return user, nil
}

// Create writes a new user document with server-side creation and login
// timestamps.
func (r *UserRepo) Create(ctx context.Context, user *models.UserProfile) error {
	doc, err := toDocument(user)
	if err != nil {
		return err
	}
	doc["created_at"] = docstore.ServerTimestamp
	doc["last_login_at"] = docstore.ServerTimestamp
	return r.store.Set(ctx, docstore.Doc(collUsers, user.UserID), doc, false)
}

func (r *UserRepo) UpdateLastLogin(ctx context.Context, userID string) error {
	return r.store.Update(ctx, docstore.Doc(collUsers, userID), []docstore.Update{
		{Path: "last_login_at", Value: docstore.ServerTimestamp},
	})
}

// Update applies field updates and stamps last_login_at.
func (r *UserRepo) Update(ctx context.Context, userID string, updates []docstore.Update) error {
	updates = append(updates, docstore.Update{Path: "last_login_at", Value: docstore.ServerTimestamp})
	return r.store.Update(ctx, docstore.Doc(collUsers, userID), updates)
}
