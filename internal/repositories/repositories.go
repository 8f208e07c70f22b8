// Package repositories holds the PostgreSQL persistence for accounts,
// refresh sessions and video records.
package repositories

import (
	"context"

	"github.com/shortreel/backend/internal/models"
)

type UserRepository interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
}

// VideoRepository lists newest first and reports ErrNotFound for unknown ids.
type VideoRepository interface {
	Create(ctx context.Context, video models.Video) (models.Video, error)
	List(ctx context.Context, query string) ([]models.Video, error)
	FindByID(ctx context.Context, id string) (models.Video, error)
	Delete(ctx context.Context, id string) error
}
