package users

import (
	"context"

	"github.com/Kayvinh/messagely/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, username string) error
	Exists(ctx context.Context, username string) (bool, error)
	List(ctx context.Context) ([]models.User, error)
}
