package users

import (
	"context"

	"github.com/dkruglov/fileshare/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByName(ctx context.Context, name string) (*models.User, error)
	CountByEmail(ctx context.Context, email string) (int64, error)
}
