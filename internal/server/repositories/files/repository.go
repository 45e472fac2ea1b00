package files

import (
	"context"

	"github.com/dkruglov/fileshare/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, file *models.File) (*models.File, error)
	FindByLinkDigest(ctx context.Context, digest string) ([]*models.File, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	SoftDelete(ctx context.Context, id int64) error
}
