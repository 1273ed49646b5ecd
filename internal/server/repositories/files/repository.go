package files

import (
	"context"

	"fileshare/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, file *models.File) (*models.File, error)
	GetByID(ctx context.Context, id int64) (*models.File, error)
	SelectAll(ctx context.Context) ([]*models.File, error)
}
