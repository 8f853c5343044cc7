package files

import (
	"context"

	"filevault/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, file *models.File) (*models.File, error)
	GetByID(ctx context.Context, id int64) (*models.File, error)
	ListByFolder(ctx context.Context, folderID int64) ([]*models.File, error)
	ListBySubtree(ctx context.Context, folderID int64) ([]*models.File, error)
	Delete(ctx context.Context, id int64) error
}
