package folders

import (
	"context"

	"filevault/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, folder *models.Folder) (*models.Folder, error)
	GetByID(ctx context.Context, id int64) (*models.Folder, error)
	ListRoot(ctx context.Context, userID int64) ([]*models.Folder, error)
	ListChildren(ctx context.Context, parentID int64) ([]*models.Folder, error)
	Rename(ctx context.Context, id int64, name string) error
	Delete(ctx context.Context, id int64) error
}
