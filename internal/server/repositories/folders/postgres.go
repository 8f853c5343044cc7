// Package folders provides persistence for the folder tree.
package folders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"filevault/internal/common"
	"filevault/internal/dbx"
	"filevault/internal/server/models"
)

// PostgresRepository implements folder storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a folder row and returns it with id and timestamps filled.
func (r *PostgresRepository) Create(ctx context.Context, folder *models.Folder) (*models.Folder, error) {
	query :=
		`INSERT INTO folders (name, user_id, parent_id)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query, folder.Name, folder.UserID, folder.ParentID).
		Scan(&folder.ID, &folder.CreatedAt, &folder.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return folder, nil
}

// GetByID returns the folder with the given id or common.ErrorNotFound.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Folder, error) {
	query :=
		`SELECT id, name, user_id, parent_id, created_at, updated_at FROM folders
		 WHERE id = $1
		 `

	folder := &models.Folder{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&folder.ID, &folder.Name, &folder.UserID, &folder.ParentID, &folder.CreatedAt, &folder.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return folder, nil
}

// ListRoot returns the folders without a parent owned by userID.
func (r *PostgresRepository) ListRoot(ctx context.Context, userID int64) ([]*models.Folder, error) {
	query :=
		`SELECT id, name, user_id, parent_id, created_at, updated_at FROM folders
		 WHERE user_id = $1 AND parent_id IS NULL
		 `

	return r.list(ctx, query, userID)
}

// ListChildren returns the direct subfolders of parentID.
func (r *PostgresRepository) ListChildren(ctx context.Context, parentID int64) ([]*models.Folder, error) {
	query :=
		`SELECT id, name, user_id, parent_id, created_at, updated_at FROM folders
		 WHERE parent_id = $1
		 `

	return r.list(ctx, query, parentID)
}

func (r *PostgresRepository) list(ctx context.Context, query string, arg any) ([]*models.Folder, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Folder
	for rows.Next() {
		var item models.Folder
		if err := rows.Scan(&item.ID, &item.Name, &item.UserID, &item.ParentID, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Rename updates the folder name. common.ErrorNotFound when no row matched.
func (r *PostgresRepository) Rename(ctx context.Context, id int64, name string) error {
	query := `UPDATE folders SET name = $2, updated_at = now() WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, name)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// Delete removes the folder row. Descendant folders and files go with it via
// the ON DELETE CASCADE rules declared in the schema.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM folders WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
