// Package files provides persistence for file metadata rows.
package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"filevault/internal/common"
	"filevault/internal/dbx"
	"filevault/internal/server/models"
)

// PostgresRepository implements file metadata storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a file row and returns it with id and created_at filled.
// Callers must only invoke this after the blob is confirmed stored.
func (r *PostgresRepository) Create(ctx context.Context, file *models.File) (*models.File, error) {
	query :=
		`INSERT INTO files (filename, filepath, storage_key, mimetype, size, user_id, folder_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		file.Filename, file.Filepath, file.StorageKey, file.Mimetype, file.Size, file.UserID, file.FolderID).
		Scan(&file.ID, &file.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return file, nil
}

// GetByID returns the file with the given id or common.ErrorNotFound.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.File, error) {
	query :=
		`SELECT id, filename, filepath, storage_key, mimetype, size, user_id, folder_id, created_at FROM files
		 WHERE id = $1
		 `

	file := &models.File{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&file.ID, &file.Filename, &file.Filepath, &file.StorageKey, &file.Mimetype,
			&file.Size, &file.UserID, &file.FolderID, &file.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return file, nil
}

// ListByFolder returns the files directly inside folderID.
func (r *PostgresRepository) ListByFolder(ctx context.Context, folderID int64) ([]*models.File, error) {
	query :=
		`SELECT id, filename, filepath, storage_key, mimetype, size, user_id, folder_id, created_at FROM files
		 WHERE folder_id = $1
		 `

	return r.list(ctx, query, folderID)
}

// ListBySubtree returns every file contained anywhere under folderID,
// the folder's own files included. Used to collect blob locators before a
// cascading folder delete.
func (r *PostgresRepository) ListBySubtree(ctx context.Context, folderID int64) ([]*models.File, error) {
	query :=
		`WITH RECURSIVE subtree AS (
		     SELECT id FROM folders WHERE id = $1
		     UNION ALL
		     SELECT f.id FROM folders f JOIN subtree s ON f.parent_id = s.id
		 )
		 SELECT id, filename, filepath, storage_key, mimetype, size, user_id, folder_id, created_at FROM files
		 WHERE folder_id IN (SELECT id FROM subtree)
		 `

	return r.list(ctx, query, folderID)
}

func (r *PostgresRepository) list(ctx context.Context, query string, arg any) ([]*models.File, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.File
	for rows.Next() {
		var item models.File
		if err := rows.Scan(&item.ID, &item.Filename, &item.Filepath, &item.StorageKey, &item.Mimetype,
			&item.Size, &item.UserID, &item.FolderID, &item.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Delete removes the file row. common.ErrorNotFound when no row matched.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM files WHERE id = $1`

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
