package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	"filevault/internal/common"
	"filevault/internal/dbx"
	"filevault/internal/logging"
	"filevault/internal/server/blobstore"
	"filevault/internal/server/models"
	"filevault/internal/server/repositories/repomanager"
)

// FolderView is a folder together with its direct children (one level).
type FolderView struct {
	Folder     *models.Folder
	Subfolders []*models.Folder
	Files      []*models.File
}

// FileView is a file together with its parent folder, when it has one.
type FileView struct {
	File   *models.File
	Folder *models.Folder
}

// CatalogService owns the folder/file tree: per-user ownership checks,
// the cascade on folder deletion, and coordination of blob lifecycle with
// metadata lifecycle. The metadata store and the blob store are two
// independently consistent systems; the ordering rules here (blob before
// metadata on upload, metadata after best-effort blob delete on removal)
// are the sole consistency mechanism, and an orphaned blob after a failed
// delete is an accepted failure mode.
type CatalogService struct {
	db     *sql.DB
	rm     repomanager.RepositoryManager
	blobs  blobstore.BlobStore
	logger logging.Logger
}

func NewCatalogService(db *sql.DB, rm repomanager.RepositoryManager, blobs blobstore.BlobStore, logger logging.Logger) *CatalogService {
	return &CatalogService{db: db, rm: rm, blobs: blobs, logger: logger.With("module", "catalog")}
}

// requireFolder loads a folder and verifies the requester owns it.
func (s *CatalogService) requireFolder(ctx context.Context, folderID, requesterID int64) (*models.Folder, error) {
	folder, err := s.rm.Folders(s.db).GetByID(ctx, folderID)
	if err != nil {
		return nil, err
	}
	if folder.UserID != requesterID {
		return nil, common.ErrorForbidden
	}
	return folder, nil
}

// CreateFolder creates a folder for ownerID, nested under parentID when
// given. The parent must exist and belong to the same user.
func (s *CatalogService) CreateFolder(ctx context.Context, ownerID int64, name string, parentID *int64) (*models.Folder, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: folder name is required", common.ErrorValidation)
	}

	if parentID != nil {
		if _, err := s.requireFolder(ctx, *parentID, ownerID); err != nil {
			return nil, err
		}
	}

	folder := &models.Folder{Name: name, UserID: ownerID, ParentID: parentID}
	folder, err := s.rm.Folders(s.db).Create(ctx, folder)
	if err != nil {
		return nil, fmt.Errorf("error creating folder: %w", err)
	}

	return folder, nil
}

// ListRootFolders returns ownerID's folders that have no parent.
func (s *CatalogService) ListRootFolders(ctx context.Context, ownerID int64) ([]*models.Folder, error) {
	return s.rm.Folders(s.db).ListRoot(ctx, ownerID)
}

// GetFolder returns the folder plus its direct files and subfolders.
func (s *CatalogService) GetFolder(ctx context.Context, folderID, requesterID int64) (*FolderView, error) {
	folder, err := s.requireFolder(ctx, folderID, requesterID)
	if err != nil {
		return nil, err
	}

	subfolders, err := s.rm.Folders(s.db).ListChildren(ctx, folderID)
	if err != nil {
		return nil, err
	}
	files, err := s.rm.Files(s.db).ListByFolder(ctx, folderID)
	if err != nil {
		return nil, err
	}

	return &FolderView{Folder: folder, Subfolders: subfolders, Files: files}, nil
}

// RenameFolder updates the folder name. Ownership is verified before the
// write; a requester that does not own the folder never mutates it.
func (s *CatalogService) RenameFolder(ctx context.Context, folderID, requesterID int64, newName string) error {
	if newName == "" {
		return fmt.Errorf("%w: folder name is required", common.ErrorValidation)
	}

	if _, err := s.requireFolder(ctx, folderID, requesterID); err != nil {
		return err
	}

	return s.rm.Folders(s.db).Rename(ctx, folderID, newName)
}

// DeleteFolder removes the folder and, transitively, every descendant folder
// and contained file. Blob deletion is best-effort for the whole subtree:
// each failure is logged and never aborts the delete. The subtree listing and
// the folder row delete run in one transaction, so the set of blobs cleaned
// up matches exactly the rows the schema's cascade rules remove.
func (s *CatalogService) DeleteFolder(ctx context.Context, folderID, requesterID int64) error {
	if _, err := s.requireFolder(ctx, folderID, requesterID); err != nil {
		return err
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		descendants, err := s.rm.Files(tx).ListBySubtree(ctx, folderID)
		if err != nil {
			return err
		}
		for _, f := range descendants {
			if err := s.blobs.Delete(ctx, f.StorageKey); err != nil {
				s.logger.Warn(ctx, "blob delete failed, continuing", "storage_key", f.StorageKey, "error", err)
			}
		}

		return s.rm.Folders(tx).Delete(ctx, folderID)
	})
}

// UploadFile stores the blob first and writes the metadata row only after
// the blob is confirmed stored. If the metadata write fails the fresh blob
// is removed again, best-effort.
func (s *CatalogService) UploadFile(ctx context.Context, ownerID int64, folderID *int64, filename, mimetype string, size int64, content io.Reader) (*models.File, error) {
	if filename == "" {
		return nil, fmt.Errorf("%w: no file provided", common.ErrorValidation)
	}

	if folderID != nil {
		if _, err := s.requireFolder(ctx, *folderID, ownerID); err != nil {
			return nil, err
		}
	}

	obj, err := s.blobs.Store(ctx, content, filename)
	if err != nil {
		return nil, err
	}

	file := &models.File{
		Filename:   filename,
		Filepath:   obj.Locator,
		StorageKey: obj.StorageKey,
		Mimetype:   mimetype,
		Size:       size,
		UserID:     ownerID,
		FolderID:   folderID,
	}

	file, err = s.rm.Files(s.db).Create(ctx, file)
	if err != nil {
		if delErr := s.blobs.Delete(ctx, obj.StorageKey); delErr != nil {
			s.logger.Warn(ctx, "orphaned blob after failed metadata write", "storage_key", obj.StorageKey, "error", delErr)
		}
		return nil, fmt.Errorf("error creating file record: %w", err)
	}

	return file, nil
}

// requireFile loads a file and verifies the requester owns it.
func (s *CatalogService) requireFile(ctx context.Context, fileID, requesterID int64) (*models.File, error) {
	file, err := s.rm.Files(s.db).GetByID(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if file.UserID != requesterID {
		return nil, common.ErrorForbidden
	}
	return file, nil
}

// GetFile returns the file plus its parent folder reference.
func (s *CatalogService) GetFile(ctx context.Context, fileID, requesterID int64) (*FileView, error) {
	file, err := s.requireFile(ctx, fileID, requesterID)
	if err != nil {
		return nil, err
	}

	view := &FileView{File: file}
	if file.FolderID != nil {
		folder, err := s.rm.Folders(s.db).GetByID(ctx, *file.FolderID)
		if err != nil && !errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		view.Folder = folder
	}

	return view, nil
}

// DownloadFile resolves the file's blob for delivery: a byte stream for the
// local variant, a redirect target for the remote one.
func (s *CatalogService) DownloadFile(ctx context.Context, fileID, requesterID int64) (*models.File, *blobstore.Resolution, error) {
	file, err := s.requireFile(ctx, fileID, requesterID)
	if err != nil {
		return nil, nil, err
	}

	res, err := s.blobs.Resolve(ctx, blobstore.StoredObject{Locator: file.Filepath, StorageKey: file.StorageKey})
	if err != nil {
		return nil, nil, err
	}

	return file, res, nil
}

// DeleteFile removes the metadata row after a best-effort blob delete.
// The caller sees success even when the blob delete failed; metadata
// deletion is authoritative.
func (s *CatalogService) DeleteFile(ctx context.Context, fileID, requesterID int64) error {
	file, err := s.requireFile(ctx, fileID, requesterID)
	if err != nil {
		return err
	}

	if err := s.blobs.Delete(ctx, file.StorageKey); err != nil {
		s.logger.Warn(ctx, "blob delete failed, continuing", "storage_key", file.StorageKey, "error", err)
	}

	return s.rm.Files(s.db).Delete(ctx, fileID)
}
