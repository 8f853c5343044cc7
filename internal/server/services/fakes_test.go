package services

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"filevault/internal/common"
	"filevault/internal/dbx"
	"filevault/internal/logging"
	"filevault/internal/server/blobstore"
	"filevault/internal/server/models"
	filesrepo "filevault/internal/server/repositories/files"
	foldersrepo "filevault/internal/server/repositories/folders"
	usersrepo "filevault/internal/server/repositories/users"
)

// --- fakes shared by the service tests ---

type fakeUsersRepo struct {
	createOut *models.User
	createErr error

	byEmail map[string]*models.User
	getErr  error
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.createOut != nil {
		return f.createOut, nil
	}
	u.ID = 1
	return u, nil
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	for _, u := range f.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

type fakeFoldersRepo struct {
	byID map[int64]*models.Folder

	created  []*models.Folder
	rootOut  []*models.Folder
	children map[int64][]*models.Folder

	renamed map[int64]string
	deleted []int64

	createErr error
	deleteErr error
}

func (f *fakeFoldersRepo) Create(ctx context.Context, folder *models.Folder) (*models.Folder, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	folder.ID = int64(len(f.created) + 100)
	f.created = append(f.created, folder)
	return folder, nil
}

func (f *fakeFoldersRepo) GetByID(ctx context.Context, id int64) (*models.Folder, error) {
	folder, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return folder, nil
}

func (f *fakeFoldersRepo) ListRoot(ctx context.Context, userID int64) ([]*models.Folder, error) {
	return f.rootOut, nil
}

func (f *fakeFoldersRepo) ListChildren(ctx context.Context, parentID int64) ([]*models.Folder, error) {
	return f.children[parentID], nil
}

func (f *fakeFoldersRepo) Rename(ctx context.Context, id int64, name string) error {
	if f.renamed == nil {
		f.renamed = map[int64]string{}
	}
	f.renamed[id] = name
	return nil
}

func (f *fakeFoldersRepo) Delete(ctx context.Context, id int64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeFilesRepo struct {
	byID     map[int64]*models.File
	byFolder map[int64][]*models.File
	subtree  map[int64][]*models.File

	created   []*models.File
	deleted   []int64
	createErr error
	deleteErr error
}

func (f *fakeFilesRepo) Create(ctx context.Context, file *models.File) (*models.File, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	file.ID = int64(len(f.created) + 500)
	f.created = append(f.created, file)
	return file, nil
}

func (f *fakeFilesRepo) GetByID(ctx context.Context, id int64) (*models.File, error) {
	file, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return file, nil
}

func (f *fakeFilesRepo) ListByFolder(ctx context.Context, folderID int64) ([]*models.File, error) {
	return f.byFolder[folderID], nil
}

func (f *fakeFilesRepo) ListBySubtree(ctx context.Context, folderID int64) ([]*models.File, error) {
	return f.subtree[folderID], nil
}

func (f *fakeFilesRepo) Delete(ctx context.Context, id int64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	d *fakeFoldersRepo
	f *fakeFilesRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error    { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository          { return m.u }
func (m *fakeRepoManager) Folders(db dbx.DBTX) foldersrepo.Repository      { return m.d }
func (m *fakeRepoManager) Files(db dbx.DBTX) filesrepo.Repository          { return m.f }

type fakeBlobStore struct {
	storeOut *blobstore.StoredObject
	storeErr error

	stored  []string
	deleted []string
	delErr  error

	resolveOut *blobstore.Resolution
	resolveErr error
}

func (b *fakeBlobStore) Store(ctx context.Context, content io.Reader, originalName string) (*blobstore.StoredObject, error) {
	if b.storeErr != nil {
		return nil, b.storeErr
	}
	b.stored = append(b.stored, originalName)
	if b.storeOut != nil {
		return b.storeOut, nil
	}
	return &blobstore.StoredObject{Locator: "uploads/" + originalName, StorageKey: originalName}, nil
}

func (b *fakeBlobStore) Delete(ctx context.Context, storageKey string) error {
	b.deleted = append(b.deleted, storageKey)
	return b.delErr
}

func (b *fakeBlobStore) Resolve(ctx context.Context, obj blobstore.StoredObject) (*blobstore.Resolution, error) {
	if b.resolveErr != nil {
		return nil, b.resolveErr
	}
	if b.resolveOut != nil {
		return b.resolveOut, nil
	}
	return &blobstore.Resolution{Redirect: obj.Locator}, nil
}

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.DiscardHandler))
}

func newCatalog(t *testing.T, rm *fakeRepoManager, blobs *fakeBlobStore) *CatalogService {
	t.Helper()
	return NewCatalogService(nil, rm, blobs, testLogger())
}

// newCatalogTx backs the service with a sqlmock database so operations that
// run inside a transaction can assert Begin/Commit/Rollback.
func newCatalogTx(t *testing.T, rm *fakeRepoManager, blobs *fakeBlobStore) (*CatalogService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewCatalogService(db, rm, blobs, testLogger()), mock
}
