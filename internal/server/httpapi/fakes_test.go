package httpapi

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"filevault/internal/common"
	"filevault/internal/dbx"
	"filevault/internal/logging"
	"filevault/internal/server/blobstore"
	"filevault/internal/server/models"
	filesrepo "filevault/internal/server/repositories/files"
	foldersrepo "filevault/internal/server/repositories/folders"
	usersrepo "filevault/internal/server/repositories/users"
)

// memStore is an in-memory stand-in for the persistence layer so handler
// tests can run full request flows without a database. It mimics the
// cascade behaviour of the schema: deleting a folder removes its subtree
// and the file rows inside it.
type memStore struct {
	mu      sync.Mutex
	nextID  int64
	users   map[int64]*models.User
	folders map[int64]*models.Folder
	files   map[int64]*models.File
}

func newMemStore() *memStore {
	return &memStore{
		users:   map[int64]*models.User{},
		folders: map[int64]*models.Folder{},
		files:   map[int64]*models.File{},
	}
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

// subtreeIDs returns folderID plus every descendant folder id.
func (s *memStore) subtreeIDs(folderID int64) map[int64]bool {
	ids := map[int64]bool{folderID: true}
	for changed := true; changed; {
		changed = false
		for _, f := range s.folders {
			if f.ParentID != nil && ids[*f.ParentID] && !ids[f.ID] {
				ids[f.ID] = true
				changed = true
			}
		}
	}
	return ids
}

type memUsersRepo struct{ s *memStore }

func (r *memUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return nil, common.ErrorAlreadyExists
		}
	}
	u.ID = r.s.id()
	r.s.users[u.ID] = u
	return u, nil
}

func (r *memUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *memUsersRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

type memFoldersRepo struct{ s *memStore }

func (r *memFoldersRepo) Create(ctx context.Context, f *models.Folder) (*models.Folder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	f.ID = r.s.id()
	r.s.folders[f.ID] = f
	return f, nil
}

func (r *memFoldersRepo) GetByID(ctx context.Context, id int64) (*models.Folder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	f, ok := r.s.folders[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return f, nil
}

func (r *memFoldersRepo) ListRoot(ctx context.Context, userID int64) ([]*models.Folder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Folder
	for _, f := range r.s.folders {
		if f.UserID == userID && f.ParentID == nil {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *memFoldersRepo) ListChildren(ctx context.Context, parentID int64) ([]*models.Folder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Folder
	for _, f := range r.s.folders {
		if f.ParentID != nil && *f.ParentID == parentID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *memFoldersRepo) Rename(ctx context.Context, id int64, name string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	f, ok := r.s.folders[id]
	if !ok {
		return common.ErrorNotFound
	}
	f.Name = name
	return nil
}

func (r *memFoldersRepo) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.folders[id]; !ok {
		return common.ErrorNotFound
	}
	ids := r.s.subtreeIDs(id)
	for fid := range ids {
		delete(r.s.folders, fid)
	}
	for fileID, file := range r.s.files {
		if file.FolderID != nil && ids[*file.FolderID] {
			delete(r.s.files, fileID)
		}
	}
	return nil
}

type memFilesRepo struct{ s *memStore }

func (r *memFilesRepo) Create(ctx context.Context, f *models.File) (*models.File, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	f.ID = r.s.id()
	r.s.files[f.ID] = f
	return f, nil
}

func (r *memFilesRepo) GetByID(ctx context.Context, id int64) (*models.File, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	f, ok := r.s.files[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return f, nil
}

func (r *memFilesRepo) ListByFolder(ctx context.Context, folderID int64) ([]*models.File, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.File
	for _, f := range r.s.files {
		if f.FolderID != nil && *f.FolderID == folderID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *memFilesRepo) ListBySubtree(ctx context.Context, folderID int64) ([]*models.File, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ids := r.s.subtreeIDs(folderID)
	var out []*models.File
	for _, f := range r.s.files {
		if f.FolderID != nil && ids[*f.FolderID] {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *memFilesRepo) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.files[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.s.files, id)
	return nil
}

type memRepoManager struct{ s *memStore }

func (m *memRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *memRepoManager) Users(dbx.DBTX) usersrepo.Repository          { return &memUsersRepo{s: m.s} }
func (m *memRepoManager) Folders(dbx.DBTX) foldersrepo.Repository      { return &memFoldersRepo{s: m.s} }
func (m *memRepoManager) Files(dbx.DBTX) filesrepo.Repository          { return &memFilesRepo{s: m.s} }

// memBlobStore keeps blob bytes in memory. With redirect set it behaves
// like the remote variant and resolves to a redirect target instead of a
// byte stream.
type memBlobStore struct {
	mu       sync.Mutex
	n        int
	blobs    map[string][]byte
	deleted  []string
	redirect bool
}

func newMemBlobStore() *memBlobStore {
	return &memBlobStore{blobs: map[string][]byte{}}
}

func (b *memBlobStore) Store(ctx context.Context, content io.Reader, originalName string) (*blobstore.StoredObject, error) {
	data, err := io.ReadAll(content)
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.n++
	key := fmt.Sprintf("blob-%d", b.n)
	b.blobs[key] = data
	return &blobstore.StoredObject{Locator: "uploads/" + key, StorageKey: key}, nil
}

func (b *memBlobStore) Delete(ctx context.Context, storageKey string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.blobs, storageKey)
	b.deleted = append(b.deleted, storageKey)
	return nil
}

func (b *memBlobStore) Resolve(ctx context.Context, obj blobstore.StoredObject) (*blobstore.Resolution, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.redirect {
		return &blobstore.Resolution{Redirect: "https://blobs.example.com/" + obj.StorageKey}, nil
	}
	data, ok := b.blobs[obj.StorageKey]
	if !ok {
		return nil, common.ErrorStorageFailure
	}
	return &blobstore.Resolution{Content: io.NopCloser(bytes.NewReader(data))}, nil
}

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.DiscardHandler))
}
