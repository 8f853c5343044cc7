package blobstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"filevault/internal/common"
)

// LocalStore keeps blobs in a single flat directory. Names are
// collision-resistant: "file-<unix nanos><original extension>".
type LocalStore struct {
	dir string
}

// NewLocalStore constructs a store over an existing directory.
func NewLocalStore(dir string) *LocalStore {
	return &LocalStore{dir: dir}
}

// nowNano is a seam for tests.
var nowNano = func() int64 { return time.Now().UnixNano() }

// Store writes content to a new file in the store directory. On any write
// error the partial file is removed so a failed Store leaves nothing behind.
func (s *LocalStore) Store(ctx context.Context, content io.Reader, originalName string) (*StoredObject, error) {
	name := "file-" + strconv.FormatInt(nowNano(), 10) + filepath.Ext(originalName)
	path := filepath.Join(s.dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o660)
	if err != nil {
		return nil, fmt.Errorf("%w: create %s: %v", common.ErrorStorageFailure, name, err)
	}

	if _, err := io.Copy(f, content); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return nil, fmt.Errorf("%w: write %s: %v", common.ErrorStorageFailure, name, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("%w: close %s: %v", common.ErrorStorageFailure, name, err)
	}

	return &StoredObject{Locator: filepath.Join(filepath.Base(s.dir), name), StorageKey: name}, nil
}

// Delete removes the named blob. A missing file is not an error.
func (s *LocalStore) Delete(ctx context.Context, storageKey string) error {
	err := os.Remove(filepath.Join(s.dir, storageKey))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: remove %s: %v", common.ErrorStorageFailure, storageKey, err)
	}
	return nil
}

// Resolve opens the blob for streaming.
func (s *LocalStore) Resolve(ctx context.Context, obj StoredObject) (*Resolution, error) {
	f, err := os.Open(filepath.Join(s.dir, obj.StorageKey))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("%w: open %s: %v", common.ErrorStorageFailure, obj.StorageKey, err)
	}
	return &Resolution{Content: f}, nil
}
