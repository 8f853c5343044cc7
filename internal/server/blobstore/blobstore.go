// Package blobstore persists raw file bytes independently of metadata.
// Two variants exist: a flat local directory and an S3-compatible object
// store. Both return a StoredObject whose Locator is the public reference
// (relative path or URL) and whose StorageKey is the store-internal id used
// for later deletion, so no variant ever has to parse an id back out of a
// locator.
package blobstore

import (
	"context"
	"io"
)

// StoredObject identifies a successfully persisted blob.
type StoredObject struct {
	// Locator is the public reference persisted as the file's filepath:
	// a path relative to the upload dir (local) or a fully qualified URL (s3).
	Locator string
	// StorageKey is the store-internal id (file name or object key).
	StorageKey string
}

// Resolution describes how to deliver a stored blob to a client. Exactly one
// field is set: Content streams the bytes directly (local variant), Redirect
// points the client at a fully qualified URL (s3 variant).
type Resolution struct {
	Content  io.ReadCloser
	Redirect string
}

// BlobStore is the capability contract the catalog coordinates with.
//
// Store must be atomic from the caller's point of view: either it fully
// succeeds and returns a usable StoredObject, or it fails and nothing is
// stored. Delete is idempotent: removing an already-absent object is not an
// error. Resolve never modifies the blob.
type BlobStore interface {
	Store(ctx context.Context, content io.Reader, originalName string) (*StoredObject, error)
	Delete(ctx context.Context, storageKey string) error
	Resolve(ctx context.Context, obj StoredObject) (*Resolution, error)
}
