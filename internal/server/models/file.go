package models

import "time"

// File describes metadata for an uploaded blob. The bytes themselves live in
// a blob store; Filepath is the public locator (relative path or URL) and
// StorageKey is the store-internal id used for deletion. Both are persisted
// at upload time so deletion never has to reverse-parse a locator.
type File struct {
	ID         int64
	Filename   string
	Filepath   string
	StorageKey string
	Mimetype   string
	Size       int64
	UserID     int64
	FolderID   *int64
	CreatedAt  time.Time
}
