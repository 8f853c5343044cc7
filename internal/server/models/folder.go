package models

import "time"

// Folder is a node in a per-user tree. ParentID nil means the folder sits at
// the user's root. The owning user never changes after creation.
type Folder struct {
	ID        int64
	Name      string
	UserID    int64
	ParentID  *int64
	CreatedAt time.Time
	UpdatedAt time.Time
}
