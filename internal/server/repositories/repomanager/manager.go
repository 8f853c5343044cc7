package repomanager

import (
	"context"
	"database/sql"

	"filevault/internal/dbx"
	"filevault/internal/server/repositories/files"
	"filevault/internal/server/repositories/folders"
	"filevault/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so services can run
// multi-repository work on either a plain connection or a transaction.
type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Folders(db dbx.DBTX) folders.Repository
	Files(db dbx.DBTX) files.Repository
}
