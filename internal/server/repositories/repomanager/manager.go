package repomanager

import (
	"context"
	"database/sql"

	"fileshare/internal/dbx"
	"fileshare/internal/server/repositories/files"
	"fileshare/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Files(db dbx.DBTX) files.Repository
}
