package repomanager

import (
	"context"
	"database/sql"

	"github.com/dkruglov/fileshare/internal/dbx"
	"github.com/dkruglov/fileshare/internal/server/repositories/files"
	"github.com/dkruglov/fileshare/internal/server/repositories/users"
)

// RepositoryManager hands out repositories bound to a *sql.DB or an open
// transaction, so services can run repository calls inside dbx.WithTx.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Files(db dbx.DBTX) files.Repository
}
