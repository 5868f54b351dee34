package repomanager

import (
	"context"
	"database/sql"

	"github.com/Kayvinh/messagely/internal/dbx"
	"github.com/Kayvinh/messagely/internal/server/repositories/messages"
	"github.com/Kayvinh/messagely/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Messages(db dbx.DBTX) messages.Repository
}
