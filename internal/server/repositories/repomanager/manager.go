package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/staffkeeper/internal/dbx"
	"github.com/dmitrijs2005/staffkeeper/internal/server/repositories/positions"
	"github.com/dmitrijs2005/staffkeeper/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/staffkeeper/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Positions(db dbx.DBTX) positions.Repository
}
