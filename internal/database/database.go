package database

import (
	"context"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/microsoft/go-mssqldb"
	"panelsync/internal/config"
)

// Connect opens a connection to the named database on the configured server and checks
// that it is reachable. The caller owns the returned handle and must close it.
func Connect(ctx context.Context, conf *config.DatabaseConfig, name string) (*sqlx.DB, error) {
	return sqlx.ConnectContext(ctx, conf.Driver, conf.GetDatabaseURL(name))
}
