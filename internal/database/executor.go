package database

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	"panelsync/internal/config"
)

// Querier runs statements against a named database
type Querier interface {
	// QueryTable returns every row of the result with its column names
	QueryTable(ctx context.Context, database string, stmt Statement) (*Table, error)
	// QueryRows returns every row of the result
	QueryRows(ctx context.Context, database string, stmt Statement) ([]Row, error)
	// Exec runs the statement for its effect only
	Exec(ctx context.Context, database string, stmt Statement) error
}

// Executor is a Querier that opens a new connection for every call and releases it before
// returning. Nothing is pooled or shared between calls.
type Executor struct {
	conf    *config.DatabaseConfig
	connect func(ctx context.Context, conf *config.DatabaseConfig, name string) (*sqlx.DB, error)
}

// NewExecutor creates an Executor for the database server described by conf
func NewExecutor(conf *config.DatabaseConfig) *Executor {
	return &Executor{conf: conf, connect: Connect}
}

// Dialect returns the stored procedure dialect of the configured driver
func (e *Executor) Dialect() (Dialect, error) {
	return DialectFor(e.conf.Driver)
}

func (e *Executor) QueryTable(ctx context.Context, database string, stmt Statement) (*Table, error) {
	var table *Table
	err := e.withDB(ctx, database, stmt, func(db *sqlx.DB) error {
		rows, err := db.QueryxContext(ctx, stmt.Query, stmt.Args...)
		if err != nil {
			return err
		}
		defer closeRows(rows)

		columns, err := rows.Columns()
		if err != nil {
			return err
		}

		table = &Table{Columns: columns, Rows: [][]any{}}
		for rows.Next() {
			values, err := rows.SliceScan()
			if err != nil {
				return err
			}
			table.Rows = append(table.Rows, values)
		}
		return rows.Err()
	})

	return table, err
}

func (e *Executor) QueryRows(ctx context.Context, database string, stmt Statement) ([]Row, error) {
	var result []Row
	err := e.withTx(ctx, database, stmt, func(tx *sqlx.Tx) error {
		rows, err := tx.QueryxContext(ctx, stmt.Query, stmt.Args...)
		if err != nil {
			return err
		}
		defer closeRows(rows)

		columns, err := rows.Columns()
		if err != nil {
			return err
		}

		for rows.Next() {
			values, err := rows.SliceScan()
			if err != nil {
				return err
			}
			result = append(result, NewRow(columns, values))
		}
		return rows.Err()
	})

	return result, err
}

func (e *Executor) Exec(ctx context.Context, database string, stmt Statement) error {
	return e.withTx(ctx, database, stmt, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, stmt.Query, stmt.Args...)
		return err
	})
}

// withTx runs f in a transaction that is committed when f succeeds. Each statement is its own
// transaction.
func (e *Executor) withTx(ctx context.Context, database string, stmt Statement, f func(tx *sqlx.Tx) error) error {
	return e.withDB(ctx, database, stmt, func(db *sqlx.DB) error {
		tx, err := db.BeginTxx(ctx, nil)
		if err != nil {
			return err
		}

		if err := f(tx); err != nil {
			rollbackTx(tx)
			return err
		}
		return tx.Commit()
	})
}

// withDB opens the connection, runs f and closes the connection. Errors are logged with the
// offending statement and returned as a *QueryError.
func (e *Executor) withDB(ctx context.Context, database string, stmt Statement, f func(db *sqlx.DB) error) error {
	db, err := e.connect(ctx, e.conf, database)
	if err == nil {
		err = f(db)
		if cerr := db.Close(); cerr != nil {
			log.Warn().Err(cerr).Str("database", database).Msg("Could not close database connection")
		}
	}

	if err != nil {
		log.Error().
			Err(err).
			Str("database", database).
			Str("statement", stmt.String()).
			Msg("Error executing query")
		return &QueryError{Database: database, Statement: stmt.String(), Err: err}
	}
	return nil
}

func rollbackTx(tx *sqlx.Tx) {
	if err := tx.Rollback(); err != nil {
		log.Error().Err(err).Msg("Could not rollback transaction")
	}
}

func closeRows(rows *sqlx.Rows) {
	if err := rows.Close(); err != nil {
		log.Error().Err(err).Msg("Could not close result rows")
	}
}
