package loader

import (
	"context"
	"fmt"
	"regexp"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	"panelsync/internal/models"
)

// DefaultChunkSize is the number of rows sent per insert statement
const DefaultChunkSize = 50

var tableNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

const insertColumns = `(import_date, id, tags, time_zone, created_at, profile_url)
VALUES (:import_date, :id, :tags, :time_zone, :created_at, :profile_url)`

// TableLoader replaces the content of the participant table
type TableLoader struct {
	table     string
	chunkSize int
}

// New creates a loader for table. table may be schema qualified.
func New(table string, chunkSize int) (*TableLoader, error) {
	if !tableNameRe.MatchString(table) {
		return nil, fmt.Errorf("invalid table name '%s'", table)
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &TableLoader{table: table, chunkSize: chunkSize}, nil
}

// Load clears the table then inserts rows chunk by chunk. Everything runs in one transaction,
// so the table keeps its old content if any chunk fails. Returns the number of rows inserted.
func (l *TableLoader) Load(ctx context.Context, db *sqlx.DB, rows []models.ParticipantRow) (total int, err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			rollbackTx(tx)
			total = 0
		}
	}()

	log.Info().Str("table", l.table).Msg("Clearing table before data import")
	if _, err = tx.ExecContext(ctx, "DELETE FROM "+l.table); err != nil {
		return 0, fmt.Errorf("could not clear %s: %w", l.table, err)
	}

	log.Info().Str("table", l.table).Int("rows", len(rows)).Msg("Data import starting")
	query := "INSERT INTO " + l.table + " " + insertColumns
	for i, start := 1, 0; start < len(rows); i, start = i+1, start+l.chunkSize {
		end := min(start+l.chunkSize, len(rows))
		chunk := rows[start:end]

		log.Info().Int("insertion", i).Int("chunk_size", len(chunk)).Msg("Inserting chunk")
		if _, err = tx.NamedExecContext(ctx, query, chunk); err != nil {
			return 0, fmt.Errorf("could not insert chunk %d into %s: %w", i, l.table, err)
		}
		total += len(chunk)
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}

	log.Info().Str("table", l.table).Int("total_rows", total).Msg("Total rows inserted")
	return total, nil
}

func rollbackTx(tx *sqlx.Tx) {
	if err := tx.Rollback(); err != nil {
		log.Error().Err(err).Msg("Could not rollback transaction")
	}
}
