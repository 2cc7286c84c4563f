package runlog

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"panelsync/internal/database"
	"panelsync/internal/models"
)

const (
	procLogAdd = "SP_LogAdd"
	procLogUpd = "SP_LogUpd"
)

// ErrNoLogID is returned when SP_LogAdd does not hand back the generated logID
var ErrNoLogID = errors.New("no logID returned on insert")

// Gateway writes run-log entries through the SP_LogAdd and SP_LogUpd stored procedures
type Gateway struct {
	querier  database.Querier
	dialect  database.Dialect
	database string // Database holding tLog
}

// NewGateway creates a run-log gateway. dbName names the database holding the procedures.
func NewGateway(querier database.Querier, dialect database.Dialect, dbName string) *Gateway {
	return &Gateway{querier: querier, dialect: dialect, database: dbName}
}

// Insert creates a new run-log entry and returns the status and logID to use for later
// updates of that entry.
func (g *Gateway) Insert(ctx context.Context, record models.RunLogRecord) (models.StatusFlag, uuid.UUID, error) {
	if err := record.ValidateInsert(); err != nil {
		log.Error().Err(err).Msg("Invalid run-log record for insert")
		return 0, uuid.Nil, err
	}

	log.Info().Int64("log_task_id", record.LogTaskID.Int64).Msg("Insert into tLog and retrieve logID")
	stmt := g.dialect.Query(procLogAdd,
		int(record.LogTaskID.Int64),
		int(record.StatusFlag.Int64),
		record.LogMsg.String,
	)

	rows, err := g.querier.QueryRows(ctx, g.database, stmt)
	if err != nil {
		return 0, uuid.Nil, err
	}
	if len(rows) == 0 {
		return 0, uuid.Nil, ErrNoLogID
	}

	value, ok := rows[0].Get("logID")
	if !ok {
		return 0, uuid.Nil, ErrNoLogID
	}
	logID, err := models.ParseLogID(value)
	if err != nil {
		return 0, uuid.Nil, fmt.Errorf("could not read logID returned on insert: %w", err)
	}

	log.Info().Str("log_id", logID.String()).Msg("Created logID")
	return models.StatusSuccess, logID, nil
}

// Update rewrites the status and message of an existing run-log entry
func (g *Gateway) Update(ctx context.Context, record models.RunLogRecord) error {
	stmt, err := g.UpdateStatement(record)
	if err != nil {
		log.Error().Err(err).Msg("Invalid run-log record for update")
		return err
	}

	log.Info().
		Str("log_id", record.LogID.UUID.String()).
		Int64("status", record.StatusFlag.Int64).
		Msg("Updating tLog")
	return g.querier.Exec(ctx, g.database, stmt)
}

// UpdateStatement renders the SP_LogUpd call for the record. All three arguments are sent
// as strings.
func (g *Gateway) UpdateStatement(record models.RunLogRecord) (database.Statement, error) {
	if err := record.ValidateUpdate(); err != nil {
		return database.Statement{}, err
	}

	return g.dialect.Exec(procLogUpd,
		record.LogID.UUID.String(),
		strconv.FormatInt(record.StatusFlag.Int64, 10),
		record.LogMsg.String,
	), nil
}
