package loader

import (
	"context"

	"github.com/rs/zerolog/log"
	"panelsync/internal/config"
	"panelsync/internal/database"
	"panelsync/internal/models"
)

// Target is the destination database of the participant import. A connection is opened for
// every load and closed afterwards.
type Target struct {
	conf   *config.DatabaseConfig
	name   string
	loader *TableLoader
}

// NewTarget creates a Target loading into the database name on the server described by conf
func NewTarget(conf *config.DatabaseConfig, name string, loader *TableLoader) *Target {
	return &Target{conf: conf, name: name, loader: loader}
}

func (t *Target) Load(ctx context.Context, rows []models.ParticipantRow) (int, error) {
	db, err := database.Connect(ctx, t.conf, t.name)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Warn().Err(err).Str("database", t.name).Msg("Could not close database connection")
		}
	}()

	return t.loader.Load(ctx, db, rows)
}
