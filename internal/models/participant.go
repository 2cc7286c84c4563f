package models

import (
	"time"

	"github.com/guregu/null/v5"
)

// ParticipantRow is a row of the participant destination table, one per panel participant
type ParticipantRow struct {
	ImportDate time.Time   `db:"import_date"` // Date the roster was imported
	ID         string      `db:"id"`          // Panel participant id
	Tags       null.String `db:"tags"`        // Raw JSON of the participant tags
	TimeZone   null.String `db:"time_zone"`
	CreatedAt  null.String `db:"created_at"`  // As returned by the panel API
	ProfileURL null.String `db:"profile_url"` // Configurator login url, if the participant has one
}
