package panel

import (
	"time"

	"github.com/guregu/null/v5"
	"github.com/tidwall/gjson"
	"panelsync/internal/models"
)

// profileURLPath finds the configurator login url among the participant's configuration
// parameters
const profileURLPath = `links.configuration_parameters.#(id=="configurator_login_url").contents`

// ToRows flattens participants into destination rows imported on importDate
func ToRows(participants []gjson.Result, importDate time.Time) []models.ParticipantRow {
	date := time.Date(importDate.Year(), importDate.Month(), importDate.Day(), 0, 0, 0, 0, importDate.Location())

	rows := make([]models.ParticipantRow, 0, len(participants))
	for _, p := range participants {
		rows = append(rows, models.ParticipantRow{
			ImportDate: date,
			ID:         p.Get("id").String(),
			Tags:       raw(p.Get("tags")),
			TimeZone:   str(p.Get("time_zone")),
			CreatedAt:  str(p.Get("created_at")),
			ProfileURL: str(p.Get(profileURLPath)),
		})
	}
	return rows
}

func str(r gjson.Result) null.String {
	if !r.Exists() || r.Type == gjson.Null {
		return null.String{}
	}
	return null.StringFrom(r.String())
}

func raw(r gjson.Result) null.String {
	if !r.Exists() || r.Type == gjson.Null {
		return null.String{}
	}
	return null.StringFrom(r.Raw)
}
