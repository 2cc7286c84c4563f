package gate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"panelsync/internal/database"
	"panelsync/internal/models"
)

const fnSkipExecution = "fnGetSkipExecutionResultBasedOnHoliday"

// ErrUnexpectedHolidayResult is returned when the calendar function gives neither 0 nor 1
var ErrUnexpectedHolidayResult = errors.New("unexpected holiday check result")

// HolidayGate checks the holiday calendar to decide whether a run should be skipped
type HolidayGate struct {
	querier  database.Querier
	dialect  database.Dialect
	database string // Database holding the calendar function
}

// NewHolidayGate creates a holiday gate against the calendar function in dbName
func NewHolidayGate(querier database.Querier, dialect database.Dialect, dbName string) *HolidayGate {
	return &HolidayGate{querier: querier, dialect: dialect, database: dbName}
}

// IsHoliday checks if refDate is a holiday. Weekends count as holidays when includeWeekend
// is 1, the only other accepted value being 0.
func (g *HolidayGate) IsHoliday(ctx context.Context, refDate time.Time, includeWeekend int) (bool, error) {
	if includeWeekend != 0 && includeWeekend != 1 {
		err := &models.ValidationError{
			Field: "include_weekend",
			Msg:   fmt.Sprintf("invalid include_weekend parameter: %d, expecting values: [1 0]", includeWeekend),
		}
		log.Error().Err(err).Msg("Invalid holiday check")
		return false, err
	}

	date := refDate.Format(time.DateOnly)
	stmt := g.dialect.Scalar(fnSkipExecution, "SkipExecution", date, includeWeekend)
	rows, err := g.querier.QueryRows(ctx, g.database, stmt)
	if err != nil {
		return false, err
	}
	if len(rows) == 0 {
		return false, fmt.Errorf("%w: no row returned for %s", ErrUnexpectedHolidayResult, date)
	}

	result, err := database.AsInt(rows[0].At(0))
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnexpectedHolidayResult, err)
	}

	switch result {
	case 1:
		log.Info().Str("ref_date", date).Int("include_weekend", includeWeekend).Msg("Date is holiday")
		return true, nil
	case 0:
		log.Info().Str("ref_date", date).Int("include_weekend", includeWeekend).Msg("Date is not holiday")
		return false, nil
	default:
		return false, fmt.Errorf("%w: %d for %s", ErrUnexpectedHolidayResult, result, date)
	}
}
