package gate

import (
	"context"
	"errors"
	"time"

	"github.com/guregu/null/v5"
	"github.com/rs/zerolog/log"
	"panelsync/internal/config"
	"panelsync/internal/database"
	"panelsync/internal/models"
)

const procLatestLogStatus = "SP_GetLatestLogStatusByLogTaskID"

// statusColumn is the position of the log status in the SP_GetLatestLogStatusByLogTaskID result
const statusColumn = 2

// PrerequisiteGate checks that upstream tasks logged an accepted status before a job runs
type PrerequisiteGate struct {
	querier  database.Querier
	dialect  database.Dialect
	database string // Database holding tLog
}

// DependencyResult is the outcome of checking a single dependency
type DependencyResult struct {
	Dependency models.Dependency
	Status     models.StatusFlag // Latest status as at the reference date, StatusNoRecord if none
	Passed     bool
}

// NewPrerequisiteGate creates a pre-requisite gate against the run-log procedures in dbName
func NewPrerequisiteGate(querier database.Querier, dialect database.Dialect, dbName string) *PrerequisiteGate {
	return &PrerequisiteGate{querier: querier, dialect: dialect, database: dbName}
}

// Passed checks if every dependency has an allowed status as at refDate
func (g *PrerequisiteGate) Passed(ctx context.Context, refDate time.Time, deps []models.Dependency) (bool, error) {
	_, passed, err := g.Evaluate(ctx, refDate, deps)
	return passed, err
}

// Evaluate checks each dependency in order and returns the individual results. All the
// dependencies are looked up even after one has failed, so that each one gets logged.
// Nothing is queried if any dependency is invalid.
func (g *PrerequisiteGate) Evaluate(ctx context.Context, refDate time.Time, deps []models.Dependency) ([]DependencyResult, bool, error) {
	if err := validateDependencies(deps); err != nil {
		log.Error().Err(err).Msg("Invalid pre-requisite log tasks")
		return nil, false, err
	}

	date := refDate.Format(time.DateOnly)
	results := make([]DependencyResult, 0, len(deps))
	passed := true

	for _, dep := range deps {
		taskID := int(dep.LogTaskID.Int64)
		log.Info().
			Str("task", dep.Name).
			Int("log_task_id", taskID).
			Str("ref_date", date).
			Msg("Get logTaskStatus")

		status, err := g.latestStatus(ctx, taskID, date)
		if err != nil {
			return results, false, err
		}

		ok := dep.Allows(status)
		event := log.Info()
		msg := "LogTask matched with allowed status"
		if !ok {
			event = log.Warn()
			msg = "LogTask does not match with allowed status"
			passed = false
		}
		event.
			Str("task", dep.Name).
			Int("log_task_id", taskID).
			Int("log_status", int(status)).
			Interface("allowed_status", dep.AllowedStatus).
			Msg(msg)

		results = append(results, DependencyResult{Dependency: dep, Status: status, Passed: ok})
	}

	if passed {
		log.Info().Msg("Pre-requisite log passed")
	} else {
		log.Info().Msg("Pre-requisite log not passed")
	}
	return results, passed, nil
}

// latestStatus gets the status of the most recent run-log entry of the task as at date
func (g *PrerequisiteGate) latestStatus(ctx context.Context, logTaskID int, date string) (models.StatusFlag, error) {
	stmt := g.dialect.Query(procLatestLogStatus, logTaskID, date)
	rows, err := g.querier.QueryRows(ctx, g.database, stmt)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return models.StatusNoRecord, nil
	}

	status, err := database.AsInt(rows[0].At(statusColumn))
	if err != nil {
		return 0, err
	}
	return models.StatusFlag(status), nil
}

func validateDependencies(deps []models.Dependency) error {
	var errs []error
	for i := range deps {
		errs = append(errs, deps[i].Validate())
	}
	return errors.Join(errs...)
}

// DependenciesFromConfig converts the configured pre-requisites, keeping keys that were left
// out as missing so that validation can report them
func DependenciesFromConfig(prerequisites []config.PrerequisiteConfig) []models.Dependency {
	deps := make([]models.Dependency, 0, len(prerequisites))
	for _, p := range prerequisites {
		dep := models.Dependency{Name: p.Name}
		if p.LogTaskID != nil {
			dep.LogTaskID = null.IntFrom(int64(*p.LogTaskID))
		}
		if p.AllowedStatus != nil {
			dep.AllowedStatus = make([]models.StatusFlag, len(p.AllowedStatus))
			for i, s := range p.AllowedStatus {
				dep.AllowedStatus[i] = models.StatusFlag(s)
			}
		}
		deps = append(deps, dep)
	}
	return deps
}
