package job

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/guregu/null/v5"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
	"panelsync/internal/models"
	"panelsync/internal/notify"
	"panelsync/internal/panel"
)

// ErrPrerequisitesNotMet is returned when a dependency task has not reached an allowed status
var ErrPrerequisitesNotMet = errors.New("prerequisites not met")

const (
	subjectDateFormat = "02 January 2006"
	autoGenerated     = "*This is an auto generated email, do not reply to this email."
	completedMsg      = "task has completed"

	// reportTimeout bounds the email and run-log update sent once the run has ended
	reportTimeout = 2 * time.Minute
)

// RunLogger creates and updates the run-log entry of a run
type RunLogger interface {
	Insert(ctx context.Context, record models.RunLogRecord) (models.StatusFlag, uuid.UUID, error)
	Update(ctx context.Context, record models.RunLogRecord) error
}

// HolidayChecker tells whether a date is a holiday in the calendar
type HolidayChecker interface {
	IsHoliday(ctx context.Context, refDate time.Time, includeWeekend int) (bool, error)
}

// PrerequisiteChecker tells whether the upstream tasks reached an allowed status
type PrerequisiteChecker interface {
	Passed(ctx context.Context, refDate time.Time, deps []models.Dependency) (bool, error)
}

// Fetcher gets the participants from the panel API
type Fetcher interface {
	FetchParticipants(ctx context.Context) ([]gjson.Result, error)
}

// Loader replaces the destination table content with rows
type Loader interface {
	Load(ctx context.Context, rows []models.ParticipantRow) (int, error)
}

// Options are the settings of a participant import run
type Options struct {
	Name           string            // Used in email subjects, usually the destination table
	LogTaskID      int               // Task the run-log entries belong to
	StartStatus    models.StatusFlag // Status written when the run starts
	StartMsg       string
	SkipHolidays   bool // Consult the holiday calendar before running
	IncludeWeekend int
	Prerequisites  []models.Dependency
	To             []string
	Cc             []string
	Bcc            []string
	LogFile        string // Attached to every email when set
}

// Services are the collaborators of a Job. Holiday and Prerequisites may be nil when the
// corresponding gate is not used.
type Services struct {
	RunLog        RunLogger
	Holiday       HolidayChecker
	Prerequisites PrerequisiteChecker
	Fetcher       Fetcher
	Loader        Loader
	Mailer        notify.Mailer
}

// Job imports the panel participants into the destination table and reports the outcome in
// the run log and by email
type Job struct {
	opts Options
	svc  Services
	now  func() time.Time
}

func New(opts Options, svc Services) *Job {
	return &Job{opts: opts, svc: svc, now: time.Now}
}

// WithClock replaces the clock used for the reference date
func (j *Job) WithClock(now func() time.Time) *Job {
	j.now = now
	return j
}

// Run executes one import. The run-log entry is created first. If that fails nothing else
// happens. Otherwise the outcome is always emailed and written back to the entry, even when
// ctx is cancelled during the run, and the error of the run (if any) is returned.
func (j *Job) Run(ctx context.Context) error {
	today := j.now()

	record := models.NewRunLogRecord(j.opts.LogTaskID, j.opts.StartStatus, j.opts.StartMsg)
	status, logID, err := j.svc.RunLog.Insert(ctx, record)
	if err != nil {
		return fmt.Errorf("could not create run log entry: %w", err)
	}
	record.LogID = uuid.NullUUID{UUID: logID, Valid: true}
	record.StatusFlag = null.IntFrom(int64(status))

	logger := log.With().Int("log_task_id", j.opts.LogTaskID).Str("log_id", logID.String()).Logger()
	logger.Info().Str("job", j.opts.Name).Msg("Job started")

	if j.opts.SkipHolidays && j.svc.Holiday != nil {
		holiday, err := j.svc.Holiday.IsHoliday(ctx, today, j.opts.IncludeWeekend)
		if err != nil {
			return j.fail(ctx, record, today, err)
		}
		if holiday {
			logger.Info().Str("ref_date", today.Format(time.DateOnly)).Msg("Holiday, skipping run")
			record.SetStatus(models.StatusSuccess, "task skipped: "+today.Format(time.DateOnly)+" is a holiday")
			return j.update(ctx, record)
		}
	}

	if len(j.opts.Prerequisites) > 0 && j.svc.Prerequisites != nil {
		passed, err := j.svc.Prerequisites.Passed(ctx, today, j.opts.Prerequisites)
		if err != nil {
			return j.fail(ctx, record, today, err)
		}
		if !passed {
			return j.fail(ctx, record, today, ErrPrerequisitesNotMet)
		}
	}

	total, err := j.importParticipants(ctx, today)
	if err != nil {
		return j.fail(ctx, record, today, err)
	}
	logger.Info().Int("total_rows", total).Msg("Import completed")

	body := fmt.Sprintf("The %s table was truncated and imported successfully for today.\n%s", j.opts.Name, autoGenerated)
	if err := j.notify(ctx, "[OK]", today, body); err != nil {
		return j.fail(ctx, record, today, err)
	}

	record.SetStatus(models.StatusSuccess, completedMsg)
	return j.update(ctx, record)
}

func (j *Job) importParticipants(ctx context.Context, today time.Time) (int, error) {
	log.Info().Msg("Retrieving participants from the panel API")
	participants, err := j.svc.Fetcher.FetchParticipants(ctx)
	if err != nil {
		return 0, err
	}

	importDate := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())
	rows := panel.ToRows(participants, importDate)
	return j.svc.Loader.Load(ctx, rows)
}

// fail records cause as the outcome of the run and returns it. Problems while reporting are
// logged and joined to cause.
func (j *Job) fail(ctx context.Context, record models.RunLogRecord, today time.Time, cause error) error {
	log.Error().Err(cause).Str("log_id", record.LogID.UUID.String()).Msg("An error occurred")
	record.SetStatus(models.StatusFailed, fmt.Sprintf("An error occurred:\n%v", cause))

	err := cause
	body := fmt.Sprintf("An error occurred: \n%v \n%s", cause, autoGenerated)
	if nerr := j.notify(ctx, "[ERROR]", today, body); nerr != nil {
		err = errors.Join(err, nerr)
	}
	if uerr := j.update(ctx, record); uerr != nil {
		err = errors.Join(err, uerr)
	}
	return err
}

func (j *Job) notify(ctx context.Context, tag string, today time.Time, body string) error {
	msg := notify.Message{
		To:         j.opts.To,
		Cc:         j.opts.Cc,
		Bcc:        j.opts.Bcc,
		Subject:    Subject(tag, j.opts.Name, today),
		Body:       body,
		Attachment: j.opts.LogFile,
	}

	ctx, cancel := reportContext(ctx)
	defer cancel()
	return j.svc.Mailer.Send(ctx, msg)
}

func (j *Job) update(ctx context.Context, record models.RunLogRecord) error {
	ctx, cancel := reportContext(ctx)
	defer cancel()

	if err := j.svc.RunLog.Update(ctx, record); err != nil {
		return fmt.Errorf("could not update run log entry: %w", err)
	}
	log.Info().
		Str("log_id", record.LogID.UUID.String()).
		Int("status", int(record.Status())).
		Msg("Run log updated")
	return nil
}

// Subject formats the subject of a notification, e.g. "[OK] tWakoopaParticipants Import - 21 March 2024"
func Subject(tag, name string, date time.Time) string {
	return fmt.Sprintf("%s %s Import - %s", tag, name, date.Format(subjectDateFormat))
}

// reportContext keeps the values of ctx but not its cancellation, so that an interrupted run
// still gets reported
func reportContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), reportTimeout)
}
