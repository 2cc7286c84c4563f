// Package app builds the components of the participant import from the configuration
package app

import (
	"time"

	"panelsync/internal/config"
	"panelsync/internal/database"
	"panelsync/internal/gate"
	"panelsync/internal/job"
	"panelsync/internal/loader"
	"panelsync/internal/models"
	"panelsync/internal/notify"
	"panelsync/internal/panel"
	"panelsync/internal/runlog"
)

// App holds the configuration and the executor of the run-log server
type App struct {
	Conf     *config.PSConfig
	Executor *database.Executor
	Dialect  database.Dialect
}

func New(conf *config.PSConfig) (*App, error) {
	executor := database.NewExecutor(&conf.Database.DatabaseConfig)
	dialect, err := executor.Dialect()
	if err != nil {
		return nil, err
	}
	return &App{Conf: conf, Executor: executor, Dialect: dialect}, nil
}

func (a *App) RunLog() *runlog.Gateway {
	return runlog.NewGateway(a.Executor, a.Dialect, a.Conf.Database.LogDatabase)
}

func (a *App) Holiday() *gate.HolidayGate {
	return gate.NewHolidayGate(a.Executor, a.Dialect, a.Conf.Database.CalendarDatabase)
}

func (a *App) Prerequisites() *gate.PrerequisiteGate {
	return gate.NewPrerequisiteGate(a.Executor, a.Dialect, a.Conf.Database.LogDatabase)
}

// Dependencies returns the configured pre-requisite tasks
func (a *App) Dependencies() []models.Dependency {
	return gate.DependenciesFromConfig(a.Conf.Gate.Prerequisites)
}

// Job builds the participant import. logFile is attached to the notification emails when
// attachments are enabled.
func (a *App) Job(logFile string) (*job.Job, error) {
	conf := a.Conf

	tableLoader, err := loader.New(conf.Destination.Table, conf.Destination.ChunkSize)
	if err != nil {
		return nil, err
	}

	client := panel.NewClient(panel.Config{
		BaseURL:  conf.Panel.BaseURL,
		Client:   conf.Panel.Client,
		Secret:   conf.Panel.Secret,
		DateFrom: conf.Panel.DateFrom,
		PerPage:  conf.Panel.PerPage,
		Include:  conf.Panel.Include,
		Timeout:  time.Duration(conf.Panel.TimeoutSec) * time.Second,
	})

	if !conf.Email.AttachLog {
		logFile = ""
	}

	opts := job.Options{
		Name:           conf.Job.Name,
		LogTaskID:      conf.Job.LogTaskID,
		StartStatus:    models.StatusFlag(conf.Job.StatusFlag),
		StartMsg:       conf.Job.LogMsg,
		SkipHolidays:   conf.Gate.SkipHolidays,
		IncludeWeekend: conf.Gate.IncludeWeekend,
		Prerequisites:  a.Dependencies(),
		To:             conf.Email.To,
		Cc:             conf.Email.Cc,
		Bcc:            conf.Email.Bcc,
		LogFile:        logFile,
	}

	return job.New(opts, job.Services{
		RunLog:        a.RunLog(),
		Holiday:       a.Holiday(),
		Prerequisites: a.Prerequisites(),
		Fetcher:       client,
		Loader:        loader.NewTarget(&conf.Destination.DatabaseConfig, conf.Destination.Name, tableLoader),
		Mailer:        notify.NewSMTPMailer(conf.SMTPAddr(), conf.Email.Sender),
	}), nil
}
