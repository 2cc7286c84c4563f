package runcmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"panelsync/internal/app"
	"panelsync/internal/config"
	"panelsync/internal/logging"
	"panelsync/internal/scheduler"
)

var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Starts the scheduler process",
	Long:  "Runs the participant import on the configured cron schedule until interrupted",
	Run: func(cmd *cobra.Command, args []string) {
		conf := config.FromCobraCmd(cmd)
		log.Logger = logging.Console(conf.Level())
		log.Info().Msg("Running scheduler process")

		sch, err := scheduler.New(conf.Scheduler.Cron, conf.Scheduler.Timezone, ScheduledRun(app.MustNew(conf)))
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create scheduler")
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer func() {
			cancel()
			sch.Stop()
		}()

		if err := sch.Start(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to start scheduler")
		}

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

		log.Info().Msgf("Received signal %v, shutting down...", <-sigCh)
	},
}

// ScheduledRun returns the work of one scheduler tick. Every run gets its own log file, as
// it is attached to that run's email. Errors are returned to the scheduler, which logs them
// and waits for the next tick.
func ScheduledRun(a *app.App) scheduler.RunFunc {
	conf := a.Conf
	return func(ctx context.Context) error {
		logFile, closeLog, err := logging.Setup(conf.Level(), conf.Log.Dir, conf.Log.Prefix, time.Now())
		if err != nil {
			return err
		}
		defer func() {
			if err := closeLog(); err != nil {
				log.Printf("Could not close log file cleanly: %v\n", err)
			}
			log.Logger = logging.Console(conf.Level())
		}()

		j, err := a.Job(logFile)
		if err != nil {
			return err
		}
		return j.Run(ctx)
	}
}
