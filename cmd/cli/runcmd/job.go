package runcmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"panelsync/internal/app"
	"panelsync/internal/config"
)

var jobCmd = &cobra.Command{
	Use:   "job",
	Short: "Runs the participant import once",
	Run: func(cmd *cobra.Command, args []string) {
		conf := config.FromCobraCmd(cmd)
		logFile, closeLog := mustLogFile(conf)
		defer func() {
			if err := closeLog(); err != nil {
				log.Printf("Could not close log file cleanly: %v\n", err)
			}
		}()

		log.Info().Str("log_file", logFile).Msg("Running participant import")
		j, err := app.MustNew(conf).Job(logFile)
		if err != nil {
			log.Fatal().Err(err).Msg("Could not set up the import")
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := j.Run(ctx); err != nil {
			log.Fatal().Err(err).Msg("Import failed")
		}
	},
}
