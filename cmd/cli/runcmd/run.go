package runcmd

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"panelsync/internal/config"
	"panelsync/internal/logging"
)

var Command = &cobra.Command{
	Use:   "run",
	Short: "Run service",
	Long:  "Run the participant import once or on its schedule",
}

func init() {
	Command.AddCommand(jobCmd)
	Command.AddCommand(schedulerCmd)
}

// mustLogFile starts a new log file for a run and returns its path
func mustLogFile(conf *config.PSConfig) (string, func() error) {
	path, closeFn, err := logging.Setup(conf.Level(), conf.Log.Dir, conf.Log.Prefix, time.Now())
	if err != nil {
		log.Fatal().Err(err).Msg("Could not set up log file")
	}
	return path, closeFn
}
