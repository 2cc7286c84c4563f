package app

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"panelsync/internal/config"
	"panelsync/internal/logging"
)

// FromCobraCmd loads the config named by the --config flag, points the global logger at the
// console and builds the App. The process exits if any of it fails.
func FromCobraCmd(cmd *cobra.Command) *App {
	conf := config.FromCobraCmd(cmd)
	log.Logger = logging.Console(conf.Level())
	return MustNew(conf)
}

// MustNew is New for command entry points, it exits when the App cannot be built
func MustNew(conf *config.PSConfig) *App {
	a, err := New(conf)
	if err != nil {
		log.Fatal().Err(err).Msg("Could not set up the run-log database")
	}
	return a
}
