package config

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// FromCobraCmd creates a PSConfig instance from the persistent --config flag of the root
// command. The process exits if the config cannot be loaded, as nothing can run without it.
func FromCobraCmd(cmd *cobra.Command) *PSConfig {
	var paths []string
	if flag := cmd.Flags().Lookup("config"); flag != nil && flag.Changed {
		paths = append(paths, flag.Value.String())
	}

	conf, err := LoadConfig(paths...)
	if err != nil {
		log.Fatal().Err(err).Strs("paths", paths).Msg("Could not load config file")
	}
	return conf
}
