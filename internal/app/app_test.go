package app_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"panelsync/internal/app"
	"panelsync/internal/config"
	"panelsync/internal/database"
)

func testConfig(t *testing.T) *config.PSConfig {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("job:\n  name: tWakoopaParticipants\n"), 0o644))

	conf, err := config.LoadConfig(path)
	require.NoError(t, err)
	return conf
}

func TestNew(t *testing.T) {
	t.Run("picks the dialect of the driver", func(t *testing.T) {
		conf := testConfig(t)
		a, err := app.New(conf)
		require.NoError(t, err)
		assert.Equal(t, database.SQLServer.Name, a.Dialect.Name)

		conf.Database.Driver = "pgx"
		a, err = app.New(conf)
		require.NoError(t, err)
		assert.Equal(t, database.Postgres.Name, a.Dialect.Name)
	})

	t.Run("unknown driver", func(t *testing.T) {
		conf := testConfig(t)
		conf.Database.Driver = "oracle"
		_, err := app.New(conf)
		assert.Error(t, err)
	})
}

func TestApp_Job(t *testing.T) {
	t.Run("builds the import", func(t *testing.T) {
		a, err := app.New(testConfig(t))
		require.NoError(t, err)

		j, err := a.Job("log/run.txt")
		require.NoError(t, err)
		assert.NotNil(t, j)
	})

	t.Run("bad destination table", func(t *testing.T) {
		conf := testConfig(t)
		conf.Destination.Table = "tWakoopaParticipants; DROP TABLE tLog"
		a, err := app.New(conf)
		require.NoError(t, err)

		_, err = a.Job("")
		assert.ErrorContains(t, err, "invalid table name")
	})
}

func TestFromCobraCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database:\n  log_database: SGTAMTest\n"), 0o644))

	cmd := &cobra.Command{Use: "check"}
	cmd.Flags().StringP("config", "c", "", "config file path")
	require.NoError(t, cmd.Flags().Set("config", path))

	original := log.Logger
	t.Cleanup(func() { log.Logger = original })

	a := app.FromCobraCmd(cmd)
	assert.Equal(t, "SGTAMTest", a.Conf.Database.LogDatabase)
	assert.Equal(t, database.SQLServer.Name, a.Dialect.Name)
}
