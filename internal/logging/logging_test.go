package logging_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"panelsync/internal/logging"
)

func TestFileName(t *testing.T) {
	ts := time.Date(2024, 3, 21, 6, 5, 9, 0, time.UTC)
	assert.Equal(t, "tWakoopaParticipant_2024-03-21 06-05-09.txt", logging.FileName("tWakoopaParticipant", ts))
}

func TestNew(t *testing.T) {
	var a, b bytes.Buffer
	logger := logging.New(zerolog.InfoLevel, &a, &b)

	logger.Debug().Msg("hidden")
	logger.Info().Int("log_task_id", -99).Msg("visible")

	for _, buf := range []*bytes.Buffer{&a, &b} {
		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 1)

		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
		assert.Equal(t, "visible", entry["message"])
		assert.EqualValues(t, -99, entry["log_task_id"])
		assert.Contains(t, entry, "time")
	}
}

func TestSetup(t *testing.T) {
	original := log.Logger
	t.Cleanup(func() { log.Logger = original })

	dir := filepath.Join(t.TempDir(), "log")
	ts := time.Date(2024, 3, 21, 6, 0, 0, 0, time.UTC)

	path, closeFn, err := logging.Setup(zerolog.InfoLevel, dir, "tWakoopaParticipant", ts)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "tWakoopaParticipant_2024-03-21 06-00-00.txt"), path)

	log.Info().Str("status", "started").Msg("Job starting")
	require.NoError(t, closeFn())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"message":"Job starting"`)
	assert.Contains(t, string(content), `"status":"started"`)
}
