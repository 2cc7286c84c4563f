package scheduler

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// CronLogger routes the cron library's logs through zerolog. Info messages are logged at
// debug level as cron reports every wake up.
type CronLogger struct {
	logger zerolog.Logger
}

var _ cron.Logger = CronLogger{}

func NewCronLogger(logger zerolog.Logger) CronLogger {
	return CronLogger{logger: logger.With().Str("component", "cron").Logger()}
}

func (l CronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug().Fields(fields(keysAndValues)).Msg(msg)
}

func (l CronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error().Err(err).Fields(fields(keysAndValues)).Msg(msg)
}

// fields pairs up cron's alternating keys and values. A trailing key without a value is kept
// with a nil value.
func fields(keysAndValues []any) map[string]any {
	out := make(map[string]any, len(keysAndValues)/2)
	for i := 0; i < len(keysAndValues); i += 2 {
		key := fmt.Sprint(keysAndValues[i])
		var value any
		if i+1 < len(keysAndValues) {
			value = keysAndValues[i+1]
		}
		out[key] = value
	}
	return out
}
