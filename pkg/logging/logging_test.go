package logging_test

import (
	"testing"

	"github.com/arthur-debert/envelope/pkg/logging"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestSetupLoggerLevels(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", t.TempDir())

	tests := []struct {
		name      string
		verbosity int
		want      zerolog.Level
	}{
		{"default_warn", 0, zerolog.WarnLevel},
		{"verbose_info", 1, zerolog.InfoLevel},
		{"very_verbose_debug", 2, zerolog.DebugLevel},
		{"trace_beyond", 5, zerolog.TraceLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logging.SetupLogger(tt.verbosity, false)
			assert.Equal(t, tt.want, zerolog.GlobalLevel())
		})
	}
}

func TestSetupLoggerQuiet(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", t.TempDir())

	// Quiet mode must not panic even with no console writer attached.
	assert.NotPanics(t, func() {
		logging.SetupLogger(0, true)
	})
}

func TestGetLogger(t *testing.T) {
	logger := logging.GetLogger("router")
	assert.NotPanics(t, func() {
		logger.Debug().Msg("test message")
	})
}
