package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/require"
)

func TestSetupWriter(t *testing.T) {
	t.Cleanup(func() { Setup(false) })

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		SetupWriter(&buf, false)

		log.Debug().Msg("hidden")
		log.Info().Str("target", "client").Msg("assembled")

		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		require.Equal(t, "info", line["level"])
		require.Equal(t, "client", line["target"])
		require.Contains(t, line, "time")
	})

	t.Run("debug console", func(t *testing.T) {
		var buf bytes.Buffer
		l := SetupWriter(&buf, true)

		require.Equal(t, zerolog.DebugLevel, l.GetLevel())
		log.Debug().Msg("visible")
		require.Contains(t, buf.String(), "visible")
		require.Same(t, &log.Logger, zerolog.DefaultContextLogger)
	})
}
