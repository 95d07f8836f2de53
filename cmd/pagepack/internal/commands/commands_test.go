package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/wolfeidau/pagepack/internal/buildconfig"
	"github.com/wolfeidau/pagepack/internal/entries"
	"github.com/wolfeidau/pagepack/internal/naming"
)

func sampleConfig() buildconfig.Configuration {
	return buildconfig.Configuration{
		Name:   "client",
		Target: buildconfig.TargetWeb,
		Mode:   buildconfig.ModeProduction,
		Entry: entries.Static(entries.PageEntries{
			naming.CommonsMain: {"/fw/dist/client/main.js"},
		}),
	}
}

func TestWriteConfig(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeConfig(&buf, sampleConfig(), "json"))

		var doc map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
		require.Equal(t, "client", doc["name"])
		require.Equal(t, map[string]any{naming.CommonsMain: []any{"/fw/dist/client/main.js"}}, doc["entry"])
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeConfig(&buf, sampleConfig(), "yaml"))

		var doc map[string]any
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
		require.Equal(t, "web", doc["target"])
		require.Equal(t, map[string]any{naming.CommonsMain: []any{"/fw/dist/client/main.js"}}, doc["entry"])
	})
}

func TestProjectOpen(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PAGEPACK_TEST_OPEN=from-dotenv\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pagepack.yaml"), []byte("distDir: out\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("PAGEPACK_TEST_OPEN") })

	t.Run("generated build id", func(t *testing.T) {
		s, err := Project{Dir: dir}.open()
		require.NoError(t, err)

		require.Equal(t, dir, s.dir)
		require.Len(t, s.buildID, 36)
		require.Equal(t, "out", s.project.DistDir)
		require.Equal(t, "from-dotenv", os.Getenv("PAGEPACK_TEST_OPEN"))
	})

	t.Run("fixed build id", func(t *testing.T) {
		s, err := Project{Dir: dir, BuildID: "abc"}.open()
		require.NoError(t, err)
		require.Equal(t, "abc", s.buildID)
	})

	t.Run("no pages", func(t *testing.T) {
		s, err := Project{Dir: dir}.open()
		require.NoError(t, err)

		_, err = s.assemble(context.Background(), false, false)
		require.Error(t, err)
	})
}
