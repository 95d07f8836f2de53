package projectconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wolfeidau/pagepack/internal/buildconfig"
	"github.com/wolfeidau/pagepack/internal/jsonpatch"
)

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, contents := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o600))
	}
	return dir
}

func TestLoad_defaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, ".pagepack", cfg.DistDir)
	require.Equal(t, []string{"jsx", "js"}, cfg.PageExtensions)
	require.Nil(t, cfg.OverrideHook)
}

func TestLoad_file(t *testing.T) {
	dir := writeProject(t, map[string]string{
		Filename: "distDir: build\npageExtensions: [tsx, ts]\n",
	})

	cfg, err := Load(dir)
	require.NoError(t, err)

	require.Equal(t, "build", cfg.DistDir)
	require.Equal(t, []string{"tsx", "ts"}, cfg.PageExtensions)
}

func TestLoad_partialFileKeepsDefaults(t *testing.T) {
	dir := writeProject(t, map[string]string{Filename: "distDir: out\n"})

	cfg, err := Load(dir)
	require.NoError(t, err)

	require.Equal(t, "out", cfg.DistDir)
	require.Equal(t, []string{"jsx", "js"}, cfg.PageExtensions)
}

func TestLoad_invalid(t *testing.T) {
	tests := []struct {
		name     string
		contents string
	}{
		{name: "empty dist dir", contents: "distDir: \"\"\n"},
		{name: "absolute dist dir", contents: "distDir: /tmp/out\n"},
		{name: "no extensions", contents: "pageExtensions: []\n"},
		{name: "dotted extension", contents: "pageExtensions: [.js]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeProject(t, map[string]string{Filename: tt.contents})

			_, err := Load(dir)
			require.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLoad_malformedYAML(t *testing.T) {
	dir := writeProject(t, map[string]string{Filename: "distDir: [unterminated\n"})

	_, err := Load(dir)
	require.ErrorContains(t, err, "failed to parse "+Filename)
}

func TestLoad_override(t *testing.T) {
	dir := writeProject(t, map[string]string{
		Filename: "override: patch.yaml\n",
		"patch.yaml": `
- op: add
  path: /devtool
  value: source-map
`,
	})

	cfg, err := Load(dir)
	require.NoError(t, err)
	require.NotNil(t, cfg.OverrideHook)

	out, err := cfg.OverrideHook(buildconfig.Configuration{Name: "client"}, buildconfig.HookContext{})
	require.NoError(t, err)
	require.Equal(t, "source-map", out.Devtool)
	require.Equal(t, "client", out.Name)
}

func TestLoad_overrideErrors(t *testing.T) {
	tests := []struct {
		name    string
		patch   string
		wantErr error
	}{
		{
			name:    "unsupported op",
			patch:   `[{"op":"move","from":"/name","path":"/devtool"}]`,
			wantErr: jsonpatch.ErrUnsupportedOp,
		},
		{
			name:    "plugins",
			patch:   `[{"op":"remove","path":"/plugins/0"}]`,
			wantErr: buildconfig.ErrUnpatchablePath,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeProject(t, map[string]string{
				Filename:     "override: patch.json\n",
				"patch.json": tt.patch,
			})

			_, err := Load(dir)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoad_missingOverride(t *testing.T) {
	dir := writeProject(t, map[string]string{Filename: "override: nope.json\n"})

	_, err := Load(dir)
	require.ErrorIs(t, err, os.ErrNotExist)
}
