package buildconfig

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wolfeidau/pagepack/internal/entries"
	"github.com/wolfeidau/pagepack/internal/jsonpatch"
	"github.com/wolfeidau/pagepack/internal/naming"
	"github.com/wolfeidau/pagepack/internal/plugins"
)

func mustPatch(t *testing.T, doc string) jsonpatch.Patch {
	t.Helper()
	p, err := jsonpatch.Decode([]byte(doc))
	require.NoError(t, err)
	return p
}

func TestPatchHook_rejectsUnpatchablePaths(t *testing.T) {
	tests := []struct {
		name  string
		patch string
	}{
		{name: "plugins", patch: `[{"op":"remove","path":"/plugins/0"}]`},
		{name: "externals", patch: `[{"op":"replace","path":"/externals","value":{}}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := PatchHook(mustPatch(t, tt.patch))
			require.ErrorIs(t, err, ErrUnpatchablePath)
		})
	}
}

func TestPatchHook_appliesToConfiguration(t *testing.T) {
	hook, err := PatchHook(mustPatch(t, `[
		{"op":"add","path":"/devtool","value":"source-map"},
		{"op":"add","path":"/resolve/alias/react","value":"preact/compat"}
	]`))
	require.NoError(t, err)

	bc := buildContext(false, true)
	bc.Config.OverrideHook = hook

	cfg, err := newAssembler(&fakePages{entries: tenPages()}).Assemble(context.Background(), bc)
	require.NoError(t, err)

	require.Equal(t, "source-map", cfg.Devtool)
	require.Equal(t, "preact/compat", cfg.Resolve.Alias["react"])
	require.Equal(t, "server", cfg.Name)

	// not data, carried across the patch
	require.False(t, cfg.Externals.Empty())
	_, ok := plugins.Find[plugins.PagesManifest](cfg.Plugins)
	require.True(t, ok)
	require.Len(t, cfg.Entries(), 10)
}

func TestPatchHook_entryOpsStayLazy(t *testing.T) {
	hook, err := PatchHook(mustPatch(t, `[
		{"op":"add","path":"/entry/main.js/-","value":"./polyfills.js"}
	]`))
	require.NoError(t, err)

	calls := 0
	cfg := Configuration{
		Entry: entries.SourceFunc(func() entries.PageEntries {
			calls++
			return entries.PageEntries{
				entries.LegacyMain: {},
				naming.CommonsMain: {"/fw/dist/client/main.js"},
			}
		}),
	}

	out, err := hook(cfg, HookContext{})
	require.NoError(t, err)
	validated := calls

	want := entries.PageEntries{
		entries.LegacyMain: {"./polyfills.js"},
		naming.CommonsMain: {"/fw/dist/client/main.js"},
	}
	require.Equal(t, want, out.Entries())
	require.Equal(t, want, out.Entries())
	require.Equal(t, validated+2, calls)

	require.Equal(t, entries.PageEntries{
		naming.CommonsMain: {"./polyfills.js", "/fw/dist/client/main.js"},
	}, entries.Finalize(out.Entry).Entries())
}

func TestPatchHook_brokenEntryPatch(t *testing.T) {
	hook, err := PatchHook(mustPatch(t, `[
		{"op":"replace","path":"/entry/missing.js","value":["./x.js"]}
	]`))
	require.NoError(t, err)

	_, err = hook(Configuration{Entry: entries.Static(entries.PageEntries{})}, HookContext{})
	require.Error(t, err)
}
