package plugins

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type named string

func (n named) Name() string { return string(n) }

func TestBuilder_ordersByDeclaration(t *testing.T) {
	b := NewBuilder().
		Add(Always, func() Descriptor { return named("first") }).
		Add(Server, func() Descriptor { return named("server-only") }).
		Add(Client, func() Descriptor { return named("client-only") }).
		Add(All(Dev, Client), func() Descriptor { return named("dev-client") }).
		Add(Always, func() Descriptor { return named("last") })

	require.Equal(t, 5, b.Len())
	require.Equal(t, []string{"first", "client-only", "dev-client", "last"}, Names(b.Build(Gate{Dev: true})))
	require.Equal(t, []string{"first", "server-only", "last"}, Names(b.Build(Gate{Dev: true, IsServer: true})))
	require.Equal(t, []string{"first", "client-only", "last"}, Names(b.Build(Gate{})))
}

func TestBuilder_factoriesOnlyCalledWhenGated(t *testing.T) {
	calls := 0
	b := NewBuilder().Add(Server, func() Descriptor {
		calls++
		return named("x")
	})

	require.Empty(t, b.Build(Gate{}))
	require.Equal(t, 0, calls)

	require.Len(t, b.Build(Gate{IsServer: true}), 1)
	require.Equal(t, 1, calls)
}

func TestDefault(t *testing.T) {
	tests := []struct {
		name     string
		gate     Gate
		expected []string
	}{
		{
			name: "development client",
			gate: Gate{Dev: true},
			expected: []string{
				"ignore", "no-emit-on-errors", "hot-reload", "module-cache-invalidation",
				"case-sensitive-paths", "define", "build-manifest", "loadable-manifest",
			},
		},
		{
			name: "development server",
			gate: Gate{Dev: true, IsServer: true},
			expected: []string{
				"ignore", "no-emit-on-errors", "module-cache-invalidation",
				"case-sensitive-paths", "define", "ssr-import", "pages-manifest",
			},
		},
		{
			name: "production client",
			gate: Gate{},
			expected: []string{
				"ignore", "hashed-module-ids", "define", "module-concatenation",
				"build-manifest", "loadable-manifest",
			},
		},
		{
			name: "production server",
			gate: Gate{IsServer: true},
			expected: []string{
				"ignore", "hashed-module-ids", "define", "ssr-import",
				"module-concatenation", "pages-manifest",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Default(Options{OutputPath: "/app/.pagepack"}).Build(tt.gate)
			require.Equal(t, tt.expected, Names(got))
		})
	}
}

func TestDefault_manifestsCarryOutputPath(t *testing.T) {
	got := Default(Options{OutputPath: "/app/.pagepack/server"}).Build(Gate{IsServer: true})

	pm, ok := Find[PagesManifest](got)
	require.True(t, ok)
	require.Equal(t, PagesManifest{Filename: PagesManifestFile, OutputPath: "/app/.pagepack/server"}, pm)

	_, ok = Find[BuildManifest](got)
	require.False(t, ok)
}

func TestDefault_ellipticIgnoreInEveryMode(t *testing.T) {
	for _, g := range []Gate{{}, {Dev: true}, {IsServer: true}, {Dev: true, IsServer: true}} {
		ig, ok := Find[Ignore](Default(Options{}).Build(g))
		require.True(t, ok)
		require.Equal(t, EllipticPrecomputedIgnore(), ig)
	}
}

func TestNodeEnv(t *testing.T) {
	require.Equal(t, map[string]string{"process.env.NODE_ENV": `"production"`}, NodeEnv("production").Values)
}

func TestMarshalList(t *testing.T) {
	data, err := MarshalList([]Descriptor{NodeEnv("development"), HotReload{}})
	require.NoError(t, err)
	require.JSONEq(t, `[
		{"name":"define","options":{"values":{"process.env.NODE_ENV":"\"development\""}}},
		{"name":"hot-reload","options":{}}
	]`, string(data))
}
