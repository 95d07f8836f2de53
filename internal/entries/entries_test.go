package entries

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		in       PageEntries
		expected PageEntries
	}{
		{
			name:     "main.js folded in front of commons",
			in:       PageEntries{"main.js": {"A"}, "static/commons/main.js": {"B"}},
			expected: PageEntries{"static/commons/main.js": {"A", "B"}},
		},
		{
			name:     "empty main.js is dropped",
			in:       PageEntries{"main.js": {}, "static/commons/main.js": {"B"}},
			expected: PageEntries{"static/commons/main.js": {"B"}},
		},
		{
			name:     "relative order kept",
			in:       PageEntries{"main.js": {"A1", "A2"}, "static/commons/main.js": {"B1", "B2"}},
			expected: PageEntries{"static/commons/main.js": {"A1", "A2", "B1", "B2"}},
		},
		{
			name:     "main.js without commons creates commons",
			in:       PageEntries{"main.js": {"A"}},
			expected: PageEntries{"static/commons/main.js": {"A"}},
		},
		{
			name:     "no main.js is a no-op",
			in:       PageEntries{"bundles/pages/index.js": {"./pages/index.js"}},
			expected: PageEntries{"bundles/pages/index.js": {"./pages/index.js"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, Normalize(tt.in))
		})
	}
}

func TestNormalize_doesNotMutateInput(t *testing.T) {
	in := PageEntries{"main.js": {"A"}, "static/commons/main.js": {"B"}}

	_ = Normalize(in)

	require.Equal(t, PageEntries{"main.js": {"A"}, "static/commons/main.js": {"B"}}, in)
}

func TestBootstrap(t *testing.T) {
	client := Bootstrap(false, "/fw/dist/client/main.js")
	require.Equal(t, PageEntries{
		"main.js":                {},
		"static/commons/main.js": {"/fw/dist/client/main.js"},
	}, client)

	require.Empty(t, Bootstrap(true, "/fw/dist/client/main.js"))
}

func TestResolver_pagesWinOnCollision(t *testing.T) {
	pages := PageEntries{
		"bundles/pages/index.js": {"./pages/index.js"},
		"static/commons/main.js": {"./custom.js"},
	}

	r := NewResolver(pages, false, "/fw/main.js")

	require.Equal(t, PageEntries{
		"main.js":                {},
		"static/commons/main.js": {"./custom.js"},
		"bundles/pages/index.js": {"./pages/index.js"},
	}, r.Entries())
}

func TestResolver_server(t *testing.T) {
	pages := PageEntries{"bundles/pages/index.js": {"./pages/index.js"}}

	got := Finalize(NewResolver(pages, true, "/fw/main.js")).Entries()

	require.Equal(t, pages, got)
	require.NotContains(t, got, "static/commons/main.js")
}

func TestFinalize_idempotent(t *testing.T) {
	r := NewResolver(PageEntries{"bundles/pages/index.js": {"./pages/index.js"}}, false, "/fw/main.js")
	src := Finalize(r)

	first := src.Entries()
	first["static/commons/main.js"] = append(first["static/commons/main.js"], "mutated")
	delete(first, "bundles/pages/index.js")

	second := src.Entries()
	require.Equal(t, PageEntries{
		"static/commons/main.js": {"/fw/main.js"},
		"bundles/pages/index.js": {"./pages/index.js"},
	}, second)
	require.NotContains(t, second, LegacyMain)
}

func TestFinalize_promotesModulesAddedToMain(t *testing.T) {
	base := NewResolver(PageEntries{}, false, "/fw/main.js")
	hooked := SourceFunc(func() PageEntries {
		e := base.Entries()
		e[LegacyMain] = append(e[LegacyMain], "./polyfills.js")
		return e
	})

	got := Finalize(hooked).Entries()

	require.Equal(t, PageEntries{"static/commons/main.js": {"./polyfills.js", "/fw/main.js"}}, got)
}

func TestStatic(t *testing.T) {
	src := Static(PageEntries{"a.js": {"./a.js"}})

	e := src.Entries()
	e["a.js"][0] = "changed"

	require.Equal(t, PageEntries{"a.js": {"./a.js"}}, src.Entries())
	require.Equal(t, []string{"a.js"}, src.Entries().Keys())
}
