package entries

import (
	"maps"
	"slices"

	"github.com/wolfeidau/pagepack/internal/naming"
)

// LegacyMain is the entry key kept only so consumers that expect it keep working.
// It never survives Normalize.
const LegacyMain = "main.js"

// PageEntries maps an entry chunk name to the modules it loads, first listed loads first.
type PageEntries map[string][]string

// Clone returns a deep copy.
func (p PageEntries) Clone() PageEntries {
	out := make(PageEntries, len(p))
	for k, v := range p {
		out[k] = slices.Clone(v)
		if out[k] == nil {
			out[k] = []string{}
		}
	}
	return out
}

// Keys returns the entry names in sorted order.
func (p PageEntries) Keys() []string {
	return slices.Sorted(maps.Keys(p))
}

// Source recomputes the entry mapping. Implementations must be safe to call
// repeatedly and must return a map the caller is free to mutate.
type Source interface {
	Entries() PageEntries
}

// SourceFunc adapts a function to a Source.
type SourceFunc func() PageEntries

func (f SourceFunc) Entries() PageEntries {
	return f()
}

// Static returns a Source that always yields a copy of p.
func Static(p PageEntries) Source {
	snapshot := p.Clone()
	return SourceFunc(func() PageEntries {
		return snapshot.Clone()
	})
}

// Bootstrap returns the base entry mapping before page entries are merged in.
// Server builds have no client bootstrap.
func Bootstrap(isServer bool, bootstrapModule string) PageEntries {
	if isServer {
		return PageEntries{}
	}

	return PageEntries{
		LegacyMain:         {},
		naming.CommonsMain: {bootstrapModule},
	}
}

// Resolver builds the entry mapping from discovered pages.
type Resolver struct {
	pages           PageEntries
	isServer        bool
	bootstrapModule string
}

// NewResolver creates a resolver over a snapshot of pages.
func NewResolver(pages PageEntries, isServer bool, bootstrapModule string) *Resolver {
	return &Resolver{
		pages:           pages.Clone(),
		isServer:        isServer,
		bootstrapModule: bootstrapModule,
	}
}

// Entries merges page entries over the bootstrap mapping, pages win on collision.
func (r *Resolver) Entries() PageEntries {
	out := Bootstrap(r.isServer, r.bootstrapModule)
	for k, v := range r.pages {
		out[k] = slices.Clone(v)
	}
	return out
}

// Normalize folds the legacy main.js modules in front of the commons bootstrap
// and drops the legacy key. The input is not modified.
func Normalize(in PageEntries) PageEntries {
	out := in.Clone()

	legacy, ok := out[LegacyMain]
	if !ok {
		return out
	}

	merged := make([]string, 0, len(legacy)+len(out[naming.CommonsMain]))
	merged = append(merged, legacy...)
	merged = append(merged, out[naming.CommonsMain]...)

	out[naming.CommonsMain] = merged
	delete(out, LegacyMain)

	return out
}

// Finalize wraps src so every evaluation applies Normalize.
func Finalize(src Source) Source {
	return SourceFunc(func() PageEntries {
		if src == nil {
			return PageEntries{}
		}
		return Normalize(src.Entries())
	})
}
