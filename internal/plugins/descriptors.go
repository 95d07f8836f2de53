package plugins

import "encoding/json"

const (
	PagesManifestFile    = "pages-manifest.json"
	BuildManifestFile    = "build-manifest.json"
	LoadableManifestFile = "loadable-manifest.json"
)

// Ignore drops requests matching ResourcePattern when the importing directory
// matches ContextPattern.
type Ignore struct {
	ResourcePattern string `json:"resourcePattern"`
	ContextPattern  string `json:"contextPattern"`
}

func (Ignore) Name() string { return "ignore" }

// EllipticPrecomputedIgnore excludes the optional precomputed tables of the
// elliptic library. They are large and never required at runtime.
func EllipticPrecomputedIgnore() Ignore {
	return Ignore{
		ResourcePattern: `(precomputed)`,
		ContextPattern:  `node_modules.+(elliptic)`,
	}
}

// Define replaces global identifiers with constant expressions.
type Define struct {
	Values map[string]string `json:"values"`
}

func (Define) Name() string { return "define" }

// NodeEnv defines process.env.NODE_ENV.
func NodeEnv(mode string) Define {
	v, _ := json.Marshal(mode)
	return Define{Values: map[string]string{"process.env.NODE_ENV": string(v)}}
}

type NoEmitOnErrors struct{}

func (NoEmitOnErrors) Name() string { return "no-emit-on-errors" }

type HotReload struct{}

func (HotReload) Name() string { return "hot-reload" }

// ModuleCacheInvalidation evicts deleted pages from the require cache.
type ModuleCacheInvalidation struct{}

func (ModuleCacheInvalidation) Name() string { return "module-cache-invalidation" }

type CaseSensitivePaths struct{}

func (CaseSensitivePaths) Name() string { return "case-sensitive-paths" }

type HashedModuleIDs struct{}

func (HashedModuleIDs) Name() string { return "hashed-module-ids" }

type SSRImport struct{}

func (SSRImport) Name() string { return "ssr-import" }

type ModuleConcatenation struct{}

func (ModuleConcatenation) Name() string { return "module-concatenation" }

// PagesManifest maps page routes to server bundle files.
type PagesManifest struct {
	Filename   string `json:"filename"`
	OutputPath string `json:"outputPath"`
}

func (PagesManifest) Name() string { return "pages-manifest" }

// BuildManifest maps page routes to the client files they load.
type BuildManifest struct {
	Filename   string `json:"filename"`
	OutputPath string `json:"outputPath"`
}

func (BuildManifest) Name() string { return "build-manifest" }

// LoadableManifest maps dynamically imported modules to their chunk files.
type LoadableManifest struct {
	Filename   string `json:"filename"`
	OutputPath string `json:"outputPath"`
}

func (LoadableManifest) Name() string { return "loadable-manifest" }

// Names lists the plugin names of ds in order.
func Names(ds []Descriptor) []string {
	names := make([]string, 0, len(ds))
	for _, d := range ds {
		names = append(names, d.Name())
	}
	return names
}

// Find returns the first plugin of type T.
func Find[T Descriptor](ds []Descriptor) (T, bool) {
	for _, d := range ds {
		if t, ok := d.(T); ok {
			return t, true
		}
	}
	var zero T
	return zero, false
}

// MarshalList renders plugins as {"name": ..., "options": ...} objects.
func MarshalList(ds []Descriptor) ([]byte, error) {
	type entry struct {
		Name    string     `json:"name"`
		Options Descriptor `json:"options"`
	}
	out := make([]entry, 0, len(ds))
	for _, d := range ds {
		out = append(out, entry{Name: d.Name(), Options: d})
	}
	return json.Marshal(out)
}
