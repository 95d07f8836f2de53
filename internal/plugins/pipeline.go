// Package plugins builds the ordered list of build observer plugins for a
// compilation. Order matters: manifest writers must run after naming and
// chunk decisions are final, so they are declared last.
package plugins

// Gate is the build mode a predicate is evaluated against.
type Gate struct {
	Dev      bool
	IsServer bool
}

// Predicate decides whether a plugin takes part in a build.
type Predicate func(Gate) bool

// Factory creates a plugin instance.
type Factory func() Descriptor

// Descriptor is an opaque plugin instance handed to the bundler.
type Descriptor interface {
	Name() string
}

func Always(Gate) bool       { return true }
func Dev(g Gate) bool        { return g.Dev }
func Production(g Gate) bool { return !g.Dev }
func Server(g Gate) bool     { return g.IsServer }
func Client(g Gate) bool     { return !g.IsServer }

// All is true when every predicate is true.
func All(preds ...Predicate) Predicate {
	return func(g Gate) bool {
		for _, p := range preds {
			if !p(g) {
				return false
			}
		}
		return true
	}
}

type step struct {
	when    Predicate
	factory Factory
}

// Builder is an ordered list of gated plugin factories.
type Builder struct {
	steps []step
}

func NewBuilder() *Builder {
	return &Builder{}
}

// Add appends a gated factory.
func (b *Builder) Add(when Predicate, factory Factory) *Builder {
	b.steps = append(b.steps, step{when: when, factory: factory})
	return b
}

// Len is the number of declared steps.
func (b *Builder) Len() int {
	return len(b.steps)
}

// Build instantiates, in declaration order, every plugin whose predicate holds.
func (b *Builder) Build(g Gate) []Descriptor {
	out := make([]Descriptor, 0, len(b.steps))
	for _, s := range b.steps {
		if s.when(g) {
			out = append(out, s.factory())
		}
	}
	return out
}

// Options configures the default pipeline.
type Options struct {
	// OutputPath is the absolute output directory of the compilation.
	OutputPath string
}

// Default declares the standard pipeline.
func Default(opts Options) *Builder {
	return NewBuilder().
		Add(Always, func() Descriptor { return EllipticPrecomputedIgnore() }).
		Add(Dev, func() Descriptor { return NoEmitOnErrors{} }).
		Add(All(Dev, Client), func() Descriptor { return HotReload{} }).
		// client and server compilations share a manifest so both invalidate
		Add(Dev, func() Descriptor { return ModuleCacheInvalidation{} }).
		Add(Dev, func() Descriptor { return CaseSensitivePaths{} }).
		Add(Production, func() Descriptor { return HashedModuleIDs{} }).
		Add(Dev, func() Descriptor { return NodeEnv("development") }).
		Add(Production, func() Descriptor { return NodeEnv("production") }).
		Add(Server, func() Descriptor { return SSRImport{} }).
		Add(Production, func() Descriptor { return ModuleConcatenation{} }).
		Add(Server, func() Descriptor { return PagesManifest{Filename: PagesManifestFile, OutputPath: opts.OutputPath} }).
		Add(Client, func() Descriptor { return BuildManifest{Filename: BuildManifestFile, OutputPath: opts.OutputPath} }).
		Add(Client, func() Descriptor { return LoadableManifest{Filename: LoadableManifestFile, OutputPath: opts.OutputPath} })
}
