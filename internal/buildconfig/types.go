package buildconfig

import (
	"encoding/json"

	"github.com/wolfeidau/pagepack/internal/entries"
	"github.com/wolfeidau/pagepack/internal/externals"
	"github.com/wolfeidau/pagepack/internal/naming"
	"github.com/wolfeidau/pagepack/internal/optimization"
	"github.com/wolfeidau/pagepack/internal/plugins"
)

const (
	TargetWeb  = "web"
	TargetNode = "node"

	ModeDevelopment = "development"
	ModeProduction  = "production"
)

// ProjectConfig is the project supplied part of a build. Values are expected to
// be validated by whoever loads them.
type ProjectConfig struct {
	DistDir        string       `json:"distDir" yaml:"distDir"`
	PageExtensions []string     `json:"pageExtensions" yaml:"pageExtensions"`
	OverrideHook   OverrideHook `json:"-" yaml:"-"`
}

// BuildContext describes one build invocation.
type BuildContext struct {
	ProjectDirectory string
	Dev              bool
	IsServer         bool
	// BuildID is opaque and only passed through.
	BuildID string
	Config  ProjectConfig
}

// OverrideHook lets a project rewrite the assembled configuration. The result
// replaces the configuration wholesale.
type OverrideHook func(cfg Configuration, hc HookContext) (Configuration, error)

// HookContext is passed to the override hook.
type HookContext struct {
	ProjectDirectory string         `json:"dir"`
	Dev              bool           `json:"dev"`
	IsServer         bool           `json:"isServer"`
	BuildID          string         `json:"buildId"`
	Config           ProjectConfig  `json:"config"`
	DefaultLoaders   DefaultLoaders `json:"defaultLoaders"`
	TotalPageCount   int            `json:"totalPages"`
}

type Loader struct {
	Loader  string         `json:"loader"`
	Options map[string]any `json:"options,omitempty"`
}

type DefaultLoaders struct {
	Babel         Loader `json:"babel"`
	HotSelfAccept Loader `json:"hotSelfAccept"`
}

type Rule struct {
	Test    string   `json:"test"`
	Include []string `json:"include,omitempty"`
	Exclude string   `json:"exclude,omitempty"`
	Use     Loader   `json:"use"`
}

type Module struct {
	Rules []Rule `json:"rules"`
}

type Output struct {
	Path                          string        `json:"path"`
	Naming                        naming.Policy `json:"naming"`
	ChunkFilename                 string        `json:"chunkFilename"`
	HotUpdateChunkFilename        string        `json:"hotUpdateChunkFilename"`
	HotUpdateMainFilename         string        `json:"hotUpdateMainFilename"`
	LibraryTarget                 string        `json:"libraryTarget"`
	StrictModuleExceptionHandling bool          `json:"strictModuleExceptionHandling"`
}

// Filename names an entry chunk.
func (o Output) Filename(c naming.Chunk) string {
	return o.Naming.Filename(c)
}

type Resolve struct {
	Extensions []string          `json:"extensions"`
	Modules    []string          `json:"modules"`
	Alias      map[string]string `json:"alias,omitempty"`
}

type ResolveLoader struct {
	Modules []string `json:"modules"`
}

// Configuration is the complete set of directives for one compilation.
type Configuration struct {
	Name          string               `json:"name"`
	Target        string               `json:"target"`
	Mode          string               `json:"mode"`
	Devtool       string               `json:"devtool,omitempty"`
	Context       string               `json:"context"`
	RecordsPath   string               `json:"recordsPath"`
	Entry         entries.Source       `json:"-"`
	Output        Output               `json:"output"`
	Resolve       Resolve              `json:"resolve"`
	ResolveLoader ResolveLoader        `json:"resolveLoader"`
	Externals     externals.Policy     `json:"externals"`
	Optimization  optimization.Result  `json:"optimization"`
	Module        Module               `json:"module"`
	Plugins       []plugins.Descriptor `json:"-"`
}

// IsServer reports whether the configuration targets node.
func (c Configuration) IsServer() bool {
	return c.Target == TargetNode
}

// IsDev reports whether the configuration is a development build.
func (c Configuration) IsDev() bool {
	return c.Mode == ModeDevelopment
}

// Entries evaluates the entry source.
func (c Configuration) Entries() entries.PageEntries {
	if c.Entry == nil {
		return entries.PageEntries{}
	}
	return c.Entry.Entries()
}

type configurationJSON Configuration

// MarshalJSON renders the configuration with the entry mapping evaluated.
func (c Configuration) MarshalJSON() ([]byte, error) {
	pluginList, err := plugins.MarshalList(c.Plugins)
	if err != nil {
		return nil, err
	}

	return json.Marshal(struct {
		configurationJSON
		Entry   entries.PageEntries `json:"entry"`
		Plugins json.RawMessage     `json:"plugins"`
	}{
		configurationJSON: configurationJSON(c),
		Entry:             c.Entries(),
		Plugins:           pluginList,
	})
}
