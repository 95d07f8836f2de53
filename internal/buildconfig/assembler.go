// Package buildconfig assembles the bundler configuration for one build.
package buildconfig

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/wolfeidau/pagepack/internal/entries"
	"github.com/wolfeidau/pagepack/internal/externals"
	"github.com/wolfeidau/pagepack/internal/naming"
	"github.com/wolfeidau/pagepack/internal/optimization"
	"github.com/wolfeidau/pagepack/internal/pages"
	"github.com/wolfeidau/pagepack/internal/plugins"
	"github.com/wolfeidau/pagepack/internal/telemetry"
)

// FrameworkPackage is the npm package providing the client runtime and default pages.
const FrameworkPackage = "pagepack"

var resolveExtensions = []string{".wasm", ".mjs", ".js", ".jsx", ".json"}

// Options configures an Assembler. Zero values fall back to the local
// filesystem collaborators.
type Options struct {
	Pages    pages.Discoverer
	Resolver externals.Resolver
	// FrameworkDir defaults to <project>/node_modules/pagepack.
	FrameworkDir string
	// SearchPaths are extra module directories, usually from NODE_PATH.
	SearchPaths []string
}

// Assembler builds Configurations. It holds no per build state and caches nothing.
type Assembler struct {
	pages        pages.Discoverer
	resolver     externals.Resolver
	frameworkDir string
	searchPaths  []string
}

func New(opts Options) *Assembler {
	a := &Assembler{
		pages:        opts.Pages,
		resolver:     opts.Resolver,
		frameworkDir: opts.FrameworkDir,
		searchPaths:  opts.SearchPaths,
	}
	if a.resolver == nil {
		a.resolver = externals.NewNodeResolver(opts.SearchPaths)
	}
	return a
}

// Assemble produces the configuration for bc. Errors from the override hook are
// returned unchanged.
func (a *Assembler) Assemble(ctx context.Context, bc BuildContext) (Configuration, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "buildconfig.Assemble")
	defer span.End()

	dir := bc.ProjectDirectory
	frameworkDir := a.frameworkDirFor(dir)
	defaultPagesDir := filepath.Join(frameworkDir, "dist", "pages")

	discoverer := a.pages
	if discoverer == nil {
		discoverer = pages.NewFSDiscoverer(defaultPagesDir)
	}

	pageEntries, err := discoverer.Discover(ctx, dir, pages.Options{
		PagesDir:   pages.DefaultDir,
		Dev:        bc.Dev,
		IsServer:   bc.IsServer,
		Extensions: bc.Config.PageExtensions,
	})
	if err != nil {
		return Configuration{}, fmt.Errorf("failed to discover pages: %w", err)
	}
	totalPages := len(pageEntries)

	outputPath := filepath.Join(dir, bc.Config.DistDir)
	if bc.IsServer {
		outputPath = filepath.Join(outputPath, "server")
	}

	loaders := defaultLoaders(dir, bc)
	namingPolicy := naming.Policy{Dev: bc.Dev, IsServer: bc.IsServer}

	cfg := Configuration{
		Name:        cond(bc.IsServer, "server", "client"),
		Target:      cond(bc.IsServer, TargetNode, TargetWeb),
		Mode:        cond(bc.Dev, ModeDevelopment, ModeProduction),
		Devtool:     cond(bc.Dev, "cheap-module-source-map", ""),
		Context:     dir,
		RecordsPath: filepath.Join(outputPath, "records.json"),
		Entry:       entries.NewResolver(pageEntries, bc.IsServer, clientBootstrap(frameworkDir, bc.Dev)),
		Output: Output{
			Path:                          outputPath,
			Naming:                        namingPolicy,
			ChunkFilename:                 namingPolicy.ChunkPattern(),
			HotUpdateChunkFilename:        naming.HotUpdateChunkFilename("[id]", "[hash]"),
			HotUpdateMainFilename:         naming.HotUpdateMainFilename("[hash]"),
			LibraryTarget:                 "commonjs2",
			StrictModuleExceptionHandling: true,
		},
		Resolve: Resolve{
			Extensions: resolveExtensions,
			Modules:    append([]string{filepath.Join(frameworkDir, "node_modules"), "node_modules"}, a.searchPaths...),
			Alias:      map[string]string{FrameworkPackage: frameworkDir},
		},
		ResolveLoader: ResolveLoader{
			Modules: append([]string{
				filepath.Join(frameworkDir, "node_modules"),
				"node_modules",
				filepath.Join(frameworkDir, "dist", "build", "loaders"),
			}, a.searchPaths...),
		},
		Externals:    externals.ForTarget(dir, bc.IsServer, a.resolver),
		Optimization: optimization.Decide(bc.IsServer, bc.Dev, totalPages),
		Module:       moduleRules(dir, frameworkDir, defaultPagesDir, bc, loaders),
		Plugins:      plugins.Default(plugins.Options{OutputPath: outputPath}).Build(plugins.Gate{Dev: bc.Dev, IsServer: bc.IsServer}),
	}

	attrs := metric.WithAttributes(attribute.String("target", cfg.Name), attribute.String("mode", cfg.Mode))

	if hook := bc.Config.OverrideHook; hook != nil {
		log.Debug().Str("target", cfg.Name).Msg("applying config override")

		cfg, err = hook(cfg, HookContext{
			ProjectDirectory: dir,
			Dev:              bc.Dev,
			IsServer:         bc.IsServer,
			BuildID:          bc.BuildID,
			Config:           bc.Config,
			DefaultLoaders:   loaders,
			TotalPageCount:   totalPages,
		})
		if err != nil {
			telemetry.GetMetrics().OverrideFailures.Add(ctx, 1, attrs)
			return Configuration{}, err
		}
	}

	// runs after the hook, which may add modules under main.js
	cfg.Entry = entries.Finalize(cfg.Entry)

	telemetry.GetMetrics().AssembleTotal.Add(ctx, 1, attrs)

	log.Debug().
		Str("target", cfg.Name).
		Str("mode", cfg.Mode).
		Int("pages", totalPages).
		Strs("plugins", plugins.Names(cfg.Plugins)).
		Msg("assembled configuration")

	return cfg, nil
}

func (a *Assembler) frameworkDirFor(dir string) string {
	if a.frameworkDir != "" {
		return a.frameworkDir
	}
	return filepath.Join(dir, "node_modules", FrameworkPackage)
}

func clientBootstrap(frameworkDir string, dev bool) string {
	return filepath.Join(frameworkDir, "dist", "client", cond(dev, "main-dev.js", "main.js"))
}

func defaultLoaders(dir string, bc BuildContext) DefaultLoaders {
	return DefaultLoaders{
		Babel: Loader{
			Loader: "pagepack-babel-loader",
			Options: map[string]any{
				"dev":      bc.Dev,
				"isServer": bc.IsServer,
				"cwd":      dir,
			},
		},
		HotSelfAccept: Loader{
			Loader: "hot-self-accept-loader",
			Options: map[string]any{
				"include":    []string{filepath.Join(dir, pages.DefaultDir)},
				"extensions": bc.Config.PageExtensions,
			},
		},
	}
}

func moduleRules(dir, frameworkDir, defaultPagesDir string, bc BuildContext, loaders DefaultLoaders) Module {
	test := extensionTest(bc.Config.PageExtensions)

	var rules []Rule
	if bc.Dev && !bc.IsServer {
		rules = append(rules, Rule{
			Test:    test,
			Include: []string{dir},
			Exclude: "node_modules",
			Use:     loaders.HotSelfAccept,
		})
	}

	rules = append(rules, Rule{
		Test:    test,
		Include: []string{dir, filepath.Join(frameworkDir, "dist", "client"), defaultPagesDir},
		Exclude: "node_modules",
		Use:     loaders.Babel,
	})

	return Module{Rules: rules}
}

func extensionTest(exts []string) string {
	quoted := make([]string, 0, len(exts))
	for _, ext := range exts {
		quoted = append(quoted, regexp.QuoteMeta(ext))
	}
	return `\.(` + strings.Join(quoted, "|") + `)$`
}

func cond[T any](condition bool, trueVal, falseVal T) T {
	if condition {
		return trueVal
	}
	return falseVal
}
