// Package bundler runs an assembled configuration through esbuild.
package bundler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/wolfeidau/pagepack/internal/buildconfig"
	"github.com/wolfeidau/pagepack/internal/naming"
	"github.com/wolfeidau/pagepack/internal/plugins"
	"github.com/wolfeidau/pagepack/internal/telemetry"
)

var ErrBuildFailed = errors.New("esbuild failed with errors")

// BuildIDFile is written next to the client output.
const BuildIDFile = "BUILD_ID"

// Options holds per run settings not carried by the configuration.
type Options struct {
	BuildID string
}

// Build evaluates the entries of cfg, compiles them and writes the output,
// naming entry chunks with the configuration's naming policy.
func Build(ctx context.Context, cfg buildconfig.Configuration, opts Options) (*Result, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "bundler.Build")
	defer span.End()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	started := time.Now()
	attrs := metric.WithAttributes(attribute.String("target", cfg.Name), attribute.String("mode", cfg.Mode))

	ents := cfg.Entries()
	if len(ents) == 0 {
		return nil, errors.New("no entry points found")
	}

	buildOpts, entryOutputs, err := buildOptions(ctx, cfg, ents)
	if err != nil {
		return nil, err
	}

	log.Info().Str("target", cfg.Name).Strs("entrypoints", ents.Keys()).Msg("Building")

	result := api.Build(buildOpts)

	if len(result.Errors) > 0 {
		for _, msg := range result.Errors {
			ev := log.Error().Str("error", msg.Text)
			if msg.Location != nil {
				ev = ev.Str("file", msg.Location.File).Int("line", msg.Location.Line)
			}
			ev.Msg("Build error")
		}
		telemetry.GetMetrics().BundlerErrorsTotal.Add(ctx, int64(len(result.Errors)), attrs)
		return nil, fmt.Errorf("%w: %d errors in %s build", ErrBuildFailed, len(result.Errors), cfg.Name)
	}

	for _, msg := range result.Warnings {
		log.Warn().Str("warning", msg.Text).Msg("Build warning")
	}

	res := &Result{
		OutputPath: cfg.Output.Path,
		Files:      map[string]string{},
		renamed:    map[string]string{},
	}

	for _, file := range result.OutputFiles {
		rel, err := filepath.Rel(cfg.Output.Path, file.Path)
		if err != nil {
			return nil, err
		}
		rel = filepath.ToSlash(rel)

		emitted := rel
		if name, ok := entryOutputs[rel]; ok {
			emitted = cfg.Output.Filename(naming.Chunk{Name: name, ContentHash: naming.ContentHash(file.Contents)})
			res.Files[name] = emitted
		}

		if err := writeFile(filepath.Join(cfg.Output.Path, filepath.FromSlash(emitted)), file.Contents); err != nil {
			return nil, err
		}

		metaPath, err := filepath.Rel(cfg.Context, file.Path)
		if err != nil {
			return nil, err
		}
		res.renamed[filepath.ToSlash(metaPath)] = emitted
		res.Written = append(res.Written, emitted)

		log.Info().Str("file", emitted).Msg("Built file")
	}

	var metadata BuildMetadata
	if err := json.Unmarshal([]byte(result.Metafile), &metadata); err != nil {
		return nil, fmt.Errorf("failed to parse metafile: %w", err)
	}
	res.Metadata = &metadata

	if err := writeManifests(cfg, res); err != nil {
		return nil, err
	}

	if !cfg.IsServer() && opts.BuildID != "" {
		if err := writeFile(filepath.Join(cfg.Output.Path, BuildIDFile), []byte(opts.BuildID)); err != nil {
			return nil, err
		}
	}

	telemetry.GetMetrics().OutputFilesTotal.Add(ctx, int64(len(res.Written)), attrs)
	telemetry.GetMetrics().BuildDuration.Record(ctx, float64(time.Since(started).Milliseconds()), attrs)

	return res, nil
}

// buildOptions translates cfg to esbuild options. The returned map links
// output paths, relative to the output directory, to entry chunk names.
func buildOptions(ctx context.Context, cfg buildconfig.Configuration, ents map[string][]string) (api.BuildOptions, map[string]string, error) {
	isServer := cfg.IsServer()
	entryOutputs := map[string]string{}

	var eps []api.EntryPoint
	for _, name := range sortedKeys(ents) {
		outPath := strings.TrimSuffix(name, path.Ext(name))
		entryOutputs[outPath+".js"] = name

		input := virtualEntryPrefix + name
		if modules := ents[name]; len(modules) == 1 {
			input = modules[0]
		}
		eps = append(eps, api.EntryPoint{InputPath: input, OutputPath: outPath})
	}

	esPlugins := []api.Plugin{virtualEntryPlugin(ents)}

	if !cfg.Externals.Empty() {
		esPlugins = append(esPlugins, externalsPlugin(ctx, cfg))
	}

	define := map[string]string{}
	for _, d := range cfg.Plugins {
		switch p := d.(type) {
		case plugins.Ignore:
			ip, err := ignorePlugin(p)
			if err != nil {
				return api.BuildOptions{}, nil, err
			}
			esPlugins = append(esPlugins, ip)
		case plugins.Define:
			maps.Copy(define, p.Values)
		case plugins.PagesManifest, plugins.BuildManifest, plugins.LoadableManifest:
			// written after the build from the metafile
		default:
			log.Debug().Str("plugin", d.Name()).Msg("no esbuild equivalent, skipping")
		}
	}

	minify := cfg.Optimization.Minimize

	return api.BuildOptions{
		AbsWorkingDir:       cfg.Context,
		EntryPointsAdvanced: eps,
		Bundle:              true,
		Write:               false,
		Metafile:            true,
		Outdir:              cfg.Output.Path,
		Platform:            cond(isServer, api.PlatformNode, api.PlatformBrowser),
		Format:              cond(isServer, api.FormatCommonJS, api.FormatESModule),
		Splitting:           cfg.Optimization.SplitChunks != nil,
		ChunkNames:          strings.TrimSuffix(cfg.Output.ChunkFilename, ".js"),
		JSX:                 api.JSXAutomatic,
		Loader:              loaders(cfg),
		ResolveExtensions:   cfg.Resolve.Extensions,
		NodePaths:           nodePaths(cfg.Resolve.Modules),
		Alias:               cfg.Resolve.Alias,
		Define:              define,
		MinifyWhitespace:    minify,
		MinifyIdentifiers:   minify,
		MinifySyntax:        minify,
		TreeShaking:         cond(minify, api.TreeShakingTrue, api.TreeShakingDefault),
		Sourcemap:           cond(cfg.Devtool != "", api.SourceMapLinked, api.SourceMapNone),
		Plugins:             esPlugins,
		LogLevel:            api.LogLevelSilent,
	}, entryOutputs, nil
}

// loaders maps every extension named by a module rule to the JSX loader.
func loaders(cfg buildconfig.Configuration) map[string]api.Loader {
	out := map[string]api.Loader{".js": api.LoaderJSX, ".jsx": api.LoaderJSX}
	for _, rule := range cfg.Module.Rules {
		inner := strings.TrimSuffix(strings.TrimPrefix(rule.Test, `\.(`), `)$`)
		for _, ext := range strings.Split(inner, "|") {
			ext = strings.ReplaceAll(ext, `\`, "")
			switch ext {
			case "ts":
				out[".ts"] = api.LoaderTS
			case "tsx":
				out[".tsx"] = api.LoaderTSX
			case "", "json", "css":
			default:
				out["."+ext] = api.LoaderJSX
			}
		}
	}
	return out
}

// nodePaths keeps the absolute module directories, esbuild already walks
// node_modules on its own.
func nodePaths(modules []string) []string {
	var out []string
	for _, m := range modules {
		if filepath.IsAbs(m) {
			out = append(out, m)
		}
	}
	return out
}

func writeFile(dst string, contents []byte) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dst, contents, 0o644) //nolint:gosec
}

func cond[T any](condition bool, trueVal, falseVal T) T {
	if condition {
		return trueVal
	}
	return falseVal
}
