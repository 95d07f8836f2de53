package bundler

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/wolfeidau/pagepack/internal/buildconfig"
	"github.com/wolfeidau/pagepack/internal/plugins"
	"github.com/wolfeidau/pagepack/internal/telemetry"
)

const (
	virtualEntryPrefix    = "pagepack-entry:"
	virtualEntryNamespace = "pagepack-entry"
	ignoredNamespace      = "pagepack-ignored"
)

// virtualEntryPlugin serves entries with zero or several modules as a
// generated module importing each one in order.
func virtualEntryPlugin(ents map[string][]string) api.Plugin {
	return api.Plugin{
		Name: "virtual-entries",
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: "^" + regexp.QuoteMeta(virtualEntryPrefix)}, func(args api.OnResolveArgs) (api.OnResolveResult, error) {
				return api.OnResolveResult{
					Path:      strings.TrimPrefix(args.Path, virtualEntryPrefix),
					Namespace: virtualEntryNamespace,
				}, nil
			})

			build.OnLoad(api.OnLoadOptions{Filter: ".*", Namespace: virtualEntryNamespace}, func(args api.OnLoadArgs) (api.OnLoadResult, error) {
				modules, ok := ents[args.Path]
				if !ok {
					return api.OnLoadResult{}, fmt.Errorf("unknown entry %q", args.Path)
				}

				var b strings.Builder
				for _, m := range modules {
					fmt.Fprintf(&b, "import %q;\n", m)
				}
				contents := b.String()

				return api.OnLoadResult{
					Contents:   &contents,
					ResolveDir: build.InitialOptions.AbsWorkingDir,
					Loader:     api.LoaderJS,
				}, nil
			})
		},
	}
}

// externalsPlugin leaves third party server modules to be required at runtime.
func externalsPlugin(ctx context.Context, cfg buildconfig.Configuration) api.Plugin {
	policy := cfg.Externals
	decisions := telemetry.GetMetrics().ExternalsDecisions

	return api.Plugin{
		Name: "externals",
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: ".*"}, func(args api.OnResolveArgs) (api.OnResolveResult, error) {
				if args.Kind == api.ResolveEntryPoint || args.Namespace == ignoredNamespace {
					return api.OnResolveResult{}, nil
				}

				d := policy.Decide(args.Path)
				decisions.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", string(d.Reason))))

				if !d.External {
					return api.OnResolveResult{}, nil
				}

				log.Debug().Str("request", d.Request).Str("resolved", d.Resolved).Msg("externalized")

				return api.OnResolveResult{Path: d.Request, External: true}, nil
			})
		},
	}
}

// ignorePlugin replaces matching requests with an empty module.
func ignorePlugin(p plugins.Ignore) (api.Plugin, error) {
	contextPattern, err := regexp.Compile(p.ContextPattern)
	if err != nil {
		return api.Plugin{}, fmt.Errorf("invalid ignore context pattern: %w", err)
	}
	if _, err := regexp.Compile(p.ResourcePattern); err != nil {
		return api.Plugin{}, fmt.Errorf("invalid ignore resource pattern: %w", err)
	}

	return api.Plugin{
		Name: "ignore",
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: p.ResourcePattern}, func(args api.OnResolveArgs) (api.OnResolveResult, error) {
				if !contextPattern.MatchString(args.ResolveDir) {
					return api.OnResolveResult{}, nil
				}
				return api.OnResolveResult{Path: args.Path, Namespace: ignoredNamespace}, nil
			})

			build.OnLoad(api.OnLoadOptions{Filter: ".*", Namespace: ignoredNamespace}, func(args api.OnLoadArgs) (api.OnLoadResult, error) {
				empty := ""
				return api.OnLoadResult{Contents: &empty, Loader: api.LoaderJS}, nil
			})
		},
	}, nil
}
