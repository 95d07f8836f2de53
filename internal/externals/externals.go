// Package externals decides which module requests a server build loads at
// runtime instead of bundling.
package externals

import (
	"encoding/json"
	"os"
	"regexp"
	"strings"
)

// Reason explains a Decision.
type Reason string

const (
	ReasonUnresolved   Reason = "unresolved"
	ReasonDefaultPages Reason = "default-pages"
	ReasonBundler      Reason = "bundler"
	ReasonDependency   Reason = "dependency"
	ReasonSource       Reason = "source"
	ReasonClient       Reason = "client"
)

// KindCommonJS loads an externalized module with require at runtime.
const KindCommonJS = "commonjs"

var (
	defaultPagesPattern = regexp.MustCompile(`node_modules[/\\]pagepack[/\\]dist[/\\]pages`)
	// matches any path containing node_modules/webpack, including packages such
	// as webpack-merge. Left as is, see DESIGN.md.
	bundlerPattern          = regexp.MustCompile(`node_modules[/\\]webpack`)
	dependencyScriptPattern = regexp.MustCompile(`node_modules[/\\].*\.(js|cjs)$`)
)

// Decision is the outcome of classifying one request.
type Decision struct {
	External bool   `json:"external"`
	Kind     string `json:"kind,omitempty"`
	// Request is the original request string, not the resolved path.
	Request  string `json:"request"`
	Resolved string `json:"resolved,omitempty"`
	Reason   Reason `json:"reason"`
}

// String renders the runtime reference for an external, e.g. "commonjs react".
func (d Decision) String() string {
	if !d.External {
		return ""
	}
	return d.Kind + " " + d.Request
}

// Classify decides whether request, resolved from dir with symlinks preserved,
// is bundled or left for the server runtime to load.
func Classify(r Resolver, dir, request string) Decision {
	res, err := r.Resolve(request, dir, true)
	if err != nil {
		return Decision{Request: request, Reason: ReasonUnresolved}
	}

	d := Decision{Request: request, Resolved: res}

	switch {
	case defaultPagesPattern.MatchString(res):
		d.Reason = ReasonDefaultPages
	case bundlerPattern.MatchString(res):
		d.Reason = ReasonBundler
	case dependencyScriptPattern.MatchString(res):
		d.External = true
		d.Kind = KindCommonJS
		d.Reason = ReasonDependency
	default:
		d.Reason = ReasonSource
	}

	return d
}

// Policy applies Classify for server builds. The zero value never externalizes.
type Policy struct {
	dir      string
	resolver Resolver
}

// ForTarget returns the externals policy for a build target. Client output must
// be self contained so the client policy is empty.
func ForTarget(dir string, isServer bool, r Resolver) Policy {
	if !isServer || r == nil {
		return Policy{}
	}
	return Policy{dir: dir, resolver: r}
}

// Empty reports whether the policy never externalizes.
func (p Policy) Empty() bool {
	return p.resolver == nil
}

// Decide classifies request. Probes share no state so Decide is safe for
// concurrent use.
func (p Policy) Decide(request string) Decision {
	if p.Empty() {
		return Decision{Request: request, Reason: ReasonClient}
	}
	return Classify(p.resolver, p.dir, request)
}

func (p Policy) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Enabled bool   `json:"enabled"`
		Context string `json:"context,omitempty"`
	}{
		Enabled: !p.Empty(),
		Context: p.dir,
	})
}

// SearchPaths splits a NODE_PATH style list, dropping empty entries.
func SearchPaths(value string) []string {
	var paths []string
	for _, p := range strings.Split(value, string(os.PathListSeparator)) {
		if p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

// SearchPathsFromEnv reads NODE_PATH.
func SearchPathsFromEnv() []string {
	return SearchPaths(os.Getenv("NODE_PATH"))
}
