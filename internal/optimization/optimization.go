package optimization

import (
	"math"

	"github.com/wolfeidau/pagepack/internal/naming"
)

// CommonsGroup is the cache group name for modules shared across pages.
const CommonsGroup = "commons"

// Result is the chunk splitting and minification strategy for one build.
type Result struct {
	// SplitChunks is nil when chunk splitting is disabled.
	SplitChunks *SplitChunks `json:"splitChunks"`
	Minimize    bool         `json:"minimize"`
	// RuntimeChunk is nil for server builds.
	RuntimeChunk *RuntimeChunk `json:"runtimeChunk,omitempty"`
}

type SplitChunks struct {
	Chunks      string                `json:"chunks"`
	CacheGroups map[string]CacheGroup `json:"cacheGroups"`
}

type CacheGroup struct {
	Name      string `json:"name"`
	Chunks    string `json:"chunks"`
	MinChunks int    `json:"minChunks"`
}

type RuntimeChunk struct {
	Name string `json:"name"`
}

// CommonsThreshold is the number of pages that must require a module before it
// moves to the commons chunk. Small sites never go below 2.
func CommonsThreshold(totalPages int) int {
	if totalPages > 2 {
		return int(math.Ceil(float64(totalPages) * 0.5))
	}
	return 2
}

// Decide returns the optimization strategy for a build.
func Decide(isServer, dev bool, totalPages int) Result {
	if isServer {
		return Result{}
	}

	res := Result{
		Minimize:     !dev,
		RuntimeChunk: &RuntimeChunk{Name: naming.RuntimeChunk},
	}

	// keep incremental rebuilds cheap
	if dev {
		return res
	}

	res.SplitChunks = &SplitChunks{
		Chunks: "all",
		CacheGroups: map[string]CacheGroup{
			CommonsGroup: {
				Name:      CommonsGroup,
				Chunks:    "all",
				MinChunks: CommonsThreshold(totalPages),
			},
		},
	}

	return res
}

// Commons returns the commons cache group if one is defined.
func (r Result) Commons() (CacheGroup, bool) {
	if r.SplitChunks == nil {
		return CacheGroup{}, false
	}
	g, ok := r.SplitChunks.CacheGroups[CommonsGroup]
	return g, ok
}
