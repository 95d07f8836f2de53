package bundler

import (
	"path"
	"slices"
	"strings"
)

// BuildMetadata is the part of the esbuild metafile the manifests need.
type BuildMetadata struct {
	Outputs map[string]OutputInfo `json:"outputs"`
}

type OutputInfo struct {
	EntryPoint string       `json:"entryPoint"`
	Imports    []ImportInfo `json:"imports"`
}

type ImportInfo struct {
	Path     string `json:"path"`
	Kind     string `json:"kind"`
	External bool   `json:"external"`
}

// Result describes the files written by a build.
type Result struct {
	OutputPath string
	// Files maps entry chunk names to emitted paths relative to OutputPath.
	Files map[string]string
	// Written lists every emitted path relative to OutputPath.
	Written  []string
	Metadata *BuildMetadata

	// renamed maps metafile output paths to emitted paths.
	renamed map[string]string
}

// Scripts returns the ordered files an entry chunk loads: the entry file
// followed by its static imports, depth first.
func (r *Result) Scripts(entry string) []string {
	out, ok := r.metaPathFor(entry)
	if !ok {
		return nil
	}

	scripts := []string{r.emitted(out)}
	visited := map[string]bool{out: true}
	r.addDependencies(r.Metadata.Outputs[out], &scripts, visited)
	return scripts
}

func (r *Result) addDependencies(output OutputInfo, scripts *[]string, visited map[string]bool) {
	for _, imp := range output.Imports {
		if imp.External || imp.Kind == "dynamic-import" || visited[imp.Path] {
			continue
		}
		visited[imp.Path] = true
		*scripts = append(*scripts, r.emitted(imp.Path))

		if chunkInfo, exists := r.Metadata.Outputs[imp.Path]; exists {
			r.addDependencies(chunkInfo, scripts, visited)
		}
	}
}

// DynamicChunks maps each dynamically imported source module to the files
// that must be loaded for it.
func (r *Result) DynamicChunks() map[string][]string {
	if r.Metadata == nil {
		return nil
	}

	entryOutputs := map[string]bool{}
	for name := range r.Files {
		if out, ok := r.metaPathFor(name); ok {
			entryOutputs[out] = true
		}
	}

	chunks := map[string][]string{}
	for out, info := range r.Metadata.Outputs {
		if info.EntryPoint == "" || entryOutputs[out] || strings.HasSuffix(out, ".map") {
			continue
		}
		files := []string{r.emitted(out)}
		visited := map[string]bool{out: true}
		r.addDependencies(info, &files, visited)
		chunks[info.EntryPoint] = files
	}
	return chunks
}

func (r *Result) metaPathFor(entry string) (string, bool) {
	if r.Metadata == nil {
		return "", false
	}
	for out := range r.Metadata.Outputs {
		if r.renamed[out] == r.Files[entry] && r.Files[entry] != "" {
			return out, true
		}
	}
	return "", false
}

func (r *Result) emitted(metaPath string) string {
	if e, ok := r.renamed[metaPath]; ok {
		return e
	}
	return metaPath
}

// Route converts a page entry name to its URL path, bundles/pages/blog/index.js
// becomes /blog.
func Route(entry string) string {
	route := strings.TrimSuffix(strings.TrimPrefix(entry, "bundles/pages"), path.Ext(entry))
	route = strings.TrimSuffix(route, "/index")
	if route == "" {
		return "/"
	}
	return route
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
