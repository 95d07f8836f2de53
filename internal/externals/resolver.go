package externals

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var ErrNotFound = errors.New("module not found")

// Resolver resolves an import request to an absolute path.
type Resolver interface {
	Resolve(request, basedir string, preserveSymlinks bool) (string, error)
}

// DefaultExtensions are tried, in order, when a request has no exact file match.
var DefaultExtensions = []string{".js", ".json", ".node"}

// NodeResolver implements the Node.js require resolution algorithm against the
// local filesystem. Core modules resolve to their bare name.
type NodeResolver struct {
	Extensions []string
	// Paths are searched after the node_modules hierarchy, typically NODE_PATH.
	Paths []string
}

// NewNodeResolver creates a resolver using the default extensions.
func NewNodeResolver(paths []string) *NodeResolver {
	return &NodeResolver{
		Extensions: DefaultExtensions,
		Paths:      paths,
	}
}

func (r *NodeResolver) Resolve(request, basedir string, preserveSymlinks bool) (string, error) {
	if request == "" {
		return "", fmt.Errorf("%w: empty request", ErrNotFound)
	}

	if IsBuiltin(request) {
		return request, nil
	}

	base, err := filepath.Abs(basedir)
	if err != nil {
		return "", err
	}

	var candidates []string
	if isPathRequest(request) {
		p := request
		if !filepath.IsAbs(p) {
			p = filepath.Join(base, request)
		}
		candidates = append(candidates, p)
	} else {
		for _, dir := range nodeModulesPaths(base) {
			candidates = append(candidates, filepath.Join(dir, request))
		}
		for _, dir := range r.Paths {
			candidates = append(candidates, filepath.Join(dir, request))
		}
	}

	for _, c := range candidates {
		resolved, ok := r.loadAsFile(c)
		if !ok {
			resolved, ok = r.loadAsDirectory(c)
		}
		if !ok {
			continue
		}

		if preserveSymlinks {
			return resolved, nil
		}
		return filepath.EvalSymlinks(resolved)
	}

	return "", fmt.Errorf("%w: %q from %s", ErrNotFound, request, base)
}

func (r *NodeResolver) extensions() []string {
	if len(r.Extensions) == 0 {
		return DefaultExtensions
	}
	return r.Extensions
}

func (r *NodeResolver) loadAsFile(p string) (string, bool) {
	if isFile(p) {
		return p, true
	}
	for _, ext := range r.extensions() {
		if isFile(p + ext) {
			return p + ext, true
		}
	}
	return "", false
}

func (r *NodeResolver) loadAsDirectory(p string) (string, bool) {
	if main := packageMain(filepath.Join(p, "package.json")); main != "" {
		m := filepath.Join(p, main)
		if resolved, ok := r.loadAsFile(m); ok {
			return resolved, true
		}
		if resolved, ok := r.loadIndex(m); ok {
			return resolved, true
		}
	}
	return r.loadIndex(p)
}

func (r *NodeResolver) loadIndex(p string) (string, bool) {
	for _, ext := range r.extensions() {
		idx := filepath.Join(p, "index"+ext)
		if isFile(idx) {
			return idx, true
		}
	}
	return "", false
}

func packageMain(pkgPath string) string {
	data, err := os.ReadFile(pkgPath)
	if err != nil {
		return ""
	}

	var pkg struct {
		Main string `json:"main"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil {
		return ""
	}
	return pkg.Main
}

// nodeModulesPaths lists node_modules directories from start up to the root.
func nodeModulesPaths(start string) []string {
	var dirs []string
	for dir := start; ; {
		if filepath.Base(dir) != "node_modules" {
			dirs = append(dirs, filepath.Join(dir, "node_modules"))
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dirs
		}
		dir = parent
	}
}

func isPathRequest(request string) bool {
	return request == "." || request == ".." ||
		strings.HasPrefix(request, "./") ||
		strings.HasPrefix(request, "../") ||
		filepath.IsAbs(request)
}

func isFile(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && fi.Mode().IsRegular()
}
