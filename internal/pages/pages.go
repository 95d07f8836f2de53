// Package pages discovers routable page modules in a project.
package pages

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/pagepack/internal/entries"
)

var ErrNoPagesDir = errors.New("couldn't find a pages directory")

const (
	// DefaultDir is the pages directory relative to the project.
	DefaultDir = "pages"
	// EntryPrefix prefixes every page entry key.
	EntryPrefix = "bundles/pages/"

	errorPage    = "_error"
	documentPage = "_document"
	appPage      = "_app"
)

// Options controls which pages are discovered.
type Options struct {
	PagesDir   string
	Dev        bool
	IsServer   bool
	Extensions []string
}

// Discoverer finds page entries for a project.
type Discoverer interface {
	Discover(ctx context.Context, dir string, opts Options) (entries.PageEntries, error)
}

// FSDiscoverer scans the local filesystem.
type FSDiscoverer struct {
	// DefaultPagesDir holds the framework's fallback _error, _app and _document.
	DefaultPagesDir string
}

func NewFSDiscoverer(defaultPagesDir string) *FSDiscoverer {
	return &FSDiscoverer{DefaultPagesDir: defaultPagesDir}
}

// ExtensionPattern compiles a matcher for page files with one of exts.
func ExtensionPattern(exts []string) (glob.Glob, error) {
	return glob.Compile("**.{"+strings.Join(exts, ",")+"}", '/')
}

// Discover returns every page in production. In development only _document and
// _error are built up front, the rest are compiled on demand.
func (d *FSDiscoverer) Discover(ctx context.Context, dir string, opts Options) (entries.PageEntries, error) {
	pagesDir := opts.PagesDir
	if pagesDir == "" {
		pagesDir = DefaultDir
	}

	root := filepath.Join(dir, pagesDir)
	if fi, err := os.Stat(root); err != nil || !fi.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNoPagesDir, root)
	}

	matcher, err := ExtensionPattern(opts.Extensions)
	if err != nil {
		return nil, fmt.Errorf("invalid page extensions %v: %w", opts.Extensions, err)
	}

	found := entries.PageEntries{}
	err = filepath.WalkDir(root, func(p string, de fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if de.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if !matcher.Match(rel) {
			return nil
		}

		route := strings.TrimSuffix(rel, path.Ext(rel))
		if opts.Dev && route != errorPage && route != documentPage {
			return nil
		}
		if !opts.IsServer && route == documentPage {
			return nil
		}

		found[EntryKey(route)] = []string{"./" + path.Join(filepath.ToSlash(pagesDir), rel)}
		return nil
	})
	if err != nil {
		return nil, err
	}

	d.addDefaults(found, opts.IsServer)

	log.Debug().Str("dir", root).Strs("pages", found.Keys()).Msg("discovered pages")

	return found, nil
}

func (d *FSDiscoverer) addDefaults(found entries.PageEntries, isServer bool) {
	if d.DefaultPagesDir == "" {
		return
	}

	defaults := []string{errorPage, appPage}
	if isServer {
		defaults = append(defaults, documentPage)
	}

	for _, route := range defaults {
		key := EntryKey(route)
		if _, ok := found[key]; ok {
			continue
		}
		found[key] = []string{filepath.Join(d.DefaultPagesDir, route+".js")}
	}
}

// EntryKey returns the entry name for a route such as "blog/index".
func EntryKey(route string) string {
	return EntryPrefix + route + ".js"
}

