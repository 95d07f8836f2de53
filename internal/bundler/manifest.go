package bundler

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/wolfeidau/pagepack/internal/buildconfig"
	"github.com/wolfeidau/pagepack/internal/naming"
	"github.com/wolfeidau/pagepack/internal/pages"
	"github.com/wolfeidau/pagepack/internal/plugins"
)

// PagesManifest maps routes to server bundle files.
type PagesManifest map[string]string

// BuildManifest lists the client files each page needs.
type BuildManifest struct {
	Pages map[string][]string `json:"pages"`
}

// LoadableManifest maps dynamically imported modules to their files.
type LoadableManifest map[string][]string

func writeManifests(cfg buildconfig.Configuration, res *Result) error {
	for _, d := range cfg.Plugins {
		var (
			dst string
			doc any
		)

		switch p := d.(type) {
		case plugins.PagesManifest:
			dst, doc = filepath.Join(p.OutputPath, p.Filename), pagesManifest(res)
		case plugins.BuildManifest:
			dst, doc = filepath.Join(p.OutputPath, p.Filename), buildManifest(res)
		case plugins.LoadableManifest:
			dst, doc = filepath.Join(p.OutputPath, p.Filename), LoadableManifest(res.DynamicChunks())
		default:
			continue
		}

		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return err
		}
		if err := writeFile(dst, data); err != nil {
			return fmt.Errorf("failed to write %s: %w", d.Name(), err)
		}

		log.Info().Str("manifest", dst).Msg("Wrote manifest")
	}
	return nil
}

func pagesManifest(res *Result) PagesManifest {
	m := PagesManifest{}
	for name, file := range res.Files {
		if strings.HasPrefix(name, pages.EntryPrefix) {
			m[Route(name)] = file
		}
	}
	return m
}

func buildManifest(res *Result) BuildManifest {
	m := BuildManifest{Pages: map[string][]string{}}

	commons := res.Scripts(naming.CommonsMain)
	for _, name := range sortedKeys(res.Files) {
		if !strings.HasPrefix(name, pages.EntryPrefix) {
			continue
		}
		files := append([]string{}, commons...)
		for _, f := range res.Scripts(name) {
			if !slices.Contains(files, f) {
				files = append(files, f)
			}
		}
		m.Pages[Route(name)] = files
	}
	return m
}
