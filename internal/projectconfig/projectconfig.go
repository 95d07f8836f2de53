// Package projectconfig loads pagepack.yaml from a project directory.
package projectconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/wolfeidau/pagepack/internal/buildconfig"
	"github.com/wolfeidau/pagepack/internal/jsonpatch"
)

// Filename is the project config file name.
const Filename = "pagepack.yaml"

var ErrInvalidConfig = errors.New("invalid project config")

// File is the on disk shape of pagepack.yaml.
type File struct {
	DistDir        string   `yaml:"distDir"`
	PageExtensions []string `yaml:"pageExtensions"`
	// Override is a JSON Patch file, relative to the project, applied to the
	// assembled configuration.
	Override string `yaml:"override"`
}

// Default returns the config used when no file is present.
func Default() File {
	return File{
		DistDir:        ".pagepack",
		PageExtensions: []string{"jsx", "js"},
	}
}

// Load reads and validates the project config in dir. A missing file yields
// the defaults.
func Load(dir string) (buildconfig.ProjectConfig, error) {
	f := Default()

	data, err := os.ReadFile(filepath.Join(dir, Filename))
	switch {
	case errors.Is(err, os.ErrNotExist):
		log.Debug().Str("dir", dir).Msg("no project config, using defaults")
	case err != nil:
		return buildconfig.ProjectConfig{}, fmt.Errorf("failed to read %s: %w", Filename, err)
	default:
		if err := yaml.Unmarshal(data, &f); err != nil {
			return buildconfig.ProjectConfig{}, fmt.Errorf("failed to parse %s: %w", Filename, err)
		}
	}

	if err := f.Validate(); err != nil {
		return buildconfig.ProjectConfig{}, err
	}

	cfg := buildconfig.ProjectConfig{
		DistDir:        f.DistDir,
		PageExtensions: f.PageExtensions,
	}

	if f.Override != "" {
		hook, err := loadOverride(filepath.Join(dir, f.Override))
		if err != nil {
			return buildconfig.ProjectConfig{}, err
		}
		cfg.OverrideHook = hook
	}

	return cfg, nil
}

// Validate checks the values the assembler relies on.
func (f File) Validate() error {
	if f.DistDir == "" {
		return fmt.Errorf("%w: distDir is required", ErrInvalidConfig)
	}
	if filepath.IsAbs(f.DistDir) {
		return fmt.Errorf("%w: distDir %q must be relative", ErrInvalidConfig, f.DistDir)
	}
	if len(f.PageExtensions) == 0 {
		return fmt.Errorf("%w: pageExtensions must not be empty", ErrInvalidConfig)
	}
	for _, ext := range f.PageExtensions {
		if ext == "" || strings.HasPrefix(ext, ".") {
			return fmt.Errorf("%w: page extension %q must be non-empty without a leading dot", ErrInvalidConfig, ext)
		}
	}
	return nil
}

func loadOverride(path string) (buildconfig.OverrideHook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read override %s: %w", path, err)
	}

	// accept yaml as well as json, yaml is a superset
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse override %s: %w", path, err)
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}

	p, err := jsonpatch.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid override %s: %w", path, err)
	}

	return buildconfig.PatchHook(p)
}
