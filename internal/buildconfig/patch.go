package buildconfig

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/wolfeidau/pagepack/internal/entries"
	"github.com/wolfeidau/pagepack/internal/jsonpatch"
)

var ErrUnpatchablePath = errors.New("configuration path cannot be patched")

const entryPath = "/entry"

// PatchHook returns an override hook applying a JSON Patch to the configuration.
// Operations under /entry are replayed each time the entries are evaluated so
// the entry source stays lazy. Plugins and externals are not data and cannot
// be patched.
func PatchHook(p jsonpatch.Patch) (OverrideHook, error) {
	for _, prefix := range []string{"/plugins", "/externals"} {
		if jsonpatch.Touches(p, prefix) {
			return nil, fmt.Errorf("%w: %s", ErrUnpatchablePath, prefix)
		}
	}

	entryOps, rest, err := jsonpatch.Split(p, entryPath)
	if err != nil {
		return nil, err
	}

	return func(cfg Configuration, hc HookContext) (Configuration, error) {
		doc, err := json.Marshal(cfg)
		if err != nil {
			return Configuration{}, err
		}

		patched, err := jsonpatch.Apply(rest, doc)
		if err != nil {
			return Configuration{}, fmt.Errorf("failed to apply config patch: %w", err)
		}

		var out Configuration
		if err := json.Unmarshal(patched, &out); err != nil {
			return Configuration{}, fmt.Errorf("failed to decode patched config: %w", err)
		}

		out.Plugins = cfg.Plugins
		out.Externals = cfg.Externals
		out.Entry = cfg.Entry

		if len(entryOps) == 0 {
			return out, nil
		}

		// surface a broken entry patch now rather than at build time
		if _, err := patchEntries(entryOps, cfg.Entries()); err != nil {
			return Configuration{}, err
		}

		src := cfg.Entry
		out.Entry = entries.SourceFunc(func() entries.PageEntries {
			base := entries.PageEntries{}
			if src != nil {
				base = src.Entries()
			}
			res, err := patchEntries(entryOps, base)
			if err != nil {
				log.Error().Err(err).Msg("entry patch no longer applies, using unpatched entries")
				return base
			}
			return res
		})

		return out, nil
	}, nil
}

func patchEntries(ops jsonpatch.Patch, in entries.PageEntries) (entries.PageEntries, error) {
	doc, err := json.Marshal(map[string]entries.PageEntries{"entry": in})
	if err != nil {
		return nil, err
	}

	patched, err := jsonpatch.Apply(ops, doc)
	if err != nil {
		return nil, fmt.Errorf("failed to apply entry patch: %w", err)
	}

	var out struct {
		Entry entries.PageEntries `json:"entry"`
	}
	if err := json.Unmarshal(patched, &out); err != nil {
		return nil, fmt.Errorf("failed to decode patched entries: %w", err)
	}
	if out.Entry == nil {
		out.Entry = entries.PageEntries{}
	}
	return out.Entry, nil
}
