package commands

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"

	"github.com/wolfeidau/pagepack/internal/buildconfig"
	"github.com/wolfeidau/pagepack/internal/bundler"
	"github.com/wolfeidau/pagepack/internal/pages"
)

const rebuildDelay = 100 * time.Millisecond

// BuildCmd builds the client and server bundles.
type BuildCmd struct {
	Project `embed:""`
	Watch   bool `help:"Rebuild when pages change" default:"false"`
}

func (c *BuildCmd) Run(ctx context.Context, globals *Globals) error {
	defer startTelemetry(ctx, globals)()

	s, err := c.open()
	if err != nil {
		return err
	}

	configs, err := s.assembleAll(ctx, c.Dev)
	if err != nil {
		return err
	}

	if err := s.buildAll(ctx, configs); err != nil {
		if !c.Watch {
			return err
		}
		log.Error().Err(err).Msg("build failed, waiting for changes")
	}

	if !c.Watch {
		return nil
	}

	return s.watch(ctx, c.Dev, configs)
}

func (s *session) assembleAll(ctx context.Context, dev bool) ([]buildconfig.Configuration, error) {
	var configs []buildconfig.Configuration
	for _, isServer := range []bool{false, true} {
		cfg, err := s.assemble(ctx, dev, isServer)
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}

func (s *session) buildAll(ctx context.Context, configs []buildconfig.Configuration) error {
	for _, cfg := range configs {
		if _, err := bundler.Build(ctx, cfg, bundler.Options{BuildID: s.buildID}); err != nil {
			return err
		}
	}
	log.Info().Str("buildId", s.buildID).Msg("build complete")
	return nil
}

// watch rebuilds on page changes. Added or removed pages require a fresh
// assembly, edits only re-evaluate the existing entry sources.
func (s *session) watch(ctx context.Context, dev bool, configs []buildconfig.Configuration) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	root := filepath.Join(s.dir, pages.DefaultDir)
	if err := addDirs(watcher, root); err != nil {
		return err
	}

	log.Info().Str("dir", root).Msg("watching for changes")

	var (
		timer      *time.Timer
		fire       <-chan time.Time
		reassemble bool
	)

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("watch error")
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) || ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
				reassemble = true
				if ev.Has(fsnotify.Create) {
					_ = addDirs(watcher, ev.Name)
				}
			}
			if timer == nil {
				timer = time.NewTimer(rebuildDelay)
			} else {
				timer.Reset(rebuildDelay)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			if reassemble {
				next, err := s.assembleAll(ctx, dev)
				if err != nil {
					log.Error().Err(err).Msg("failed to assemble configuration")
					continue
				}
				configs, reassemble = next, false
			}
			if err := s.buildAll(ctx, configs); err != nil {
				log.Error().Err(err).Msg("rebuild failed")
			}
		}
	}
}

func addDirs(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		return watcher.Add(p)
	})
}
