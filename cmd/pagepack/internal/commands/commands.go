package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/wolfeidau/pagepack/internal/buildconfig"
	"github.com/wolfeidau/pagepack/internal/externals"
	"github.com/wolfeidau/pagepack/internal/projectconfig"
	"github.com/wolfeidau/pagepack/internal/telemetry"
)

type Globals struct {
	Debug     bool
	Telemetry bool
	Version   string
}

// Project holds the flags shared by commands operating on a project.
type Project struct {
	Dir     string `arg:"" help:"Project directory" default:"." type:"existingdir"`
	Dev     bool   `help:"Development build" default:"false" env:"PAGEPACK_DEV"`
	BuildID string `help:"Build id, generated when empty" env:"PAGEPACK_BUILD_ID"`
}

// session is the state shared by one command run.
type session struct {
	dir       string
	buildID   string
	project   buildconfig.ProjectConfig
	assembler *buildconfig.Assembler
}

func (p Project) open() (*session, error) {
	dir, err := filepath.Abs(p.Dir)
	if err != nil {
		return nil, err
	}

	if err := godotenv.Load(filepath.Join(dir, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	project, err := projectconfig.Load(dir)
	if err != nil {
		return nil, err
	}

	buildID := p.BuildID
	if buildID == "" {
		buildID = uuid.NewString()
	}

	return &session{
		dir:       dir,
		buildID:   buildID,
		project:   project,
		assembler: buildconfig.New(buildconfig.Options{SearchPaths: externals.SearchPathsFromEnv()}),
	}, nil
}

func (s *session) assemble(ctx context.Context, dev, isServer bool) (buildconfig.Configuration, error) {
	return s.assembler.Assemble(ctx, buildconfig.BuildContext{
		ProjectDirectory: s.dir,
		Dev:              dev,
		IsServer:         isServer,
		BuildID:          s.buildID,
		Config:           s.project,
	})
}

// startTelemetry returns a shutdown func, a no-op when telemetry is off.
func startTelemetry(ctx context.Context, globals *Globals) func() {
	if !globals.Telemetry {
		return func() {}
	}

	shutdown, err := telemetry.Init(ctx, "pagepack", globals.Version)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize telemetry, continuing without it")
		return func() {}
	}

	return func() {
		if err := shutdown(context.WithoutCancel(ctx)); err != nil {
			log.Warn().Err(err).Msg("telemetry shutdown")
		}
	}
}
