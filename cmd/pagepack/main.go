package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/wolfeidau/pagepack/cmd/pagepack/internal/commands"
	"github.com/wolfeidau/pagepack/internal/logger"
)

var (
	version = "dev"
	cli     struct {
		Debug     bool `help:"Enable debug mode."`
		Telemetry bool `help:"Export traces and metrics over OTLP." env:"PAGEPACK_TELEMETRY"`
		Version   kong.VersionFlag
		Config    commands.ConfigCmd `cmd:"" help:"Print the assembled bundler configuration"`
		Build     commands.BuildCmd  `cmd:"" help:"Build the client and server bundles"`
	}
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := kong.Parse(&cli,
		kong.Name("pagepack"),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))

	logger.Setup(cli.Debug)

	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Telemetry: cli.Telemetry, Version: version})
	cmd.FatalIfErrorf(err)
}
