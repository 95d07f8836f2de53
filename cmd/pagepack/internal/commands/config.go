package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wolfeidau/pagepack/internal/buildconfig"
)

// ConfigCmd prints the assembled configuration.
type ConfigCmd struct {
	Project `embed:""`
	Server  bool   `help:"Assemble the server configuration" default:"false"`
	Format  string `help:"Output format" default:"json" enum:"json,yaml"`
}

func (c *ConfigCmd) Run(ctx context.Context, globals *Globals) error {
	defer startTelemetry(ctx, globals)()

	s, err := c.open()
	if err != nil {
		return err
	}

	cfg, err := s.assemble(ctx, c.Dev, c.Server)
	if err != nil {
		return err
	}

	return writeConfig(os.Stdout, cfg, c.Format)
}

func writeConfig(w io.Writer, cfg buildconfig.Configuration, format string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}

	if format == "json" {
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}
