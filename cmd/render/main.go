// Command render draws, plays and bounces audio documents.
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/sirupsen/logrus"

	"pipelined.dev/render/config"
	"pipelined.dev/render/log"
)

var version = "0.1.0"

// cli defines the command-line interface.
type cli struct {
	Config   string           `short:"c" type:"path" help:"Path to config file (optional)"`
	LogLevel string           `name:"log-level" help:"Overrides configured log level"`
	Version  kong.VersionFlag `short:"v" help:"Show version information"`

	Peaks  peaksCmd  `cmd:"" help:"Build peak cache of the file"`
	Play   playCmd   `cmd:"" help:"Play the file"`
	View   viewCmd   `cmd:"" help:"Show waveform and play the file"`
	Bounce bounceCmd `cmd:"" help:"Render the file through the graph into another file"`
}

// globals are passed to every command.
type globals struct {
	config config.Config
	log    *logrus.Logger
}

func (c *cli) globals() (*globals, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	if c.LogLevel != "" {
		cfg.LogLevel = c.LogLevel
	}
	l, err := log.New(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	return &globals{config: cfg, log: l}, nil
}

func main() {
	var c cli
	ctx := kong.Parse(&c,
		kong.Name("render"),
		kong.Description("Audio document renderer"),
		kong.UsageOnError(),
		kong.Vars{
			"version": version,
		},
	)
	g, err := c.globals()
	if err != nil {
		fmt.Fprintf(os.Stderr, "render: %v\n", err)
		os.Exit(1)
	}
	ctx.FatalIfErrorf(ctx.Run(g))
}
