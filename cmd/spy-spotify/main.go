// Command spy-spotify resolves now-playing window titles into enriched track
// metadata using Spotify, with Last.fm or Deezer as fallback.
package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/eleasarchriso/spy-spotify/internal/logging"
)

func main() {
	logger, _ := logging.New(os.Stderr, "")

	runner := NewRunner(RunnerOpts{Logger: logger})

	if err := newApp(runner).Run(context.Background(), os.Args); err != nil {
		logger.Fatal("application error", "err", err)
	}
}

func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "spy-spotify",
		Usage:   "Resolve now-playing window titles into track metadata",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Commands: r.register(),
	}
}
