package main

import "github.com/urfave/cli/v3"

func initCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "init",
		Usage:  "Write an example configuration file",
		Action: r.Init,
	}
}

func loginCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "login",
		Usage:  "Authorize with Spotify in the browser and cache the token",
		Action: r.Login,
	}
}

func logoutCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "logout",
		Usage:  "Forget the cached Spotify token",
		Action: r.Logout,
	}
}

func resolveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "resolve",
		Usage: "Resolve a single window title and print the track as JSON",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "title",
				Aliases:  []string{"t"},
				Usage:    "Window title, e.g. \"Artist - Title\"",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "paused",
				Usage: "Player reports no playback",
			},
			&cli.BoolFlag{
				Name:  "unrecognized",
				Usage: "Window is not recognizably the player",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
			},
		},
		Action: r.Resolve,
	}
}

func watchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Read JSON snapshots from stdin and print one track per title change",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "no-login",
				Usage: "Do not start browser authorization when no token is cached",
			},
		},
		Action: r.Watch,
	}
}
