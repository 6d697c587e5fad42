package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/eleasarchriso/spy-spotify/internal/auth"
	"github.com/eleasarchriso/spy-spotify/internal/config"
	"github.com/eleasarchriso/spy-spotify/internal/deezer"
	"github.com/eleasarchriso/spy-spotify/internal/lastfm"
	"github.com/eleasarchriso/spy-spotify/internal/logging"
	"github.com/eleasarchriso/spy-spotify/internal/resolver"
	"github.com/eleasarchriso/spy-spotify/internal/spotify"
	"github.com/eleasarchriso/spy-spotify/internal/track"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config   *config.Config
	logger   *log.Logger
	input    io.Reader
	output   io.Writer
	manager  *auth.Manager
	provider resolver.Provider
	resolver *resolver.Resolver
}

// RunnerOpts contains configuration options for creating a Runner.
// Config, Manager and Provider are built by Setup when nil.
type RunnerOpts struct {
	Config   *config.Config
	Logger   *log.Logger
	Input    io.Reader
	Output   io.Writer
	Manager  *auth.Manager
	Provider resolver.Provider
}

// NewRunner creates a new Runner with the provided configuration.
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:   opts.Config,
		logger:   opts.Logger,
		input:    opts.Input,
		output:   opts.Output,
		manager:  opts.Manager,
		provider: opts.Provider,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		initCommand, loginCommand, logoutCommand, resolveCommand, watchCommand,
	} {
		commands = append(commands, fn(r))
	}
	return commands
}

// setup loads configuration and wires the provider chain on first use.
func (r *Runner) setup(cmd *cli.Command) error {
	if r.resolver != nil {
		return nil
	}

	if r.config == nil {
		cfg, err := config.Load(cmd.String("config"))
		if err != nil {
			return err
		}
		r.config = cfg
	}

	if err := r.configureLogger(); err != nil {
		return err
	}

	if r.manager == nil {
		m, err := r.newManager()
		if err != nil {
			return err
		}
		r.manager = m
	}

	if r.provider == nil {
		p, err := r.newProvider()
		if err != nil {
			return err
		}
		r.provider = p
	}

	r.resolver = resolver.New(r.provider, r.logger, r.config.Timeout())
	return nil
}

func (r *Runner) configureLogger() error {
	if r.config.Log.Level == "" {
		return nil
	}
	lvl, err := log.ParseLevel(r.config.Log.Level)
	if err != nil {
		return fmt.Errorf("parsing log level %q: %w", r.config.Log.Level, err)
	}
	r.logger.SetLevel(lvl)
	return nil
}

func (r *Runner) newManager() (*auth.Manager, error) {
	sc := r.config.Spotify

	cache := auth.NewTokenCache(sc.TokenCache)
	if sc.TokenCache == "" {
		c, err := auth.DefaultTokenCache()
		if err != nil {
			return nil, err
		}
		cache = c
	}

	return auth.New(sc.ClientID, sc.ClientSecret, sc.RedirectURI,
		auth.WithTokenCache(cache),
		auth.WithLogger(r.logger.With("component", "auth")),
	), nil
}

// newProvider returns the Spotify provider wrapping the configured fallback,
// or the fallback alone when Spotify credentials are missing.
func (r *Runner) newProvider() (resolver.Provider, error) {
	var fallback spotify.Fallback

	switch backend := r.config.FallbackBackend(); backend {
	case config.BackendLastFM:
		lc := &lastfm.Config{APIKey: r.config.LastFM.APIKey}
		if err := lc.Validate(); err != nil {
			return nil, err
		}
		fallback = lastfm.NewProvider(lastfm.NewClient(lc), r.logger)
	case config.BackendDeezer:
		fallback = deezer.NewProvider(deezer.New(), r.logger)
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownBackend, backend)
	}

	if !r.manager.Configured() {
		r.logger.Info("Spotify credentials not set, using fallback only", "fallback", fallback.Name())
		return fallback, nil
	}
	return spotify.NewProvider(r.manager, fallback, r.logger), nil
}

// Init writes the example config file.
func (r *Runner) Init(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")
	if err := config.CreateConfigFile(path); err != nil {
		return err
	}
	return r.writePlain("✓ Wrote %s\n", path)
}

// Login runs the browser authorization flow.
func (r *Runner) Login(ctx context.Context, cmd *cli.Command) error {
	if err := r.setup(cmd); err != nil {
		return err
	}
	if err := r.manager.Authorize(ctx); err != nil {
		return fmt.Errorf("authorizing with Spotify: %w", err)
	}
	return r.writePlain("✓ Authenticated with Spotify\n")
}

// Logout deletes the cached token.
func (r *Runner) Logout(ctx context.Context, cmd *cli.Command) error {
	if err := r.setup(cmd); err != nil {
		return err
	}
	if err := r.manager.Logout(); err != nil {
		return fmt.Errorf("removing cached token: %w", err)
	}
	return r.writePlain("✓ Logged out\n")
}

// Resolve resolves one snapshot built from flags.
func (r *Runner) Resolve(ctx context.Context, cmd *cli.Command) error {
	if err := r.setup(cmd); err != nil {
		return err
	}

	t := r.resolver.Resolve(ctx, track.Snapshot{
		Title:      cmd.String("title"),
		Playing:    !cmd.Bool("paused"),
		Recognized: !cmd.Bool("unrecognized"),
	})
	return r.writeJSON(t, cmd.Bool("pretty"))
}

// Watch resolves JSON-lines snapshots from the input until EOF. When
// credentials are set but no token is held, authorization runs alongside
// and tracks use the fallback until it completes.
func (r *Runner) Watch(ctx context.Context, cmd *cli.Command) error {
	if err := r.setup(cmd); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	if r.manager.Configured() && r.manager.State() == auth.StateUnauthenticated && !cmd.Bool("no-login") {
		g.Go(func() error {
			if err := r.manager.Authorize(ctx); err != nil && !errors.Is(err, context.Canceled) {
				r.logger.Warn("authorization failed, continuing with fallback", "err", err)
			}
			return nil
		})
	}

	// Not in the group: a read on stdin may block after cancel.
	snapshots := make(chan track.Snapshot)
	go func() {
		defer close(snapshots)
		if err := r.readSnapshots(ctx, snapshots); err != nil {
			r.logger.Error("reading snapshots", "err", err)
		}
	}()

	g.Go(func() error {
		defer cancel()
		for t := range r.resolver.Watch(ctx, snapshots) {
			if err := r.writeJSON(t, false); err != nil {
				return err
			}
		}
		return nil
	})

	return g.Wait()
}

// readSnapshots decodes one snapshot per line. Malformed lines are skipped.
func (r *Runner) readSnapshots(ctx context.Context, out chan<- track.Snapshot) error {
	scanner := bufio.NewScanner(r.input)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var s track.Snapshot
		if err := json.Unmarshal(line, &s); err != nil {
			r.logger.Warn("skipping malformed snapshot", "err", err)
			continue
		}

		select {
		case out <- s:
		case <-ctx.Done():
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading snapshots: %w", err)
	}
	return nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	output = append(output, '\n')
	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	if _, err := fmt.Fprintf(r.output, format, args...); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
