// Package spotify enriches tracks from the Spotify Web API using the
// listener's current playback, falling back to a secondary provider when
// Spotify cannot answer.
package spotify

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/zmb3/spotify/v2"

	"github.com/eleasarchriso/spy-spotify/internal/track"
)

// ErrNoActiveItem is returned when the player reports no current track.
var ErrNoActiveItem = errors.New("no track in current playback")

// ClientSource hands out authenticated API clients.
type ClientSource interface {
	Client(ctx context.Context) (*spotify.Client, error)
}

// Fallback enriches a track when Spotify cannot.
type Fallback interface {
	Name() string
	UpdateInfo(ctx context.Context, t *track.Track) error
}

// Provider is the primary metadata provider.
type Provider struct {
	clients  ClientSource
	fallback Fallback
	log      *log.Logger
}

// NewProvider creates a Provider. fallback may be nil.
func NewProvider(clients ClientSource, fallback Fallback, logger *log.Logger) *Provider {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Provider{
		clients:  clients,
		fallback: fallback,
		log:      logger.With("provider", "spotify"),
	}
}

func (p *Provider) Name() string { return "spotify" }

// UpdateInfo fills t from the current playback and its album.
//
// Without a client or without an active playback item the fallback handles
// the track instead. A failed album lookup keeps the playback fields.
func (p *Provider) UpdateInfo(ctx context.Context, t *track.Track) error {
	api, err := p.clients.Client(ctx)
	if err != nil {
		return p.delegate(ctx, t, fmt.Errorf("getting client: %w", err))
	}

	item, err := currentItem(ctx, api)
	if err != nil {
		return p.delegate(ctx, t, err)
	}

	applyPlayback(t, item)

	if item.Album.ID == "" {
		return nil
	}

	album, err := api.GetAlbum(ctx, item.Album.ID)
	if err != nil {
		p.log.Debug("album lookup failed, keeping playback fields", "album", item.Album.ID, "err", err)
		return nil
	}

	applyAlbum(t, album)
	return nil
}

// delegate hands the track to the fallback after the primary path failed.
func (p *Provider) delegate(ctx context.Context, t *track.Track, cause error) error {
	if p.fallback == nil {
		return cause
	}

	p.log.Debug("delegating to fallback", "fallback", p.fallback.Name(), "cause", cause)
	if err := p.fallback.UpdateInfo(ctx, t); err != nil {
		return fmt.Errorf("%w; %s: %w", cause, p.fallback.Name(), err)
	}
	return nil
}

func currentItem(ctx context.Context, api *spotify.Client) (*spotify.FullTrack, error) {
	state, err := api.PlayerState(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching playback: %w", err)
	}
	if state == nil || state.Item == nil {
		return nil, ErrNoActiveItem
	}
	return state.Item, nil
}
