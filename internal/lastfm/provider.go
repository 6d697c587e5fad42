package lastfm

import (
	"context"
	"errors"
	"io"

	"github.com/charmbracelet/log"

	"github.com/eleasarchriso/spy-spotify/internal/track"
)

// Provider sets track lengths from Last.fm.
type Provider struct {
	client *Client
	log    *log.Logger
}

// NewProvider wraps a client as a metadata provider.
func NewProvider(client *Client, logger *log.Logger) *Provider {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Provider{client: client, log: logger.With("provider", "lastfm")}
}

func (p *Provider) Name() string { return "lastfm" }

// UpdateInfo sets t.Length from the first title variant Last.fm recognizes.
// No other field is touched.
func (p *Provider) UpdateInfo(ctx context.Context, t *track.Track) error {
	titles := t.SearchTitles()
	if titles == nil {
		return track.ErrNotSearchable
	}

	var lastErr error
	for _, title := range titles {
		info, err := p.client.GetTrackInfo(ctx, t.ArtistName(), title)
		if err == nil {
			length := info.Duration
			t.Length = &length
			return nil
		}
		if !errors.Is(err, ErrNoMatch) {
			return err
		}
		p.log.Debug("no match", "artist", t.ArtistName(), "title", title)
		lastErr = err
	}
	return lastErr
}
