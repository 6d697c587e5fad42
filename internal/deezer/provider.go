package deezer

import (
	"context"
	"io"

	"github.com/charmbracelet/log"

	"github.com/eleasarchriso/spy-spotify/internal/track"
)

// Provider sets track lengths from Deezer search results.
type Provider struct {
	client *Client
	log    *log.Logger
}

// NewProvider wraps a client as a metadata provider.
func NewProvider(client *Client, logger *log.Logger) *Provider {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Provider{client: client, log: logger.With("provider", "deezer")}
}

func (p *Provider) Name() string { return "deezer" }

// UpdateInfo sets t.Length from the first result with a duration.
func (p *Provider) UpdateInfo(ctx context.Context, t *track.Track) error {
	titles := t.SearchTitles()
	if titles == nil {
		return track.ErrNotSearchable
	}

	for _, title := range titles {
		results, err := p.client.Search(ctx, t.ArtistName(), title)
		if err != nil {
			return err
		}
		if len(results) > 0 && results[0].Duration > 0 {
			length := results[0].Duration
			t.Length = &length
			return nil
		}
		p.log.Debug("no match", "artist", t.ArtistName(), "title", title)
	}
	return ErrNoMatch
}
