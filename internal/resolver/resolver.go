// Package resolver turns window snapshots into enriched tracks using a single
// metadata provider chosen at startup.
package resolver

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/eleasarchriso/spy-spotify/internal/track"
)

// DefaultTimeout bounds one resolution when none is configured.
const DefaultTimeout = 15 * time.Second

// Provider enriches a track in place. A non-nil error means no enrichment
// happened for the failing step; fields already set stay set.
type Provider interface {
	Name() string
	UpdateInfo(ctx context.Context, t *track.Track) error
}

// Resolver parses snapshots and hands the draft track to its provider.
type Resolver struct {
	provider Provider
	log      *log.Logger
	timeout  time.Duration
}

// New creates a Resolver. A nil provider resolves parse-only tracks.
func New(p Provider, logger *log.Logger, timeout time.Duration) *Resolver {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Resolver{provider: p, log: logger, timeout: timeout}
}

// Resolve builds a track from s and enriches it. It never fails: provider
// errors are logged and the track is returned as enriched as it got.
func (r *Resolver) Resolve(ctx context.Context, s track.Snapshot) *track.Track {
	t := track.New(s)
	if r.provider == nil {
		return t
	}

	logger := r.log.With("resolution", uuid.NewString())

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	err := r.provider.UpdateInfo(ctx, t)
	elapsed := time.Since(start)

	switch {
	case err == nil:
		logger.Debug("resolved", "provider", r.provider.Name(), "artist", t.ArtistName(), "title", t.TitleName(), "enriched", t.Enriched(), "elapsed", elapsed)
	case errors.Is(err, track.ErrNotSearchable):
		logger.Debug("nothing to look up", "ad", t.Ad, "title", s.Title)
	case errors.Is(err, context.DeadlineExceeded):
		logger.Warn("resolution timed out", "provider", r.provider.Name(), "timeout", r.timeout)
	default:
		logger.Warn("enrichment failed", "provider", r.provider.Name(), "title", s.Title, "err", err)
	}

	return t
}
