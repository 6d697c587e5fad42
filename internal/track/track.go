// Package track defines the now-playing track entity and the parser that
// turns a window title snapshot into a draft track.
package track

import (
	"errors"
	"time"
)

// ErrNotSearchable is returned by lookups for tracks without an artist or title.
var ErrNotSearchable = errors.New("track has no artist or title to search")

// Snapshot is a point-in-time observation of the monitored player window.
type Snapshot struct {
	Title      string `json:"title"`
	Playing    bool   `json:"playing"`
	Recognized bool   `json:"recognized"` // window is recognizably the player
}

// Track holds metadata for the track that is currently playing.
// Nil pointers and nil slices mean the field has not been resolved.
type Track struct {
	// Parsed from the window title.
	Artist        *string `json:"artist,omitempty"`
	Title         *string `json:"title,omitempty"`
	TitleExtended *string `json:"titleExtended,omitempty"`
	Ad            bool    `json:"ad"`
	Playing       bool    `json:"playing"`

	// Set by metadata providers only.
	Length        *time.Duration `json:"length,omitempty"`
	AlbumPosition *int           `json:"albumPosition,omitempty"`
	Performers    []string       `json:"performers,omitempty"`
	Disc          *uint          `json:"disc,omitempty"`
	Album         *string        `json:"album,omitempty"`
	AlbumArtists  []string       `json:"albumArtists,omitempty"`
	Genres        []string       `json:"genres,omitempty"`
	Year          *uint          `json:"year,omitempty"`

	// Cover art ordered by descending image width.
	ArtExtraLarge *string `json:"artExtraLarge,omitempty"`
	ArtLarge      *string `json:"artLarge,omitempty"`
	ArtMedium     *string `json:"artMedium,omitempty"`
	ArtSmall      *string `json:"artSmall,omitempty"`
}

// New builds a draft track from a snapshot.
func New(s Snapshot) *Track {
	f := Parse(s.Title, s.Playing, s.Recognized)
	return &Track{
		Artist:        f.Artist,
		Title:         f.Title,
		TitleExtended: f.TitleExtended,
		Ad:            f.Ad,
		Playing:       f.Playing,
	}
}

// ArtistName returns the artist or "" when unknown.
func (t *Track) ArtistName() string {
	return deref(t.Artist)
}

// TitleName returns the title or "" when unknown.
func (t *Track) TitleName() string {
	return deref(t.Title)
}

// Extended returns the extended title tag or "" when absent.
func (t *Track) Extended() string {
	return deref(t.TitleExtended)
}

// Enriched reports whether any provider-derived field is set.
func (t *Track) Enriched() bool {
	return t.Length != nil || t.AlbumPosition != nil || t.Performers != nil ||
		t.Disc != nil || t.Album != nil || t.AlbumArtists != nil ||
		t.Genres != nil || t.Year != nil || t.ArtExtraLarge != nil ||
		t.ArtLarge != nil || t.ArtMedium != nil || t.ArtSmall != nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// SearchTitles returns the titles to try when looking the track up by name,
// most specific first. It returns nil when the track has no artist or title.
func (t *Track) SearchTitles() []string {
	if t.ArtistName() == "" || t.TitleName() == "" {
		return nil
	}
	if ext := t.Extended(); ext != "" {
		return []string{t.TitleName() + " - " + ext, t.TitleName()}
	}
	return []string{t.TitleName()}
}
