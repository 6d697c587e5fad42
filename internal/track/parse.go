package track

import "strings"

// titleSeparator splits "Artist - Title - Extended" window titles.
const titleSeparator = " - "

// maxTitleSegments caps the split; further separators stay in the last segment.
const maxTitleSegments = 3

// ParsedFields are the candidate fields extracted from a window title.
type ParsedFields struct {
	Artist        *string
	Title         *string
	TitleExtended *string
	Ad            bool
	Playing       bool
}

// Parse splits a raw window title into artist, title and extended tag.
//
// A title with fewer than two segments is an advertisement slot when the
// player reports playback. A window that is not recognizably the player is
// reported as playing. Missing or empty segments are nil, never "".
func Parse(rawTitle string, isPlaying, recognized bool) ParsedFields {
	tags := strings.SplitN(rawTitle, titleSeparator, maxTitleSegments)

	return ParsedFields{
		Artist:        segment(tags, 0),
		Title:         segment(tags, 1),
		TitleExtended: segment(tags, 2),
		Ad:            len(tags) < 2 && isPlaying,
		Playing:       isPlaying || !recognized,
	}
}

func segment(tags []string, i int) *string {
	if i >= len(tags) || tags[i] == "" {
		return nil
	}
	s := tags[i]
	return &s
}
