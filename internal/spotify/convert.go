package spotify

import (
	"cmp"
	"slices"
	"strconv"

	"github.com/zmb3/spotify/v2"

	"github.com/eleasarchriso/spy-spotify/internal/track"
)

// releaseYearLength is the length of the year prefix of a release date.
const releaseYearLength = 4

// applyPlayback copies the playback item fields onto t.
func applyPlayback(t *track.Track, item *spotify.FullTrack) {
	if item.Name != "" {
		name := item.Name
		t.Title = &name
	}

	position := int(item.TrackNumber)
	t.AlbumPosition = &position

	t.Performers = artistNames(item.Artists)

	disc := uint(max(int(item.DiscNumber), 0))
	t.Disc = &disc
}

// applyAlbum copies album fields and cover art onto t.
func applyAlbum(t *track.Track, album *spotify.FullAlbum) {
	t.AlbumArtists = artistNames(album.Artists)

	name := album.Name
	t.Album = &name

	t.Genres = append([]string{}, album.Genres...)
	t.Year = parseYear(album.ReleaseDate)

	applyArt(t, album.Images)
}

// applyArt assigns up to four images, widest first.
func applyArt(t *track.Track, images []spotify.Image) {
	if len(images) == 0 {
		return
	}

	slots := []**string{&t.ArtExtraLarge, &t.ArtLarge, &t.ArtMedium, &t.ArtSmall}
	for i, img := range sortImages(images) {
		if i >= len(slots) {
			break
		}
		u := img.URL
		*slots[i] = &u
	}
}

// sortImages returns a copy of images ordered by descending width.
func sortImages(images []spotify.Image) []spotify.Image {
	sorted := slices.Clone(images)
	slices.SortStableFunc(sorted, func(a, b spotify.Image) int {
		return cmp.Compare(int(b.Width), int(a.Width))
	})
	return sorted
}

// parseYear reads the year prefix of a release date such as "1994-03-01".
// It returns nil when the prefix is not an unsigned integer.
func parseYear(releaseDate string) *uint {
	if len(releaseDate) < releaseYearLength {
		return nil
	}
	y, err := strconv.ParseUint(releaseDate[:releaseYearLength], 10, 32)
	if err != nil {
		return nil
	}
	year := uint(y)
	return &year
}

func artistNames(artists []spotify.SimpleArtist) []string {
	names := make([]string, len(artists))
	for i, a := range artists {
		names[i] = a.Name
	}
	return names
}
