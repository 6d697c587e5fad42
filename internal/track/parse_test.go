package track

import "testing"

func strPtr(s string) *string { return &s }

func equalPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func show(s *string) string {
	if s == nil {
		return "<nil>"
	}
	return *s
}

func TestParse(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		playing    bool
		recognized bool
		want       ParsedFields
	}{
		{
			name:       "artist and title",
			raw:        "Artist - Title",
			playing:    true,
			recognized: true,
			want:       ParsedFields{Artist: strPtr("Artist"), Title: strPtr("Title"), Playing: true},
		},
		{
			name:       "extended tag",
			raw:        "Artist - Title - Live",
			playing:    true,
			recognized: true,
			want: ParsedFields{
				Artist:        strPtr("Artist"),
				Title:         strPtr("Title"),
				TitleExtended: strPtr("Live"),
				Playing:       true,
			},
		},
		{
			name:       "extra separators stay in last segment",
			raw:        "Artist - Title - Live - 2003 Remaster",
			playing:    true,
			recognized: true,
			want: ParsedFields{
				Artist:        strPtr("Artist"),
				Title:         strPtr("Title"),
				TitleExtended: strPtr("Live - 2003 Remaster"),
				Playing:       true,
			},
		},
		{
			name:       "single segment while playing is an ad",
			raw:        "Advertisement",
			playing:    true,
			recognized: true,
			want:       ParsedFields{Artist: strPtr("Advertisement"), Ad: true, Playing: true},
		},
		{
			name:       "single segment while paused is not an ad",
			raw:        "Spotify Premium",
			playing:    false,
			recognized: true,
			want:       ParsedFields{Artist: strPtr("Spotify Premium")},
		},
		{
			name:       "empty unrecognized window defaults to playing",
			raw:        "",
			playing:    false,
			recognized: false,
			want:       ParsedFields{Playing: true},
		},
		{
			name:       "empty title while playing is an ad",
			raw:        "",
			playing:    true,
			recognized: true,
			want:       ParsedFields{Ad: true, Playing: true},
		},
		{
			name:       "hyphen without spaces does not split",
			raw:        "Jay-Z",
			playing:    false,
			recognized: true,
			want:       ParsedFields{Artist: strPtr("Jay-Z")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.raw, tt.playing, tt.recognized)

			if !equalPtr(got.Artist, tt.want.Artist) {
				t.Errorf("Artist = %s, want %s", show(got.Artist), show(tt.want.Artist))
			}
			if !equalPtr(got.Title, tt.want.Title) {
				t.Errorf("Title = %s, want %s", show(got.Title), show(tt.want.Title))
			}
			if !equalPtr(got.TitleExtended, tt.want.TitleExtended) {
				t.Errorf("TitleExtended = %s, want %s", show(got.TitleExtended), show(tt.want.TitleExtended))
			}
			if got.Ad != tt.want.Ad {
				t.Errorf("Ad = %v, want %v", got.Ad, tt.want.Ad)
			}
			if got.Playing != tt.want.Playing {
				t.Errorf("Playing = %v, want %v", got.Playing, tt.want.Playing)
			}
		})
	}
}

func TestParse_AdOnlyBelowTwoSegments(t *testing.T) {
	titles := []string{"A - B", "A - B - C", "A -  - C", "x - y - z - w"}

	for _, raw := range titles {
		for _, playing := range []bool{true, false} {
			if got := Parse(raw, playing, true); got.Ad {
				t.Errorf("Parse(%q, %v).Ad = true, want false", raw, playing)
			}
		}
	}
}

func TestParse_ShortTitleHasNoTitleFields(t *testing.T) {
	for _, raw := range []string{"", "Spotify", "Artist-Title"} {
		got := Parse(raw, true, true)
		if !got.Ad {
			t.Errorf("Parse(%q).Ad = false, want true", raw)
		}
		if got.Title != nil || got.TitleExtended != nil {
			t.Errorf("Parse(%q) title fields = %s/%s, want nil", raw, show(got.Title), show(got.TitleExtended))
		}
	}
}
