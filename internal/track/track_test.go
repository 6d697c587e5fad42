package track

import (
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	tr := New(Snapshot{Title: "Radiohead - Creep - Acoustic", Playing: true, Recognized: true})

	if tr.ArtistName() != "Radiohead" {
		t.Errorf("ArtistName() = %q, want %q", tr.ArtistName(), "Radiohead")
	}
	if tr.TitleName() != "Creep" {
		t.Errorf("TitleName() = %q, want %q", tr.TitleName(), "Creep")
	}
	if tr.Extended() != "Acoustic" {
		t.Errorf("Extended() = %q, want %q", tr.Extended(), "Acoustic")
	}
	if tr.Ad || !tr.Playing {
		t.Errorf("Ad/Playing = %v/%v, want false/true", tr.Ad, tr.Playing)
	}
	if tr.Enriched() {
		t.Error("draft track should not be enriched")
	}
}

func TestTrack_Enriched(t *testing.T) {
	d := 3 * time.Minute
	tr := &Track{Length: &d}
	if !tr.Enriched() {
		t.Error("Enriched() = false with Length set")
	}

	empty := &Track{}
	if empty.ArtistName() != "" || empty.TitleName() != "" || empty.Extended() != "" {
		t.Error("accessors on empty track should return empty strings")
	}
}

func TestTrack_SearchTitles(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  []string
	}{
		{"artist and title", "Radiohead - Creep", []string{"Creep"}},
		{"extended tag tried first", "Radiohead - Creep - Live", []string{"Creep - Live", "Creep"}},
		{"ad has nothing to search", "Advertisement", nil},
		{"missing title", "Radiohead - ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(Snapshot{Title: tt.title, Playing: true, Recognized: true}).SearchTitles()
			if len(got) != len(tt.want) {
				t.Fatalf("SearchTitles() = %q, want %q", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("SearchTitles()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}
