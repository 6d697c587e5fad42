package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/zmb3/spotify/v2"

	"github.com/eleasarchriso/spy-spotify/internal/track"
)

const playerWithItem = `{
	"is_playing": true,
	"progress_ms": 1000,
	"item": {
		"id": "t1",
		"name": "Paranoid Android",
		"track_number": 2,
		"disc_number": 1,
		"duration_ms": 383000,
		"artists": [{"id": "a1", "name": "Radiohead"}],
		"album": {"id": "alb1", "name": "OK Computer"}
	}
}`

const albumBody = `{
	"id": "alb1",
	"name": "OK Computer",
	"release_date": "1997-05-21",
	"release_date_precision": "day",
	"genres": ["alternative rock", "art rock"],
	"artists": [{"id": "a1", "name": "Radiohead"}],
	"images": [
		{"url": "https://img/300", "width": 300, "height": 300},
		{"url": "https://img/640", "width": 640, "height": 640},
		{"url": "https://img/64", "width": 64, "height": 64},
		{"url": "https://img/1000", "width": 1000, "height": 1000}
	]
}`

type apiServer struct {
	player       string
	playerStatus int
	album        string
	albumStatus  int
	albumCalls   atomic.Int32
}

func newAPIServer(t *testing.T, a *apiServer) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/me/player", func(w http.ResponseWriter, r *http.Request) {
		writeAPI(w, a.playerStatus, a.player)
	})
	mux.HandleFunc("/albums/", func(w http.ResponseWriter, r *http.Request) {
		a.albumCalls.Add(1)
		writeAPI(w, a.albumStatus, a.album)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeAPI(w http.ResponseWriter, status int, body string) {
	if status == 0 {
		status = http.StatusOK
	}
	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if status >= 400 {
		fmt.Fprintf(w, `{"error":{"status":%d,"message":"failure"}}`, status)
		return
	}
	fmt.Fprint(w, body)
}

type staticClients struct {
	client *spotify.Client
	err    error
}

func (s staticClients) Client(context.Context) (*spotify.Client, error) {
	return s.client, s.err
}

func clientsFor(srv *httptest.Server) staticClients {
	return staticClients{client: spotify.New(srv.Client(), spotify.WithBaseURL(srv.URL+"/"))}
}

type stubFallback struct {
	calls  int
	length time.Duration
	err    error
}

func (f *stubFallback) Name() string { return "stub" }

func (f *stubFallback) UpdateInfo(_ context.Context, t *track.Track) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	l := f.length
	t.Length = &l
	return nil
}

func draft() *track.Track {
	return track.New(track.Snapshot{Title: "Radiohead - Paranoid Android", Playing: true, Recognized: true})
}

func TestUpdateInfo_FullEnrichment(t *testing.T) {
	srv := newAPIServer(t, &apiServer{player: playerWithItem, album: albumBody})
	fb := &stubFallback{length: time.Minute}
	p := NewProvider(clientsFor(srv), fb, nil)

	tr := draft()
	if err := p.UpdateInfo(context.Background(), tr); err != nil {
		t.Fatalf("UpdateInfo() error = %v", err)
	}

	if fb.calls != 0 {
		t.Errorf("fallback called %d times, want 0", fb.calls)
	}
	if tr.TitleName() != "Paranoid Android" {
		t.Errorf("Title = %q", tr.TitleName())
	}
	if tr.AlbumPosition == nil || *tr.AlbumPosition != 2 {
		t.Errorf("AlbumPosition = %v, want 2", tr.AlbumPosition)
	}
	if tr.Disc == nil || *tr.Disc != 1 {
		t.Errorf("Disc = %v, want 1", tr.Disc)
	}
	if len(tr.Performers) != 1 || tr.Performers[0] != "Radiohead" {
		t.Errorf("Performers = %v", tr.Performers)
	}
	if tr.Album == nil || *tr.Album != "OK Computer" {
		t.Errorf("Album = %v", tr.Album)
	}
	if tr.Year == nil || *tr.Year != 1997 {
		t.Errorf("Year = %v, want 1997", tr.Year)
	}
	if len(tr.Genres) != 2 {
		t.Errorf("Genres = %v", tr.Genres)
	}
	if tr.ArtExtraLarge == nil || *tr.ArtExtraLarge != "https://img/1000" {
		t.Errorf("ArtExtraLarge = %v", tr.ArtExtraLarge)
	}
	if tr.ArtSmall == nil || *tr.ArtSmall != "https://img/64" {
		t.Errorf("ArtSmall = %v", tr.ArtSmall)
	}
	if tr.Length != nil {
		t.Errorf("Length = %v, want nil from the primary path", *tr.Length)
	}
}

func TestUpdateInfo_AlbumFailureKeepsPlaybackFields(t *testing.T) {
	srv := newAPIServer(t, &apiServer{player: playerWithItem, albumStatus: http.StatusInternalServerError})
	fb := &stubFallback{length: time.Minute}
	p := NewProvider(clientsFor(srv), fb, nil)

	tr := draft()
	if err := p.UpdateInfo(context.Background(), tr); err != nil {
		t.Fatalf("UpdateInfo() error = %v", err)
	}

	if fb.calls != 0 {
		t.Errorf("fallback called %d times, want 0", fb.calls)
	}
	if tr.AlbumPosition == nil || tr.Performers == nil || tr.Disc == nil {
		t.Error("playback fields were not set")
	}
	if tr.Album != nil || tr.Year != nil || tr.Genres != nil || tr.ArtExtraLarge != nil {
		t.Error("album fields should stay unset after album failure")
	}
}

func TestUpdateInfo_NoAlbumIDSkipsLookup(t *testing.T) {
	player := `{"is_playing": true, "item": {"id": "t1", "name": "Loose", "track_number": 1, "disc_number": 1, "artists": [], "album": {"name": ""}}}`
	a := &apiServer{player: player, album: albumBody}
	srv := newAPIServer(t, a)
	p := NewProvider(clientsFor(srv), nil, nil)

	tr := draft()
	if err := p.UpdateInfo(context.Background(), tr); err != nil {
		t.Fatalf("UpdateInfo() error = %v", err)
	}
	if n := a.albumCalls.Load(); n != 0 {
		t.Errorf("album endpoint called %d times, want 0", n)
	}
	if tr.Album != nil {
		t.Errorf("Album = %v, want nil", *tr.Album)
	}
}

func TestUpdateInfo_Delegation(t *testing.T) {
	tests := []struct {
		name   string
		server *apiServer
		client error
	}{
		{
			name:   "no client available",
			client: errors.New("not authorized"),
		},
		{
			name:   "playback request fails",
			server: &apiServer{playerStatus: http.StatusInternalServerError},
		},
		{
			name:   "no content",
			server: &apiServer{playerStatus: http.StatusNoContent},
		},
		{
			name:   "null item",
			server: &apiServer{player: `{"is_playing": false, "item": null}`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clients := staticClients{err: tt.client}
			if tt.server != nil {
				clients = clientsFor(newAPIServer(t, tt.server))
			}
			fb := &stubFallback{length: 383 * time.Second}
			p := NewProvider(clients, fb, nil)

			tr := draft()
			if err := p.UpdateInfo(context.Background(), tr); err != nil {
				t.Fatalf("UpdateInfo() error = %v", err)
			}

			if fb.calls != 1 {
				t.Errorf("fallback called %d times, want 1", fb.calls)
			}
			if tr.Length == nil || *tr.Length != 383*time.Second {
				t.Errorf("Length = %v, want 383s", tr.Length)
			}
			if tr.AlbumPosition != nil || tr.Album != nil || tr.Performers != nil {
				t.Error("fallback path should only set Length")
			}
		})
	}
}

func TestUpdateInfo_NoFallbackReturnsCause(t *testing.T) {
	srv := newAPIServer(t, &apiServer{player: `{"item": null}`})
	p := NewProvider(clientsFor(srv), nil, nil)

	err := p.UpdateInfo(context.Background(), draft())
	if !errors.Is(err, ErrNoActiveItem) {
		t.Errorf("UpdateInfo() error = %v, want ErrNoActiveItem", err)
	}
}

func TestUpdateInfo_FallbackErrorWrapsBoth(t *testing.T) {
	fallbackErr := errors.New("fallback down")
	srv := newAPIServer(t, &apiServer{player: `{"item": null}`})
	p := NewProvider(clientsFor(srv), &stubFallback{err: fallbackErr}, nil)

	err := p.UpdateInfo(context.Background(), draft())
	if !errors.Is(err, ErrNoActiveItem) {
		t.Errorf("error %v does not wrap ErrNoActiveItem", err)
	}
	if !errors.Is(err, fallbackErr) {
		t.Errorf("error %v does not wrap fallback error", err)
	}
}
