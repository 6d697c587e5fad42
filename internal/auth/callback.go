package auth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// callbackResult carries the authorization code or the reason there is none.
type callbackResult struct {
	code string
	err  error
}

// callbackServer serves the OAuth redirect URI and reports exactly one result.
type callbackServer struct {
	server  *http.Server
	addr    string
	state   string
	log     *log.Logger
	results chan callbackResult
	once    sync.Once
}

func newCallbackServer(redirectURI, state string, logger *log.Logger) (*callbackServer, error) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return nil, fmt.Errorf("parsing redirect URI: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("redirect URI %q has no host", redirectURI)
	}

	path := u.Path
	if path == "" {
		path = "/"
	}

	s := &callbackServer{
		addr:    u.Host,
		state:   state,
		log:     logger,
		results: make(chan callbackResult, 1),
	}

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Get(path, s.handleCallback)

	s.server = &http.Server{
		Addr:              u.Host,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// start binds the listener and serves in the background.
func (s *callbackServer) start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listening for callback on %s: %w", s.addr, err)
	}

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.send(callbackResult{err: fmt.Errorf("callback server error: %w", err)})
		}
	}()
	return nil
}

func (s *callbackServer) shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *callbackServer) result() <-chan callbackResult {
	return s.results
}

// send delivers the first result; later ones are dropped.
func (s *callbackServer) send(res callbackResult) bool {
	sent := false
	s.once.Do(func() {
		s.results <- res
		sent = true
	})
	return sent
}

// handleCallback processes the OAuth callback from Spotify.
func (s *callbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if query.Get("state") != s.state {
		http.Error(w, "State mismatch", http.StatusBadRequest)
		s.send(callbackResult{err: ErrStateMismatch})
		return
	}

	if errMsg := query.Get("error"); errMsg != "" {
		http.Error(w, "Authentication failed: "+errMsg, http.StatusBadRequest)
		s.send(callbackResult{err: fmt.Errorf("spotify auth error: %s", errMsg)})
		return
	}

	code := query.Get("code")
	if code == "" {
		http.Error(w, "Missing authorization code", http.StatusBadRequest)
		s.send(callbackResult{err: errors.New("callback without authorization code")})
		return
	}

	if !s.send(callbackResult{code: code}) {
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	s.log.Debug("received authorization callback")

	w.Header().Set("Content-Type", "text/html")
	fmt.Fprint(w, `<!DOCTYPE html>
<html>
<head><title>Authentication Successful</title></head>
<body>
<h1>Authentication Successful!</h1>
<p>You can close this window. Track metadata will now be fetched from Spotify.</p>
</body>
</html>`)
}
