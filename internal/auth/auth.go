// Package auth manages the Spotify OAuth2 authorization-code lifecycle:
// the login handshake, access token renewal and token caching.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
)

const (
	// DefaultRedirectURI must match the redirect URI registered for the Spotify app.
	DefaultRedirectURI = "http://localhost:4002"

	callbackTimeout = 2 * time.Minute

	// renewalMargin is subtracted from the token lifetime when computing the renewal deadline.
	renewalMargin = time.Minute

	httpTimeout = 10 * time.Second
)

var (
	// ErrMissingCredentials is returned when the client id or secret is not configured.
	ErrMissingCredentials = errors.New("missing Spotify client id or client secret")

	// ErrUnauthenticated is returned by Client when no usable token is held.
	ErrUnauthenticated = errors.New("not authenticated with Spotify")

	// ErrAwaitingAuthorization is returned by Client while a login is in progress.
	ErrAwaitingAuthorization = errors.New("waiting for Spotify authorization callback")

	// ErrRefreshFailed is returned when the access token could not be renewed.
	ErrRefreshFailed = errors.New("token refresh failed")

	// ErrAuthTimeout is returned when the OAuth callback is not received in time.
	ErrAuthTimeout = errors.New("authentication timed out waiting for callback")

	// ErrStateMismatch is returned when the OAuth state parameter doesn't match.
	ErrStateMismatch = errors.New("OAuth state mismatch")
)

// Scopes requested during authorization.
var Scopes = []string{
	spotifyauth.ScopeStreaming,
	spotifyauth.ScopeUserReadPlaybackState,
	spotifyauth.ScopeUserReadCurrentlyPlaying,
	spotifyauth.ScopeUserReadRecentlyPlayed,
	spotifyauth.ScopePlaylistReadCollaborative,
}

// State is the lifecycle state of a Manager.
type State int

const (
	StateUnauthenticated State = iota
	StateAwaitingAuthorization
	StateAuthenticated
	StateRefreshing
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAwaitingAuthorization:
		return "awaiting-authorization"
	case StateAuthenticated:
		return "authenticated"
	case StateRefreshing:
		return "refreshing"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Manager owns the Spotify token and hands out API clients built from it.
// All token state is guarded by mu; renewal happens inside the lock so
// concurrent callers never refresh the same token twice.
type Manager struct {
	config     *oauth2.Config
	httpClient *http.Client
	cache      *TokenCache
	now        func() time.Time
	browser    func(url string) error
	apiOpts    []spotify.ClientOption
	log        *log.Logger

	mu      sync.Mutex
	state   State
	token   *oauth2.Token
	renewAt time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithTokenCache persists tokens in c and restores a cached token on construction.
func WithTokenCache(c *TokenCache) Option {
	return func(m *Manager) {
		m.cache = c
	}
}

// WithClock sets the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithHTTPClient sets the client used for token requests and API calls.
func WithHTTPClient(c *http.Client) Option {
	return func(m *Manager) {
		if c != nil {
			m.httpClient = c
		}
	}
}

// WithEndpoint overrides the Spotify accounts endpoint.
func WithEndpoint(e oauth2.Endpoint) Option {
	return func(m *Manager) {
		m.config.Endpoint = e
	}
}

// WithBrowser sets the function used to open the authorization URL.
func WithBrowser(open func(url string) error) Option {
	return func(m *Manager) {
		m.browser = open
	}
}

// WithAPIOptions passes options to every Spotify API client built by the manager.
func WithAPIOptions(opts ...spotify.ClientOption) Option {
	return func(m *Manager) {
		m.apiOpts = append(m.apiOpts, opts...)
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

// New creates a Manager. Without a client id and secret the manager stays
// unauthenticated for its whole lifetime.
func New(clientID, clientSecret, redirectURI string, opts ...Option) *Manager {
	if redirectURI == "" {
		redirectURI = DefaultRedirectURI
	}

	m := &Manager{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Scopes:       Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   spotifyauth.AuthURL,
				TokenURL:  spotifyauth.TokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		httpClient: &http.Client{Timeout: httpTimeout},
		now:        time.Now,
		browser:    OpenBrowser,
		log:        log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.Configured() {
		m.restore()
	}
	return m
}

// Configured reports whether client credentials are present.
func (m *Manager) Configured() bool {
	return m.config.ClientID != "" && m.config.ClientSecret != ""
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// RenewAt returns the renewal deadline of the held token.
func (m *Manager) RenewAt() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.renewAt
}

// AuthURL returns the Spotify consent page URL for the given state.
func (m *Manager) AuthURL(state string) string {
	return m.config.AuthCodeURL(state)
}

// Client returns a Spotify API client for the held token, renewing the
// token first when its deadline has passed. Without a usable token it
// returns ErrUnauthenticated, ErrAwaitingAuthorization or ErrRefreshFailed.
func (m *Manager) Client(ctx context.Context) (*spotify.Client, error) {
	token, err := m.Token(ctx)
	if err != nil {
		return nil, err
	}
	return m.newAPIClient(token), nil
}

// Token returns a valid access token, renewing it when due.
func (m *Manager) Token(ctx context.Context) (*oauth2.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state {
	case StateUnauthenticated:
		return nil, ErrUnauthenticated
	case StateAwaitingAuthorization:
		return nil, ErrAwaitingAuthorization
	}

	if m.renewAt.IsZero() || m.now().Before(m.renewAt) {
		return cloneToken(m.token), nil
	}

	m.state = StateRefreshing
	m.log.Debug("renewing access token", "deadline", m.renewAt)

	token, err := m.refresh(ctx, m.token.RefreshToken)
	if err != nil {
		if grantRejected(err) || m.token.RefreshToken == "" {
			// Only a new login can recover.
			m.dropToken()
		} else {
			m.state = StateAuthenticated
		}
		m.log.Warn("token refresh failed", "err", err)
		return nil, fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}

	if token.RefreshToken == "" {
		token.RefreshToken = m.token.RefreshToken
	}
	m.setToken(token)
	return cloneToken(m.token), nil
}

// Complete exchanges an authorization code for a token and enters the
// authenticated state.
func (m *Manager) Complete(ctx context.Context, code string) error {
	if !m.Configured() {
		return ErrMissingCredentials
	}

	token, err := m.config.Exchange(m.oauthContext(ctx), code)
	if err != nil {
		return fmt.Errorf("exchanging code for token: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.setToken(token)
	m.log.Info("authenticated with Spotify", "renewAt", m.renewAt)
	return nil
}

// Authorize runs the authorization-code flow: it serves the redirect URI,
// opens the consent page and waits for the single callback.
func (m *Manager) Authorize(ctx context.Context) error {
	if !m.Configured() {
		return ErrMissingCredentials
	}

	state, err := generateState()
	if err != nil {
		return fmt.Errorf("generating state: %w", err)
	}

	srv, err := newCallbackServer(m.config.RedirectURL, state, m.log)
	if err != nil {
		return err
	}

	prev := m.begin()
	if err := srv.start(); err != nil {
		m.abort(prev)
		return err
	}

	shutdown := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.shutdown(shutdownCtx)
	}

	authURL := m.AuthURL(state)
	if err := m.browser(authURL); err != nil {
		m.log.Warn("could not open browser", "err", err)
	}
	m.log.Info("waiting for Spotify authorization", "url", authURL)

	var code string
	select {
	case res := <-srv.result():
		if res.err != nil {
			shutdown()
			m.abort(prev)
			return res.err
		}
		code = res.code
	case <-time.After(callbackTimeout):
		shutdown()
		m.abort(prev)
		return ErrAuthTimeout
	case <-ctx.Done():
		shutdown()
		m.abort(prev)
		return ctx.Err()
	}
	shutdown()

	if err := m.Complete(ctx, code); err != nil {
		m.abort(prev)
		return err
	}
	return nil
}

// Logout forgets the held token and removes the cached copy.
func (m *Manager) Logout() error {
	m.mu.Lock()
	m.dropToken()
	m.mu.Unlock()

	if m.cache == nil {
		return nil
	}
	return m.cache.Delete()
}

// begin enters the awaiting state and returns the state to restore on failure.
func (m *Manager) begin() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev := m.state
	m.state = StateAwaitingAuthorization
	return prev
}

func (m *Manager) abort(prev State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateAwaitingAuthorization {
		return
	}
	if prev == StateAuthenticated && m.token != nil {
		m.state = StateAuthenticated
		return
	}
	m.state = StateUnauthenticated
}

// refresh exchanges a refresh token for a new access token.
func (m *Manager) refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	if refreshToken == "" {
		return nil, errors.New("no refresh token available")
	}
	src := m.config.TokenSource(m.oauthContext(ctx), &oauth2.Token{RefreshToken: refreshToken})
	return src.Token()
}

// setToken stores a freshly issued token. Callers hold mu.
func (m *Manager) setToken(token *oauth2.Token) {
	m.token = token
	m.renewAt = m.deadline(token)
	m.state = StateAuthenticated

	if m.cache != nil {
		if err := m.cache.Save(token); err != nil {
			m.log.Warn("failed to cache token", "err", err)
		}
	}
}

// dropToken forgets the held token. Callers hold mu.
func (m *Manager) dropToken() {
	m.token = nil
	m.renewAt = time.Time{}
	m.state = StateUnauthenticated
}

// deadline computes issue time + lifetime - renewalMargin for a new token.
func (m *Manager) deadline(token *oauth2.Token) time.Time {
	switch {
	case token.ExpiresIn > 0:
		return m.now().Add(time.Duration(token.ExpiresIn)*time.Second - renewalMargin)
	case !token.Expiry.IsZero():
		return token.Expiry.Add(-renewalMargin)
	default:
		return time.Time{}
	}
}

// restore loads a cached token, if any.
func (m *Manager) restore() {
	if m.cache == nil {
		return
	}

	token, err := m.cache.Load()
	if err != nil {
		m.log.Warn("ignoring unreadable token cache", "path", m.cache.Path(), "err", err)
		return
	}
	if token == nil || token.RefreshToken == "" {
		return
	}

	m.token = token
	m.state = StateAuthenticated
	if !token.Expiry.IsZero() {
		m.renewAt = token.Expiry.Add(-renewalMargin)
	} else {
		// Unknown lifetime: renew on first use.
		m.renewAt = m.now()
	}
	m.log.Debug("restored cached token", "path", m.cache.Path(), "renewAt", m.renewAt)
}

func (m *Manager) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, m.httpClient)
}

func (m *Manager) newAPIClient(token *oauth2.Token) *spotify.Client {
	httpClient := oauth2.NewClient(m.oauthContext(context.Background()), oauth2.StaticTokenSource(token))
	httpClient.Timeout = m.httpClient.Timeout
	return spotify.New(httpClient, m.apiOpts...)
}

// grantRejected reports whether the accounts service refused the refresh
// token itself, as opposed to failing transiently.
func grantRejected(err error) bool {
	var retrieveErr *oauth2.RetrieveError
	if !errors.As(err, &retrieveErr) || retrieveErr.Response == nil {
		return false
	}
	code := retrieveErr.Response.StatusCode
	return code >= 400 && code < 500 && code != http.StatusTooManyRequests
}

func cloneToken(t *oauth2.Token) *oauth2.Token {
	c := *t
	return &c
}

// generateState creates a random state string for OAuth.
func generateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
