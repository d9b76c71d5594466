// Package listings cross-references channel numbers with the zap2it TV
// listings grid.
//
// A refresh logs in, fetches a one-hour grid anchored at the current time
// and rebuilds two lookup tables keyed by the zero-padded channel number:
// channel -> call sign, and channel -> current program. The tables are
// published atomically, so readers see either the previous snapshot or the
// new one and never a partial rebuild. A failed refresh leaves the previous
// snapshot in place.
package listings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	DefaultBaseURL = "https://tvlistings.zap2it.com"
	ImageBaseURL   = "https://zap2it.tmsimg.com/assets/"

	// PlaceholderImageURL is returned whenever no current artwork is known.
	PlaceholderImageURL = "https://tvlistings.zap2it.com/assets/images/noImage165x220.jpg"

	DefaultTimeout = 5 * time.Second

	loginPath = "/api/user/login"
	gridPath  = "/api/grid"
)

// Credentials are the listings account login.
type Credentials struct {
	Username string
	Password string
}

// Client holds the lookup tables for one listings account.
type Client struct {
	creds      Credentials
	baseURL    string
	httpClient *http.Client
	now        func() time.Time
	logger     zerolog.Logger

	refreshMu sync.Mutex
	current   atomic.Pointer[cache]
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different listings host.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// WithDebug logs requests and parsed rows at debug level.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		if debug {
			c.logger = c.logger.Level(zerolog.DebugLevel)
		}
	}
}

// NewClient creates a client with empty tables. Call Refresh to populate them.
func NewClient(creds Credentials, opts ...Option) *Client {
	c := &Client{
		creds:      creds,
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		now:        time.Now,
		logger:     log.With().Str("component", "listings").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.current.Store(emptyCache())
	return c
}

// Login authenticates and returns the session used for grid requests.
func (c *Client) Login(ctx context.Context) (*Session, error) {
	body, err := json.Marshal(loginRequest{
		EmailID:      c.creds.Username,
		Password:     c.creds.Password,
		UserType:     "0",
		FacebookUser: "false",
	})
	if err != nil {
		return nil, fmt.Errorf("encode login: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+loginPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("content-type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: status %d", ErrAuth, resp.StatusCode)
	}

	var lr loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return nil, fmt.Errorf("%w: decode login: %v", ErrUpstreamShape, err)
	}

	s, err := sessionFromLogin(lr)
	if err != nil {
		return nil, err
	}

	c.logger.Debug().
		Str("postal_code", s.PostalCode).
		Str("country", s.Country).
		Str("lineup", s.LineupID).
		Str("device", s.Device).
		Msg("Listings login succeeded")

	return s, nil
}

// fetchGrid downloads the grid for the hour starting at now.
func (c *Client) fetchGrid(ctx context.Context, s *Session, now time.Time) ([]gridChannel, error) {
	u := c.baseURL + gridPath + "?" + gridQuery(s, now)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build grid request: %w", err)
	}
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	c.logger.Debug().Str("url", u).Msg("Fetching listings grid")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("grid: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("grid: unexpected status %d", resp.StatusCode)
	}

	var gr gridResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return nil, fmt.Errorf("%w: decode grid: %v", ErrUpstreamShape, err)
	}
	if gr.Channels == nil {
		return nil, fmt.Errorf("%w: grid has no channels", ErrUpstreamShape)
	}
	return *gr.Channels, nil
}

// Refresh logs in, fetches the grid and replaces the lookup tables. On any
// error the previous tables stay in place.
func (c *Client) Refresh(ctx context.Context) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	s, err := c.Login(ctx)
	if err != nil {
		return err
	}

	now := c.now()
	rows, err := c.fetchGrid(ctx, s, now)
	if err != nil {
		return err
	}

	next, err := buildCache(rows, c.current.Load(), now)
	if err != nil {
		return err
	}
	c.current.Store(next)

	c.logger.Debug().Int("channels", len(next.callSigns)).Msg("Listings refreshed")
	return nil
}

// CallSign returns the station call sign for a channel.
func (c *Client) CallSign(ch string) (string, bool) {
	cs, ok := c.current.Load().callSigns[ChannelKey(ch)]
	return cs, ok
}

// Title returns the last known program title for a channel.
func (c *Client) Title(ch string) (string, bool) {
	p, ok := c.current.Load().programs[ChannelKey(ch)]
	if !ok || p.Title == "" {
		return "", false
	}
	return p.Title, true
}

// ImageURL returns the current program artwork, or PlaceholderImageURL.
func (c *Client) ImageURL(ch string) string {
	p, ok := c.current.Load().programs[ChannelKey(ch)]
	if !ok || p.ImageURL == "" {
		return PlaceholderImageURL
	}
	return p.ImageURL
}

// Lookup returns the full row for a channel.
func (c *Client) Lookup(ch string) (Channel, bool) {
	snap := c.current.Load()
	key := ChannelKey(ch)
	cs, ok := snap.callSigns[key]
	if !ok {
		return Channel{}, false
	}
	return Channel{Number: key, CallSign: cs, Program: snap.programs[key]}, true
}

// Channels returns every row of the current tables ordered by channel key.
func (c *Client) Channels() []Channel {
	return c.current.Load().channels()
}

// Len returns the number of channels in the current tables.
func (c *Client) Len() int {
	return len(c.current.Load().callSigns)
}

// LastRefresh returns when the tables were last rebuilt, or the zero time.
func (c *Client) LastRefresh() time.Time {
	return c.current.Load().builtAt
}
