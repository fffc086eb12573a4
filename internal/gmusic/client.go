package gmusic

import (
	"bufio"
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/gmusicfs/gmusicfs/pkg/errors"
)

const (
	defaultLoginURL  = "https://www.google.com/accounts/ClientLogin"
	defaultSJBase    = "https://mclients.googleapis.com/sj/v2.5"
	defaultStreamURL = "https://mclients.googleapis.com/music/mplay"

	loginService = "sj"
	loginSource  = "gmusicfs"

	// Feed page size. The service caps pages well below this, the value
	// just keeps the page count low for large catalogs.
	feedPageSize = 20000
)

// The stream-URL signature key ships split across two obfuscated halves
// that are XORed together.
const (
	sigKeyPart1 = "VzeC4H4h+T2f0VI180nVX8x+Mb5HiTtGnKgH52Otj8ZCGDz9jRWyHb6QXK0JskSiOgzQfwTY5xgLLSdUSreaLVMsVVWfxfa8Rw=="
	sigKeyPart2 = "ZAPnhUkYwQ6y5DdQxWThbvhJHN8msQ1rqJw0ggKdufQjelrKuiGGJI30aswkgCWTDyHkTGK9ynlqTkJ5L4CiGGUabGeo8M6JTQ=="
)

func streamSigKey() []byte {
	p1, _ := base64.StdEncoding.DecodeString(sigKeyPart1)
	p2, _ := base64.StdEncoding.DecodeString(sigKeyPart2)
	key := make([]byte, len(p1))
	for i := range p1 {
		key[i] = p1[i] ^ p2[i]
	}
	return key
}

// Client talks to the remote music service over HTTP. Create one with
// NewClient and call Login before any other method. Client is safe for
// concurrent use after Login; the auth token is set once and read-only
// thereafter.
type Client struct {
	httpClient *http.Client
	loginURL   string
	sjBase     string
	streamBase string
	authToken  string
	log        zerolog.Logger
}

var _ Service = (*Client)(nil)

// Option adjusts client construction.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithEndpoints overrides the service endpoints, mainly for tests.
func WithEndpoints(loginURL, sjBase, streamBase string) Option {
	return func(c *Client) {
		c.loginURL = loginURL
		c.sjBase = sjBase
		c.streamBase = streamBase
	}
}

// NewClient creates an unauthenticated service client.
func NewClient(log zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{},
		loginURL:   defaultLoginURL,
		sjBase:     defaultSJBase,
		streamBase: defaultStreamURL,
		log:        log.With().Str("component", "gmusic").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Login authenticates the account and stores the resulting auth token on
// the client. It must be called exactly once, before any feed or stream
// request.
func (c *Client) Login(ctx context.Context, username, password string) error {
	form := url.Values{
		"accountType": {"HOSTED_OR_GOOGLE"},
		"Email":       {username},
		"Passwd":      {password},
		"service":     {loginService},
		"source":      {loginSource},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.loginURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return errors.Wrap(errors.ErrCodeAuthFailed, "build login request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(errors.ErrCodeAuthFailed, "login request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Newf(errors.ErrCodeAuthFailed,
			"login rejected for %s (status %d)", username, resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if token, ok := strings.CutPrefix(line, "Auth="); ok {
			c.authToken = token
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrap(errors.ErrCodeAuthFailed, "read login response", err)
	}
	if c.authToken == "" {
		return errors.New(errors.ErrCodeAuthFailed, "login response carried no auth token")
	}
	c.log.Info().Str("user", username).Msg("login successful")
	return nil
}

// trackItem is the feed's wire form of a track. Numeric fields arrive as
// decimal strings.
type trackItem struct {
	ID                string `json:"id"`
	Title             string `json:"title"`
	Artist            string `json:"artist"`
	AlbumArtist       string `json:"albumArtist"`
	Album             string `json:"album"`
	TrackNumber       int    `json:"trackNumber"`
	Year              int    `json:"year"`
	EstimatedSize     string `json:"estimatedSize"`
	CreationTimestamp string `json:"creationTimestamp"`
	RecentTimestamp   string `json:"recentTimestamp"`
	Comment           string `json:"comment"`
	AlbumArtRef       []struct {
		URL string `json:"url"`
	} `json:"albumArtRef"`
}

func (t trackItem) record() TrackRecord {
	rec := TrackRecord{
		ID:                t.ID,
		Title:             t.Title,
		Artist:            t.Artist,
		AlbumArtist:       t.AlbumArtist,
		Album:             t.Album,
		TrackNumber:       t.TrackNumber,
		Year:              t.Year,
		EstimatedSize:     parseWireInt(t.EstimatedSize),
		CreationTimestamp: parseWireInt(t.CreationTimestamp),
		RecentTimestamp:   parseWireInt(t.RecentTimestamp),
		Comment:           t.Comment,
	}
	if len(t.AlbumArtRef) > 0 {
		rec.AlbumArtURL = t.AlbumArtRef[0].URL
	}
	return rec
}

func parseWireInt(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

type feedPage[T any] struct {
	NextPageToken string `json:"nextPageToken"`
	Data          struct {
		Items []T `json:"items"`
	} `json:"data"`
}

// ListTracks walks the paged track feed and returns the full catalog.
func (c *Client) ListTracks(ctx context.Context) ([]TrackRecord, error) {
	items, err := fetchFeed[trackItem](ctx, c, "trackfeed")
	if err != nil {
		return nil, err
	}
	records := make([]TrackRecord, 0, len(items))
	for _, item := range items {
		records = append(records, item.record())
	}
	c.log.Debug().Int("tracks", len(records)).Msg("track feed complete")
	return records, nil
}

type playlistItem struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Deleted bool   `json:"deleted"`
	Type    string `json:"type"`
}

type plentryItem struct {
	PlaylistID       string     `json:"playlistId"`
	TrackID          string     `json:"trackId"`
	AbsolutePosition string     `json:"absolutePosition"`
	Deleted          bool       `json:"deleted"`
	Track            *trackItem `json:"track"`
}

// ListPlaylists fetches the playlist feed and the shared entry feed, and
// groups entries under their playlists preserving feed order.
func (c *Client) ListPlaylists(ctx context.Context) ([]PlaylistRecord, error) {
	lists, err := fetchFeed[playlistItem](ctx, c, "playlistfeed")
	if err != nil {
		return nil, err
	}
	entries, err := fetchFeed[plentryItem](ctx, c, "plentryfeed")
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*PlaylistRecord)
	var order []string
	for _, pl := range lists {
		if pl.Deleted {
			continue
		}
		byID[pl.ID] = &PlaylistRecord{ID: pl.ID, Name: pl.Name}
		order = append(order, pl.ID)
	}
	for _, entry := range entries {
		if entry.Deleted {
			continue
		}
		pl, ok := byID[entry.PlaylistID]
		if !ok {
			continue
		}
		pe := PlaylistEntry{TrackID: entry.TrackID}
		if entry.Track != nil {
			rec := entry.Track.record()
			// Entry tracks are keyed by the entry's track id, the
			// embedded record may omit its own.
			rec.ID = entry.TrackID
			pe.Track = &rec
		}
		pl.Entries = append(pl.Entries, pe)
	}

	records := make([]PlaylistRecord, 0, len(order))
	for _, id := range order {
		records = append(records, *byID[id])
	}
	c.log.Debug().Int("playlists", len(records)).Msg("playlist feed complete")
	return records, nil
}

func fetchFeed[T any](ctx context.Context, c *Client, feed string) ([]T, error) {
	var items []T
	pageToken := ""
	for {
		body := map[string]interface{}{"max-results": feedPageSize}
		if pageToken != "" {
			body["start-token"] = pageToken
		}
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeCatalogFetch, "encode feed request", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			c.sjBase+"/"+feed, bytes.NewReader(payload))
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeCatalogFetch, "build feed request", err)
		}
		req.Header.Set("Content-Type", "application/json")
		c.authorize(req)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeCatalogFetch, feed+" request", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, errors.Newf(errors.ErrCodeCatalogFetch,
				"%s returned status %d", feed, resp.StatusCode)
		}

		var page feedPage[T]
		err = json.NewDecoder(resp.Body).Decode(&page)
		resp.Body.Close()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeCatalogFetch, "decode "+feed, err)
		}

		items = append(items, page.Data.Items...)
		if page.NextPageToken == "" {
			return items, nil
		}
		pageToken = page.NextPageToken
	}
}

type deviceItem struct {
	ID           string `json:"id"`
	FriendlyName string `json:"friendlyName"`
	Type         string `json:"type"`
}

// ListDevices fetches the account's registered devices. This backs the
// device-listing mode users run once to discover the deviceId their
// credentials file needs.
func (c *Client) ListDevices(ctx context.Context) ([]DeviceRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.sjBase+"/devicemanagementinfo", nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeCatalogFetch, "build device request", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeCatalogFetch, "device request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf(errors.ErrCodeCatalogFetch,
			"devicemanagementinfo returned status %d", resp.StatusCode)
	}

	var page struct {
		Data struct {
			Items []deviceItem `json:"items"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, errors.Wrap(errors.ErrCodeCatalogFetch, "decode devicemanagementinfo", err)
	}

	devices := make([]DeviceRecord, 0, len(page.Data.Items))
	for _, item := range page.Data.Items {
		devices = append(devices, DeviceRecord{
			ID:   item.ID,
			Name: item.FriendlyName,
			Type: item.Type,
		})
	}
	c.log.Debug().Int("devices", len(devices)).Msg("device feed complete")
	return devices, nil
}

// StreamURL asks the service for a redirect to the track's audio bytes.
// The request carries an HMAC-SHA1 signature over the track id and a
// millisecond salt, and identifies the registered device.
func (c *Client) StreamURL(ctx context.Context, trackID, deviceID string) (string, error) {
	salt := strconv.FormatInt(time.Now().UnixMilli(), 10)
	mac := hmac.New(sha1.New, streamSigKey())
	mac.Write([]byte(trackID + salt))
	sig := base64.URLEncoding.EncodeToString(mac.Sum(nil))

	query := url.Values{
		"opt":    {"hi"},
		"net":    {"mob"},
		"pt":     {"e"},
		"songid": {trackID},
		"slt":    {salt},
		"sig":    {sig},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.streamBase+"?"+query.Encode(), nil)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeStreamOpen, "build stream-url request", err)
	}
	req.Header.Set("X-Device-ID", deviceID)
	c.authorize(req)

	// The service answers with a redirect to the content host; capture
	// the Location header instead of following it.
	noRedirect := *c.httpClient
	noRedirect.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	resp, err := noRedirect.Do(req)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeStreamOpen, "stream-url request", err)
	}
	defer resp.Body.Close()

	location := resp.Header.Get("Location")
	if resp.StatusCode/100 != 3 || location == "" {
		return "", errors.Newf(errors.ErrCodeStreamOpen,
			"stream-url issuance for track %s returned status %d", trackID, resp.StatusCode)
	}
	return location, nil
}

// ContentLength probes a content URL with a HEAD request.
func (c *Client) ContentLength(ctx context.Context, contentURL string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, contentURL, nil)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeSizeProbe, "build probe request", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeSizeProbe, "probe request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, errors.Newf(errors.ErrCodeSizeProbe, "probe returned status %d", resp.StatusCode)
	}
	if resp.ContentLength < 0 {
		return 0, errors.New(errors.ErrCodeSizeProbe, "probe response carried no content length")
	}
	return resp.ContentLength, nil
}

// OpenStream performs a streaming GET against a content URL. The caller
// owns the returned stream and must close it.
func (c *Client) OpenStream(ctx context.Context, contentURL string) (*Stream, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, contentURL, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStreamOpen, "build stream request", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStreamOpen, "stream request", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, errors.Newf(errors.ErrCodeStreamOpen, "stream returned status %d", resp.StatusCode)
	}
	return &Stream{Body: resp.Body, ContentLength: resp.ContentLength}, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.authToken != "" {
		req.Header.Set("Authorization", fmt.Sprintf("GoogleLogin auth=%s", c.authToken))
	}
}
