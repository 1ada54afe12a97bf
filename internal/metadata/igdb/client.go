// Package igdb implements the IGDB metadata provider.
//
// IGDB sits behind Twitch's OAuth: the client exchanges its client
// credentials for a bearer token and queries the v4 API with Apicalypse
// bodies. Tokens are cached until shortly before expiry.
package igdb

import (
	"context"
	"encoding/json/v2"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gamevaultapp/gamevault-server/internal/errors"
	"github.com/gamevaultapp/gamevault-server/internal/ratelimit"
)

const (
	// Slug identifies this provider in the registry.
	Slug = "igdb"

	defaultAPIURL  = "https://api.igdb.com/v4"
	defaultAuthURL = "https://id.twitch.tv/oauth2/token"

	// IGDB allows 4 requests per second per client.
	defaultRPS   = 3.0
	defaultBurst = 3

	defaultTimeout = 30 * time.Second

	// tokenSlack is subtracted from the token lifetime so a token is never
	// used right at its expiry edge.
	tokenSlack = time.Minute
)

// Client is a rate-limited IGDB v4 client.
type Client struct {
	http         *http.Client
	limiter      *ratelimit.KeyedRateLimiter
	clientID     string
	clientSecret string
	apiURL       string
	authURL      string
	logger       *slog.Logger

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewClient creates a new IGDB client with Twitch credentials.
func NewClient(clientID, clientSecret string, logger *slog.Logger) *Client {
	return &Client{
		http: &http.Client{
			Timeout: defaultTimeout,
		},
		limiter:      ratelimit.New(defaultRPS, defaultBurst),
		clientID:     clientID,
		clientSecret: clientSecret,
		apiURL:       defaultAPIURL,
		authURL:      defaultAuthURL,
		logger:       logger,
	}
}

// Close releases resources held by the client.
func (c *Client) Close() {
	c.limiter.Stop()
}

// accessToken returns a valid bearer token, refreshing through Twitch when
// the cached one is missing or about to expire.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	form := url.Values{}
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeProviderFailure, "twitch auth unreachable")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeProviderFailure, "read twitch auth response")
	}
	if resp.StatusCode != http.StatusOK {
		return "", errors.ProviderFailuref("twitch auth returned status %d", resp.StatusCode)
	}

	var token rawToken
	if err := json.Unmarshal(body, &token); err != nil {
		return "", fmt.Errorf("parse token response: %w", err)
	}
	if token.AccessToken == "" {
		return "", errors.ProviderFailure("twitch auth returned an empty token")
	}

	c.token = token.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(token.ExpiresIn)*time.Second - tokenSlack)
	c.logger.Debug("refreshed igdb token", "expires_in", token.ExpiresIn)

	return c.token, nil
}

// query POSTs an Apicalypse body to one endpoint and returns the raw
// response. Non-2xx statuses map onto domain errors.
func (c *Client) query(ctx context.Context, endpoint, apicalypse string) ([]byte, error) {
	if err := c.limiter.Wait(ctx, "api"); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+endpoint, strings.NewReader(apicalypse))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Client-ID", c.clientID)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("igdb request", "endpoint", endpoint)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeProviderFailure, "igdb unreachable")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeProviderFailure, "read igdb response")
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, errors.NotFound("igdb entry not found")
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		// Force a token refresh on the next call.
		c.mu.Lock()
		c.token = ""
		c.mu.Unlock()
		return nil, errors.ProviderFailure("igdb rejected the access token")
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, errors.ProviderFailure("igdb rate limit exceeded")
	default:
		return nil, errors.ProviderFailuref("igdb returned status %d", resp.StatusCode)
	}
}

// games runs a query against the /games endpoint.
func (c *Client) games(ctx context.Context, apicalypse string) ([]rawGame, error) {
	body, err := c.query(ctx, "/games", apicalypse)
	if err != nil {
		return nil, err
	}

	var games []rawGame
	if err := json.Unmarshal(body, &games); err != nil {
		return nil, fmt.Errorf("parse games response: %w", err)
	}
	return games, nil
}

// imageURL rewrites an IGDB image reference to a https URL at the given
// named size. IGDB hands out protocol-relative thumbnail URLs.
func imageURL(raw, size string) string {
	if raw == "" {
		return ""
	}
	u := strings.Replace(raw, "t_thumb", "t_"+size, 1)
	if strings.HasPrefix(u, "//") {
		u = "https:" + u
	}
	return u
}
