package umami

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sun0225SUN/umami-report-to-telegram/internal/timerange"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const (
	requestTimeout = 30 * time.Second

	loginPath = "/api/auth/login"
	statsPath = "/api/websites/%s/stats"

	// error details taken from response bodies are cut to this many bytes
	maxDetail = 500
)

var (
	ErrAuth  = errors.New("umami authentication failed")
	ErrFetch = errors.New("umami stats request failed")
)

type Client struct {
	logger     *zap.Logger
	BaseUrl    string
	httpClient *http.Client
}

func NewClient(logger *zap.Logger, baseUrl string) *Client {
	return &Client{
		logger:  logger,
		BaseUrl: strings.TrimRight(baseUrl, "/"),
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// Authenticate logs in with username and password and returns the session token.
func (c *Client) Authenticate(ctx context.Context, username, password string) (string, error) {
	payload, err := json.Marshal(LoginRequest{Username: username, Password: password})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrAuth, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseUrl+loginPath, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%w: failed to create login request: %w", ErrAuth, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("logging in to umami", zap.String("url", req.URL.String()), zap.String("user", username))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: login request failed: %w", ErrAuth, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: failed to read login response: %w", ErrAuth, err)
	}

	if !isSuccess(resp.StatusCode) {
		return "", fmt.Errorf("%w (HTTP %d): %s", ErrAuth, resp.StatusCode, detail(body))
	}

	var lr LoginResponse
	if err := json.Unmarshal(body, &lr); err != nil {
		return "", fmt.Errorf("%w: failed to parse login response: %w", ErrAuth, err)
	}
	if lr.Token == "" {
		return "", fmt.Errorf("%w: no token received from login response", ErrAuth)
	}

	return lr.Token, nil
}

// FetchStats returns the summary stats of one website over the window.
func (c *Client) FetchStats(ctx context.Context, siteID, token string, window timerange.Window) (RawStats, error) {
	q := url.Values{}
	q.Set("startAt", strconv.FormatInt(window.StartMs, 10))
	q.Set("endAt", strconv.FormatInt(window.EndMs, 10))
	statsUrl := c.BaseUrl + fmt.Sprintf(statsPath, url.PathEscape(siteID)) + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, statsUrl, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create stats request: %w", ErrFetch, err)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("fetching umami stats", zap.String("site", siteID), zap.String("url", statsUrl))

	resp, err := c.authorized(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read stats response: %w", ErrFetch, err)
	}

	if !isSuccess(resp.StatusCode) {
		return nil, fmt.Errorf("%w (HTTP %d): %s", ErrFetch, resp.StatusCode, detail(body))
	}

	stats, err := DecodeStats(body)
	if err != nil {
		c.logger.Warn("unexpected stats response", zap.String("site", siteID), zap.String("body", detail(body)))
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}

	c.logger.Debug("umami stats received", zap.String("site", siteID), zap.Strings("keys", stats.Keys()))
	return stats, nil
}

// authorized returns an HTTP client that sends token as a bearer credential.
func (c *Client) authorized(ctx context.Context, token string) *http.Client {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	hc := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	}))
	hc.Timeout = c.httpClient.Timeout
	return hc
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

func detail(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxDetail {
		s = s[:maxDetail] + "..."
	}
	return s
}
