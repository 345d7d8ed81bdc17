// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/pdiddy/litsweep/pkg/types"
)

// Limiter paces requests to one API. A nil Limiter never waits.
type Limiter struct {
	lim *rate.Limiter
}

// NewLimiter converts a request budget into a token bucket with burst 1.
// A zero budget yields an unlimited Limiter.
func NewLimiter(rl types.RateLimit) *Limiter {
	if rl.Requests <= 0 || rl.Every <= 0 {
		return &Limiter{lim: rate.NewLimiter(rate.Inf, 1)}
	}
	every := rl.Every / time.Duration(rl.Requests)
	return &Limiter{lim: rate.NewLimiter(rate.Every(every), 1)}
}

// Wait blocks until a request may proceed or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil || l.lim == nil {
		return nil
	}
	return l.lim.Wait(ctx)
}

// StatusError reports a non-2xx response.
type StatusError struct {
	Code int
	URL  string
	Body string
}

func (e *StatusError) Error() string {
	msg := "HTTP " + http.StatusText(e.Code)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Client bundles an http.Client with rate limiting, 429 retry and a fixed
// User-Agent. Backends share one Client per API.
type Client struct {
	HTTP       *http.Client
	Limiter    *Limiter
	UserAgent  string
	MaxRetries int
}

// NewClient builds a Client from the shared HTTP settings and the API's
// request budget.
func NewClient(cfg types.HTTPConfig, rl types.RateLimit) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		HTTP:      &http.Client{Timeout: timeout},
		Limiter:   NewLimiter(rl),
		UserAgent: cfg.UserAgent,
	}
}

// Do waits for the limiter, sets the User-Agent and runs the request with
// 429 retry.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if err := c.Limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "waiting for rate limiter")
	}
	if c.UserAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	return DoWithRetry(ctx, client, req, c.MaxRetries)
}

// GetJSON issues a GET to rawURL with the given headers and decodes a 200
// response into out. Other statuses return a *StatusError.
func (c *Client) GetJSON(ctx context.Context, rawURL string, headers map[string]string, out any) error {
	resp, err := c.get(ctx, rawURL, headers)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return eris.Wrap(err, "decoding JSON response")
	}
	return nil
}

// GetBody issues a GET and returns the body of a 200 response.
func (c *Client) GetBody(ctx context.Context, rawURL string, headers map[string]string) ([]byte, error) {
	resp, err := c.get(ctx, rawURL, headers)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "reading response body")
	}
	return data, nil
}

func (c *Client) get(ctx context.Context, rawURL string, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "creating request")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, eris.Wrapf(&StatusError{Code: resp.StatusCode, URL: rawURL, Body: string(snippet)},
			"GET %s", req.URL.Host)
	}
	return resp, nil
}
