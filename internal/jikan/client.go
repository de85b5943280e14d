package jikan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/charmbracelet/log"
	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"

	"github.com/desertthunder/anitrack/internal/cache"
	"github.com/desertthunder/anitrack/internal/shared"
)

const (
	DefaultBaseURL = "https://api.jikan.moe/v4"
	userAgent      = "anitrack/1.0"
)

// RetryPolicy bounds how often and how patiently a request is retried.
//
// Attempts counts every call, the first one included. The delay before retry n (1-based) is
// BaseDelay * 2^(n-1), capped at MaxDelay when MaxDelay is positive.
type RetryPolicy struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// DefaultRetryPolicy makes three attempts, waiting 700ms and then 1.4s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 3, BaseDelay: 700 * time.Millisecond, MaxDelay: 10 * time.Second}
}

// Options configures a [Client]. Zero values select defaults.
type Options struct {
	BaseURL           string
	HTTPClient        *http.Client
	Retry             RetryPolicy
	RequestsPerSecond float64 // <= 0 disables client side rate limiting
	Burst             int
	Cache             cache.Cache
	Logger            *log.Logger
	Clock             clockwork.Clock
	Timer             retry.Timer // waits between attempts; nil uses real timers
}

// Client calls the Jikan API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	policy     RetryPolicy
	limiter    *rate.Limiter
	cache      cache.Cache
	logger     *log.Logger
	clock      clockwork.Clock
	timer      retry.Timer
}

// New creates a Jikan client.
func New(opts Options) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: opts.HTTPClient,
		policy:     opts.Retry,
		cache:      opts.Cache,
		logger:     opts.Logger,
		clock:      opts.Clock,
		timer:      opts.Timer,
	}

	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if c.policy.Attempts < 1 {
		c.policy.Attempts = 1
	}
	if c.cache == nil {
		c.cache = cache.Nop{}
	}
	if c.logger == nil {
		c.logger = log.New(io.Discard)
	}
	if c.clock == nil {
		c.clock = clockwork.NewRealClock()
	}

	limit := rate.Inf
	burst := opts.Burst
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
	}
	c.limiter = rate.NewLimiter(limit, burst)
	return c
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (c *Client) retryOptions(ctx context.Context, endpoint string) []retry.Option {
	opts := []retry.Option{
		retry.Context(ctx),
		retry.Attempts(uint(c.policy.Attempts)),
		retry.Delay(c.policy.BaseDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn("retrying jikan request", "url", endpoint, "attempt", n+1, "error", err)
		}),
	}
	if c.policy.MaxDelay > 0 {
		opts = append(opts, retry.MaxDelay(c.policy.MaxDelay))
	}
	if c.timer != nil {
		opts = append(opts, retry.WithTimer(c.timer))
	}
	return opts
}

// get performs a GET with the retry policy and returns the raw 2xx body.
func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	endpoint := c.endpoint(path, query)
	attempts := 0

	body, err := retry.DoWithData(func() ([]byte, error) {
		attempts++
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, retry.Unrecoverable(err)
		}
		c.logger.Debug("jikan request", "url", endpoint, "attempt", attempts)
		return c.do(ctx, endpoint)
	}, c.retryOptions(ctx, endpoint)...)
	if err == nil {
		return body, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("GET %s: %w", endpoint, ctxErr)
	}

	fetchErr := &FetchError{URL: endpoint, Attempts: attempts, Err: err}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		fetchErr.StatusCode = statusErr.StatusCode
	}
	c.logger.Error("jikan request failed", "url", endpoint, "attempts", attempts, "error", err)
	return nil, fetchErr
}

func (c *Client) do(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, retry.Unrecoverable(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{URL: endpoint, StatusCode: resp.StatusCode}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}

// lookup returns the cached body for key. Cache failures are logged and treated as misses.
func (c *Client) lookup(ctx context.Context, key string) ([]byte, bool) {
	if key == "" {
		return nil, false
	}
	body, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.Warn("cache read failed", "key", key, "error", err)
		return nil, false
	}
	if ok {
		c.logger.Debug("cache hit", "key", key)
	}
	return body, ok
}

func (c *Client) store(ctx context.Context, key string, body []byte) {
	if key == "" {
		return
	}
	if err := c.cache.Set(ctx, key, body); err != nil {
		c.logger.Warn("cache write failed", "key", key, "error", err)
	}
}

// fetchList returns one page of a listing. An empty data array is [shared.ErrEmptyResult] and is not cached.
func fetchList[T any](ctx context.Context, c *Client, key, path string, query url.Values) (Page[T], error) {
	body, hit := c.lookup(ctx, key)
	if !hit {
		var err error
		if body, err = c.get(ctx, path, query); err != nil {
			return Page[T]{}, err
		}
	}

	var resp listResponse[T]
	if err := json.Unmarshal(body, &resp); err != nil {
		return Page[T]{}, fmt.Errorf("%w: failed to decode %s: %v", shared.ErrAPIRequest, path, err)
	}
	if len(resp.Data) == 0 {
		return Page[T]{}, fmt.Errorf("%w: %s", shared.ErrEmptyResult, path)
	}
	if !hit {
		c.store(ctx, key, body)
	}

	return Page[T]{
		Items:       resp.Data,
		HasNextPage: resp.Pagination.HasNextPage,
		CurrentPage: resp.Pagination.CurrentPage,
		LastPage:    resp.Pagination.LastVisiblePage,
	}, nil
}

// fetchItem returns a single resource. A null data field is [shared.ErrEmptyResult].
func fetchItem[T any](ctx context.Context, c *Client, key, path string) (*T, error) {
	body, hit := c.lookup(ctx, key)
	if !hit {
		var err error
		if body, err = c.get(ctx, path, nil); err != nil {
			return nil, err
		}
	}

	var resp itemResponse[T]
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: failed to decode %s: %v", shared.ErrAPIRequest, path, err)
	}
	if resp.Data == nil {
		return nil, fmt.Errorf("%w: %s", shared.ErrEmptyResult, path)
	}
	if !hit {
		c.store(ctx, key, body)
	}
	return resp.Data, nil
}

func pageQuery(page, limit int) url.Values {
	q := url.Values{}
	if page > 0 {
		q.Set("page", fmt.Sprint(page))
	}
	if limit > 0 {
		q.Set("limit", fmt.Sprint(limit))
	}
	return q
}
