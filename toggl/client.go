package toggl

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

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL  = "https://api.track.toggl.com"
	defaultPageSize = 50

	// The API expects basic auth with the token as user and this literal password.
	authPassword = "api_token"
)

var (
	// ErrAuth marks credential rejection by the Toggl API. It is fatal to a run.
	ErrAuth = errors.New("toggl credentials rejected")
	// ErrUnavailable marks an unreachable Toggl API after the retry budget. It is fatal to a run.
	ErrUnavailable = errors.New("toggl api unavailable")
)

// Client defines the Toggl Track operations used by the import pipeline.
type Client interface {
	Me(ctx context.Context) (Account, error)
	TimeEntries(from, to time.Time) EntryIterator
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type ClientConfig struct {
	BaseURL       string
	APIToken      string
	WorkspaceID   int64
	PageSize      int
	RateLimit     float64
	RateBurst     int
	MaxAttempts   int
	RetryInterval time.Duration
	HTTPClient    httpDoer
}

type HTTPClient struct {
	baseURL       string
	apiToken      string
	workspaceID   int64
	pageSize      int
	maxAttempts   int
	retryInterval time.Duration
	limiter       *rate.Limiter
	httpClient    httpDoer
}

func NewClient(cfg ClientConfig) (*HTTPClient, error) {
	apiToken := strings.TrimSpace(cfg.APIToken)
	if apiToken == "" {
		return nil, errors.New("api token is required")
	}

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	parsedBase, err := url.Parse(baseURL)
	if err != nil || parsedBase.Scheme == "" || parsedBase.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", cfg.BaseURL)
	}

	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}

	retryInterval := cfg.RetryInterval
	if retryInterval <= 0 {
		retryInterval = 500 * time.Millisecond
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	doer := cfg.HTTPClient
	if doer == nil {
		doer = &http.Client{Timeout: 30 * time.Second}
	}

	return &HTTPClient{
		baseURL:       baseURL,
		apiToken:      apiToken,
		workspaceID:   cfg.WorkspaceID,
		pageSize:      pageSize,
		maxAttempts:   maxAttempts,
		retryInterval: retryInterval,
		limiter:       limiter,
		httpClient:    doer,
	}, nil
}

// Account identifies the authenticated Toggl user.
type Account struct {
	ID                 int64  `json:"id"`
	Email              string `json:"email"`
	FullName           string `json:"fullname"`
	DefaultWorkspaceID int64  `json:"default_workspace_id"`
}

// Me fetches the authenticated account. It is used as a credential probe
// before a run so bad tokens fail fast instead of importing nothing.
func (c *HTTPClient) Me(ctx context.Context) (Account, error) {
	var out Account
	if err := c.doJSON(ctx, http.MethodGet, "/api/v9/me", &out); err != nil {
		return Account{}, err
	}
	return out, nil
}

// TimeEntries returns an iterator over the entries started in [from, to).
// Both bounds are interpreted as calendar days in the account's timezone.
func (c *HTTPClient) TimeEntries(from, to time.Time) EntryIterator {
	return &pageIterator{client: c, from: from, to: to, page: 1}
}

// doJSON performs one API call with the client's retry policy. Transient
// failures (network errors, 429, 5xx) are retried with exponential backoff
// and surface as ErrUnavailable once the attempt budget is exhausted.
func (c *HTTPClient) doJSON(ctx context.Context, method, endpointPath string, out any) error {
	operation := func() error {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return backoff.Permanent(fmt.Errorf("wait for rate limiter: %w", err))
			}
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpointPath, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("create request %s %s: %w", method, endpointPath, err))
		}
		req.SetBasicAuth(c.apiToken, authPassword)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("%w: request %s %s: %v", ErrUnavailable, method, endpointPath, err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return backoff.Permanent(fmt.Errorf("%w: status %d", ErrAuth, resp.StatusCode))
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return fmt.Errorf("%w: request %s %s failed with status %d", ErrUnavailable, method, endpointPath, resp.StatusCode)
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			responseBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			return backoff.Permanent(fmt.Errorf(
				"request %s %s failed with status %d: %s",
				method,
				endpointPath,
				resp.StatusCode,
				strings.TrimSpace(string(responseBody)),
			))
		}

		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return backoff.Permanent(fmt.Errorf("decode response %s %s: %w", method, endpointPath, err))
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.retryInterval
	return backoff.Retry(operation, backoff.WithMaxRetries(backoff.WithContext(bo, ctx), uint64(c.maxAttempts-1)))
}
