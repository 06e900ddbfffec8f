package openproject

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	apiBase = "/api/v3"

	// The API expects basic auth with this literal user and the key as password.
	authUser = "apikey"

	listPageSize = 100
)

var (
	ErrNotFound  = errors.New("not found")
	ErrAmbiguous = errors.New("ambiguous name")
)

// APIError is a non-2xx response from the OpenProject API.
type APIError struct {
	StatusCode int
	Method     string
	Path       string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("request %s %s failed with status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500
}

// Client defines the OpenProject API operations used by the import pipeline.
type Client interface {
	WorkPackage(ctx context.Context, id int64) (WorkPackage, error)
	FindUser(ctx context.Context, name string) (User, error)
	FindProject(ctx context.Context, name string) (Project, error)
	WorkPackageTimeEntries(ctx context.Context, workPackageID int64) ([]TimeEntry, error)
	CreateTimeEntry(ctx context.Context, request TimeEntryRequest) (TimeEntry, error)
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type ClientConfig struct {
	BaseURL    string
	APIKey     string
	RateLimit  float64
	RateBurst  int
	HTTPClient httpDoer
}

type HTTPClient struct {
	baseURL    string
	apiKey     string
	limiter    *rate.Limiter
	httpClient httpDoer
}

func NewClient(cfg ClientConfig) (*HTTPClient, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		return nil, errors.New("base URL is required")
	}
	baseURL = strings.TrimRight(baseURL, "/")

	parsedBase, err := url.Parse(baseURL)
	if err != nil || parsedBase.Scheme == "" || parsedBase.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", cfg.BaseURL)
	}

	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("api key is required")
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
		baseURL:    baseURL,
		apiKey:     apiKey,
		limiter:    limiter,
		httpClient: doer,
	}, nil
}

func (c *HTTPClient) WorkPackage(ctx context.Context, id int64) (WorkPackage, error) {
	var out WorkPackage
	err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("%s/work_packages/%d", apiBase, id), nil, &out)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return WorkPackage{}, fmt.Errorf("work package %d: %w", id, ErrNotFound)
		}
		return WorkPackage{}, err
	}
	return out, nil
}

func (c *HTTPClient) FindUser(ctx context.Context, name string) (User, error) {
	name = normalize(name)
	if name == "" {
		return User{}, errors.New("user name is required")
	}

	filters, err := filtersParam("name", name)
	if err != nil {
		return User{}, err
	}
	query := url.Values{}
	query.Set("filters", filters)
	query.Set("pageSize", strconv.Itoa(listPageSize))

	var out collection[User]
	if err := c.doJSON(ctx, http.MethodGet, apiBase+"/users?"+query.Encode(), nil, &out); err != nil {
		return User{}, err
	}

	candidates := make([]User, 0, len(out.Embedded.Elements))
	for _, user := range out.Embedded.Elements {
		if equalName(user.Name, name) || equalName(user.Login, name) {
			candidates = append(candidates, user)
		}
	}
	if len(candidates) == 0 {
		return User{}, fmt.Errorf("user %q: %w", name, ErrNotFound)
	}
	if len(candidates) > 1 {
		return User{}, fmt.Errorf("%w: user %q matches ids %s", ErrAmbiguous, name, idsForUsers(candidates))
	}
	return candidates[0], nil
}

func (c *HTTPClient) FindProject(ctx context.Context, name string) (Project, error) {
	name = normalize(name)
	if name == "" {
		return Project{}, errors.New("project name is required")
	}

	filters, err := filtersParam("name_and_identifier", name)
	if err != nil {
		return Project{}, err
	}
	query := url.Values{}
	query.Set("filters", filters)
	query.Set("pageSize", strconv.Itoa(listPageSize))

	var out collection[Project]
	if err := c.doJSON(ctx, http.MethodGet, apiBase+"/projects?"+query.Encode(), nil, &out); err != nil {
		return Project{}, err
	}

	candidates := make([]Project, 0, len(out.Embedded.Elements))
	for _, project := range out.Embedded.Elements {
		if equalName(project.Name, name) || equalName(project.Identifier, name) {
			candidates = append(candidates, project)
		}
	}
	if len(candidates) == 0 {
		return Project{}, fmt.Errorf("project %q: %w", name, ErrNotFound)
	}
	if len(candidates) > 1 {
		return Project{}, fmt.Errorf("%w: project %q matches ids %s", ErrAmbiguous, name, idsForProjects(candidates))
	}
	return candidates[0], nil
}

// WorkPackageTimeEntries lists every time entry logged on a work package,
// following pagination to the end.
func (c *HTTPClient) WorkPackageTimeEntries(ctx context.Context, workPackageID int64) ([]TimeEntry, error) {
	filters, err := filtersParam("work_package", strconv.FormatInt(workPackageID, 10))
	if err != nil {
		return nil, err
	}

	entries := make([]TimeEntry, 0, listPageSize)
	for offset := 1; ; offset++ {
		query := url.Values{}
		query.Set("filters", filters)
		query.Set("pageSize", strconv.Itoa(listPageSize))
		query.Set("offset", strconv.Itoa(offset))

		var page collection[TimeEntry]
		if err := c.doJSON(ctx, http.MethodGet, apiBase+"/time_entries?"+query.Encode(), nil, &page); err != nil {
			return nil, err
		}
		entries = append(entries, page.Embedded.Elements...)
		if len(page.Embedded.Elements) < listPageSize {
			return entries, nil
		}
	}
}

func (c *HTTPClient) CreateTimeEntry(ctx context.Context, request TimeEntryRequest) (TimeEntry, error) {
	var out TimeEntry
	if err := c.doJSON(ctx, http.MethodPost, apiBase+"/time_entries", request, &out); err != nil {
		return TimeEntry{}, err
	}
	return out, nil
}

func (c *HTTPClient) doJSON(ctx context.Context, method, endpointPath string, body any, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("wait for rate limiter: %w", err)
		}
	}

	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpointPath, bodyReader)
	if err != nil {
		return fmt.Errorf("create request %s %s: %w", method, endpointPath, err)
	}

	req.SetBasicAuth(authUser, c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s failed: %w", method, endpointPath, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		responseBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{
			StatusCode: resp.StatusCode,
			Method:     method,
			Path:       req.URL.Path,
			Body:       strings.TrimSpace(string(responseBody)),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode response %s %s: %w", method, endpointPath, err)
	}
	return nil
}

func filtersParam(field string, values ...string) (string, error) {
	filters := []map[string]any{{field: map[string]any{"operator": "=", "values": values}}}
	payload, err := json.Marshal(filters)
	if err != nil {
		return "", fmt.Errorf("marshal %s filter: %w", field, err)
	}
	return string(payload), nil
}

func equalName(a, b string) bool {
	return strings.EqualFold(normalize(a), normalize(b))
}

func normalize(value string) string {
	return strings.Join(strings.Fields(strings.TrimSpace(value)), " ")
}

func idsForUsers(values []User) string {
	ids := make([]int64, 0, len(values))
	for _, value := range values {
		ids = append(ids, value.ID)
	}
	return formatIDs(ids)
}

func idsForProjects(values []Project) string {
	ids := make([]int64, 0, len(values))
	for _, value := range values {
		ids = append(ids, value.ID)
	}
	return formatIDs(ids)
}

func formatIDs(values []int64) string {
	unique := make(map[int64]struct{}, len(values))
	for _, value := range values {
		unique[value] = struct{}{}
	}

	sorted := make([]int64, 0, len(unique))
	for value := range unique {
		sorted = append(sorted, value)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	items := make([]string, 0, len(sorted))
	for _, value := range sorted {
		items = append(items, strconv.FormatInt(value, 10))
	}
	return strings.Join(items, ", ")
}
