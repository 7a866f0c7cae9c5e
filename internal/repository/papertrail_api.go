package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"papertrail_cli/internal/logger"
	"papertrail_cli/internal/models"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
)

const (
	DefaultBaseURL   = "https://papertrailapp.com/api/v1/"
	DefaultTimeout   = 30 * time.Second
	defaultUserAgent = "papertrail-cli-go"

	tokenHeader     = "X-Papertrail-Token"
	requestIDHeader = "X-Request-Id"

	maxErrorBodyBytes = 512
)

var (
	// ErrMissingToken is returned when no API token is configured.
	ErrMissingToken = errors.New("API token not configured (set token in .papertrail.yml or PAPERTRAIL_API_TOKEN)")
	// ErrRequest wraps transport failures and non-success responses.
	ErrRequest = errors.New("papertrail request failed")
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// APIConfig configures the HTTP adapter.
type APIConfig struct {
	BaseURL   string
	Token     string
	UserAgent string
	Timeout   time.Duration
}

// PapertrailAPI talks to the Papertrail REST API over HTTP.
type PapertrailAPI struct {
	base      *url.URL
	token     string
	userAgent string
	client    *http.Client
	log       *logger.Logger
	now       func() time.Time
}

// NewPapertrailAPI validates cfg and returns a ready adapter.
func NewPapertrailAPI(cfg APIConfig, log *logger.Logger) (*PapertrailAPI, error) {
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, ErrMissingToken
	}
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		raw = DefaultBaseURL
	}
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse api url %q: %w", raw, err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	if log == nil {
		log = logger.Nop()
	}
	return &PapertrailAPI{
		base:      base,
		token:     token,
		userAgent: ua,
		client:    &http.Client{Timeout: timeout},
		log:       log,
		now:       time.Now,
	}, nil
}

// FindSystemID resolves a system by exact name, then by case-insensitive substring.
func (a *PapertrailAPI) FindSystemID(ctx context.Context, name string) (int64, bool, error) {
	var systems []models.System
	if _, err := a.get(ctx, "systems.json", nil, &systems); err != nil {
		return 0, false, err
	}
	s, ok := matchByName(systems, func(s models.System) string { return s.Name }, name)
	return s.ID, ok, nil
}

// FindGroupID resolves a group by exact name, then by case-insensitive substring.
func (a *PapertrailAPI) FindGroupID(ctx context.Context, name string) (int64, bool, error) {
	var groups []models.Group
	if _, err := a.get(ctx, "groups.json", nil, &groups); err != nil {
		return 0, false, err
	}
	g, ok := matchByName(groups, func(g models.Group) string { return g.Name }, name)
	return g.ID, ok, nil
}

// searchResponse mirrors the fields of events/search.json the CLI relies on.
type searchResponse struct {
	Events           []models.Event `json:"events"`
	MinID            string         `json:"min_id"`
	MaxID            string         `json:"max_id"`
	ReachedBeginning bool           `json:"reached_beginning"`
	ReachedTimeLimit bool           `json:"reached_time_limit"`
	MinTimeAt        string         `json:"min_time_at"`
	MaxTimeAt        string         `json:"max_time_at"`
}

// Search fetches one page of events.
func (a *PapertrailAPI) Search(ctx context.Context, req SearchRequest) (models.Page, error) {
	requestedAt := a.now().UTC()

	var resp searchResponse
	body, err := a.get(ctx, "events/search.json", searchParams(req), &resp)
	if err != nil {
		return models.Page{}, err
	}

	page := models.Page{
		Events:           resp.Events,
		MinID:            resp.MinID,
		MaxID:            resp.MaxID,
		ReachedBeginning: resp.ReachedBeginning,
		ReachedTimeLimit: resp.ReachedTimeLimit,
		Raw:              body,
	}
	page.ReachedMaxTime = reachedMaxTime(req.Cursor.MaxTime, resp, requestedAt)
	return page, nil
}

// searchParams builds the query string. min_time is only sent before the
// first page; after that min_id carries the position.
func searchParams(req SearchRequest) url.Values {
	v := url.Values{}
	if q := strings.TrimSpace(req.Query); q != "" {
		v.Set("q", q)
	}
	if req.SystemID != 0 {
		v.Set("system_id", strconv.FormatInt(req.SystemID, 10))
	}
	if req.GroupID != 0 {
		v.Set("group_id", strconv.FormatInt(req.GroupID, 10))
	}
	if req.Cursor.MaxID != "" {
		v.Set("min_id", req.Cursor.MaxID)
	} else if !req.MinTime.IsZero() {
		v.Set("min_time", strconv.FormatInt(req.MinTime.Unix(), 10))
	}
	if !req.MaxTime.IsZero() {
		v.Set("max_time", strconv.FormatInt(req.MaxTime.Unix(), 10))
	}
	return v
}

// reachedMaxTime picks the newest of the previous mark, the newest event and
// the server-reported window end. An empty page without a window end covered
// everything up to the moment it was requested.
func reachedMaxTime(prev time.Time, resp searchResponse, requestedAt time.Time) time.Time {
	reached := prev
	for _, ev := range resp.Events {
		if ev.ReceivedAt.After(reached) {
			reached = ev.ReceivedAt
		}
	}
	if resp.MaxTimeAt != "" {
		if t, err := time.Parse(time.RFC3339, resp.MaxTimeAt); err == nil && t.After(reached) {
			reached = t
		}
	} else if len(resp.Events) == 0 && requestedAt.After(reached) {
		reached = requestedAt
	}
	return reached.UTC()
}

// get performs a GET, decodes the body into out and returns the raw body.
func (a *PapertrailAPI) get(ctx context.Context, path string, params url.Values, out any) ([]byte, error) {
	u := a.base.ResolveReference(&url.URL{Path: path})
	if len(params) > 0 {
		u.RawQuery = params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request %s: %w", path, err)
	}
	reqID := uuid.NewString()
	req.Header.Set(tokenHeader, a.token)
	req.Header.Set(requestIDHeader, reqID)
	req.Header.Set("User-Agent", a.userAgent)
	req.Header.Set("Accept", "application/json")

	start := a.now()
	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %w", ErrRequest, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrRequest, path, err)
	}
	a.log.Debugw("api_request", "path", path, "status", resp.StatusCode, "request_id", reqID,
		"bytes", len(body), "elapsed", a.now().Sub(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: GET %s: status %d: %s", ErrRequest, path, resp.StatusCode, excerpt(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrRequest, path, err)
	}
	return body, nil
}

func excerpt(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > maxErrorBodyBytes {
		s = s[:maxErrorBodyBytes] + "..."
	}
	return s
}

// matchByName returns the first exact match, else the first item whose name
// contains want ignoring case.
func matchByName[T any](items []T, name func(T) string, want string) (T, bool) {
	var zero T
	for _, it := range items {
		if name(it) == want {
			return it, true
		}
	}
	lw := strings.ToLower(want)
	for _, it := range items {
		if strings.Contains(strings.ToLower(name(it)), lw) {
			return it, true
		}
	}
	return zero, false
}
