package jira

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Sentinel errors for mapped Jira status codes.
var (
	ErrUnauthorized = errors.New("Jira authentication failed (401/403)")
	ErrNotFound     = errors.New("Jira resource not found (404)")
	ErrRateLimited  = errors.New("Jira rate limit exceeded (429)")
)

const (
	pageSize     = 50
	maxPageLoops = 100

	atlassianAPI = "https://api.atlassian.com"
)

// accessibleResourcesURL lists the sites an OAuth token can reach.
var accessibleResourcesURL = atlassianAPI + "/oauth/token/accessible-resources"

type cloudClient struct {
	cfg        Config
	baseURL    string
	auth       Authenticator
	httpClient *http.Client

	throttleMu  sync.Mutex
	lastRequest time.Time

	// Session Cache
	cache      map[string]*cacheEntry
	cacheMutex sync.Mutex
}

type cacheEntry struct {
	Body        []byte
	Expiration  time.Time
	AccessCount int
	OriginalTTL time.Duration
}

// NewCloudClient builds a client against Jira Cloud. With OAuth and no cloud id
// configured, the site is discovered from the token's accessible resources.
func NewCloudClient(ctx context.Context, cfg Config) (Client, error) {
	auth, err := NewAuthenticator(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.PointsField == "" {
		cfg.PointsField = DefaultPointsField
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 90 * time.Second
	}

	c := &cloudClient{
		cfg:  cfg,
		auth: auth,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		cache: make(map[string]*cacheEntry),
	}

	if auth.Mode() == AuthOAuth && cfg.APIBase == "" && cfg.OAuth.CloudID == "" {
		id, err := c.discoverCloudID(ctx)
		if err != nil {
			return nil, err
		}
		c.cfg.OAuth.CloudID = id
	}

	c.baseURL = resolveBaseURL(c.cfg, auth.Mode())
	if c.baseURL == "" {
		return nil, errors.New("Jira site unknown: set JIRA_DOMAIN or JIRA_API_BASE")
	}
	log.Debug().Str("base", c.baseURL).Str("auth", string(auth.Mode())).Msg("Jira client configured")
	return c, nil
}

func resolveBaseURL(cfg Config, mode AuthMode) string {
	if cfg.APIBase != "" {
		return strings.TrimRight(cfg.APIBase, "/")
	}
	if mode == AuthOAuth && cfg.OAuth.CloudID != "" {
		return fmt.Sprintf("%s/ex/jira/%s", atlassianAPI, cfg.OAuth.CloudID)
	}
	if cfg.Domain == "" {
		return ""
	}
	domain := strings.TrimRight(cfg.Domain, "/")
	if strings.HasPrefix(domain, "http://") || strings.HasPrefix(domain, "https://") {
		return domain
	}
	return "https://" + domain
}

func (c *cloudClient) discoverCloudID(ctx context.Context) (string, error) {
	body, err := c.do(ctx, accessibleResourcesURL)
	if err != nil {
		return "", fmt.Errorf("failed to list accessible Jira sites: %w", err)
	}
	var sites []AccessibleResourceDTO
	if err := json.Unmarshal(body, &sites); err != nil {
		return "", fmt.Errorf("failed to decode accessible resources: %w", err)
	}
	if len(sites) == 0 {
		return "", errors.New("OAuth token has no accessible Jira sites")
	}
	for _, s := range sites {
		if c.cfg.Domain != "" && strings.Contains(s.URL, c.cfg.Domain) {
			return s.ID, nil
		}
	}
	return sites[0].ID, nil
}

func (c *cloudClient) getFromCache(key string) ([]byte, bool) {
	c.cacheMutex.Lock()
	defer c.cacheMutex.Unlock()

	entry, ok := c.cache[key]
	if !ok {
		return nil, false
	}

	if time.Now().After(entry.Expiration) {
		delete(c.cache, key)
		return nil, false
	}
	log.Trace().Str("key", key).Msg("Cache hit")

	// Sliding window extension
	if entry.AccessCount < 6 {
		entry.Expiration = time.Now().Add(entry.OriginalTTL)
		entry.AccessCount++
	}
	return entry.Body, true
}

func (c *cloudClient) addToCache(key string, body []byte, ttl time.Duration) {
	c.cacheMutex.Lock()
	defer c.cacheMutex.Unlock()

	c.cache[key] = &cacheEntry{
		Body:        body,
		Expiration:  time.Now().Add(ttl),
		OriginalTTL: ttl,
		AccessCount: 1,
	}
}

// throttle spaces requests by RequestDelay. A zero delay disables it.
func (c *cloudClient) throttle(ctx context.Context) error {
	if c.cfg.RequestDelay <= 0 {
		return nil
	}
	c.throttleMu.Lock()
	defer c.throttleMu.Unlock()

	if wait := c.cfg.RequestDelay - time.Since(c.lastRequest); wait > 0 {
		log.Trace().Dur("wait", wait).Msg("Throttling Jira request")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	c.lastRequest = time.Now()
	return nil
}

// getJSON fetches path relative to the site base and decodes it into out.
// Successful bodies are cached for ttl when ttl is positive.
func (c *cloudClient) getJSON(ctx context.Context, path string, ttl time.Duration, out any) error {
	if ttl > 0 {
		if body, ok := c.getFromCache(path); ok {
			return json.Unmarshal(body, out)
		}
	}

	body, err := c.do(ctx, c.baseURL+path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode Jira response for %s: %w", path, err)
	}
	if ttl > 0 {
		c.addToCache(path, body, ttl)
	}
	return nil
}

func (c *cloudClient) do(ctx context.Context, target string) ([]byte, error) {
	if err := c.throttle(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if err := c.auth.Authenticate(req); err != nil {
		return nil, err
	}

	log.Debug().Str("url", target).Msg("Jira request")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp, target)
	}
	return io.ReadAll(resp.Body)
}

func statusError(resp *http.Response, target string) error {
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: please check your credentials", ErrUnauthorized)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, target)
	case http.StatusTooManyRequests:
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			return fmt.Errorf("%w: retry after %s seconds", ErrRateLimited, retryAfter)
		}
		return ErrRateLimited
	default:
		return fmt.Errorf("Jira API returned status %d for %s", resp.StatusCode, target)
	}
}

func (c *cloudClient) ListBoards(ctx context.Context) ([]BoardDTO, error) {
	var boards []BoardDTO
	startAt := 0
	for loops := 0; loops < maxPageLoops; loops++ {
		params := url.Values{}
		params.Set("startAt", strconv.Itoa(startAt))
		params.Set("maxResults", strconv.Itoa(pageSize))

		var page BoardListDTO
		if err := c.getJSON(ctx, "/rest/agile/1.0/board?"+params.Encode(), 10*time.Minute, &page); err != nil {
			return nil, fmt.Errorf("failed to load boards: %w", err)
		}
		boards = append(boards, page.Values...)
		startAt += len(page.Values)
		if page.IsLast || len(page.Values) < pageSize {
			break
		}
	}
	return boards, nil
}

func (c *cloudClient) GetVelocity(ctx context.Context, boardID int) (*VelocityDTO, error) {
	var v VelocityDTO
	path := "/rest/greenhopper/1.0/rapid/charts/velocity?rapidViewId=" + strconv.Itoa(boardID)
	if err := c.getJSON(ctx, path, 5*time.Minute, &v); err != nil {
		return nil, fmt.Errorf("velocity report for board %d: %w", boardID, err)
	}
	return &v, nil
}

func (c *cloudClient) ListSprints(ctx context.Context, boardID int) ([]SprintDTO, error) {
	var sprints []SprintDTO
	startAt := 0
	for loops := 0; loops < maxPageLoops; loops++ {
		params := url.Values{}
		params.Set("state", "active,closed")
		params.Set("startAt", strconv.Itoa(startAt))
		params.Set("maxResults", strconv.Itoa(pageSize))

		var page SprintListDTO
		path := fmt.Sprintf("/rest/agile/1.0/board/%d/sprint?%s", boardID, params.Encode())
		if err := c.getJSON(ctx, path, 5*time.Minute, &page); err != nil {
			return nil, fmt.Errorf("sprint list for board %d: %w", boardID, err)
		}
		sprints = append(sprints, page.Values...)
		startAt += len(page.Values)
		if page.IsLast || len(page.Values) < pageSize {
			break
		}
	}
	return sprints, nil
}

func (c *cloudClient) GetSprintReport(ctx context.Context, boardID, sprintID int) (*SprintReportDTO, error) {
	params := url.Values{}
	params.Set("rapidViewId", strconv.Itoa(boardID))
	params.Set("sprintId", strconv.Itoa(sprintID))

	var r SprintReportDTO
	if err := c.getJSON(ctx, "/rest/greenhopper/1.0/rapid/charts/sprintreport?"+params.Encode(), 5*time.Minute, &r); err != nil {
		return nil, fmt.Errorf("sprint report %d on board %d: %w", sprintID, boardID, err)
	}
	return &r, nil
}

func (c *cloudClient) GetIssue(ctx context.Context, key string) (*IssueDTO, error) {
	params := url.Values{}
	params.Set("expand", "changelog")
	params.Set("fields", "flagged,status,created,resolutiondate,labels,parent,issuetype,"+c.cfg.PointsField)

	var dto IssueDTO
	if err := c.getJSON(ctx, "/rest/api/3/issue/"+url.PathEscape(key)+"?"+params.Encode(), 5*time.Minute, &dto); err != nil {
		return nil, fmt.Errorf("issue %s: %w", key, err)
	}
	return &dto, nil
}

func (c *cloudClient) GetEpic(ctx context.Context, key string) (*IssueDTO, error) {
	var dto IssueDTO
	if err := c.getJSON(ctx, "/rest/api/3/issue/"+url.PathEscape(key)+"?fields=issuetype,labels", 30*time.Minute, &dto); err != nil {
		return nil, fmt.Errorf("epic %s: %w", key, err)
	}
	return &dto, nil
}
