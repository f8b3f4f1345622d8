package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/miradorstack/sda-engine/internal/cache"
)

const pendingCacheKey = "sda:queue:pending"

// QueueClient reads open approvals from the live approvals queue service.
type QueueClient struct {
	baseURL     string
	pendingPath string
	httpClient  *http.Client
	cache       cache.Provider
	cacheTTL    time.Duration
	logger      *slog.Logger
}

// NewQueueClient constructs a client targeting the approvals queue. Responses are
// cached for cacheTTL when cacheTTL is positive.
func NewQueueClient(baseURL, pendingPath string, timeout time.Duration, cacheProvider cache.Provider, cacheTTL time.Duration, logger *slog.Logger) *QueueClient {
	if cacheProvider == nil {
		cacheProvider = cache.NoopProvider{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &QueueClient{
		baseURL:     strings.TrimRight(baseURL, "/"),
		pendingPath: pendingPath,
		httpClient:  &http.Client{Timeout: timeout},
		cache:       cacheProvider,
		cacheTTL:    cacheTTL,
		logger:      logger,
	}
}

// FetchPendingApprovals lists approvals awaiting a decision.
func (c *QueueClient) FetchPendingApprovals(ctx context.Context) ([]PendingApproval, error) {
	if c == nil {
		return nil, fmt.Errorf("approvals queue client not initialised")
	}
	if c.baseURL == "" {
		return nil, fmt.Errorf("approvals queue base URL not configured")
	}

	if c.cacheTTL > 0 {
		if cached, err := c.cache.Get(ctx, pendingCacheKey); err == nil {
			var items []PendingApproval
			if err := json.Unmarshal(cached, &items); err == nil {
				return items, nil
			}
			c.logger.Warn("discarding corrupt pending approvals cache entry")
			if err := c.cache.Del(ctx, pendingCacheKey); err != nil {
				c.logger.Warn("pending approvals cache evict failed", slog.Any("error", err))
			}
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			c.logger.Warn("pending approvals cache read failed", slog.Any("error", err))
		}
	}

	var response struct {
		Items []PendingApproval `json:"items"`
	}
	if err := c.getJSON(ctx, c.resolvePath(c.pendingPath), &response); err != nil {
		return nil, fmt.Errorf("approvals queue request failed: %w", err)
	}

	if c.cacheTTL > 0 {
		if data, err := json.Marshal(response.Items); err == nil {
			if err := c.cache.Set(ctx, pendingCacheKey, data, c.cacheTTL); err != nil {
				c.logger.Warn("pending approvals cache write failed", slog.Any("error", err))
			}
		}
	}
	return response.Items, nil
}

func (c *QueueClient) resolvePath(p string) string {
	if c.baseURL == "" {
		return ""
	}
	cleaned := "/" + strings.TrimLeft(p, "/")
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return c.baseURL + cleaned
	}
	u.Path = path.Join(u.Path, cleaned)
	return u.String()
}

func (c *QueueClient) getJSON(ctx context.Context, endpoint string, out any) error {
	if endpoint == "" {
		return fmt.Errorf("empty endpoint")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("approvals queue returned %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
