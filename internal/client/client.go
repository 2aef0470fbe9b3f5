package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"zapis/internal/errs"
	"zapis/internal/models"
)

// DayResult is one day's availability as seen by the client.
type DayResult struct {
	Date          string        `json:"date"`
	Slots         []models.Slot `json:"slots"`
	SplitRequired bool          `json:"split_required"`
}

// Client calls the availability API. An optional Redis layer caches GET
// responses; availability reads are side-effect-free and safe to cache.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client

	redis    *redis.Client
	cacheTTL time.Duration
}

// New constructs an API client.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// UseRedisCache configures optional Redis caching for GET endpoints.
func (c *Client) UseRedisCache(redisClient *redis.Client, ttl time.Duration) {
	c.redis = redisClient
	c.cacheTTL = ttl
}

// DayAvailability fetches slots for provider/date (YYYY-MM-DD).
func (c *Client) DayAvailability(ctx context.Context, providerID, date string, serviceIDs []string) (*DayResult, error) {
	endpoint := fmt.Sprintf("%s/api/v1/availability?provider_id=%s&date=%s&service_ids=%s",
		c.baseURL, url.QueryEscape(providerID), url.QueryEscape(date), url.QueryEscape(strings.Join(serviceIDs, ",")))
	cacheKey := fmt.Sprintf("availability:%s:%s:%s", providerID, date, strings.Join(serviceIDs, ","))

	var res DayResult
	if c.readCache(ctx, cacheKey, &res) {
		return &res, nil
	}

	if err := c.doGet(ctx, endpoint, &res); err != nil {
		return nil, err
	}
	res.Date = date
	c.writeCache(ctx, cacheKey, res)
	return &res, nil
}

// NextAvailableDay asks the server-side horizon scan for the first open
// day at or after from (YYYY-MM-DD, empty for today).
func (c *Client) NextAvailableDay(ctx context.Context, providerID, from string, serviceIDs []string) (*DayResult, error) {
	endpoint := fmt.Sprintf("%s/api/v1/availability/next?provider_id=%s&service_ids=%s",
		c.baseURL, url.QueryEscape(providerID), url.QueryEscape(strings.Join(serviceIDs, ",")))
	if from != "" {
		endpoint += "&from=" + url.QueryEscape(from)
	}
	var res DayResult
	if err := c.doGet(ctx, endpoint, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// BookingRequest is the payload for CreateBooking.
type BookingRequest struct {
	ProviderID string            `json:"provider_id"`
	ServiceIDs []string          `json:"service_ids"`
	StartAt    time.Time         `json:"start_at"`
	Client     models.ClientInfo `json:"client"`
}

// CreateBooking places a pending booking. Not safe to blindly retry:
// re-query availability first after any failure.
func (c *Client) CreateBooking(ctx context.Context, req BookingRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal booking: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/bookings", strings.NewReader(string(body)))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	c.addHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errs.ErrTransient, err)
	}
	defer resp.Body.Close()

	var out struct {
		BookingID string `json:"booking_id"`
		Error     string `json:"error"`
		Kind      string `json:"kind"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode booking response: %w", err)
	}
	if resp.StatusCode == http.StatusCreated {
		return out.BookingID, nil
	}
	return "", kindError(out.Kind, out.Error, resp.StatusCode)
}

func kindError(kind, msg string, status int) error {
	switch kind {
	case "invalid_input":
		return fmt.Errorf("%s: %w", msg, errs.ErrInvalidInput)
	case "not_found":
		return fmt.Errorf("%s: %w", msg, errs.ErrNotFound)
	case "conflict":
		return fmt.Errorf("%s: %w", msg, errs.ErrConflict)
	default:
		return fmt.Errorf("status %d: %s: %w", status, msg, errs.ErrTransient)
	}
}

func (c *Client) readCache(ctx context.Context, key string, out any) bool {
	if c.redis == nil || c.cacheTTL <= 0 {
		return false
	}
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	return json.Unmarshal([]byte(val), out) == nil
}

func (c *Client) writeCache(ctx context.Context, key string, val any) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, string(data), c.cacheTTL).Err()
}

func (c *Client) doGet(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	c.addHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", errs.ErrTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		var payload struct {
			Error string `json:"error"`
			Kind  string `json:"kind"`
		}
		_ = json.Unmarshal(body, &payload)
		return kindError(payload.Kind, payload.Error, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) addHeaders(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	req.Header.Set("Accept", "application/json")
}
