// Package sensor reads temperature and humidity from the environment sensor
// over HTTP. Readings are cached; an unavailable sensor is reported as such
// and is never mistaken for "humidity is zero".
package sensor

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"irrigation_control/internal/models"
)

// ErrUnavailable covers timeout, bad data and connection failure alike: the
// caller cannot make a skip decision and must proceed without one.
var ErrUnavailable = errors.New("sensor unavailable")

const (
	retryInitialInterval = 500 * time.Millisecond
	retryMaxAttempts     = 3
)

// Client fetches and caches readings from one sensor endpoint.
type Client struct {
	address  string // host or host:port
	client   *http.Client
	cacheTTL time.Duration
	now      func() time.Time // injectable for tests

	mu                sync.Mutex
	cached            *models.Environment
	cachedAt          time.Time
	consecutiveErrors int
	lastError         string
}

func NewClient(address string, timeout, cacheTTL time.Duration) *Client {
	return &Client{
		address:  address,
		client:   &http.Client{Timeout: timeout},
		cacheTTL: cacheTTL,
		now:      time.Now,
	}
}

// Read returns the current environment. With useCache, a reading younger
// than the cache TTL is returned without touching the network; stale-but-
// recent is acceptable for scheduling decisions.
func (c *Client) Read(useCache bool) (models.Environment, error) {
	if useCache {
		if env, ok := c.cachedFresh(); ok {
			return env, nil
		}
	}
	return c.fetch()
}

func (c *Client) cachedFresh() (models.Environment, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cached == nil {
		return models.Environment{}, false
	}
	if c.now().Sub(c.cachedAt) >= c.cacheTTL {
		return models.Environment{}, false
	}
	return *c.cached, true
}

// fetch queries the sensor, retrying transient failures with a short
// exponential backoff before giving up for this read.
func (c *Client) fetch() (models.Environment, error) {
	var env models.Environment

	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(retryInitialInterval),
	), retryMaxAttempts-1)

	err := backoff.Retry(func() error {
		var attemptErr error
		env, attemptErr = c.fetchOnce()
		return attemptErr
	}, policy)
	if err != nil {
		c.recordError(err)
		return models.Environment{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	c.mu.Lock()
	c.cached = &env
	c.cachedAt = c.now()
	c.consecutiveErrors = 0
	c.lastError = ""
	c.mu.Unlock()
	return env, nil
}

func (c *Client) fetchOnce() (models.Environment, error) {
	resp, err := c.client.Get("http://" + c.address)
	if err != nil {
		return models.Environment{}, fmt.Errorf("query sensor: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.Environment{}, fmt.Errorf("sensor returned status %d", resp.StatusCode)
	}

	// Firmware versions disagree on field names; accept both spellings.
	var payload struct {
		Temp        *float64 `json:"temp"`
		Temperature *float64 `json:"temperature"`
		Hum         *float64 `json:"hum"`
		Humidity    *float64 `json:"humidity"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return models.Environment{}, backoff.Permanent(fmt.Errorf("decode sensor response: %w", err))
	}

	temp := firstOf(payload.Temp, payload.Temperature)
	hum := firstOf(payload.Hum, payload.Humidity)
	if temp == nil || hum == nil {
		return models.Environment{}, backoff.Permanent(errors.New("sensor response missing temp/hum"))
	}
	if *hum < 0 || *hum > 100 {
		return models.Environment{}, backoff.Permanent(fmt.Errorf("humidity %.1f outside valid range", *hum))
	}

	return models.Environment{TempC: *temp, Humidity: *hum, ReadAt: c.now()}, nil
}

func (c *Client) recordError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.consecutiveErrors++
	c.lastError = err.Error()
}

// ClearCache forces the next read to hit the sensor.
func (c *Client) ClearCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cached = nil
}

// Status reports sensor reachability and cache health.
func (c *Client) Status() models.SensorStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := models.SensorStatus{
		Address:           c.address,
		ConsecutiveErrors: c.consecutiveErrors,
		LastError:         c.lastError,
	}
	if c.cached != nil {
		age := c.now().Sub(c.cachedAt).Seconds()
		s.CacheAgeSeconds = &age
		s.CacheValid = c.now().Sub(c.cachedAt) < c.cacheTTL
	}
	return s
}

func firstOf(vals ...*float64) *float64 {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}
