package device

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"
)

// Shelly controls a Shelly Plus switch over its HTTP RPC API. Commands are
// GET requests with URL parameters, which every Gen2 firmware accepts.
type Shelly struct {
	id      string
	baseURL string // http://host[:port]
	rpcID   int
	client  *http.Client
	health  HealthRecorder

	mu     sync.Mutex
	lastOn bool // last commanded/observed state
}

// NewShelly builds a client for one switch channel. address is a host or
// host:port; the scheme is added here.
func NewShelly(id, address string, rpcID int, timeout time.Duration, health HealthRecorder) *Shelly {
	return &Shelly{
		id:      id,
		baseURL: "http://" + address,
		rpcID:   rpcID,
		client:  &http.Client{Timeout: timeout},
		health:  health,
	}
}

func (s *Shelly) On() error  { return s.set(true) }
func (s *Shelly) Off() error { return s.set(false) }

// IsOn queries Switch.GetStatus; if the device is unreachable it reports the
// last commanded state rather than guessing "off".
func (s *Shelly) IsOn() bool {
	body, err := s.rpc("Switch.GetStatus", url.Values{"id": {strconv.Itoa(s.rpcID)}})
	if err == nil {
		var status struct {
			Output bool `json:"output"`
		}
		if json.Unmarshal(body, &status) == nil {
			s.mu.Lock()
			s.lastOn = status.Output
			s.mu.Unlock()
			return status.Output
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastOn
}

func (s *Shelly) set(on bool) error {
	op := "off"
	if on {
		op = "on"
	}
	if !s.health.CanRetry(s.id) {
		return newError(s.id, op, ErrCooldown)
	}

	params := url.Values{
		"id": {strconv.Itoa(s.rpcID)},
		"on": {strconv.FormatBool(on)},
	}
	if _, err := s.rpc("Switch.Set", params); err != nil {
		s.health.RecordError(s.id, err.Error())
		return newError(s.id, op, err)
	}

	s.mu.Lock()
	s.lastOn = on
	s.mu.Unlock()
	s.health.RecordSuccess(s.id)
	return nil
}

// rpc performs one GET against /rpc/<method> and returns the raw body.
// A JSON body carrying an "error" object is treated as a failure even when
// the HTTP status is 200.
func (s *Shelly) rpc(method string, params url.Values) ([]byte, error) {
	u := fmt.Sprintf("%s/rpc/%s?%s", s.baseURL, method, params.Encode())

	resp, err := s.client.Get(u)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", method, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned status %d", method, resp.StatusCode)
	}

	// Some responses are not JSON at all; that is fine. Only an explicit
	// RPC error object fails the call.
	var rpcErr struct {
		Error *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &rpcErr) == nil && rpcErr.Error != nil {
		return nil, fmt.Errorf("%s rpc error %d: %s", method, rpcErr.Error.Code, rpcErr.Error.Message)
	}
	return body, nil
}
