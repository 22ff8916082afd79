// Fleetwatch - Vehicle Telemetry Sync and Map Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

// Package brigade is the client for the Brigade MDVR vendor API.
//
// Client Features:
//   - Key authentication (MD5 password digest) with an in-memory Token
//   - Proactive key refresh once the token TTL has passed
//   - One re-authentication when the vendor rejects a key mid-call
//   - Exponential retry of AuthError and TransientNetworkError
//   - Outbound rate limiting (golang.org/x/time/rate)
//   - Typed payload parsing into internal/models
//
// CircuitBreakerClient wraps Client with sony/gobreaker for use by the schedulers.
package brigade

import (
	"bytes"
	"context"
	"crypto/md5" //nolint:gosec // the vendor API requires an MD5 password digest
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/fleetwatch/internal/config"
	"github.com/tomtom215/fleetwatch/internal/logging"
	"github.com/tomtom215/fleetwatch/internal/metrics"
	"github.com/tomtom215/fleetwatch/internal/models"
)

// Vendor API paths.
const (
	pathKey          = "/api/v1/basic/key"
	pathDevices      = "/api/v1/basic/devices"
	pathGroups       = "/api/v1/basic/groups"
	pathAlarmDetail  = "/api/v1/basic/alarm/detail"
	pathLastPosition = "/api/v1/basic/gps/last"
)

// maxErrorBodySize limits how much of an unexpected response body is kept for errors.
const maxErrorBodySize = 4 * 1024

// API is the set of vendor operations used by the sync schedulers.
// Client and CircuitBreakerClient implement it.
type API interface {
	ListDevices(ctx context.Context) ([]models.Device, error)
	ListGroups(ctx context.Context) ([]models.DeviceGroup, error)
	LastPositions(ctx context.Context, terids []string) ([]models.Position, error)
	QueryAlarms(ctx context.Context, q AlarmQuery) ([]models.Alarm, error)
}

// AlarmQuery selects alarm details. Empty Terids or Types mean no filter.
type AlarmQuery struct {
	Terids []string
	Types  []int
	Start  time.Time
	End    time.Time
}

// Client talks to the vendor API. It is safe for concurrent use.
type Client struct {
	baseURL      string
	username     string
	passwordHash string
	timeout      time.Duration
	tokenTTL     time.Duration
	loc          *time.Location
	retry        RetryPolicy
	http         *http.Client
	limiter      *rate.Limiter
	now          func() time.Time

	mu    sync.Mutex
	token Token
}

// NewClient creates a vendor client from configuration.
func NewClient(cfg config.BrigadeConfig) *Client {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	limit := rate.Limit(cfg.RateLimit)
	if cfg.RateLimit <= 0 {
		limit = rate.Inf
	}
	burst := cfg.RateBurst
	if burst < 1 {
		burst = 1
	}

	return &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		username:     cfg.Username,
		passwordHash: md5Hex(cfg.Password),
		timeout:      timeout,
		tokenTTL:     ttl,
		loc:          cfg.Location(),
		retry:        RetryPolicy{Attempts: cfg.RetryAttempts, Delay: cfg.RetryDelay},
		http:         &http.Client{},
		limiter:      rate.NewLimiter(limit, burst),
		now:          time.Now,
	}
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s)) //nolint:gosec // vendor protocol
	return hex.EncodeToString(sum[:])
}

// Token returns the cached token, which may be empty or expired.
func (c *Client) Token() Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// InvalidateToken drops the cached key so the next call re-authenticates.
func (c *Client) InvalidateToken() {
	c.mu.Lock()
	c.token = Token{}
	c.mu.Unlock()
}

// Authenticate obtains a fresh key, retrying per the retry policy, and caches it.
func (c *Client) Authenticate(ctx context.Context) (Token, error) {
	var tok Token
	err := c.retry.Do(ctx, "authenticate", func(ctx context.Context) error {
		var err error
		tok, err = c.authenticateOnce(ctx, "initial")
		return err
	})
	return tok, err
}

// RefreshToken discards the cached key and authenticates again.
func (c *Client) RefreshToken(ctx context.Context) (Token, error) {
	c.InvalidateToken()
	return c.Authenticate(ctx)
}

func (c *Client) authenticateOnce(ctx context.Context, reason string) (Token, error) {
	query := url.Values{}
	query.Set("username", c.username)
	query.Set("password", c.passwordHash)

	env, err := c.do(ctx, "authenticate", http.MethodGet, pathKey, query, nil)
	if err != nil {
		var protoErr *VendorProtocolError
		if errors.As(err, &protoErr) {
			return Token{}, &AuthError{Op: "authenticate", Code: protoErr.Code, Message: protoErr.Message, Err: protoErr.Err}
		}
		return Token{}, err
	}
	if int(env.ErrorCode) != codeOK {
		return Token{}, &AuthError{Op: "authenticate", Code: int(env.ErrorCode), Message: string(env.Message)}
	}

	var data struct {
		Key flexString `json:"key"`
	}
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return Token{}, &AuthError{Op: "authenticate", Message: "malformed key payload", Err: err}
		}
	}
	if data.Key == "" {
		return Token{}, &AuthError{Op: "authenticate", Message: "response carried no key"}
	}

	tok := newToken(string(data.Key), c.now(), c.tokenTTL)
	c.mu.Lock()
	c.token = tok
	c.mu.Unlock()

	metrics.BrigadeTokenRefreshes.WithLabelValues(reason).Inc()
	logging.Debug().Str("reason", reason).Time("expires_at", tok.ExpiresAt).Msg("Vendor key obtained")
	return tok, nil
}

// validKey returns a usable key, authenticating once if the cached token
// is missing or past its TTL.
func (c *Client) validKey(ctx context.Context) (string, error) {
	c.mu.Lock()
	tok := c.token
	c.mu.Unlock()
	if tok.Valid(c.now()) {
		return tok.Key, nil
	}

	reason := "initial"
	if tok.Key != "" {
		reason = "expired"
	}
	tok, err := c.authenticateOnce(ctx, reason)
	if err != nil {
		return "", err
	}
	return tok.Key, nil
}

// call runs one keyed request and decodes a successful envelope's data.
// A rejected key is refreshed once and the request repeated once.
func (c *Client) call(ctx context.Context, op, method, path string, build func(key string) (url.Values, any)) (json.RawMessage, error) {
	return c.retryCall(ctx, op, func(ctx context.Context) (json.RawMessage, error) {
		key, err := c.validKey(ctx)
		if err != nil {
			return nil, err
		}

		data, err := c.keyedRequest(ctx, op, method, path, key, build)
		if !errors.Is(err, ErrKeyRejected) {
			return data, err
		}

		logging.Info().Str("operation", op).Msg("Vendor rejected key, re-authenticating")
		c.InvalidateToken()
		tok, authErr := c.authenticateOnce(ctx, "rejected")
		if authErr != nil {
			return nil, authErr
		}
		return c.keyedRequest(ctx, op, method, path, tok.Key, build)
	})
}

func (c *Client) retryCall(ctx context.Context, op string, fn func(ctx context.Context) (json.RawMessage, error)) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.retry.Do(ctx, op, func(ctx context.Context) error {
		var err error
		out, err = fn(ctx)
		return err
	})
	return out, err
}

func (c *Client) keyedRequest(ctx context.Context, op, method, path, key string, build func(key string) (url.Values, any)) (json.RawMessage, error) {
	query, body := build(key)
	env, err := c.do(ctx, op, method, path, query, body)
	if err != nil {
		return nil, err
	}

	switch int(env.ErrorCode) {
	case codeOK:
		return env.Data, nil
	case codeUnauthorized, codeKeyInvalid:
		return nil, &AuthError{Op: op, Code: int(env.ErrorCode), Message: string(env.Message), Err: ErrKeyRejected}
	default:
		return nil, &VendorProtocolError{Op: op, Code: int(env.ErrorCode), Message: string(env.Message)}
	}
}

// do performs one HTTP exchange under the per-attempt timeout and decodes the envelope.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body any) (*envelope, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &TransientNetworkError{Op: op, Err: err}
	}

	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader = http.NoBody
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, &VendorProtocolError{Op: op, Message: "encode request", Err: err}
		}
		reader = bytes.NewReader(payload)
	}

	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(attemptCtx, method, reqURL, reader)
	if err != nil {
		return nil, &VendorProtocolError{Op: op, Message: "build request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordBrigadeRequest(op, time.Since(start), err)
		return nil, &TransientNetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	env, err := decodeResponse(op, resp)
	metrics.RecordBrigadeRequest(op, time.Since(start), err)
	return env, err
}

func decodeResponse(op string, resp *http.Response) (*envelope, error) {
	switch {
	case resp.StatusCode >= 500:
		return nil, &TransientNetworkError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("%s", readBodyForError(resp.Body))}
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &AuthError{Op: op, Message: fmt.Sprintf("HTTP %d", resp.StatusCode), Err: ErrKeyRejected}
	case resp.StatusCode != http.StatusOK:
		return nil, &VendorProtocolError{Op: op, StatusCode: resp.StatusCode, Message: readBodyForError(resp.Body)}
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, &TransientNetworkError{Op: op, Err: err}
		}
		return nil, &VendorProtocolError{Op: op, Message: "malformed envelope", Err: err}
	}
	return &env, nil
}

func readBodyForError(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return "(failed to read response body)"
	}
	return strings.TrimSpace(string(body))
}

// ListDevices returns the device registry.
func (c *Client) ListDevices(ctx context.Context) ([]models.Device, error) {
	data, err := c.call(ctx, "list_devices", http.MethodGet, pathDevices, keyQuery)
	if err != nil {
		return nil, err
	}
	devices, skipped, err := parseDevices(data)
	if err != nil {
		return nil, &VendorProtocolError{Op: "list_devices", Message: "malformed device list", Err: err}
	}
	recordSkipped("device", skipped)
	return devices, nil
}

// ListGroups returns the device groups.
func (c *Client) ListGroups(ctx context.Context) ([]models.DeviceGroup, error) {
	data, err := c.call(ctx, "list_groups", http.MethodGet, pathGroups, keyQuery)
	if err != nil {
		return nil, err
	}
	groups, skipped, err := parseGroups(data)
	if err != nil {
		return nil, &VendorProtocolError{Op: "list_groups", Message: "malformed group list", Err: err}
	}
	recordSkipped("group", skipped)
	return groups, nil
}

// LastPositions returns the most recent fix of each requested terminal.
func (c *Client) LastPositions(ctx context.Context, terids []string) ([]models.Position, error) {
	if terids == nil {
		terids = []string{}
	}
	data, err := c.call(ctx, "last_positions", http.MethodPost, pathLastPosition, func(key string) (url.Values, any) {
		return nil, lastPositionRequest{Key: key, Terid: terids}
	})
	if err != nil {
		return nil, err
	}
	positions, skipped, err := parsePositions(data, c.loc)
	if err != nil {
		return nil, &VendorProtocolError{Op: "last_positions", Message: "malformed position list", Err: err}
	}
	recordSkipped("position", skipped)
	return positions, nil
}

// QueryAlarms returns alarm details for the window [q.Start, q.End].
func (c *Client) QueryAlarms(ctx context.Context, q AlarmQuery) ([]models.Alarm, error) {
	req := alarmDetailRequest{
		Terid:     q.Terids,
		Type:      q.Types,
		StartTime: formatVendorTime(q.Start, c.loc),
		EndTime:   formatVendorTime(q.End, c.loc),
	}
	if req.Terid == nil {
		req.Terid = []string{}
	}
	if req.Type == nil {
		req.Type = []int{}
	}

	data, err := c.call(ctx, "query_alarms", http.MethodPost, pathAlarmDetail, func(key string) (url.Values, any) {
		body := req
		body.Key = key
		return nil, body
	})
	if err != nil {
		return nil, err
	}
	alarms, skipped, err := parseAlarms(data, c.loc)
	if err != nil {
		return nil, &VendorProtocolError{Op: "query_alarms", Message: "malformed alarm list", Err: err}
	}
	recordSkipped("alarm", skipped)
	return alarms, nil
}

type lastPositionRequest struct {
	Key   string   `json:"key"`
	Terid []string `json:"terid"`
}

type alarmDetailRequest struct {
	Key       string   `json:"key"`
	Terid     []string `json:"terid"`
	Type      []int    `json:"type"`
	StartTime string   `json:"starttime"`
	EndTime   string   `json:"endtime"`
}

func keyQuery(key string) (url.Values, any) {
	q := url.Values{}
	q.Set("key", key)
	return q, nil
}

func recordSkipped(entity string, n int) {
	if n == 0 {
		return
	}
	metrics.BrigadeRecordsSkipped.WithLabelValues(entity).Add(float64(n))
	logging.Warn().Str("entity", entity).Int("skipped", n).Msg("Dropped malformed vendor records")
}
