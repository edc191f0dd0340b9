// Package client is a Go client for the REST API served by httpapi.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"lunysse-scheduler/internal/ledger"
)

// ErrNetwork wraps every failure to reach the server.
var ErrNetwork = errors.New("network error")

// APIError is a non-2xx answer that has no ledger equivalent.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("HTTP %d", e.Status)
	}
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.Detail)
}

type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

type fieldDetail struct {
	Loc []string `json:"loc"`
	Msg string   `json:"msg"`
}

type Client struct {
	http *resty.Client
	log  *zap.Logger

	mu             sync.RWMutex
	token          string
	onUnauthorized func()
}

type Option func(*Client)

func WithLogger(l *zap.Logger) Option { return func(c *Client) { c.log = l } }

func WithTimeout(d time.Duration) Option { return func(c *Client) { c.http.SetTimeout(d) } }

func WithToken(tok string) Option { return func(c *Client) { c.token = tok } }

// OnUnauthorized registers fn to run after a 401 has cleared the token.
func OnUnauthorized(fn func()) Option { return func(c *Client) { c.onUnauthorized = fn } }

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(30*time.Second).
			SetHeader("Content-Type", "application/json").
			SetHeader("Accept", "application/json"),
		log: zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) SetToken(tok string) {
	c.mu.Lock()
	c.token = tok
	c.mu.Unlock()
}

func (c *Client) ClearToken() { c.SetToken("") }

func (c *Client) request(ctx context.Context) *resty.Request {
	r := c.http.R().SetContext(ctx)
	if tok := c.Token(); tok != "" {
		r.SetAuthToken(tok)
	}
	return r
}

// send executes r and turns transport failures and error statuses into Go
// errors.
func (c *Client) send(r *resty.Request, method, path string) (*resty.Response, error) {
	var eb errorBody
	resp, err := r.SetError(&eb).Execute(method, path)
	if err != nil {
		c.log.Error("api call failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %s %s: %v", ErrNetwork, method, path, err)
	}
	if !resp.IsError() {
		return resp, nil
	}

	c.log.Debug("api returned error",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status_code", resp.StatusCode()),
	)
	switch resp.StatusCode() {
	case http.StatusUnauthorized:
		c.ClearToken()
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return resp, fmt.Errorf("%s %s: %w", method, path, ledger.ErrAuthFailed)
	case http.StatusUnprocessableEntity:
		return resp, validationError(eb.Detail)
	case http.StatusNotFound:
		return resp, fmt.Errorf("%s %s: %w", method, path, ledger.ErrNotFound)
	case http.StatusConflict:
		return resp, fmt.Errorf("%s %s: %w", method, path, ledger.ErrDuplicate)
	case http.StatusForbidden:
		return resp, fmt.Errorf("%s %s: %w", method, path, ledger.ErrForbidden)
	}
	return resp, &APIError{Status: resp.StatusCode(), Detail: detailText(eb.Detail)}
}

func validationError(raw json.RawMessage) error {
	var list []fieldDetail
	if err := json.Unmarshal(raw, &list); err != nil || len(list) == 0 {
		return &ledger.ValidationError{Fields: []ledger.FieldError{{Field: "body", Msg: detailText(raw)}}}
	}
	v := &ledger.ValidationError{Fields: make([]ledger.FieldError, len(list))}
	for i, d := range list {
		field := ""
		if n := len(d.Loc); n > 0 {
			field = d.Loc[n-1]
		}
		v.Fields[i] = ledger.FieldError{Field: field, Msg: d.Msg}
	}
	return v
}

func detailText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.call(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	r := c.request(ctx)
	if out != nil {
		r.SetResult(out)
	}
	if body != nil {
		r.SetBody(body)
	}
	_, err := c.send(r, method, path)
	return err
}

func idPath(prefix string, id int64) string { return prefix + strconv.FormatInt(id, 10) }
