package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

const (
	DefaultBaseURL   = "http://localhost:8000"
	DefaultTimeout   = 15 * time.Second
	defaultUserAgent = "smartstay-cli/1.0"
)

type Client struct {
	HTTP      *resty.Client
	BaseURL   string
	UserAgent string
}

func NewClient() *Client {
	return &Client{
		HTTP:      resty.New().SetTimeout(DefaultTimeout),
		BaseURL:   DefaultBaseURL,
		UserAgent: defaultUserAgent,
	}
}

// SetTimeout bounds every request. Zero disables the limit.
func (c *Client) SetTimeout(timeout time.Duration) {
	c.HTTP.SetTimeout(timeout)
}

// StatusError is returned when the backend answers with a non-2xx status.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Status     string
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request failed: %s %s: %s: %s", e.Method, e.Path, e.Status, strings.TrimSpace(string(e.Body)))
}

// Detail returns the server supplied reason. FastAPI sends either a plain
// string or, for validation failures, a list of objects with a msg field.
func (e *StatusError) Detail() string {
	if !gjson.ValidBytes(e.Body) {
		return ""
	}
	detail := gjson.GetBytes(e.Body, "detail")
	switch {
	case detail.Type == gjson.String:
		return strings.TrimSpace(detail.String())
	case detail.IsArray():
		msgs := []string{}
		for _, msg := range detail.Get("#.msg").Array() {
			if text := strings.TrimSpace(msg.String()); text != "" {
				msgs = append(msgs, text)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}

func (c *Client) newRequest(ctx context.Context, path string, body any) (*resty.Request, string, error) {
	base, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, "", fmt.Errorf("parse base url: %w", err)
	}
	path = strings.TrimPrefix(path, "/")
	base.Path = strings.TrimSuffix(base.Path, "/") + "/" + path

	req := c.HTTP.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json")
	if c.UserAgent != "" {
		req.SetHeader("User-Agent", c.UserAgent)
	}
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	return req, base.String(), nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, dest any) error {
	req, endpoint, err := c.newRequest(ctx, path, body)
	if err != nil {
		return err
	}

	resp, err := req.Execute(method, endpoint)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}

	if !resp.IsSuccess() {
		return &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode(),
			Status:     resp.Status(),
			Body:       resp.Body(),
		}
	}

	if dest == nil {
		return nil
	}
	if len(bytes.TrimSpace(resp.Body())) == 0 {
		return fmt.Errorf("decode %s response: empty body", path)
	}
	if err := json.Unmarshal(resp.Body(), dest); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) doStatus(ctx context.Context, method, path string) error {
	return c.doJSON(ctx, method, path, nil, nil)
}

// GetState fetches the full room inventory.
func (c *Client) GetState(ctx context.Context) ([]Room, error) {
	var state StateResponse
	if err := c.doJSON(ctx, http.MethodGet, "/state", nil, &state); err != nil {
		return nil, err
	}
	if state.Rooms == nil {
		state.Rooms = []Room{}
	}
	return state.Rooms, nil
}
