package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/openziti/pandapi/kernel/model"
	"github.com/pkg/errors"
)

// Error is a non-2xx response from the server.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Message)
}

type ClientOption func(*Client)

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) List(ctx context.Context) ([]model.Server, error) {
	var result ServerList
	if err := c.doJSON(ctx, http.MethodGet, BasePath, nil, &result); err != nil {
		return nil, err
	}
	servers := make([]model.Server, 0, len(result.Servers))
	for _, doc := range result.Servers {
		server, err := doc.ToModel()
		if err != nil {
			return nil, errors.Wrapf(err, "unable to decode server [%s]", doc.Id)
		}
		servers = append(servers, server)
	}
	return servers, nil
}

func (c *Client) Get(ctx context.Context, id string) (model.Server, error) {
	return c.server(ctx, http.MethodGet, BasePath+"/"+url.PathEscape(id), nil)
}

// Create submits spec for provisioning. The returned server is normally
// still BUILDING.
func (c *Client) Create(ctx context.Context, spec model.Server) (model.Server, error) {
	doc := FromModel(spec)
	return c.server(ctx, http.MethodPost, BasePath, ServerEnvelope{Server: &doc})
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, BasePath+"/"+url.PathEscape(id), nil, nil)
}

func (c *Client) server(ctx context.Context, method, path string, body interface{}) (model.Server, error) {
	var result ServerEnvelope
	if err := c.doJSON(ctx, method, path, body, &result); err != nil {
		return model.Server{}, err
	}
	if result.Server == nil {
		return model.Server{}, errors.Errorf("%s %s returned no server", method, path)
	}
	return result.Server.ToModel()
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, result interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "unable to marshal request")
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return errors.Wrap(err, "unable to create request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "request %s %s failed", method, path)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		apiErr := &Error{StatusCode: resp.StatusCode}
		var doc ErrorDoc
		if err := json.NewDecoder(resp.Body).Decode(&doc); err == nil && doc.Error != "" {
			apiErr.Message = doc.Error
		} else {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if result == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return errors.Wrapf(json.NewDecoder(resp.Body).Decode(result), "unable to decode response of %s %s", method, path)
}
