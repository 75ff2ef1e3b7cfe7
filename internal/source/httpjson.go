package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/JonMunkholm/tabexport/internal/core"
)

// DefaultHTTPTimeout bounds a remote read.
const DefaultHTTPTimeout = 30 * time.Second

// HTTP reads records from a JSON endpoint. The body is either an array of
// objects or an object whose "data" field holds that array.
type HTTP struct {
	client *resty.Client
}

// HTTPOption configures an HTTP source.
type HTTPOption func(*resty.Client)

// WithHeader sends a header on every request.
func WithHeader(key, value string) HTTPOption {
	return func(c *resty.Client) { c.SetHeader(key, value) }
}

// WithTimeout overrides DefaultHTTPTimeout.
func WithTimeout(d time.Duration) HTTPOption {
	return func(c *resty.Client) { c.SetTimeout(d) }
}

// WithRetries retries failed requests count times.
func WithRetries(count int) HTTPOption {
	return func(c *resty.Client) { c.SetRetryCount(count) }
}

// NewHTTP creates a source for the base URL.
func NewHTTP(baseURL string, opts ...HTTPOption) *HTTP {
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetTimeout(DefaultHTTPTimeout)
	client.SetHeader("Accept", "application/json")
	for _, opt := range opts {
		opt(client)
	}
	return &HTTP{client: client}
}

// Fetch GETs the path with optional query parameters and decodes the records.
func (s *HTTP) Fetch(ctx context.Context, path string, params map[string]string) ([]core.Record, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(path)
	if err != nil {
		return nil, fmt.Errorf("remote source %s: %w", path, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("remote source %s: status %s", path, resp.Status())
	}

	records, err := decodeRecords(resp.Body())
	if err != nil {
		return nil, fmt.Errorf("remote source %s: %w", path, err)
	}
	return records, nil
}

// Source binds a path to the client.
func (s *HTTP) Source(path string, params map[string]string) core.Source {
	return core.SourceFunc(func(ctx context.Context) ([]core.Record, error) {
		return s.Fetch(ctx, path, params)
	})
}

// decodeRecords accepts a JSON array of objects or a {"data": [...]} envelope.
func decodeRecords(body []byte) ([]core.Record, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, nil
	}

	if body[0] == '{' {
		var envelope struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(body, &envelope); err != nil {
			return nil, fmt.Errorf("decode envelope: %w", err)
		}
		if len(envelope.Data) == 0 {
			return nil, fmt.Errorf("decode envelope: missing data array")
		}
		body = envelope.Data
	}

	var records []core.Record
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	return records, nil
}
