package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPTool performs an HTTP request described by the run state.
//
// Input keys read from state:
//   - url: target URL (required)
//   - method: "GET" or "POST" (default "GET")
//   - body: request body string; when absent on POST, the value of "payload"
//     is JSON-encoded instead
//   - headers: map of header names to string values
//
// Delta keys written:
//   - status_code: HTTP status code
//   - response_body: response body as a string
//   - response_headers: response headers (single values flattened)
//
// Non-2xx responses are returned as data, not errors; the workflow decides
// what to do with them by branching on status_code.
type HTTPTool struct {
	client  *http.Client
	maxBody int64
}

// HTTPOption configures an HTTPTool.
type HTTPOption func(*HTTPTool)

// WithHTTPClient sets the client used for requests.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(h *HTTPTool) {
		if c != nil {
			h.client = c
		}
	}
}

// WithMaxBodyBytes caps how much of the response body is read.
func WithMaxBodyBytes(n int64) HTTPOption {
	return func(h *HTTPTool) {
		if n > 0 {
			h.maxBody = n
		}
	}
}

// NewHTTPTool creates an HTTP tool with a 30s client timeout and a 1 MiB body cap.
func NewHTTPTool(opts ...HTTPOption) *HTTPTool {
	h := &HTTPTool{
		client:  &http.Client{Timeout: 30 * time.Second},
		maxBody: 1 << 20,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Call implements Tool.
func (h *HTTPTool) Call(ctx context.Context, state map[string]any) (map[string]any, error) {
	urlStr, ok := state["url"].(string)
	if !ok || urlStr == "" {
		return nil, fmt.Errorf("url is required (string)")
	}

	method := http.MethodGet
	if m, ok := state["method"].(string); ok && m != "" {
		method = strings.ToUpper(m)
	}
	if method != http.MethodGet && method != http.MethodPost {
		return nil, fmt.Errorf("unsupported HTTP method: %s (supported: GET, POST)", method)
	}

	body, contentType, err := requestBody(method, state)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, urlStr, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if headers, ok := state["headers"].(map[string]any); ok {
		for key, value := range headers {
			if s, ok := value.(string); ok {
				req.Header.Set(key, s)
			}
		}
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, h.maxBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	headers := make(map[string]any, len(resp.Header))
	for key, values := range resp.Header {
		if len(values) == 1 {
			headers[key] = values[0]
		} else {
			headers[key] = values
		}
	}

	return map[string]any{
		"status_code":      resp.StatusCode,
		"response_body":    string(respBody),
		"response_headers": headers,
	}, nil
}

func requestBody(method string, state map[string]any) (io.Reader, string, error) {
	if s, ok := state["body"].(string); ok && s != "" {
		return strings.NewReader(s), "", nil
	}
	if method != http.MethodPost {
		return nil, "", nil
	}
	payload, ok := state["payload"]
	if !ok {
		return nil, "", nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode payload: %w", err)
	}
	return bytes.NewReader(data), "application/json", nil
}
