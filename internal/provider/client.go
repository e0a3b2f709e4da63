package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultHTTPTimeout = 30 * time.Second

// httpClient is a small HTTP helper shared by all adapters, with retry on 429.
type httpClient struct {
	baseURL    string
	client     *http.Client
	authHeader string
	maxRetries int
	baseDelay  time.Duration
}

func newHTTPClient(baseURL string, opts Options) *httpClient {
	maxRetries := opts.RetryMax
	baseDelay := opts.RetryBaseDelay
	if baseDelay == 0 {
		baseDelay = 2 * time.Second
	}
	return &httpClient{
		baseURL:    baseURL,
		client:     &http.Client{Timeout: defaultHTTPTimeout},
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
	}
}

// do performs a request with retry on 429 and returns the response body.
func (c *httpClient) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	url := c.baseURL + path

	var lastErr error
	for attempt := range c.maxRetries + 1 {
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, body)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.authHeader != "" {
			req.Header.Set("Authorization", c.authHeader)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("executing request: %w", err)
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("reading response: %w", err)
		}

		if resp.StatusCode == http.StatusOK {
			return respBody, nil
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("HTTP 429 at %s (attempt %d/%d)", url, attempt+1, c.maxRetries+1)
			if attempt < c.maxRetries {
				delay := c.baseDelay * time.Duration(1<<uint(attempt))
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(delay):
				}
				continue
			}
			return nil, lastErr
		}

		return nil, fmt.Errorf("HTTP %d from %s: %s", resp.StatusCode, url, string(respBody))
	}

	return nil, lastErr
}

// getJSON performs a GET request and unmarshals the JSON response.
func (c *httpClient) getJSON(ctx context.Context, path string, dest any) error {
	body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("parsing JSON from %s: %w", path, err)
	}
	return nil
}

// postJSON performs a POST request with a JSON body and unmarshals the response.
func (c *httpClient) postJSON(ctx context.Context, path string, payload, dest any) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding request body: %w", err)
	}
	body, err := c.do(ctx, http.MethodPost, path, encoded)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("parsing JSON from %s: %w", path, err)
	}
	return nil
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// rpcCall performs a JSON-RPC 2.0 call and unmarshals the result field.
func (c *httpClient) rpcCall(ctx context.Context, method string, params, dest any) error {
	var resp rpcResponse
	req := rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params}
	if err := c.postJSON(ctx, "", req, &resp); err != nil {
		return err
	}
	if resp.Error != nil {
		return fmt.Errorf("RPC error from %s: %s", method, resp.Error.Message)
	}
	if resp.Result == nil {
		return fmt.Errorf("no result in RPC response for %s", method)
	}
	if err := json.Unmarshal(resp.Result, dest); err != nil {
		return fmt.Errorf("parsing RPC result for %s: %w", method, err)
	}
	return nil
}
