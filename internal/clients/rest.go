package clients

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

	"github.com/AkshadGawde/Astrape-Ecommerce/internal/domain"
	"github.com/sirupsen/logrus"
)

const maxErrorBody = 4 << 10

// restClient is the JSON transport shared by the cart, auth and catalog clients.
type restClient struct {
	baseURL string
	client  *http.Client
	log     *logrus.Logger
}

func newRestClient(baseURL string, timeout time.Duration, tokens TokenSource, logger *logrus.Logger) *restClient {
	return &restClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout:   timeout,
			Transport: newBearerTransport(nil, tokens, logger),
		},
		log: logger,
	}
}

type requestOptions struct {
	query  url.Values
	bearer string
}

// do sends body (when non-nil) as JSON and decodes a 2xx response into out
// (when non-nil). Any other outcome is a *domain.RemoteError.
func (c *restClient) do(ctx context.Context, op, method, path string, body, out any, opts requestOptions) error {
	endpoint := c.baseURL + path
	if len(opts.query) > 0 {
		endpoint += "?" + opts.query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			c.log.Errorf("%s: Failed to marshal request body: %v", op, err)
			return &domain.RemoteError{Op: op, Err: fmt.Errorf("failed to prepare request body: %w", err)}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		c.log.Errorf("%s: Failed to create %s request for %s: %v", op, method, path, err)
		return &domain.RemoteError{Op: op, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if opts.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+opts.bearer)
	}

	c.log.Debugf("%s: %s %s", op, method, endpoint)
	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Errorf("%s: Failed to execute %s %s: %v", op, method, path, err)
		return &domain.RemoteError{Op: op, Err: fmt.Errorf("failed to communicate with storefront API: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		message := errorMessage(bodyBytes)
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			c.log.Warnf("%s: %s %s rejected credential (status %d): %s", op, method, path, resp.StatusCode, message)
		} else {
			c.log.Errorf("%s: %s %s failed with status %d: %s", op, method, path, resp.StatusCode, message)
		}
		return &domain.RemoteError{Op: op, StatusCode: resp.StatusCode, Message: message}
	}

	if out == nil {
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()
	if err := decoder.Decode(out); err != nil {
		c.log.Errorf("%s: Failed to decode response of %s %s: %v", op, method, path, err)
		return &domain.RemoteError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}

// errorMessage extracts a readable message from an error body. The backend
// replies {"msg": ...}; other gateways use "error" or "Message".
func errorMessage(body []byte) string {
	var envelope struct {
		Msg     string `json:"msg"`
		Error   string `json:"error"`
		Message string `json:"Message"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		for _, candidate := range []string{envelope.Msg, envelope.Error, envelope.Message} {
			if candidate != "" {
				return candidate
			}
		}
	}
	text := strings.TrimSpace(string(body))
	if len(text) > 200 {
		text = text[:200]
	}
	return text
}
