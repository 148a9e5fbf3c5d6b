package api_client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/langowen/converter/internal/entities"
	"github.com/pkg/errors"
)

const maxBodySize = 1 << 20

type HTTPClient struct {
	client *http.Client
}

func NewHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{client: &http.Client{Timeout: timeout}}
}

// WithClient wraps an existing client, mostly for tests.
func WithClient(client *http.Client) *HTTPClient {
	return &HTTPClient{client: client}
}

// GetJSON issues a GET request and decodes a 200 response into dst.
// Failures wrap entities.ErrNetwork or entities.ErrNonSuccessStatus.
func (c *HTTPClient) GetJSON(ctx context.Context, url string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request error: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return errors.Wrapf(entities.ErrNetwork, "api_client get error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		return errors.Wrapf(entities.ErrNonSuccessStatus, "bad status: %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return errors.Wrapf(entities.ErrNetwork, "read body error: %v", err)
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return errors.Wrapf(entities.ErrMissingField, "json unmarshal error: %v", err)
	}

	return nil
}
