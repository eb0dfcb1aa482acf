// Package devicecloud is the client for the hosted device-automation API:
// provisioning virtual Android devices (boxes), capturing screenshots, and
// issuing natural-language UI actions.
package devicecloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
)

// Box is a provisioned remote device instance.
type Box struct {
	ID         string    `json:"id"`
	Status     string    `json:"status"`
	DeviceType string    `json:"deviceType"`
	CreatedAt  time.Time `json:"createdAt"`
}

// CreateBoxRequest configures a new box.
type CreateBoxRequest struct {
	DeviceType     string `json:"deviceType,omitempty"`
	TimeoutMinutes int    `json:"timeoutMinutes,omitempty"`
}

// Screenshot is a captured device frame.
type Screenshot struct {
	BoxID    string `json:"boxId"`
	MimeType string `json:"mimeType"`
	Data     string `json:"data"` // base64-encoded image
	URL      string `json:"url,omitempty"`
}

// ActionResult is the outcome of a natural-language UI action.
type ActionResult struct {
	Success     bool   `json:"success"`
	Description string `json:"description"`
}

// Client talks to the device cloud API with bearer auth and retries.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
	logger  *slog.Logger
}

// NewClient creates a Client for the API at baseURL authenticated with
// apiKey.
func NewClient(baseURL, apiKey string, timeout time.Duration, logger *slog.Logger) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.Logger = nil
	rc.HTTPClient.Timeout = timeout

	return &Client{
		http:    rc.StandardClient(),
		baseURL: baseURL,
		apiKey:  apiKey,
		logger:  logger.With("component", "devicecloud_client"),
	}
}

// CreateBox provisions a new device instance.
func (c *Client) CreateBox(ctx context.Context, req CreateBoxRequest) (*Box, error) {
	var box Box
	if err := c.do(ctx, http.MethodPost, "/boxes", req, &box); err != nil {
		return nil, fmt.Errorf("failed to create box: %w", err)
	}
	return &box, nil
}

// ListBoxes returns the account's boxes.
func (c *Client) ListBoxes(ctx context.Context) ([]Box, error) {
	var out struct {
		Boxes []Box `json:"boxes"`
	}
	if err := c.do(ctx, http.MethodGet, "/boxes", nil, &out); err != nil {
		return nil, fmt.Errorf("failed to list boxes: %w", err)
	}
	return out.Boxes, nil
}

// GetBox fetches one box by ID.
func (c *Client) GetBox(ctx context.Context, boxID string) (*Box, error) {
	var box Box
	if err := c.do(ctx, http.MethodGet, "/boxes/"+boxID, nil, &box); err != nil {
		return nil, fmt.Errorf("failed to get box %s: %w", boxID, err)
	}
	return &box, nil
}

// TerminateBox releases the device instance.
func (c *Client) TerminateBox(ctx context.Context, boxID string) error {
	if err := c.do(ctx, http.MethodDelete, "/boxes/"+boxID, nil, nil); err != nil {
		return fmt.Errorf("failed to terminate box %s: %w", boxID, err)
	}
	return nil
}

// TakeScreenshot captures the box's current screen.
func (c *Client) TakeScreenshot(ctx context.Context, boxID string) (*Screenshot, error) {
	var shot Screenshot
	if err := c.do(ctx, http.MethodPost, "/boxes/"+boxID+"/screenshot", nil, &shot); err != nil {
		return nil, fmt.Errorf("failed to capture screenshot of box %s: %w", boxID, err)
	}
	return &shot, nil
}

// AIAction performs a natural-language UI action on the box.
func (c *Client) AIAction(ctx context.Context, boxID, instruction string) (*ActionResult, error) {
	payload := map[string]string{"instruction": instruction}
	var res ActionResult
	if err := c.do(ctx, http.MethodPost, "/boxes/"+boxID+"/actions/ai", payload, &res); err != nil {
		return nil, fmt.Errorf("failed to run UI action on box %s: %w", boxID, err)
	}
	return &res, nil
}

// do issues one authenticated JSON request. Mutating requests carry an
// idempotency key so retried POSTs do not double-provision.
func (c *Client) do(ctx context.Context, method, path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet {
		req.Header.Set("Idempotency-Key", uuid.NewString())
	}

	c.logger.Debug("Calling device cloud API.", slog.String("method", method), slog.String("path", path))
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("device cloud unreachable: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("device cloud returned status %d: %s", resp.StatusCode, string(data))
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
