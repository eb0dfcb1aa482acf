// Package studio implements the AppController contract against the IDE
// plugin's control API. It is how the bridge drives the app when running
// outside the IDE process.
package studio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/mobilemcp/droidbridge/internal/domain"
)

// envelope mirrors the plugin's {success, message, data} response shape.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    struct {
		ConfigurationName string   `json:"configurationName"`
		Configurations    []string `json:"configurations"`
	} `json:"data"`
}

// Client forwards lifecycle operations to the IDE plugin over HTTP.
type Client struct {
	http    *http.Client
	baseURL string
	logger  *slog.Logger
}

// NewClient creates a Client for the plugin API at baseURL. Requests are
// retried on transient failures.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.Logger = nil // slog below, not retryablehttp's own logger
	rc.HTTPClient.Timeout = timeout

	return &Client{
		http:    rc.StandardClient(),
		baseURL: baseURL,
		logger:  logger.With("component", "studio_client"),
	}
}

// Start launches the app via the plugin.
func (c *Client) Start(ctx context.Context, projectPath string) (domain.ExecutionResult, error) {
	return c.execute(ctx, http.MethodPost, "/api/start", projectPath, "")
}

// Stop terminates the running app via the plugin.
func (c *Client) Stop(ctx context.Context, projectPath string) (domain.ExecutionResult, error) {
	return c.execute(ctx, http.MethodPost, "/api/stop", projectPath, "")
}

// Debug launches the app under the debugger via the plugin.
func (c *Client) Debug(ctx context.Context, projectPath string) (domain.ExecutionResult, error) {
	return c.execute(ctx, http.MethodPost, "/api/debug", projectPath, "")
}

// ListConfigurations returns the project's run configuration names.
func (c *Client) ListConfigurations(ctx context.Context, projectPath string) ([]string, error) {
	env, err := c.call(ctx, http.MethodGet, "/api/configurations", map[string]string{
		"projectPath": projectPath,
	})
	if err != nil {
		return nil, err
	}
	if !env.Success {
		return nil, fmt.Errorf("plugin refused to list configurations: %s", env.Message)
	}
	return env.Data.Configurations, nil
}

// SelectConfiguration makes the named run configuration active.
func (c *Client) SelectConfiguration(ctx context.Context, name, projectPath string) (domain.ExecutionResult, error) {
	return c.execute(ctx, http.MethodPost, "/api/select-configuration", projectPath, name)
}

// execute performs one lifecycle call and maps the envelope back into the
// canonical result shape.
func (c *Client) execute(ctx context.Context, method, path, projectPath, configurationName string) (domain.ExecutionResult, error) {
	payload := map[string]string{}
	if projectPath != "" {
		payload["projectPath"] = projectPath
	}
	if configurationName != "" {
		payload["configurationName"] = configurationName
	}

	env, err := c.call(ctx, method, path, payload)
	if err != nil {
		return domain.ExecutionResult{}, err
	}
	return domain.ExecutionResult{
		Success:           env.Success,
		Message:           env.Message,
		ConfigurationName: env.Data.ConfigurationName,
	}, nil
}

// call issues one JSON request against the plugin API.
func (c *Client) call(ctx context.Context, method, path string, payload map[string]string) (*envelope, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("Calling plugin API.", slog.String("method", method), slog.String("path", path))
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("plugin API unreachable at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read plugin response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("plugin API returned status %d", resp.StatusCode)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode plugin response: %w", err)
	}
	return &env, nil
}
