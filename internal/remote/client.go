package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/NeverVane/keepsake/internal/config"
	"github.com/NeverVane/keepsake/internal/logger"
)

// Client talks to the registration service. Transport failures are
// retried with exponential backoff; an HTTP status the server actually
// sent is a final answer and is never retried.
type Client struct {
	config     *config.Config
	logger     *logger.Logger
	httpClient *http.Client
	userAgent  string
}

// CheckUserRequest asks whether an email is already registered.
type CheckUserRequest struct {
	Email string `json:"email"`
}

// CheckUserResponse is the server's answer to CheckUserRequest.
type CheckUserResponse struct {
	Exists bool `json:"exists"`
}

// RegisterRequest creates a new account with a generated credential.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	DeviceID string `json:"device_id"`
	Hostname string `json:"hostname"`
	Platform string `json:"platform"`
}

// NewClient creates a registration client for the configured server.
func NewClient(cfg *config.Config, version string) *Client {
	return &Client{
		config: cfg,
		logger: logger.GetLogger().WithComponent("remote"),
		httpClient: &http.Client{
			Timeout: cfg.GetRemoteTimeout(),
		},
		userAgent: "Keepsake/" + version,
	}
}

// CheckUser reports whether the email already has an account.
func (c *Client) CheckUser(ctx context.Context, email string) (bool, error) {
	var out CheckUserResponse
	err := c.postJSON(ctx, "/check-user", CheckUserRequest{Email: email}, &out)
	if err != nil {
		return false, fmt.Errorf("check user: %w", err)
	}
	return out.Exists, nil
}

// Register creates the account. The server answers 200 on success.
func (c *Client) Register(ctx context.Context, req RegisterRequest) error {
	if err := c.postJSON(ctx, "/register", req, nil); err != nil {
		return fmt.Errorf("register user: %w", err)
	}
	c.logger.Info().Str("email", req.Email).Msg("User registered")
	return nil
}

// postJSON sends one JSON POST and decodes the 200 response body into
// out when out is non-nil. Retries cover transport errors only.
func (c *Client) postJSON(ctx context.Context, endpoint string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL(endpoint), bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", c.userAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.Debug().Err(err).Str("endpoint", endpoint).Msg("Request failed, will retry")
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("server returned status %d", resp.StatusCode))
		}
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to decode response: %w", err))
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.config.GetRemoteRetryBackoff()
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = 0

	return backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.config.Remote.MaxRetries)), ctx))
}

func (c *Client) apiURL(endpoint string) string {
	return c.config.GetRemoteURL() + endpoint
}
