package databricks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2/clientcredentials"
)

// Client talks to the Databricks workspace REST API. It only covers the
// two calls needed to connect to a Lakebase instance: who am I, and mint
// a database credential.
type Client struct {
	Host       string
	token      string
	httpClient *http.Client
}

// CurrentUser is the subset of the SCIM Me response we use
type CurrentUser struct {
	ID       string `json:"id"`
	UserName string `json:"userName"`
}

// DatabaseCredential is a short-lived Postgres password for a Lakebase instance
type DatabaseCredential struct {
	Token          string    `json:"token"`
	ExpirationTime time.Time `json:"expiration_time"`
}

// APIError represents an error body from the workspace API
type APIError struct {
	StatusCode int    `json:"-"`
	ErrorCode  string `json:"error_code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("databricks api %d %s: %s", e.StatusCode, e.ErrorCode, e.Message)
	}
	return fmt.Sprintf("databricks api returned status %d", e.StatusCode)
}

// NewClient creates a workspace client. A personal access token takes
// precedence; otherwise OAuth machine-to-machine credentials are used,
// which is what Databricks Apps inject into the environment.
func NewClient(ctx context.Context, host, token, clientID, clientSecret string) (*Client, error) {
	host = strings.TrimRight(host, "/")
	if host == "" {
		return nil, errors.New("databricks host is required")
	}
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "https://" + host
	}

	c := &Client{Host: host}
	switch {
	case token != "":
		c.token = token
		c.httpClient = &http.Client{Timeout: 30 * time.Second}
	case clientID != "" && clientSecret != "":
		cc := &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     host + "/oidc/v1/token",
			Scopes:       []string{"all-apis"},
		}
		c.httpClient = cc.Client(ctx)
		c.httpClient.Timeout = 30 * time.Second
	default:
		return nil, errors.New("either DATABRICKS_TOKEN or DATABRICKS_CLIENT_ID/DATABRICKS_CLIENT_SECRET is required")
	}
	return c, nil
}

// CurrentUser returns the identity the client is authenticated as
func (c *Client) CurrentUser(ctx context.Context) (*CurrentUser, error) {
	var user CurrentUser
	if err := c.do(ctx, http.MethodGet, "/api/2.0/preview/scim/v2/Me", nil, &user); err != nil {
		return nil, fmt.Errorf("get current user: %w", err)
	}
	if user.UserName == "" {
		return nil, errors.New("get current user: empty userName")
	}
	return &user, nil
}

// GenerateDatabaseCredential mints a new credential for the given
// database instances. Every call carries a fresh request id.
func (c *Client) GenerateDatabaseCredential(ctx context.Context, instanceNames ...string) (*DatabaseCredential, error) {
	if len(instanceNames) == 0 {
		return nil, errors.New("at least one instance name is required")
	}
	payload := map[string]interface{}{
		"request_id":     uuid.NewString(),
		"instance_names": instanceNames,
	}

	var cred DatabaseCredential
	if err := c.do(ctx, http.MethodPost, "/api/2.0/database/credentials", payload, &cred); err != nil {
		return nil, fmt.Errorf("generate database credential: %w", err)
	}
	if cred.Token == "" {
		return nil, errors.New("generate database credential: empty token")
	}
	return &cred, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.Host+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		_ = json.Unmarshal(respBody, apiErr)
		return apiErr
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
