package databricks

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(t.Context(), srv.URL, "dapi-test", "", "")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestNewClient_RequiresCredentials(t *testing.T) {
	if _, err := NewClient(t.Context(), "example.cloud.databricks.com", "", "", ""); err == nil {
		t.Fatal("expected error without token or client credentials")
	}
	if _, err := NewClient(t.Context(), "", "tok", "", ""); err == nil {
		t.Fatal("expected error without host")
	}
}

func TestNewClient_AddsScheme(t *testing.T) {
	c, err := NewClient(t.Context(), "example.cloud.databricks.com/", "tok", "", "")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if c.Host != "https://example.cloud.databricks.com" {
		t.Fatalf("got host %q", c.Host)
	}
}

func TestCurrentUser(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/2.0/preview/scim/v2/Me" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer dapi-test" {
			t.Errorf("unexpected auth header %q", got)
		}
		_, _ = w.Write([]byte(`{"id":"42","userName":"analyst@example.com"}`))
	})

	user, err := c.CurrentUser(t.Context())
	if err != nil {
		t.Fatalf("CurrentUser: %v", err)
	}
	if user.UserName != "analyst@example.com" || user.ID != "42" {
		t.Fatalf("unexpected user %+v", user)
	}
}

func TestGenerateDatabaseCredential_FreshRequestID(t *testing.T) {
	seen := map[string]bool{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/2.0/database/credentials" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body struct {
			RequestID     string   `json:"request_id"`
			InstanceNames []string `json:"instance_names"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if len(body.InstanceNames) != 1 || body.InstanceNames[0] != "lakebase-1" {
			t.Errorf("unexpected instances %v", body.InstanceNames)
		}
		if body.RequestID == "" || seen[body.RequestID] {
			t.Errorf("request id %q empty or reused", body.RequestID)
		}
		seen[body.RequestID] = true
		_, _ = w.Write([]byte(`{"token":"pg-token","expiration_time":"2030-01-01T00:00:00Z"}`))
	})

	for range 2 {
		cred, err := c.GenerateDatabaseCredential(t.Context(), "lakebase-1")
		if err != nil {
			t.Fatalf("GenerateDatabaseCredential: %v", err)
		}
		if cred.Token != "pg-token" {
			t.Fatalf("got token %q", cred.Token)
		}
	}
	if len(seen) != 2 {
		t.Fatalf("expected 2 distinct request ids, got %d", len(seen))
	}
}

func TestGenerateDatabaseCredential_APIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error_code":"PERMISSION_DENIED","message":"no access"}`))
	})

	_, err := c.GenerateDatabaseCredential(t.Context(), "lakebase-1")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusForbidden || apiErr.ErrorCode != "PERMISSION_DENIED" {
		t.Fatalf("unexpected api error %+v", apiErr)
	}
}
