package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NeverVane/keepsake/internal/config"
)

func testConfig(serverURL string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Remote.URL = serverURL
	cfg.Remote.Timeout = 5
	cfg.Remote.MaxRetries = 2
	cfg.Remote.RetryBackoffMS = 10
	return cfg
}

func TestClient_CheckUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/check-user", r.URL.Path)

		var req CheckUserRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		json.NewEncoder(w).Encode(CheckUserResponse{Exists: req.Email == "taken@example.com"})
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), "test")

	exists, err := client.CheckUser(context.Background(), "taken@example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = client.CheckUser(context.Background(), "fresh@example.com")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestClient_CheckUser_RetriesTransportFailures(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			// Drop the connection without answering so the client sees
			// a transport failure rather than an HTTP status.
			hj, ok := w.(http.Hijacker)
			require.True(t, ok)
			conn, _, err := hj.Hijack()
			require.NoError(t, err)
			conn.Close()
			return
		}
		json.NewEncoder(w).Encode(CheckUserResponse{Exists: false})
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), "test")

	exists, err := client.CheckUser(context.Background(), "user@example.com")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClient_CheckUser_ServerErrorIsFinal(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), "test")

	_, err := client.CheckUser(context.Background(), "user@example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "an HTTP status must not be retried")
}

func TestClient_Register(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/register", r.URL.Path)
		assert.Contains(t, r.Header.Get("User-Agent"), "Keepsake/")

		var req RegisterRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "user@example.com", req.Email)
		assert.Len(t, req.Password, PasswordLength)
		assert.NotEmpty(t, req.DeviceID)
		assert.NotEmpty(t, req.Platform)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), "test")

	password, err := GeneratePassword()
	require.NoError(t, err)

	err = client.Register(context.Background(), RegisterRequest{
		Email:    "user@example.com",
		Password: password,
		DeviceID: "8a39cbd4-0000-0000-0000-000000000000",
		Hostname: "workbench",
		Platform: "linux",
	})
	require.NoError(t, err)
}

func TestClient_Register_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), "test")

	err := client.Register(context.Background(), RegisterRequest{Email: "user@example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 409")
}

func TestGeneratePassword(t *testing.T) {
	first, err := GeneratePassword()
	require.NoError(t, err)
	assert.Len(t, first, PasswordLength)

	for _, r := range first {
		assert.Contains(t, passwordAlphabet, string(r))
	}

	second, err := GeneratePassword()
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestCredentials_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", ".credentials")
	creds := &Credentials{
		Email:    "user@example.com",
		Password: strings.Repeat("x", PasswordLength),
		DeviceID: "8a39cbd4-0000-0000-0000-000000000000",
	}

	require.NoError(t, SaveCredentials(path, creds))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := LoadCredentials(path)
	require.NoError(t, err)
	assert.Equal(t, creds, loaded)
}
