package indent

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envFrom(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), configFileName)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestLoadConfigDefaults(t *testing.T) {
	config, err := loadConfig([]string{filepath.Join(t.TempDir(), "missing")}, envFrom(nil))
	require.NoError(t, err)

	assert.Equal(t, DefaultAPIURL, config.APIURL)
	assert.Equal(t, DefaultBrand, config.Brand)
	assert.Equal(t, DefaultPOPlaceholder, config.POPlaceholder)
	assert.Equal(t, DefaultLogFile, config.LogFile)
	assert.Zero(t, config.HTTPTimeout)
	assert.False(t, config.ShareMasters)
	assert.False(t, config.CoerceAllDigits)
	assert.Empty(t, config.Path)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	p := writeConfig(t, `INDENT_API_URL=http://backend.local:9000/
INDENT_BRAND="Plant Indents"
INDENT_HTTP_TIMEOUT=15s
INDENT_SHARE_MASTERS=true
`)

	config, err := loadConfig([]string{p}, envFrom(map[string]string{
		"INDENT_BRAND":             "From Env",
		"INDENT_PO_PLACEHOLDER":    "PO-X",
		"INDENT_COERCE_ALL_DIGITS": "1",
	}))
	require.NoError(t, err)

	assert.Equal(t, "http://backend.local:9000", config.APIURL)
	assert.Equal(t, "From Env", config.Brand)
	assert.Equal(t, "PO-X", config.POPlaceholder)
	assert.Equal(t, 15*time.Second, config.HTTPTimeout)
	assert.True(t, config.ShareMasters)
	assert.True(t, config.CoerceAllDigits)
	assert.Equal(t, p, config.Path)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"timeout", map[string]string{"INDENT_HTTP_TIMEOUT": "soon"}},
		{"share", map[string]string{"INDENT_SHARE_MASTERS": "maybe"}},
		{"coerce", map[string]string{"INDENT_COERCE_ALL_DIGITS": "sometimes"}},
		{"url", map[string]string{"INDENT_API_URL": "127.0.0.1:8000"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadConfig(nil, envFrom(tt.env))
			assert.Error(t, err)
		})
	}
}

func TestRequestReturnsAPIError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail":"database down"}`))
	}))
	defer ts.Close()

	client := NewClient(&Config{APIURL: ts.URL})
	_, err := client.Request(context.Background(), "GET", "/api/anything/", nil)
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, map[string]interface{}{"detail": "database down"}, apiErr.Detail)
	assert.Contains(t, err.Error(), "HTTP 500")
	assert.Contains(t, err.Error(), "database down")
}

func TestRequestPlainTextError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer ts.Close()

	client := NewClient(&Config{APIURL: ts.URL})
	_, err := client.Request(context.Background(), "POST", "/x/", map[string]int{"a": 1})

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Nil(t, apiErr.Detail)
	assert.Equal(t, "POST /x/: HTTP 502: bad gateway", err.Error())
}

func TestRequestCanceled(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(&Config{APIURL: ts.URL})
	_, err := client.Request(ctx, "GET", "/", nil)
	assert.True(t, IsCanceled(err))
}
