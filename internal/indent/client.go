package indent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Colors for terminal output
const (
	Red    = "\033[0;31m"
	Green  = "\033[0;32m"
	Yellow = "\033[1;33m"
	Blue   = "\033[0;34m"
	Cyan   = "\033[0;36m"
	Reset  = "\033[0m"
)

const (
	DefaultAPIURL        = "http://127.0.0.1:8000"
	DefaultBrand         = "Indent System"
	DefaultPOPlaceholder = "PO-2025-001"
	DefaultLogFile       = "indent-cli.log"
	configFileName       = ".indent-config"
)

// Config holds the CLI configuration
type Config struct {
	APIURL          string
	Brand           string        // Title shown in the TUI status bar
	HTTPTimeout     time.Duration // 0 leaves the transport default in place
	ShareMasters    bool          // One master-data fetch shared by both forms
	CoerceAllDigits bool          // All-digits header text is sent as a number too
	POPlaceholder   string        // purchaseorderno sent with every item row
	LogFile         string
	Path            string // Config file that was loaded, empty when none was found
}

// Client handles API requests
type Client struct {
	Config     *Config
	HTTPClient *http.Client
}

// APIError is returned for any non-2xx response.
type APIError struct {
	Method string
	Path   string
	Status int
	Body   []byte
	Detail interface{} // Decoded JSON body, nil when the body is not JSON
}

func (e *APIError) Error() string {
	detail := strings.TrimSpace(string(e.Body))
	if e.Detail != nil {
		if b, err := json.Marshal(e.Detail); err == nil {
			detail = string(b)
		}
	}
	if detail == "" {
		return fmt.Sprintf("%s %s: HTTP %d", e.Method, e.Path, e.Status)
	}
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.Path, e.Status, detail)
}

// LoadConfig reads .indent-config and applies environment overrides.
// A missing file is fine, every key has a default.
func LoadConfig() (*Config, error) {
	configPaths := []string{
		configFileName,
		filepath.Join("..", configFileName),
		filepath.Join(filepath.Dir(os.Args[0]), configFileName),
		filepath.Join(filepath.Dir(os.Args[0]), "..", configFileName),
	}
	return loadConfig(configPaths, os.LookupEnv)
}

func loadConfig(paths []string, lookupEnv func(string) (string, bool)) (*Config, error) {
	values := map[string]string{}
	config := &Config{}

	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		fileValues, err := godotenv.Read(p)
		if err != nil {
			return nil, fmt.Errorf("cannot read config %s: %w", p, err)
		}
		values = fileValues
		config.Path = p
		break
	}

	keys := []string{
		"INDENT_API_URL", "INDENT_BRAND", "INDENT_HTTP_TIMEOUT",
		"INDENT_SHARE_MASTERS", "INDENT_PO_PLACEHOLDER", "INDENT_LOG_FILE",
		"INDENT_COERCE_ALL_DIGITS",
	}
	for _, key := range keys {
		if v, ok := lookupEnv(key); ok {
			values[key] = v
		}
	}

	config.APIURL = strings.TrimSuffix(valueOr(values, "INDENT_API_URL", DefaultAPIURL), "/")
	config.Brand = valueOr(values, "INDENT_BRAND", DefaultBrand)
	config.POPlaceholder = valueOr(values, "INDENT_PO_PLACEHOLDER", DefaultPOPlaceholder)
	config.LogFile = valueOr(values, "INDENT_LOG_FILE", DefaultLogFile)

	if v := values["INDENT_HTTP_TIMEOUT"]; v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid INDENT_HTTP_TIMEOUT %q: %w", v, err)
		}
		config.HTTPTimeout = d
	}

	if v := values["INDENT_SHARE_MASTERS"]; v != "" {
		share, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid INDENT_SHARE_MASTERS %q: %w", v, err)
		}
		config.ShareMasters = share
	}

	if v := values["INDENT_COERCE_ALL_DIGITS"]; v != "" {
		coerce, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid INDENT_COERCE_ALL_DIGITS %q: %w", v, err)
		}
		config.CoerceAllDigits = coerce
	}

	if !strings.HasPrefix(config.APIURL, "http://") && !strings.HasPrefix(config.APIURL, "https://") {
		return nil, fmt.Errorf("INDENT_API_URL must start with http:// or https://, got %q", config.APIURL)
	}

	return config, nil
}

func valueOr(values map[string]string, key, fallback string) string {
	if v := strings.TrimSpace(values[key]); v != "" {
		return v
	}
	return fallback
}

// NewClient creates a new API client
func NewClient(config *Config) *Client {
	return &Client{
		Config: config,
		HTTPClient: &http.Client{
			Timeout: config.HTTPTimeout,
		},
	}
}

// Request makes an API request and returns the raw response body.
func (c *Client) Request(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	fullURL := c.Config.APIURL + path
	req, err := http.NewRequestWithContext(ctx, method, fullURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, context.Canceled
		}
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{
			Method: method,
			Path:   path,
			Status: resp.StatusCode,
			Body:   respBody,
		}
		var detail interface{}
		if json.Unmarshal(respBody, &detail) == nil {
			apiErr.Detail = detail
		}
		return nil, apiErr
	}

	return respBody, nil
}

// IsCanceled reports whether err comes from a deliberately cancelled request.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}
