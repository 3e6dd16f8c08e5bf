// Package backend provides a typed client for the Brickify backend API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/brickify/web/internal/models"
)

// DefaultBaseURL is where the backend listens in development.
const DefaultBaseURL = "http://localhost:8000"

// ErrNoToken is returned when a login succeeds but carries no token.
var ErrNoToken = errors.New("login response carried no token")

// APIError is returned when the backend responds with a non-2xx status.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend %d: %s", e.Status, e.Message)
}

// Client is a typed client for the backend. One method per endpoint.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// Option configures the client.
type Option func(*Client)

// WithTimeout sets the HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.HTTPClient.Timeout = d }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.HTTPClient = hc }
}

// New creates a client for the backend at baseURL.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Analyze calls POST /api/analyze with the image as multipart field "image".
// token may be empty.
func (c *Client) Analyze(ctx context.Context, token string, file models.SelectedFile) (models.AnalysisResult, error) {
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename="%s"`, escapeQuotes(file.Name)))
	header.Set("Content-Type", file.ContentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("creating image part: %w", err)
	}
	if file.Content != nil {
		if _, err := io.Copy(part, file.Content); err != nil {
			return nil, fmt.Errorf("writing image part: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/analyze", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	setAuth(req, token)

	raw, err := c.send(req)
	if err != nil {
		return nil, err
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("analysis response is not JSON")
	}
	return models.AnalysisResult(raw), nil
}

// Login calls POST /api/auth/login and returns the bearer token.
func (c *Client) Login(ctx context.Context, creds models.Credentials) (string, error) {
	var out models.LoginResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", "", creds, &out); err != nil {
		return "", err
	}
	token := out.BearerToken()
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}

// Register calls POST /api/auth/register.
func (c *Client) Register(ctx context.Context, reg models.Registration) (*models.Account, error) {
	var out models.Account
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", "", reg, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health calls GET /health.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", "", nil, nil)
}

func (c *Client) do(ctx context.Context, method, path, token string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	setAuth(req, token)

	raw, err := c.send(req)
	if err != nil {
		return err
	}
	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decoding %s response: %w", path, err)
		}
	}
	return nil
}

func (c *Client) send(req *http.Request) ([]byte, error) {
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{Status: resp.StatusCode, Message: errorMessage(raw, resp.Status)}
	}
	return raw, nil
}

// errorMessage pulls a human message out of the common error envelopes
// ({"detail": ...}, {"message": ...}, {"error": ...}).
func errorMessage(raw []byte, fallback string) string {
	var env struct {
		Detail  interface{} `json:"detail"`
		Message string      `json:"message"`
		Error   string      `json:"error"`
	}
	if err := json.Unmarshal(raw, &env); err == nil {
		switch {
		case env.Message != "":
			return env.Message
		case env.Error != "":
			return env.Error
		case env.Detail != nil:
			if s, ok := env.Detail.(string); ok {
				return s
			}
		}
	}
	return fallback
}

func setAuth(req *http.Request, token string) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
