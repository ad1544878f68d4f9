// Package adminapi is a client for the sshserv administration REST API.
// Every call performs exactly one HTTP exchange and hands back the raw
// response so callers can print it or decode it.
package adminapi

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lulugyf/sshserv/internal/logging"
)

// API paths.
const (
	UserPath        = "/api/v1/user"
	QuotaScanPath   = "/api/v1/quota_scan"
	ConnectionsPath = "/api/v1/connection"
	VersionPath     = "/api/v1/version"
)

// RequestIDHeader carries a per-request correlation id.
const RequestIDHeader = "X-Request-ID"

const userAgent = "sshservctl"

// findLimit caps the page FindUser scans for an exact match.
const findLimit = 50

// Client issues requests against a single server.
type Client struct {
	baseURL *url.URL
	hc      *http.Client
	auth    Credentials
	logger  *slog.Logger
}

// ClientOptions configure NewClient.
// Timeout zero means requests never time out.
type ClientOptions struct {
	BaseURL   string
	Insecure  bool
	Timeout   time.Duration
	Auth      Credentials
	Logger    *slog.Logger
	Transport http.RoundTripper
}

// NewClient validates the base URL and builds the HTTP stack.
func NewClient(opt ClientOptions) (*Client, error) {
	if strings.TrimSpace(opt.BaseURL) == "" {
		return nil, errors.New("base url is required")
	}
	raw := strings.TrimSpace(opt.BaseURL)
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if u.Host == "" {
		return nil, errors.New("invalid base url: missing host")
	}
	if opt.Auth.Type != AuthNone && opt.Auth.User == "" {
		return nil, fmt.Errorf("%s auth requires a user", opt.Auth.Type)
	}

	rt := opt.Transport
	if rt == nil {
		t := http.DefaultTransport.(*http.Transport).Clone()
		if strings.EqualFold(u.Scheme, "https") {
			t.TLSClientConfig = &tls.Config{InsecureSkipVerify: opt.Insecure} //nolint:gosec
		}
		rt = t
	}

	lg := opt.Logger
	if lg == nil {
		lg = logging.Discard()
	}

	hc := &http.Client{Transport: opt.Auth.wrapTransport(rt), Timeout: opt.Timeout}
	return &Client{baseURL: u, hc: hc, auth: opt.Auth, logger: lg}, nil
}

// BaseURL returns scheme and host of the configured server.
func (c *Client) BaseURL() string {
	return c.baseURL.Scheme + "://" + c.baseURL.Host
}

// GetUsers lists users. Zero-valued params are left to server defaults.
func (c *Client) GetUsers(ctx context.Context, p ListUsersParams) (*Exchange, error) {
	q := url.Values{}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	q.Set("offset", strconv.Itoa(p.Offset))
	if p.Order != "" {
		q.Set("order", p.Order)
	}
	if p.Username != "" {
		q.Set("username", p.Username)
	}
	return c.do(ctx, http.MethodGet, UserPath, q, nil)
}

// GetUserByID fetches one user.
func (c *Client) GetUserByID(ctx context.Context, id int64) (*Exchange, error) {
	return c.do(ctx, http.MethodGet, userIDPath(id), nil, nil)
}

// ErrUserNotFound is returned by FindUser when no user has the name.
var ErrUserNotFound = errors.New("user not found")

// FindUser looks a user up by exact username through the list endpoint.
// The lookup exchange is returned with the error so callers can print a
// rejected query like any other response.
func (c *Client) FindUser(ctx context.Context, username string) (User, *Exchange, error) {
	if username == "" {
		return User{}, nil, errors.New("username is required")
	}
	ex, err := c.GetUsers(ctx, ListUsersParams{Limit: findLimit, Order: "ASC", Username: username})
	users, err := Decode[[]User](ex, err)
	if err != nil {
		return User{}, ex, err
	}
	for _, u := range users {
		if u.Username == username {
			return u, ex, nil
		}
	}
	return User{}, ex, fmt.Errorf("%w: %s", ErrUserNotFound, username)
}

// AddUser creates u. The server assigns the id.
func (c *Client) AddUser(ctx context.Context, u User) (*Exchange, error) {
	u.ID = 0
	return c.do(ctx, http.MethodPost, UserPath, nil, u)
}

// UpdateUser sends u as the new state of user id.
func (c *Client) UpdateUser(ctx context.Context, id int64, u User) (*Exchange, error) {
	u.ID = id
	return c.do(ctx, http.MethodPut, userIDPath(id), nil, u)
}

// DeleteUser removes user id.
func (c *Client) DeleteUser(ctx context.Context, id int64) (*Exchange, error) {
	return c.do(ctx, http.MethodDelete, userIDPath(id), nil, nil)
}

// GetConnections lists active sessions.
func (c *Client) GetConnections(ctx context.Context) (*Exchange, error) {
	return c.do(ctx, http.MethodGet, ConnectionsPath, nil, nil)
}

// CloseConnection forcibly terminates a session.
func (c *Client) CloseConnection(ctx context.Context, connectionID string) (*Exchange, error) {
	if err := CheckConnectionID(connectionID); err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodDelete, ConnectionsPath+"/connection/"+connectionID, nil, nil)
}

// CheckConnectionID rejects ids that would not stay a single path segment.
func CheckConnectionID(id string) error {
	switch {
	case id == "":
		return errors.New("connection id is required")
	case id == "." || id == "..", strings.Contains(id, "/"):
		return fmt.Errorf("invalid connection id %q", id)
	}
	return nil
}

// GetQuotaScans lists running quota scans.
func (c *Client) GetQuotaScans(ctx context.Context) (*Exchange, error) {
	return c.do(ctx, http.MethodGet, QuotaScanPath, nil, nil)
}

// StartQuotaScan asks the server to rescan username's home directory.
func (c *Client) StartQuotaScan(ctx context.Context, username string) (*Exchange, error) {
	if username == "" {
		return nil, errors.New("username is required")
	}
	return c.do(ctx, http.MethodPost, QuotaScanPath, nil, QuotaScanRequest{Username: username})
}

// GetVersion returns the server build info.
func (c *Client) GetVersion(ctx context.Context) (*Exchange, error) {
	return c.do(ctx, http.MethodGet, VersionPath, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, body any) (*Exchange, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	var (
		payload []byte
		buf     io.Reader
	)
	if body != nil {
		b, err := jsonMarshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		payload = b
		buf = bytes.NewReader(b)
	}

	ref := &url.URL{Path: path}
	if len(q) > 0 {
		ref.RawQuery = q.Encode()
	}
	u := c.baseURL.ResolveReference(ref)

	req, err := http.NewRequestWithContext(ctx, method, u.String(), buf)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("content-type", "application/json")
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("user-agent", userAgent)
	reqID := uuid.NewString()
	req.Header.Set(RequestIDHeader, reqID)
	c.auth.apply(req)

	ex := &Exchange{
		Method:      method,
		URL:         u.String(),
		RequestID:   reqID,
		RequestBody: payload,
	}

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		c.logger.Debug("api request failed", "method", method, "url", u.Redacted(), "request_id", reqID, "err", err)
		return nil, fmt.Errorf("%s %s: %w", method, u.Redacted(), err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	ex.StatusCode = resp.StatusCode
	ex.Status = resp.Status
	ex.Header = resp.Header.Clone()
	ex.Body = b
	ex.Duration = time.Since(start)

	c.logger.Debug("api request",
		"method", method,
		"path", u.Path,
		"status", resp.StatusCode,
		"bytes", len(b),
		"request_id", reqID,
		"duration_ms", ex.Duration.Milliseconds(),
	)
	return ex, nil
}

func userIDPath(id int64) string {
	return UserPath + "/user/" + strconv.FormatInt(id, 10)
}

// jsonMarshal encodes without HTML escaping and without the trailing newline.
func jsonMarshal(v any) ([]byte, error) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
