package adminapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type captured struct {
	method string
	path   string
	query  string
	body   string
	header http.Header
}

// newTestServer records the last request and answers with status/body.
func newTestServer(t *testing.T, status int, contentType, body string) (*httptest.Server, *captured) {
	t.Helper()
	c := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		c.method = r.Method
		c.path = r.URL.Path
		c.query = r.URL.RawQuery
		c.body = string(b)
		c.header = r.Header.Clone()
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, c
}

func newTestClient(t *testing.T, baseURL string, auth Credentials) *Client {
	t.Helper()
	c, err := NewClient(ClientOptions{BaseURL: baseURL, Auth: auth})
	require.NoError(t, err)
	return c
}

func TestNewClient_RequiresHost(t *testing.T) {
	_, err := NewClient(ClientOptions{})
	require.Error(t, err)

	_, err = NewClient(ClientOptions{BaseURL: "http://"})
	require.Error(t, err)

	c, err := NewClient(ClientOptions{BaseURL: "127.0.0.1:8080"})
	require.NoError(t, err)
	require.Equal(t, "http://127.0.0.1:8080", c.BaseURL())
}

func TestNewClient_AuthNeedsUser(t *testing.T) {
	_, err := NewClient(ClientOptions{BaseURL: "http://x", Auth: Credentials{Type: AuthBasic}})
	require.Error(t, err)
}

func TestAddUser_Body(t *testing.T) {
	srv, got := newTestServer(t, http.StatusOK, "application/json", `{"id":1,"username":"alice"}`)
	c := newTestClient(t, srv.URL, Credentials{})

	u := User{
		Username:          "alice",
		Password:          NonEmpty("secret"),
		PublicKeys:        NonEmptyList(nil),
		HomeDir:           NonEmpty("/home/alice"),
		UID:               Some(0),
		GID:               Some(0),
		MaxSessions:       Some(0),
		QuotaSize:         Some(int64(0)),
		QuotaFiles:        Some(0),
		Permissions:       NonEmptyList(nil),
		UploadBandwidth:   Some(int64(0)),
		DownloadBandwidth: Some(int64(0)),
	}
	ex, err := c.AddUser(context.Background(), u)
	require.NoError(t, err)
	require.True(t, ex.OK())

	require.Equal(t, http.MethodPost, got.method)
	require.Equal(t, "/api/v1/user", got.path)
	require.Equal(t, "application/json", got.header.Get("Content-Type"))
	require.NotEmpty(t, got.header.Get(RequestIDHeader))
	want := `{"id":0,"username":"alice","password":"secret","home_dir":"/home/alice","uid":0,"gid":0,"max_sessions":0,"quota_size":0,"quota_files":0,"upload_bandwidth":0,"download_bandwidth":0}`
	require.Equal(t, want, got.body)
	require.Equal(t, want, string(ex.RequestBody))
}

func TestGetUserByID_Path(t *testing.T) {
	srv, got := newTestServer(t, http.StatusOK, "application/json", `{"id":42}`)
	c := newTestClient(t, srv.URL, Credentials{})

	ex, err := c.GetUserByID(context.Background(), 42)
	require.NoError(t, err)
	require.Equal(t, http.MethodGet, got.method)
	require.Equal(t, "/api/v1/user/user/42", got.path)
	require.Empty(t, got.body)
	require.Nil(t, ex.RequestBody)
}

func TestDeleteUser_Path(t *testing.T) {
	srv, got := newTestServer(t, http.StatusNotFound, "text/plain", "not found")
	c := newTestClient(t, srv.URL, Credentials{})

	ex, err := c.DeleteUser(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, http.MethodDelete, got.method)
	require.Equal(t, "/api/v1/user/user/7", got.path)
	require.Equal(t, http.StatusNotFound, ex.StatusCode)
	require.Equal(t, "not found", string(ex.Body))
	require.False(t, ex.IsJSON())
}

func TestGetUsers_Query(t *testing.T) {
	srv, got := newTestServer(t, http.StatusOK, "application/json", `[]`)
	c := newTestClient(t, srv.URL, Credentials{})

	_, err := c.GetUsers(context.Background(), ListUsersParams{Limit: 10, Offset: 5, Order: "DESC", Username: "bob"})
	require.NoError(t, err)
	require.Equal(t, "/api/v1/user", got.path)
	require.Equal(t, "limit=10&offset=5&order=DESC&username=bob", got.query)

	_, err = c.GetUsers(context.Background(), ListUsersParams{Limit: 100, Order: "ASC"})
	require.NoError(t, err)
	require.Equal(t, "limit=100&offset=0&order=ASC", got.query)
}

func TestUpdateUser_SetsID(t *testing.T) {
	srv, got := newTestServer(t, http.StatusOK, "application/json", `{}`)
	c := newTestClient(t, srv.URL, Credentials{})

	_, err := c.UpdateUser(context.Background(), 3, User{Username: "carol", QuotaFiles: Some(10)})
	require.NoError(t, err)
	require.Equal(t, http.MethodPut, got.method)
	require.Equal(t, "/api/v1/user/user/3", got.path)
	require.JSONEq(t, `{"id":3,"username":"carol","quota_files":10}`, got.body)
}

func TestConnectionsAndQuotaScans(t *testing.T) {
	srv, got := newTestServer(t, http.StatusOK, "application/json", `[]`)
	c := newTestClient(t, srv.URL, Credentials{})
	ctx := context.Background()

	_, err := c.GetConnections(ctx)
	require.NoError(t, err)
	require.Equal(t, "/api/v1/connection", got.path)

	_, err = c.CloseConnection(ctx, "abc 1")
	require.NoError(t, err)
	require.Equal(t, http.MethodDelete, got.method)
	require.Equal(t, "/api/v1/connection/connection/abc 1", got.path)

	_, err = c.CloseConnection(ctx, "")
	require.Error(t, err)

	_, err = c.GetQuotaScans(ctx)
	require.NoError(t, err)
	require.Equal(t, "/api/v1/quota_scan", got.path)

	_, err = c.StartQuotaScan(ctx, "dave")
	require.NoError(t, err)
	require.Equal(t, http.MethodPost, got.method)
	require.Equal(t, `{"username":"dave"}`, got.body)

	_, err = c.GetVersion(ctx)
	require.NoError(t, err)
	require.Equal(t, "/api/v1/version", got.path)
}

func TestBasicAuth(t *testing.T) {
	srv, got := newTestServer(t, http.StatusOK, "application/json", `{}`)
	c := newTestClient(t, srv.URL, Credentials{Type: AuthBasic, User: "admin", Password: "pw"})

	_, err := c.GetVersion(context.Background())
	require.NoError(t, err)
	r := &http.Request{Header: got.header}
	user, pass, ok := r.BasicAuth()
	require.True(t, ok)
	require.Equal(t, "admin", user)
	require.Equal(t, "pw", pass)
}

func TestDigestAuth(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.Header.Get("Authorization") == "" {
			w.Header().Set("WWW-Authenticate", `Digest realm="sshserv", nonce="abc", qop="auth", algorithm=MD5`)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"version":"1.0"}`)
	}))
	t.Cleanup(srv.Close)

	c := newTestClient(t, srv.URL, Credentials{Type: AuthDigest, User: "admin", Password: "pw"})
	v, err := Decode[VersionInfo](c.GetVersion(context.Background()))
	require.NoError(t, err)
	require.Equal(t, "1.0", v.Version)
	require.Equal(t, 2, calls)
}

func TestDecode_StatusError(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusNotFound, "application/json", `{"error":"sql: no rows in result set","message":""}`)
	c := newTestClient(t, srv.URL, Credentials{})

	_, err := Decode[User](c.GetUserByID(context.Background(), 9))
	var se *StatusError
	require.True(t, errors.As(err, &se))
	require.Equal(t, http.StatusNotFound, se.StatusCode)
	require.Equal(t, "sql: no rows in result set", se.Message)
}

func TestDecode_Users(t *testing.T) {
	body := `[{"id":1,"username":"alice","home_dir":"/srv/alice","quota_size":100,"used_quota_size":40,"permissions":["*"]}]`
	srv, _ := newTestServer(t, http.StatusOK, "application/json; charset=utf-8", body)
	c := newTestClient(t, srv.URL, Credentials{})

	users, err := Decode[[]User](c.GetUsers(context.Background(), ListUsersParams{Limit: 1}))
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.Equal(t, int64(1), users[0].ID)
	require.Equal(t, "/srv/alice", users[0].HomeDir.Value())
	require.Equal(t, int64(40), users[0].UsedQuotaSize.Value())
	require.False(t, users[0].Password.IsSet())
	require.Equal(t, []string{"*"}, users[0].Permissions.Value())
}

func TestCheck_TransportError(t *testing.T) {
	c := newTestClient(t, "http://127.0.0.1:1", Credentials{})
	err := Check(c.GetVersion(context.Background()))
	require.Error(t, err)
	var se *StatusError
	require.False(t, errors.As(err, &se))
}

func TestUserRoundTrip_KeepsUnsetFieldsOut(t *testing.T) {
	var u User
	require.NoError(t, json.Unmarshal([]byte(`{"id":5,"username":"eve","uid":0}`), &u))
	require.True(t, u.UID.IsSet())
	require.False(t, u.GID.IsSet())
	b, err := json.Marshal(u)
	require.NoError(t, err)
	require.JSONEq(t, `{"id":5,"username":"eve","uid":0}`, string(b))
}

func TestIsJSONContentType(t *testing.T) {
	require.True(t, IsJSONContentType("application/json"))
	require.True(t, IsJSONContentType("application/json; charset=utf-8"))
	require.True(t, IsJSONContentType("application/problem+json"))
	require.False(t, IsJSONContentType("text/plain"))
	require.False(t, IsJSONContentType(""))
}

func TestParseAuthType(t *testing.T) {
	for in, want := range map[string]AuthType{"": AuthNone, "none": AuthNone, "Basic": AuthBasic, "digest": AuthDigest} {
		got, err := ParseAuthType(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}
	_, err := ParseAuthType("bearer")
	require.Error(t, err)
}

func TestCheckConnectionID(t *testing.T) {
	require.NoError(t, CheckConnectionID("abc 1"))
	for _, id := range []string{"", ".", "..", "a/b", "/"} {
		require.Error(t, CheckConnectionID(id), id)
	}

	srv, got := newTestServer(t, http.StatusOK, "application/json", `{}`)
	c := newTestClient(t, srv.URL, Credentials{})
	_, err := c.CloseConnection(context.Background(), "..")
	require.Error(t, err)
	require.Empty(t, got.method)
}

// TestFindUser_ExactMatch skips users whose names only share a prefix.
func TestFindUser_ExactMatch(t *testing.T) {
	srv, got := newTestServer(t, http.StatusOK, "application/json", `[{"id":1,"username":"bobby"},{"id":2,"username":"bob"}]`)
	c := newTestClient(t, srv.URL, Credentials{})

	u, ex, err := c.FindUser(context.Background(), "bob")
	require.NoError(t, err)
	require.NotNil(t, ex)
	require.Equal(t, int64(2), u.ID)
	require.Equal(t, "limit=50&offset=0&order=ASC&username=bob", got.query)

	_, _, err = c.FindUser(context.Background(), "rob")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestFindUser_StatusError(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusForbidden, "application/json", `{"error":"forbidden"}`)
	c := newTestClient(t, srv.URL, Credentials{})

	_, ex, err := c.FindUser(context.Background(), "bob")
	var se *StatusError
	require.ErrorAs(t, err, &se)
	require.Equal(t, http.StatusForbidden, ex.StatusCode)
}

func TestOptional_Get(t *testing.T) {
	v, ok := Some(3).Get()
	require.True(t, ok)
	require.Equal(t, 3, v)
	_, ok = NonEmpty("").Get()
	require.False(t, ok)
}
