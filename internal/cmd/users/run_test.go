package users

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lulugyf/sshserv/internal/adminapi"
	"github.com/lulugyf/sshserv/internal/validate"
)

func never(string) bool { return false }

// TestUser_FullSendsEveryNumber checks that add-user always sends numerics.
func TestUser_FullSendsEveryNumber(t *testing.T) {
	o := Options{Username: "u1", MaxSessions: 2}
	b, err := json.Marshal(o.User(false, never))
	require.NoError(t, err)
	require.JSONEq(t, `{"id":0,"username":"u1","uid":0,"gid":0,"max_sessions":2,"quota_size":0,
		"quota_files":0,"upload_bandwidth":0,"download_bandwidth":0}`, string(b))
}

// TestUser_SparseSendsChangedOnly checks update-user payloads.
func TestUser_SparseSendsChangedOnly(t *testing.T) {
	o := Options{Username: "u1", QuotaFiles: 0, HomeDir: "/home/u1", Permissions: []string{"list"}}
	changed := func(name string) bool { return name == "quota-files" }
	b, err := json.Marshal(o.User(true, changed))
	require.NoError(t, err)
	require.JSONEq(t, `{"id":0,"username":"u1","home_dir":"/home/u1","quota_files":0,"permissions":["list"]}`, string(b))
}

func TestTrimAll(t *testing.T) {
	require.Equal(t, []string{"a", "b"}, trimAll([]string{" a", "", "b ", "  "}))
	require.Empty(t, trimAll(nil))
}

// TestOptions_Validation covers the flag constraints.
func TestOptions_Validation(t *testing.T) {
	require.NoError(t, validate.Struct(Options{Username: "u1", Permissions: []string{"*", "create_symlinks"}}))

	err := validate.Struct(Options{Username: "u1", UID: -1})
	require.ErrorContains(t, err, "--uid")

	err = validate.Struct(Options{Username: "u1", HomeDir: "rel"})
	require.ErrorContains(t, err, "absolute")

	err = validate.Struct(Options{Username: "u1", Permissions: []string{"fly"}})
	require.Error(t, err)

	err = validate.Struct(Options{Username: "u1", PublicKeys: []string{"junk"}})
	require.ErrorContains(t, err, "public key")

	require.Error(t, validate.Struct(Options{}))
}

func TestListOptions_Validation(t *testing.T) {
	ok := ListOptions{Limit: 100, Order: "ASC"}
	require.NoError(t, validate.Struct(ok))

	for _, bad := range []ListOptions{
		{Limit: 0, Order: "ASC"},
		{Limit: 501, Order: "ASC"},
		{Limit: 10, Offset: -1, Order: "ASC"},
		{Limit: 10, Order: "asc"},
	} {
		require.Error(t, validate.Struct(bad), "%+v", bad)
	}
}

// TestOverlay_KeepsServerFields replaces only what the patch sets.
func TestOverlay_KeepsServerFields(t *testing.T) {
	base := adminapi.User{
		ID:          9,
		Username:    "carol",
		HomeDir:     adminapi.Some("/srv/carol"),
		UID:         adminapi.Some(1000),
		Permissions: adminapi.Some([]string{"list"}),
	}
	o := Options{Username: "carol", Password: "pw", MaxSessions: 0}
	patch := o.User(true, func(name string) bool { return name == "max-sessions" })

	got := overlay(base, patch)
	require.Equal(t, int64(9), got.ID)
	require.Equal(t, "pw", got.Password.Value())
	require.Equal(t, "/srv/carol", got.HomeDir.Value())
	require.Equal(t, 1000, got.UID.Value())
	require.True(t, got.MaxSessions.IsSet())
	require.Equal(t, []string{"list"}, got.Permissions.Value())
	require.False(t, got.GID.IsSet())
}
