package validate

import (
	"crypto/ed25519"
	"crypto/rand"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

type listOpts struct {
	Limit int    `flag:"--limit" validate:"min=1,max=500"`
	Order string `flag:"--order" validate:"oneof=ASC DESC"`
}

type userOpts struct {
	Username    string   `flag:"username" validate:"required,username"`
	HomeDir     string   `flag:"--home-dir" validate:"abspath"`
	PublicKeys  []string `flag:"--public-keys" validate:"dive,authorized_key"`
	Permissions []string `flag:"--permissions" validate:"dive,oneof=* list download"`
}

func testKey(t *testing.T) string {
	t.Helper()
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	pk, err := ssh.NewPublicKey(pub)
	require.NoError(t, err)
	return strings.TrimSpace(string(ssh.MarshalAuthorizedKey(pk)))
}

func TestStruct_Range(t *testing.T) {
	require.NoError(t, Struct(listOpts{Limit: 1, Order: "ASC"}))
	require.NoError(t, Struct(listOpts{Limit: 500, Order: "DESC"}))

	err := Struct(listOpts{Limit: 0, Order: "ASC"})
	require.EqualError(t, err, "--limit must be at least 1")

	err = Struct(listOpts{Limit: 501, Order: "asc"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "--limit must be at most 500")
	require.Contains(t, err.Error(), "--order must be one of [ASC DESC]")
}

func TestStruct_User(t *testing.T) {
	ok := userOpts{
		Username:    "alice",
		HomeDir:     "/home/alice",
		PublicKeys:  []string{testKey(t)},
		Permissions: []string{"list", "*"},
	}
	require.NoError(t, Struct(ok))

	bad := ok
	bad.Username = ""
	require.ErrorContains(t, Struct(bad), "username is required")

	bad = ok
	bad.HomeDir = "home/alice"
	require.ErrorContains(t, Struct(bad), "--home-dir must be an absolute path")

	bad = ok
	bad.PublicKeys = []string{"ssh-rsa nope"}
	require.ErrorContains(t, Struct(bad), "is not a valid public key")

	bad = ok
	bad.Permissions = []string{"chmod"}
	require.ErrorContains(t, Struct(bad), "must be one of")
}

func TestUsername(t *testing.T) {
	require.NoError(t, Username("alice.smith@example.com"))
	require.Error(t, Username(""))
	require.Error(t, Username("a b"))
	require.Error(t, Username("../x"))
}

func TestFingerprint(t *testing.T) {
	fp, err := Fingerprint(testKey(t))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(fp, "SHA256:"))

	_, err = Fingerprint("garbage")
	require.Error(t, err)
}

func TestMustRegister_PanicsOnBadTag(t *testing.T) {
	ok := func(validator.FieldLevel) bool { return true }
	require.Panics(t, func() { mustRegister(validator.New(), "", ok) })
	require.NotPanics(t, func() { mustRegister(validator.New(), "always", ok) })
}
