package adminapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/icholy/digest"
)

// AuthType selects the HTTP authentication scheme.
type AuthType string

const (
	AuthNone   AuthType = ""
	AuthBasic  AuthType = "basic"
	AuthDigest AuthType = "digest"
)

// ParseAuthType normalizes an auth type flag value.
// "none" and the empty string both disable authentication.
func ParseAuthType(s string) (AuthType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return AuthNone, nil
	case "basic":
		return AuthBasic, nil
	case "digest":
		return AuthDigest, nil
	default:
		return AuthNone, errors.New("invalid auth type: " + s)
	}
}

func (a AuthType) String() string {
	if a == AuthNone {
		return "none"
	}
	return string(a)
}

// Credentials hold the HTTP auth settings for the process lifetime.
type Credentials struct {
	Type     AuthType
	User     string
	Password string
}

// wrapTransport layers digest authentication over rt when requested.
// Basic auth is applied per request instead.
func (cr Credentials) wrapTransport(rt http.RoundTripper) http.RoundTripper {
	if cr.Type != AuthDigest {
		return rt
	}
	return &digest.Transport{
		Username:  cr.User,
		Password:  cr.Password,
		Transport: rt,
	}
}

func (cr Credentials) apply(req *http.Request) {
	if cr.Type == AuthBasic {
		req.SetBasicAuth(cr.User, cr.Password)
	}
}
