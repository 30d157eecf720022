package transport

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrBadEndpoint is returned for endpoints that are not ws, wss, http or
// https URLs.
var ErrBadEndpoint = errors.New("transport: bad endpoint")

// SocketPath is appended to the endpoint base when dialing.
const SocketPath = "/ws"

// NormalizeEndpoint rewrites http and https bases to ws and wss and strips
// trailing slashes. The result is the base, without SocketPath.
func NormalizeEndpoint(endpoint string) (string, error) {
	u, err := parseEndpoint(endpoint)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// SocketURL returns the URL dialed for endpoint.
func SocketURL(endpoint string) (string, error) {
	u, err := parseEndpoint(endpoint)
	if err != nil {
		return "", err
	}
	u.Path += SocketPath
	return u.String(), nil
}

func parseEndpoint(endpoint string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(endpoint))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadEndpoint, err)
	}
	switch strings.ToLower(u.Scheme) {
	case "ws", "http":
		u.Scheme = "ws"
	case "wss", "https":
		u.Scheme = "wss"
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrBadEndpoint, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing host", ErrBadEndpoint)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""
	return u, nil
}
