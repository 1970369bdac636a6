package transport

import (
	"errors"
	"net/url"
	"strings"
)

// Goje HTTP endpoints.
const (
	PathTimer    = "/api/timer"
	PathStream   = "/api/timer/stream"
	PathPrevMode = "/api/timer/prevmode"
	PathNextMode = "/api/timer/nextmode"
	PathPause    = "/api/timer/pause"
	PathReset    = "/api/timer/reset"
)

// ErrEmptyAddress is returned for a blank server address.
var ErrEmptyAddress = errors.New("empty server address")

// NormalizeAddress turns a user supplied server address into a base URL.
// ":7800" becomes "http://localhost:7800" and an address without a scheme
// gets "http://"; assumed reports the latter case so callers can warn.
// Trailing slashes are removed.
func NormalizeAddress(address string) (base string, assumed bool, err error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return "", false, ErrEmptyAddress
	}

	switch {
	case strings.HasPrefix(address, "http://"), strings.HasPrefix(address, "https://"):
	case strings.HasPrefix(address, ":"):
		address = "http://localhost" + address
	default:
		address = "http://" + address
		assumed = true
	}

	u, err := url.Parse(address)
	if err != nil {
		return "", false, err
	}
	if u.Host == "" {
		return "", false, ErrEmptyAddress
	}
	return strings.TrimRight(u.String(), "/"), assumed, nil
}

// Endpoint joins a normalised base URL and one of the Path constants.
func Endpoint(base, path string) string {
	return strings.TrimRight(base, "/") + path
}
