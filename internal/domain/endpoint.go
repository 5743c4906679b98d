package domain

import (
	"errors"
	"net"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidURL is returned when a user supplied address cannot be resolved
// into connection coordinates.
var ErrInvalidURL = errors.New("invalid url")

var schemePrefix = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9+.-]*)://`)

// Endpoint holds the connection coordinates derived from a user supplied URL.
type Endpoint struct {
	Protocol string `json:"protocol"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	BasePath string `json:"basePath"`
}

// ParseEndpoint resolves a possibly scheme-less address into an Endpoint.
// Examples:
//   - "192.168.1.50:8989"        -> http, 192.168.1.50, 8989, ""
//   - "https://nas.lan/portainer" -> https, nas.lan, 443, "/portainer"
//
// It never panics; anything it cannot make sense of yields ErrInvalidURL.
func ParseEndpoint(input string) (Endpoint, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return Endpoint{}, ErrInvalidURL
	}

	if m := schemePrefix.FindStringSubmatch(raw); m != nil {
		scheme := strings.ToLower(m[1])
		if scheme != "http" && scheme != "https" {
			return Endpoint{}, ErrInvalidURL
		}
	} else {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Endpoint{}, ErrInvalidURL
	}

	protocol := strings.ToLower(u.Scheme)
	host := u.Hostname()
	if host == "" {
		return Endpoint{}, ErrInvalidURL
	}

	port := defaultPort(protocol)
	if p := u.Port(); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 || n > 65535 {
			return Endpoint{}, ErrInvalidURL
		}
		port = n
	}

	basePath := u.EscapedPath()
	if basePath == "/" {
		basePath = ""
	}

	return Endpoint{
		Protocol: protocol,
		Host:     host,
		Port:     port,
		BasePath: basePath,
	}, nil
}

// String formats the endpoint as {protocol}://{host}:{port}{basePath}.
func (e Endpoint) String() string {
	protocol := e.Protocol
	if protocol == "" {
		protocol = "http"
	}
	return protocol + "://" + net.JoinHostPort(e.Host, strconv.Itoa(e.Port)) + e.BasePath
}

// IsZero reports whether the endpoint carries no usable host.
func (e Endpoint) IsZero() bool {
	return e.Host == "" || e.Port <= 0
}

func defaultPort(protocol string) int {
	if protocol == "https" {
		return 443
	}
	return 80
}
