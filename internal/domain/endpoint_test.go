package domain

import (
	"errors"
	"testing"
)

func TestParseEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Endpoint
		wantErr  bool
	}{
		{
			name:     "ip and port without scheme",
			input:    "192.168.1.50:8989",
			expected: Endpoint{Protocol: "http", Host: "192.168.1.50", Port: 8989, BasePath: ""},
		},
		{
			name:     "https defaults to 443",
			input:    "https://nas.lan",
			expected: Endpoint{Protocol: "https", Host: "nas.lan", Port: 443, BasePath: ""},
		},
		{
			name:     "http defaults to 80",
			input:    "http://nas.lan/",
			expected: Endpoint{Protocol: "http", Host: "nas.lan", Port: 80, BasePath: ""},
		},
		{
			name:     "base path kept verbatim",
			input:    "  https://nas.lan:9443/portainer/  ",
			expected: Endpoint{Protocol: "https", Host: "nas.lan", Port: 9443, BasePath: "/portainer/"},
		},
		{
			name:     "uppercase scheme",
			input:    "HTTPS://Media.lan:8920/web",
			expected: Endpoint{Protocol: "https", Host: "Media.lan", Port: 8920, BasePath: "/web"},
		},
		{
			name:     "query and fragment dropped",
			input:    "sonarr.lan:8989/app?x=1#top",
			expected: Endpoint{Protocol: "http", Host: "sonarr.lan", Port: 8989, BasePath: "/app"},
		},
		{
			name:     "ipv6 literal",
			input:    "http://[fd00::10]:8080",
			expected: Endpoint{Protocol: "http", Host: "fd00::10", Port: 8080, BasePath: ""},
		},
		{name: "empty", input: "", wantErr: true},
		{name: "whitespace only", input: "   ", wantErr: true},
		{name: "unsupported scheme", input: "ftp://files.lan", wantErr: true},
		{name: "missing host", input: "http://:8080", wantErr: true},
		{name: "port out of range", input: "nas.lan:70000", wantErr: true},
		{name: "port zero", input: "nas.lan:0", wantErr: true},
		{name: "space in host", input: "my nas:8080", wantErr: true},
		{name: "control characters", input: "nas\x7f.lan", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEndpoint(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidURL) {
					t.Fatalf("ParseEndpoint(%q) error = %v, want ErrInvalidURL", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseEndpoint(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.expected {
				t.Errorf("ParseEndpoint(%q) = %+v, want %+v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParseEndpointNeverPanics(t *testing.T) {
	inputs := []string{
		"://", "http://", "http://[::1", "%", "http://%zz", ":::::", "[]", "http://a b",
		"\x00", "https://host:-1", "host:port", "//host", "http:/host",
	}
	for _, in := range inputs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("ParseEndpoint(%q) panicked: %v", in, r)
				}
			}()
			_, _ = ParseEndpoint(in)
		}()
	}
}

func TestEndpointString(t *testing.T) {
	tests := []struct {
		name     string
		endpoint Endpoint
		expected string
	}{
		{
			name:     "full",
			endpoint: Endpoint{Protocol: "https", Host: "nas.lan", Port: 443, BasePath: "/app"},
			expected: "https://nas.lan:443/app",
		},
		{
			name:     "protocol defaults to http",
			endpoint: Endpoint{Host: "10.0.0.2", Port: 8080},
			expected: "http://10.0.0.2:8080",
		},
		{
			name:     "ipv6 bracketed",
			endpoint: Endpoint{Protocol: "http", Host: "fd00::10", Port: 8080},
			expected: "http://[fd00::10]:8080",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.endpoint.String(); got != tt.expected {
				t.Errorf("String() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestEndpointRoundTrip(t *testing.T) {
	inputs := []string{
		"192.168.1.50:8989",
		"https://nas.lan",
		"http://nas.lan/",
		"https://nas.lan:9443/portainer/",
		"jellyfin.lan/web/index.html",
		"http://[fd00::10]:8080/x",
		"http://host/a%20b",
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			first, err := ParseEndpoint(in)
			if err != nil {
				t.Fatalf("ParseEndpoint(%q) unexpected error: %v", in, err)
			}
			second, err := ParseEndpoint(first.String())
			if err != nil {
				t.Fatalf("ParseEndpoint(%q) unexpected error: %v", first.String(), err)
			}
			if first != second {
				t.Errorf("round trip changed endpoint: %+v -> %+v", first, second)
			}
		})
	}
}
