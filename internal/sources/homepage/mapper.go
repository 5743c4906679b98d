package homepage

import (
	"errors"
	"net/url"
	"strings"

	"github.com/MrSnakeDoc/homedash/internal/catalog"
)

// ErrNoServices is returned when a document holds no importable entry.
var ErrNoServices = errors.New("no valid services found in homepage config")

// Mapper converts Homepage services to tile inputs
type Mapper struct{}

// NewMapper creates a new mapper instance
func NewMapper() *Mapper {
	return &Mapper{}
}

// MapTiles converts every service with an href into a tile input, in
// document order. Entries without a usable host are skipped. Homepage icon
// names do not match the dashboard icon set, so tiles keep the default icon.
func (m *Mapper) MapTiles(config ServicesConfig) ([]catalog.TileInput, error) {
	var tiles []catalog.TileInput

	for _, group := range config {
		for _, svc := range group.Services {
			href := strings.TrimSpace(svc.Href)
			if href == "" {
				continue
			}

			hostname := hostnameOf(href)
			if hostname == "" {
				continue
			}

			name := strings.TrimSpace(svc.Name)
			if name == "" {
				name = extractServiceName(hostname)
			}

			tiles = append(tiles, catalog.TileInput{
				Name:        name,
				URL:         href,
				Description: strings.TrimSpace(svc.Description),
			})
		}
	}

	if len(tiles) == 0 {
		return nil, ErrNoServices
	}
	return tiles, nil
}

func hostnameOf(href string) string {
	raw := href
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// extractServiceName extracts the first DNS label as service name
// Example: "jellyfin.domain.ext" -> "jellyfin"
func extractServiceName(hostname string) string {
	name, _, _ := strings.Cut(hostname, ".")
	return name
}
