package domain

import "strings"

// IntegrationKey identifies one of the supported third-party systems.
type IntegrationKey string

const (
	MediaServer    IntegrationKey = "mediaServer"
	TorrentClient  IntegrationKey = "torrentClient"
	RequestManager IntegrationKey = "requestManager"
)

// IntegrationKeys lists every supported integration in display order.
var IntegrationKeys = []IntegrationKey{MediaServer, TorrentClient, RequestManager}

var integrationAliases = map[string]IntegrationKey{
	"mediaserver":     MediaServer,
	"media-server":    MediaServer,
	"plex":            MediaServer,
	"torrentclient":   TorrentClient,
	"torrent":         TorrentClient,
	"qbittorrent":     TorrentClient,
	"requestmanager":  RequestManager,
	"request-manager": RequestManager,
	"overseerr":       RequestManager,
}

// ParseIntegrationKey accepts canonical keys as well as the product names
// used by older documents and routes ("plex", "qbittorrent", "overseerr").
func ParseIntegrationKey(s string) (IntegrationKey, bool) {
	key, ok := integrationAliases[strings.ToLower(strings.TrimSpace(s))]
	return key, ok
}

// LegacyName is the key older config documents stored this integration under.
func (k IntegrationKey) LegacyName() string {
	switch k {
	case MediaServer:
		return "plex"
	case TorrentClient:
		return "qbittorrent"
	case RequestManager:
		return "overseerr"
	default:
		return ""
	}
}

// IntegrationConfig holds connection settings for a single integration.
// Only the secret fields relevant to the integration are ever populated.
type IntegrationConfig struct {
	Enabled   bool   `json:"enabled"`
	Name      string `json:"name"`
	ServerURL string `json:"serverUrl"`
	Host      string `json:"host"`
	Port      int    `json:"port"`
	Protocol  string `json:"protocol"`
	BasePath  string `json:"basePath"`

	// media server
	Token string `json:"token,omitempty"`
	// torrent client
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	// request manager
	APIKey string `json:"apiKey,omitempty"`
}

// DefaultIntegration returns the disabled, empty settings for key.
func DefaultIntegration(key IntegrationKey) IntegrationConfig {
	cfg := IntegrationConfig{Protocol: "http"}
	switch key {
	case MediaServer:
		cfg.Name = "Plex"
		cfg.Port = 32400
	case TorrentClient:
		cfg.Name = "qBittorrent"
		cfg.Port = 8080
	case RequestManager:
		cfg.Name = "Overseerr"
		cfg.Port = 5055
	}
	return cfg
}

// Endpoint returns the configured coordinates, ok is false when host or port
// are missing.
func (c IntegrationConfig) Endpoint() (Endpoint, bool) {
	ep := Endpoint{
		Protocol: c.Protocol,
		Host:     c.Host,
		Port:     c.Port,
		BasePath: c.BasePath,
	}
	if ep.IsZero() {
		return Endpoint{}, false
	}
	return ep, true
}

// ApplyEndpoint copies resolved coordinates onto the settings.
func (c *IntegrationConfig) ApplyEndpoint(ep Endpoint) {
	c.Protocol = ep.Protocol
	c.Host = ep.Host
	c.Port = ep.Port
	c.BasePath = ep.BasePath
}

// Integrations groups the settings of every supported integration.
type Integrations struct {
	MediaServer    IntegrationConfig `json:"mediaServer"`
	TorrentClient  IntegrationConfig `json:"torrentClient"`
	RequestManager IntegrationConfig `json:"requestManager"`
}

// DefaultIntegrations returns defaults for all integrations.
func DefaultIntegrations() Integrations {
	return Integrations{
		MediaServer:    DefaultIntegration(MediaServer),
		TorrentClient:  DefaultIntegration(TorrentClient),
		RequestManager: DefaultIntegration(RequestManager),
	}
}

// Get returns the settings stored under key.
func (i Integrations) Get(key IntegrationKey) IntegrationConfig {
	switch key {
	case MediaServer:
		return i.MediaServer
	case TorrentClient:
		return i.TorrentClient
	case RequestManager:
		return i.RequestManager
	default:
		return IntegrationConfig{}
	}
}

// Set replaces the settings stored under key. Unknown keys are ignored.
func (i *Integrations) Set(key IntegrationKey, cfg IntegrationConfig) {
	switch key {
	case MediaServer:
		i.MediaServer = cfg
	case TorrentClient:
		i.TorrentClient = cfg
	case RequestManager:
		i.RequestManager = cfg
	}
}
