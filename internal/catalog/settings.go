package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/MrSnakeDoc/homedash/internal/domain"
)

// SettingsView is the read model of an integration's settings. Secrets are
// reduced to presence flags, only the flag relevant to the integration is set.
type SettingsView struct {
	Key       domain.IntegrationKey `json:"key"`
	Enabled   bool                  `json:"enabled"`
	Name      string                `json:"name"`
	ServerURL string                `json:"serverUrl"`
	Host      string                `json:"host"`
	Port      int                   `json:"port"`
	Protocol  string                `json:"protocol"`
	BasePath  string                `json:"basePath"`

	HasToken       *bool `json:"hasToken,omitempty"`
	HasCredentials *bool `json:"hasCredentials,omitempty"`
	HasAPIKey      *bool `json:"hasApiKey,omitempty"`
}

// SettingsPatch is a partial settings update, nil fields keep their value.
// ServerURL, when non-empty, is resolved and overrides the coordinates.
type SettingsPatch struct {
	Enabled   *bool
	Name      *string
	ServerURL *string
	Host      *string
	Port      *int
	Protocol  *string
	BasePath  *string

	Token    *string
	Username *string
	Password *string
	APIKey   *string
}

// Settings returns the redacted settings of key.
func (c *Catalog) Settings(ctx context.Context, key domain.IntegrationKey) (SettingsView, error) {
	if !isKnown(key) {
		return SettingsView{}, fmt.Errorf("%w: %s", ErrUnknownIntegration, key)
	}
	cfg := c.store.Load(ctx)
	return NewSettingsView(key, cfg.Integrations.Get(key)), nil
}

// IntegrationConfig returns the full settings of key, secrets included.
// For adapters only, never serialize the result to a client.
func (c *Catalog) IntegrationConfig(ctx context.Context, key domain.IntegrationKey) (domain.IntegrationConfig, error) {
	if !isKnown(key) {
		return domain.IntegrationConfig{}, fmt.Errorf("%w: %s", ErrUnknownIntegration, key)
	}
	return c.store.Load(ctx).Integrations.Get(key), nil
}

// UpdateSettings merges patch into the stored settings of key.
func (c *Catalog) UpdateSettings(ctx context.Context, key domain.IntegrationKey, patch SettingsPatch) (SettingsView, error) {
	if !isKnown(key) {
		return SettingsView{}, fmt.Errorf("%w: %s", ErrUnknownIntegration, key)
	}

	cfg, err := c.store.Update(ctx, func(cfg *domain.AppConfig) error {
		current := cfg.Integrations.Get(key)
		merged, err := applySettingsPatch(key, current, patch)
		if err != nil {
			return err
		}
		cfg.Integrations.Set(key, merged)
		return nil
	})
	if err != nil {
		return SettingsView{}, err
	}
	return NewSettingsView(key, cfg.Integrations.Get(key)), nil
}

func applySettingsPatch(key domain.IntegrationKey, cfg domain.IntegrationConfig, p SettingsPatch) (domain.IntegrationConfig, error) {
	if p.Enabled != nil {
		cfg.Enabled = *p.Enabled
	}
	if p.Name != nil {
		cfg.Name = strings.TrimSpace(*p.Name)
	}
	if p.Host != nil {
		cfg.Host = strings.TrimSpace(*p.Host)
	}
	if p.Port != nil {
		if *p.Port < 0 || *p.Port > 65535 {
			return cfg, validationError("port %d out of range", *p.Port)
		}
		cfg.Port = *p.Port
	}
	if p.Protocol != nil {
		proto := strings.ToLower(strings.TrimSpace(*p.Protocol))
		if proto != "" && proto != "http" && proto != "https" {
			return cfg, validationError("unsupported protocol %q", *p.Protocol)
		}
		cfg.Protocol = proto
	}
	if p.BasePath != nil {
		cfg.BasePath = normalizeBasePath(*p.BasePath)
	}
	if p.ServerURL == nil && (p.Host != nil || p.Port != nil || p.Protocol != nil || p.BasePath != nil) {
		// a stored serverUrl would no longer match the coordinates
		cfg.ServerURL = ""
	}
	if p.ServerURL != nil {
		raw := strings.TrimSpace(*p.ServerURL)
		if raw != "" {
			ep, err := domain.ParseEndpoint(raw)
			if err != nil {
				return cfg, validationError("invalid serverUrl %q", raw)
			}
			cfg.ApplyEndpoint(ep)
		}
		cfg.ServerURL = raw
	}

	switch key {
	case domain.MediaServer:
		if p.Token != nil {
			cfg.Token = strings.TrimSpace(*p.Token)
		}
	case domain.TorrentClient:
		if p.Username != nil {
			cfg.Username = strings.TrimSpace(*p.Username)
		}
		if p.Password != nil {
			cfg.Password = *p.Password
		}
	case domain.RequestManager:
		if p.APIKey != nil {
			cfg.APIKey = strings.TrimSpace(*p.APIKey)
		}
	}
	return cfg, nil
}

// NewSettingsView redacts cfg for display. An empty serverUrl is derived
// from the coordinates when they are complete.
func NewSettingsView(key domain.IntegrationKey, cfg domain.IntegrationConfig) SettingsView {
	view := SettingsView{
		Key:       key,
		Enabled:   cfg.Enabled,
		Name:      cfg.Name,
		ServerURL: cfg.ServerURL,
		Host:      cfg.Host,
		Port:      cfg.Port,
		Protocol:  cfg.Protocol,
		BasePath:  cfg.BasePath,
	}
	if view.ServerURL == "" {
		if ep, ok := cfg.Endpoint(); ok {
			view.ServerURL = ep.String()
		}
	}

	switch key {
	case domain.MediaServer:
		has := cfg.Token != ""
		view.HasToken = &has
	case domain.TorrentClient:
		has := cfg.Username != "" && cfg.Password != ""
		view.HasCredentials = &has
	case domain.RequestManager:
		has := cfg.APIKey != ""
		view.HasAPIKey = &has
	}
	return view
}

func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" || p == "/" {
		return ""
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

func isKnown(key domain.IntegrationKey) bool {
	for _, k := range domain.IntegrationKeys {
		if k == key {
			return true
		}
	}
	return false
}
