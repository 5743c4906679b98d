package domain

// CurrentConfigVersion is written into every persisted document.
const CurrentConfigVersion = 1

// AppConfig is the root document persisted by the config store.
// It is the single source of truth for tiles and integration settings.
type AppConfig struct {
	Version      int          `json:"version"`
	Tiles        []Tile       `json:"tiles"`
	Integrations Integrations `json:"integrations"`
}

// DefaultAppConfig returns an empty catalog with every integration disabled.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		Version:      CurrentConfigVersion,
		Tiles:        []Tile{},
		Integrations: DefaultIntegrations(),
	}
}

// Normalize fills whatever the document left empty with defaults.
// Fields that carry a value are never overwritten.
func (c AppConfig) Normalize() AppConfig {
	out := c.Clone()
	if out.Version == 0 {
		out.Version = CurrentConfigVersion
	}
	if out.Tiles == nil {
		out.Tiles = []Tile{}
	}
	for _, key := range IntegrationKeys {
		out.Integrations.Set(key, normalizeIntegration(key, out.Integrations.Get(key)))
	}
	return out
}

// Clone returns a copy that shares no mutable state with c.
func (c AppConfig) Clone() AppConfig {
	out := c
	if c.Tiles != nil {
		out.Tiles = make([]Tile, len(c.Tiles))
		copy(out.Tiles, c.Tiles)
	}
	return out
}

// FindTile returns the index of the tile with id, or -1.
func (c AppConfig) FindTile(id string) int {
	for i := range c.Tiles {
		if c.Tiles[i].ID == id {
			return i
		}
	}
	return -1
}

func normalizeIntegration(key IntegrationKey, cfg IntegrationConfig) IntegrationConfig {
	def := DefaultIntegration(key)
	if cfg.Name == "" {
		cfg.Name = def.Name
	}
	if cfg.Port == 0 {
		cfg.Port = def.Port
	}
	if cfg.Protocol == "" {
		cfg.Protocol = def.Protocol
	}
	return cfg
}
