package configfile

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/MrSnakeDoc/homedash/internal/domain"
)

var errUnsupportedShape = errors.New("unsupported document shape")

// storedDocument is the on-disk shape. Older releases wrote the tile list
// under "containers" and keyed integrations by product name.
type storedDocument struct {
	Version      int                        `json:"version"`
	Tiles        json.RawMessage            `json:"tiles"`
	Containers   json.RawMessage            `json:"containers"`
	Integrations map[string]json.RawMessage `json:"integrations"`
}

// decodeDocument turns any known document shape into a normalized AppConfig:
//   - a bare JSON array is a tile list (first release)
//   - an object carries tiles (or containers) and integrations
//
// Integration objects are decoded on top of their defaults so missing fields
// keep their default value.
func decodeDocument(data []byte) (domain.AppConfig, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return domain.AppConfig{}, errors.New("empty document")
	}

	cfg := domain.DefaultAppConfig()

	switch trimmed[0] {
	case '[':
		var tiles []domain.Tile
		if err := json.Unmarshal(trimmed, &tiles); err != nil {
			return domain.AppConfig{}, fmt.Errorf("decode tile list: %w", err)
		}
		cfg.Tiles = tiles
		return cfg.Normalize(), nil

	case '{':
		var doc storedDocument
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return domain.AppConfig{}, fmt.Errorf("decode document: %w", err)
		}
		if doc.Version > 0 {
			cfg.Version = doc.Version
		}

		rawTiles := doc.Tiles
		if isAbsent(rawTiles) {
			rawTiles = doc.Containers
		}
		if !isAbsent(rawTiles) {
			var tiles []domain.Tile
			if err := json.Unmarshal(rawTiles, &tiles); err != nil {
				return domain.AppConfig{}, fmt.Errorf("decode tiles: %w", err)
			}
			cfg.Tiles = tiles
		}

		for _, key := range domain.IntegrationKeys {
			raw, ok := doc.Integrations[string(key)]
			if !ok {
				raw, ok = doc.Integrations[key.LegacyName()]
			}
			if !ok || isAbsent(raw) {
				continue
			}
			current := domain.DefaultIntegration(key)
			if err := json.Unmarshal(raw, &current); err != nil {
				return domain.AppConfig{}, fmt.Errorf("decode integration %s: %w", key, err)
			}
			cfg.Integrations.Set(key, current)
		}
		return cfg.Normalize(), nil

	default:
		return domain.AppConfig{}, errUnsupportedShape
	}
}

func isAbsent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
