package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/homedash/internal/domain"
)

// TileInput is the payload for tile creation.
type TileInput struct {
	ID          string
	Name        string
	URL         string
	Description string
	IconName    string
	Color       string
}

// TilePatch is a partial tile update, nil fields are left untouched.
type TilePatch struct {
	Name        *string
	URL         *string
	Description *string
	IconName    *string
	Color       *string
}

// NewTileID returns a fresh tile identifier.
func NewTileID() string {
	return "svc-" + uuid.NewString()
}

// ListTiles returns every tile in display order.
func (c *Catalog) ListTiles(ctx context.Context) []domain.Tile {
	return c.store.Load(ctx).Tiles
}

// CreateTile validates in, resolves its URL and appends it to the catalog.
func (c *Catalog) CreateTile(ctx context.Context, in TileInput) (domain.Tile, error) {
	tile, err := c.buildTile(in)
	if err != nil {
		return domain.Tile{}, err
	}

	_, err = c.store.Update(ctx, func(cfg *domain.AppConfig) error {
		if tile.ID == "" {
			tile.ID = c.uniqueID(*cfg)
		} else if cfg.FindTile(tile.ID) >= 0 {
			return validationError("tile id %q already exists", tile.ID)
		}
		cfg.Tiles = append(cfg.Tiles, tile)
		return nil
	})
	if err != nil {
		return domain.Tile{}, err
	}
	return tile, nil
}

// UpdateTile applies patch to the tile with id. The URL is re-resolved when
// the patch carries one.
func (c *Catalog) UpdateTile(ctx context.Context, id string, patch TilePatch) (domain.Tile, error) {
	var updated domain.Tile

	_, err := c.store.Update(ctx, func(cfg *domain.AppConfig) error {
		idx := cfg.FindTile(id)
		if idx < 0 {
			return tileNotFound(id)
		}
		tile := cfg.Tiles[idx]

		if patch.Name != nil {
			name := strings.TrimSpace(*patch.Name)
			if name == "" {
				return validationError("name is required")
			}
			tile.Name = name
		}
		if patch.URL != nil {
			raw := strings.TrimSpace(*patch.URL)
			if raw == "" {
				return validationError("url is required")
			}
			ep, err := domain.ParseEndpoint(raw)
			if err != nil {
				return validationError("invalid url %q", raw)
			}
			tile.URL = raw
			tile.ApplyEndpoint(ep)
		}
		if patch.Description != nil {
			tile.Description = *patch.Description
		}
		if patch.IconName != nil {
			tile.IconName = *patch.IconName
		}
		if patch.Color != nil {
			tile.Color = *patch.Color
		}
		tile.ApplyCosmeticDefaults()

		cfg.Tiles[idx] = tile
		updated = tile
		return nil
	})
	if err != nil {
		return domain.Tile{}, err
	}
	return updated, nil
}

// DeleteTile removes the tile with id.
func (c *Catalog) DeleteTile(ctx context.Context, id string) error {
	_, err := c.store.Update(ctx, func(cfg *domain.AppConfig) error {
		idx := cfg.FindTile(id)
		if idx < 0 {
			return tileNotFound(id)
		}
		cfg.Tiles = append(cfg.Tiles[:idx], cfg.Tiles[idx+1:]...)
		return nil
	})
	return err
}

// ReorderTiles puts the tiles named by ids first, in that order. Unknown and
// repeated ids are ignored; tiles that were not mentioned keep their relative
// order and follow at the end.
func (c *Catalog) ReorderTiles(ctx context.Context, ids []string) ([]domain.Tile, error) {
	cfg, err := c.store.Update(ctx, func(cfg *domain.AppConfig) error {
		cfg.Tiles = reorder(cfg.Tiles, ids)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cfg.Tiles, nil
}

func reorder(tiles []domain.Tile, ids []string) []domain.Tile {
	byID := make(map[string]int, len(tiles))
	for i, t := range tiles {
		byID[t.ID] = i
	}

	out := make([]domain.Tile, 0, len(tiles))
	placed := make([]bool, len(tiles))
	for _, id := range ids {
		idx, ok := byID[id]
		if !ok || placed[idx] {
			continue
		}
		placed[idx] = true
		out = append(out, tiles[idx])
	}
	for i, t := range tiles {
		if !placed[i] {
			out = append(out, t)
		}
	}
	return out
}

// ImportResult summarizes a bulk import.
type ImportResult struct {
	Added   []domain.Tile `json:"added"`
	Skipped int           `json:"skipped"`
}

// ImportTiles appends every input whose URL is valid and not already present
// in the catalog. Duplicates are detected on the resolved address.
func (c *Catalog) ImportTiles(ctx context.Context, inputs []TileInput) (ImportResult, error) {
	res := ImportResult{Added: []domain.Tile{}}

	_, err := c.store.Update(ctx, func(cfg *domain.AppConfig) error {
		seen := make(map[string]struct{}, len(cfg.Tiles)+len(inputs))
		for _, t := range cfg.Tiles {
			if key := addressKey(t); key != "" {
				seen[key] = struct{}{}
			}
		}

		for _, in := range inputs {
			in.ID = ""
			tile, err := c.buildTile(in)
			if err != nil {
				res.Skipped++
				continue
			}
			key := addressKey(tile)
			if _, dup := seen[key]; dup {
				res.Skipped++
				continue
			}
			seen[key] = struct{}{}
			tile.ID = c.uniqueID(*cfg)
			cfg.Tiles = append(cfg.Tiles, tile)
			res.Added = append(res.Added, tile)
		}
		return nil
	})
	if err != nil {
		return ImportResult{}, err
	}
	return res, nil
}

func (c *Catalog) buildTile(in TileInput) (domain.Tile, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.Tile{}, validationError("name is required")
	}
	raw := strings.TrimSpace(in.URL)
	if raw == "" {
		return domain.Tile{}, validationError("url is required")
	}
	ep, err := domain.ParseEndpoint(raw)
	if err != nil {
		return domain.Tile{}, validationError("invalid url %q", raw)
	}

	tile := domain.Tile{
		ID:          strings.TrimSpace(in.ID),
		Name:        name,
		URL:         raw,
		Description: in.Description,
		IconName:    in.IconName,
		Color:       in.Color,
	}
	tile.ApplyEndpoint(ep)
	tile.ApplyCosmeticDefaults()
	return tile, nil
}

func (c *Catalog) uniqueID(cfg domain.AppConfig) string {
	for {
		id := c.newID()
		if cfg.FindTile(id) < 0 {
			return id
		}
	}
}

func addressKey(t domain.Tile) string {
	ep, ok := t.Endpoint()
	if !ok {
		parsed, err := domain.ParseEndpoint(t.URL)
		if err != nil {
			return ""
		}
		ep = parsed
	}
	return strings.ToLower(ep.String())
}
