package deps

import (
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/homedash/internal/auth"
	"github.com/MrSnakeDoc/homedash/internal/catalog"
	"github.com/MrSnakeDoc/homedash/internal/integrations"
	"github.com/MrSnakeDoc/homedash/internal/logger"
	"github.com/MrSnakeDoc/homedash/internal/probe"
	"github.com/MrSnakeDoc/homedash/internal/sysstats"
	"github.com/MrSnakeDoc/homedash/internal/version"
)

type Deps struct {
	Logger    logger.Logger
	StartTime time.Time
	Build     version.Info
	TimeNow   func() time.Time // for testing, defaults to time.Now

	AllowedCIDRS []string // IPs allowed to reach /metrics and /api/infra
	TrustProxy   bool     // true if running behind a trusted reverse proxy (e.g., cloudflared)
	StaticDir    string   // built frontend, empty = API only

	ConfigPath   string           // config document location, reported by /api/infra
	Catalog      *catalog.Catalog // tiles and integration settings
	Prober       *probe.Prober
	MediaServer  *integrations.MediaServer
	Torrent      *integrations.TorrentClient
	Requests     *integrations.RequestManager
	Stats        *sysstats.Collector
	Auth         *auth.Service // nil = API left open
	TitleBackend string        // "memory" or "redis"
	RedisClient  *redis.Client // nil when no shared cache is configured
}

// Now returns the injected clock or time.Now.
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
