package app

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/homedash/internal/auth"
	"github.com/MrSnakeDoc/homedash/internal/cache"
	"github.com/MrSnakeDoc/homedash/internal/catalog"
	"github.com/MrSnakeDoc/homedash/internal/config"
	"github.com/MrSnakeDoc/homedash/internal/httpserver"
	"github.com/MrSnakeDoc/homedash/internal/httpserver/deps"
	"github.com/MrSnakeDoc/homedash/internal/integrations"
	"github.com/MrSnakeDoc/homedash/internal/logger"
	"github.com/MrSnakeDoc/homedash/internal/probe"
	"github.com/MrSnakeDoc/homedash/internal/redis"
	"github.com/MrSnakeDoc/homedash/internal/scheduler"
	"github.com/MrSnakeDoc/homedash/internal/sources/homepage"
	"github.com/MrSnakeDoc/homedash/internal/store/configfile"
	redisstore "github.com/MrSnakeDoc/homedash/internal/store/redis"
	"github.com/MrSnakeDoc/homedash/internal/sysstats"
	"github.com/MrSnakeDoc/homedash/internal/version"
)

// EnvFile is read at startup when present. Variables already set win.
const EnvFile = ".env"

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	catalog     *catalog.Catalog
	sampler     *scheduler.StatsSampler // nil when sampling is off
	redisClient *goredis.Client
}

func New() (*App, error) {
	if err := config.LoadEnvFile(EnvFile); err != nil {
		return nil, err
	}
	cfg := config.Load()

	loggerClient, err := logger.New(cfg.LogLevel, cfg.PrettyLog)
	if err != nil {
		return nil, err
	}

	store := configfile.New(cfg.ConfigFile, loggerClient.Named("configfile"))
	cat := catalog.New(store)

	client := integrations.NewClient(integrations.ClientOptions{
		Timeout:         cfg.IntegrationTimeout,
		SkipTLSVerify:   cfg.IntegrationSkipTLSVerify,
		BreakerFailures: cfg.BreakerFailures,
		BreakerCooldown: cfg.BreakerCooldown,
	}, loggerClient.Named("integrations"))

	// Title cache: Redis when configured, in-process otherwise.
	var (
		titles       integrations.TitleCache
		titleBackend string
		redisClient  *goredis.Client
	)
	if cfg.RedisEnabled() {
		loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
		rc, err := redis.Connect(context.Background(), redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			DB:             cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
		}, loggerClient.Named("redis"))
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		loggerClient.Info("Redis initialized successfully")
		redisClient = rc
		titles = redisstore.NewStore(rc, cfg.TitleCacheTTL, loggerClient.Named("redis"))
		titleBackend = "redis"
	} else {
		mem := cache.NewTitles(cfg.TitleCacheTTL)
		titles = mem
		titleBackend = mem.Backend()
	}

	svc, err := newAuth(cfg, loggerClient.Named("auth"))
	if err != nil {
		return nil, err
	}

	stats := sysstats.NewCollector(sysstats.HostSource{}, nil)
	var sampler *scheduler.StatsSampler
	if cfg.StatsSampleInterval > 0 {
		sampler = scheduler.NewStatsSampler(stats, loggerClient.Named("sampler"), cfg.StatsSampleInterval)
	}

	d := deps.Deps{
		Logger:    loggerClient,
		StartTime: time.Now(),
		Build:     version.Get(),
		TimeNow:   time.Now,

		AllowedCIDRS: cfg.AllowedCIDRS,
		TrustProxy:   cfg.TrustProxy,
		StaticDir:    cfg.StaticDir,

		ConfigPath: store.Path(),
		Catalog:    cat,
		Prober: probe.New(probe.Options{
			Timeout:        cfg.ProbeTimeout,
			OfflineStatus:  cfg.ProbeOfflineStatus,
			MaxConcurrency: cfg.ProbeMaxConcurrency,
			SkipTLSVerify:  cfg.ProbeSkipTLSVerify,
		}, loggerClient.Named("probe")),
		MediaServer:  integrations.NewMediaServer(client),
		Torrent:      integrations.NewTorrentClient(client),
		Requests:     integrations.NewRequestManager(client, titles, loggerClient.Named("integrations")),
		Stats:        stats,
		Auth:         svc,
		TitleBackend: titleBackend,
		RedisClient:  redisClient,
	}

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      httpserver.New(cfg, loggerClient, d),
		catalog:     cat,
		sampler:     sampler,
		redisClient: redisClient,
	}, nil
}

// newAuth returns nil when the API is left open.
func newAuth(cfg *config.Config, log logger.Logger) (*auth.Service, error) {
	if !cfg.AuthEnabled {
		log.Warn("authentication disabled, the API is open to anyone who can reach it")
		return nil, nil
	}

	secret := []byte(cfg.JWTSecret)
	if len(secret) == 0 {
		log.Warn("HOMEDASH_JWT_SECRET not set, using a random secret: sessions end on restart")
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("generate jwt secret: %w", err)
		}
	}

	svc, err := auth.New(cfg.UserFile, secret, cfg.TokenTTL, log)
	if err != nil {
		return nil, fmt.Errorf("init auth: %w", err)
	}
	return svc, nil
}

// seedFromHomepage imports a Homepage services.yaml into an empty catalog.
func (a *App) seedFromHomepage(ctx context.Context) {
	path := a.cfg.HomepageFile
	if path == "" || len(a.catalog.ListTiles(ctx)) > 0 {
		return
	}

	services, err := homepage.LoadFile(path)
	if err != nil {
		a.logger.Warn("homepage seed skipped", logger.String("file", path), logger.Error(err))
		return
	}
	inputs, err := homepage.NewMapper().MapTiles(services)
	if err != nil {
		if errors.Is(err, homepage.ErrNoServices) {
			a.logger.Info("homepage seed file has no usable services", logger.String("file", path))
			return
		}
		a.logger.Warn("homepage seed skipped", logger.String("file", path), logger.Error(err))
		return
	}

	res, err := a.catalog.ImportTiles(ctx, inputs)
	if err != nil {
		a.logger.Error("homepage seed failed", logger.Error(err))
		return
	}
	a.logger.Info("catalog seeded from homepage",
		logger.String("file", path),
		logger.Int("added", len(res.Added)),
		logger.Int("skipped", res.Skipped))
}

func (a *App) Run() error {
	defer func() { _ = a.logger.Sync() }()

	build := version.Get()
	a.logger.Infof("🚀 Starting homedash %s on %s", build.Version, a.cfg.ListenPort)
	a.logger.Info("build info",
		logger.String("commit", build.Commit),
		logger.String("built", build.BuildDate),
		logger.String("go", build.GoVersion),
		logger.Bool("modified", build.Modified))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.seedFromHomepage(ctx)

	if a.sampler != nil {
		a.sampler.Start(ctx)
		a.logger.Info("host stats sampler started",
			logger.Duration("interval", a.cfg.StatsSampleInterval))
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	if a.sampler != nil {
		a.sampler.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	a.logger.Info("✅ homedash stopped cleanly")
	return nil
}
