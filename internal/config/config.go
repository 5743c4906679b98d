package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenPort      string        // ex: ":3232"
	ShutdownTimeout time.Duration // ex: 5s
	RequestTimeout  time.Duration // per-request budget enforced by the router

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	DataDir      string // directory holding the config document and the account file
	ConfigFile   string // full path of the config document
	UserFile     string // full path of the admin account file
	StaticDir    string // built frontend bundle, empty = no static serving
	HomepageFile string // optional services.yaml used to seed an empty catalog

	ProbeTimeout        time.Duration // per-tile HEAD timeout
	ProbeOfflineStatus  int           // status at or above which a tile is offline
	ProbeMaxConcurrency int           // 0 = unbounded
	ProbeSkipTLSVerify  bool          // accept self-signed certificates when probing

	IntegrationTimeout       time.Duration // per upstream call
	IntegrationSkipTLSVerify bool          // accept self-signed certificates on integrations
	BreakerFailures          int           // consecutive upstream failures that open a circuit, 0 disables
	BreakerCooldown          time.Duration // how long an open circuit rejects calls
	TitleCacheTTL            time.Duration // request title enrichment memo

	StatsSampleInterval time.Duration // background host sampling, 0 (default) = only on request

	// Redis (optional, shared title cache). Empty address = in-memory cache.
	RedisAddr           string
	RedisUser           string
	RedisPassword       string
	RedisDB             int
	RedisDT             time.Duration // dial timeout
	RedisRT             time.Duration // read timeout
	RedisWT             time.Duration // write timeout
	RedisMaxWait        time.Duration // max wait between retries
	RedisPingTimeout    time.Duration // timeout for each ping attempt
	RedisPoolSize       int
	RedisConnectTimeout time.Duration // total time to retry connecting
	RedisRetryInterval  time.Duration // initial wait between retries, grows exponentially

	AuthEnabled bool          // guard the API behind the admin session
	JWTSecret   string        // HS256 signing secret; empty = random per process
	TokenTTL    time.Duration // session lifetime

	AllowedCIDRS []string // restrict /metrics and /api/infra to these IPs/CIDRs
	TrustProxy   bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)
	CORSOrigins  []string // empty = same-origin only
	AllowedHosts []string // Host header allowlist, "*.lan" wildcards, empty = any
}

// LoadEnvFile loads a .env file into the process environment without
// overriding variables that are already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func Load() *Config {
	dataDir := getenv("HOMEDASH_DATA_DIR", getenv("CONFIG_DIR", "/app/data"))

	cfg := &Config{
		// Server settings
		ListenPort:      listenAddr(getenv("HOMEDASH_LISTEN_PORT", getenv("PORT", ":3232"))),
		ShutdownTimeout: mustDuration("HOMEDASH_SHUTDOWN_TIMEOUT", 5*time.Second),
		RequestTimeout:  mustDuration("HOMEDASH_REQUEST_TIMEOUT", 20*time.Second),

		// Logging
		LogLevel:  getenv("HOMEDASH_LOG_LEVEL", "info"),
		PrettyLog: mustBool("HOMEDASH_PRETTY_LOG", true),

		// Files
		DataDir:      dataDir,
		ConfigFile:   inDir(dataDir, getenv("HOMEDASH_CONFIG_FILE", "containers.config.json")),
		UserFile:     inDir(dataDir, getenv("HOMEDASH_USER_FILE", "user.json")),
		StaticDir:    getenv("HOMEDASH_STATIC_DIR", "./dist"),
		HomepageFile: getenv("HOMEDASH_HOMEPAGE_FILE", ""),

		// Probing
		ProbeTimeout:        mustDuration("HOMEDASH_PROBE_TIMEOUT", 3*time.Second),
		ProbeOfflineStatus:  statusThreshold(getenvInt("HOMEDASH_PROBE_OFFLINE_STATUS", 500)),
		ProbeMaxConcurrency: getenvInt("HOMEDASH_PROBE_MAX_CONCURRENCY", 0),
		ProbeSkipTLSVerify:  mustBool("HOMEDASH_PROBE_SKIP_TLS_VERIFY", false),

		// Integrations
		IntegrationTimeout:       mustDuration("HOMEDASH_INTEGRATION_TIMEOUT", 10*time.Second),
		IntegrationSkipTLSVerify: mustBool("HOMEDASH_INTEGRATION_SKIP_TLS_VERIFY", false),
		BreakerFailures:          getenvInt("HOMEDASH_INTEGRATION_BREAKER_FAILURES", 5),
		BreakerCooldown:          mustDuration("HOMEDASH_INTEGRATION_BREAKER_COOLDOWN", 30*time.Second),
		TitleCacheTTL:            mustDuration("HOMEDASH_TITLE_CACHE_TTL", 6*time.Hour),

		// Host stats
		StatsSampleInterval: mustDuration("HOMEDASH_STATS_SAMPLE_INTERVAL", 0),

		// Redis settings
		RedisAddr:           getenv("HOMEDASH_REDIS_ADDR", ""),
		RedisUser:           getenv("HOMEDASH_REDIS_USERNAME", ""),
		RedisPassword:       getenv("HOMEDASH_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("HOMEDASH_REDIS_DB", 0),
		RedisDT:             mustDuration("HOMEDASH_REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("HOMEDASH_REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("HOMEDASH_REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:        mustDuration("HOMEDASH_REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("HOMEDASH_REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:       getenvInt("HOMEDASH_REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("HOMEDASH_REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("HOMEDASH_REDIS_RETRY_INTERVAL", 2*time.Second),

		// Auth
		AuthEnabled: mustBool("HOMEDASH_AUTH_ENABLED", true),
		JWTSecret:   getenv("HOMEDASH_JWT_SECRET", getenv("JWT_SECRET", "")),
		TokenTTL:    mustDuration("HOMEDASH_TOKEN_TTL", 30*24*time.Hour),

		// Access restrictions
		AllowedCIDRS: parseAllowedIPs(getenv("HOMEDASH_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("HOMEDASH_TRUST_PROXY", false),
		CORSOrigins:  splitAndTrim(getenv("HOMEDASH_CORS_ORIGINS", "")),
		AllowedHosts: splitAndTrim(getenv("HOMEDASH_ALLOWED_HOSTS", "")),
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		if cfgCopy.RedisPassword != "" {
			cfgCopy.RedisPassword = "***REDACTED***"
		}
		if cfgCopy.JWTSecret != "" {
			cfgCopy.JWTSecret = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// RedisEnabled reports whether a shared title cache was configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}

// listenAddr accepts "3232" as well as ":3232" or "host:3232".
func listenAddr(v string) string {
	if v == "" || strings.Contains(v, ":") {
		return v
	}
	return ":" + v
}

// inDir resolves name against dir unless name is already absolute.
func inDir(dir, name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dir, name)
}

// statusThreshold keeps the probe threshold within the HTTP status range.
func statusThreshold(v int) int {
	if v < 100 || v > 599 {
		return 500
	}
	return v
}
