package configfile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/goccy/go-json"

	"github.com/MrSnakeDoc/homedash/internal/domain"
	"github.com/MrSnakeDoc/homedash/internal/logger"
	"github.com/MrSnakeDoc/homedash/internal/metrics"
	"github.com/MrSnakeDoc/homedash/internal/utils"
)

// DefaultFileName is the document name used when none is configured.
const DefaultFileName = "containers.config.json"

// ErrPersistence wraps every failure to write the document.
var ErrPersistence = errors.New("persist config")

// Store keeps the whole application configuration in one JSON document.
//
// Reads are served from an in-memory copy refreshed on every write, writers
// are serialized and replace the file atomically (temp file + rename).
type Store struct {
	path   string
	logger logger.Logger

	writeMu sync.Mutex // serializes read-modify-write cycles

	mu     sync.RWMutex // guards cached
	cached *domain.AppConfig
}

func New(path string, log logger.Logger) *Store {
	return &Store{
		path:   path,
		logger: log,
	}
}

// Path returns the location of the backing document.
func (s *Store) Path() string { return s.path }

// Load returns the current configuration. A missing or unreadable document
// yields defaults, it never fails.
func (s *Store) Load(ctx context.Context) domain.AppConfig {
	s.mu.RLock()
	if s.cached != nil {
		cfg := s.cached.Clone()
		s.mu.RUnlock()
		return cfg
	}
	s.mu.RUnlock()

	cfg := s.readDisk()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cached == nil {
		s.cached = &cfg
	}
	return s.cached.Clone()
}

// Save normalizes cfg onto defaults and persists it. The normalized document
// is returned.
func (s *Store) Save(ctx context.Context, cfg domain.AppConfig) (domain.AppConfig, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.save(cfg)
}

// Update runs fn on the current configuration and persists the result.
// Concurrent callers are applied one after the other. When fn returns an
// error nothing is written and that error is returned unchanged.
func (s *Store) Update(ctx context.Context, fn func(cfg *domain.AppConfig) error) (domain.AppConfig, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := ctx.Err(); err != nil {
		return domain.AppConfig{}, err
	}

	cfg := s.Load(ctx)
	if err := fn(&cfg); err != nil {
		return domain.AppConfig{}, err
	}
	return s.save(cfg)
}

// Invalidate drops the in-memory copy so the next Load reads the disk.
func (s *Store) Invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()
}

func (s *Store) save(cfg domain.AppConfig) (domain.AppConfig, error) {
	normalized := cfg.Normalize()

	err := writeAtomic(s.path, normalized)
	metrics.RecordConfigWrite(err)
	if err != nil {
		s.logger.Error("failed to persist config",
			logger.String("path", s.path),
			logger.Error(err))
		return domain.AppConfig{}, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	cached := normalized.Clone()
	s.mu.Lock()
	s.cached = &cached
	s.mu.Unlock()

	s.logger.Debug("config persisted",
		logger.String("path", s.path),
		logger.Int("tiles", len(normalized.Tiles)))

	return normalized.Clone(), nil
}

func (s *Store) readDisk() domain.AppConfig {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("config file unreadable, using defaults",
				logger.String("path", s.path),
				logger.Error(err))
		}
		return domain.DefaultAppConfig()
	}

	cfg, err := decodeDocument(data)
	if err != nil {
		s.logger.Warn("config file corrupt, using defaults",
			logger.String("path", s.path),
			logger.Error(err))
		return domain.DefaultAppConfig()
	}
	return cfg
}

func writeAtomic(path string, cfg domain.AppConfig) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return utils.WriteFileAtomic(path, data, 0o644)
}
